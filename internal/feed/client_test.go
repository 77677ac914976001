package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tarediiran-industries.com/transit-cancellations/internal/common"
)

func newTestServer(t *testing.T, routes map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchRootIndex(t *testing.T) {
	srv := newTestServer(t, map[string]string{
		"/index.json": `{"years":["2024","2025"]}`,
	})

	root, err := NewClient(srv.URL).FetchRootIndex(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"2024", "2025"}, root.Years)
}

func TestFetchYearIndex(t *testing.T) {
	srv := newTestServer(t, map[string]string{
		"/2025/index.json": `{"files":["S1-S11.json","S5.json","index.json"]}`,
	})

	index, err := NewClient(srv.URL + "/").FetchYearIndex(context.Background(), "2025")
	require.NoError(t, err)
	assert.Equal(t, []string{"S1-S11.json", "S5.json", "index.json"}, index.Files)
}

func TestFetchLineData(t *testing.T) {
	srv := newTestServer(t, map[string]string{
		"/2025/S5.json": `[
			{"date":"2025-03-01","line":"S5","trainNumber":"85012","fromStop":"Karlsruhe Hbf","toStop":"Pforzheim","fromTime":"07:12","toTime":"07:58","sourceUrl":"https://example.org/1"},
			{"date":"2025-03-02","line":"S5","trainNumber":"85014","fromStop":"Durlach","toStop":"Bretten","sourceUrl":"https://example.org/2"}
		]`,
	})

	records, err := NewClient(srv.URL).FetchLineData(context.Background(), "2025", "S5.json")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "85012", records[0].TrainNumber)
	assert.Equal(t, "07:12", records[0].FromTime)
	assert.Empty(t, records[1].FromTime)
	assert.Equal(t, "https://example.org/2", records[1].SourceUrl)
}

func TestFetchSendsAcceptHeader(t *testing.T) {
	var accept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accept = r.Header.Get("Accept")
		w.Write([]byte(`{"years":[]}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).FetchRootIndex(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "application/json", accept)
}

func TestFetchErrorCarriesStatus(t *testing.T) {
	srv := newTestServer(t, map[string]string{})

	_, err := NewClient(srv.URL).FetchYearIndex(context.Background(), "2019")
	require.Error(t, err)

	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, http.StatusNotFound, fetchErr.StatusCode)
	assert.Equal(t, "/2019/index.json", fetchErr.Path)
	assert.Equal(t, "failed to fetch /2019/index.json: 404", err.Error())
	assert.False(t, IsCancelled(err))
}

func TestFetchLineDataMalformed(t *testing.T) {
	srv := newTestServer(t, map[string]string{
		"/2025/S2.json": `{"error":"not generated yet"}`,
		"/2025/S3.json": `null`,
	})
	client := NewClient(srv.URL)

	cases := []struct {
		file string
		kind string
	}{
		{"S2.json", "object"},
		{"S3.json", "null"},
	}
	for _, tc := range cases {
		t.Run(tc.file, func(t *testing.T) {
			records, err := client.FetchLineData(context.Background(), "2025", tc.file)
			assert.Nil(t, records)
			require.True(t, IsMalformed(err))

			var malformed *MalformedResponseError
			require.ErrorAs(t, err, &malformed)
			assert.Equal(t, tc.kind, malformed.Kind)
		})
	}
}

func TestFetchInvalidJSONIsAnError(t *testing.T) {
	srv := newTestServer(t, map[string]string{
		"/2025/S4.json": `[{"date":`,
	})

	_, err := NewClient(srv.URL).FetchLineData(context.Background(), "2025", "S4.json")
	require.Error(t, err)
	assert.False(t, IsMalformed(err))
	assert.False(t, IsCancelled(err))
}

func TestFetchCancelled(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := NewClient(srv.URL).FetchRootIndex(ctx)
	require.Error(t, err)
	assert.True(t, IsCancelled(err))
	assert.ErrorIs(t, err, ErrCancelled)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFetchRecordsMetrics(t *testing.T) {
	srv := newTestServer(t, map[string]string{
		"/index.json": `{"years":["2025"]}`,
	})
	metrics := common.NewMetrics(prometheus.NewRegistry())
	client := NewClient(srv.URL, WithMetrics(metrics))

	_, err := client.FetchRootIndex(context.Background())
	require.NoError(t, err)
	_, err = client.FetchYearIndex(context.Background(), "1999")
	require.Error(t, err)

	assert.Equal(t, float64(len(`{"years":["2025"]}`)), testutil.ToFloat64(metrics.FetchBytesTotal.WithLabelValues(EndpointRoot)))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.FetchErrorsTotal.WithLabelValues(EndpointYear)))
}
