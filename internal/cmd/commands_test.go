package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"gopkg.in/yaml.v3"

	"tarediiran-industries.com/transit-cancellations/internal/common"
)

var dataSource = map[string]string{
	"/index.json":      `{"years":["2024","2025"]}`,
	"/2024/index.json": `{"files":["index.json"]}`,
	"/2025/index.json": `{"files":["index.json","S11.json","S1.json"]}`,
	"/2025/S1.json": `[
		{"date":"2025-01-02","line":"S1","trainNumber":"101","fromStop":"Karlsruhe Hbf","toStop":"Bad Herrenalb","fromTime":"07:10","toTime":"07:55","sourceUrl":"https://example.org/1"},
		{"date":"2025-01-03","line":"S1","trainNumber":"103","fromStop":"Bad Herrenalb","toStop":"Hochstetten","fromTime":"18:20","sourceUrl":"https://example.org/2"}
	]`,
	"/2025/S11.json": `[
		{"date":"2025-01-02","line":"S11","trainNumber":"1101","fromStop":"Ittersbach","toStop":"Hochstetten","fromTime":"21:30","sourceUrl":"https://example.org/3"},
		{"date":"2025-01-02","line":"S11","trainNumber":"1105","fromStop":"Ittersbach","toStop":"Karlsruhe Hbf","sourceUrl":"https://example.org/4"}
	]`,
}

func newDataSource(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		body, ok := dataSource[request.URL.Path]
		if !ok {
			http.NotFound(writer, request)
			return
		}
		writer.Header().Set("Content-Type", "application/json")
		io.WriteString(writer, body)
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestApp() *KvvCtlApp {
	return &KvvCtlApp{
		Now: func() time.Time { return time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC) },
	}
}

func runCtl(t *testing.T, app *KvvCtlApp, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := NewRootCmd(app)
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestYearsCommand(t *testing.T) {
	server := newDataSource(t)

	stdout, _, err := runCtl(t, newTestApp(), "years", "--base-url", server.URL)
	require.NoError(t, err)
	assert.Equal(t, "2024\n2025\n", stdout)

	stdout, _, err = runCtl(t, newTestApp(), "years", "--base-url", server.URL, "--format", "json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"ok","data":["2024","2025"]}`, stdout)
}

func TestLinesCommandDefaultsToLatestYear(t *testing.T) {
	server := newDataSource(t)

	stdout, _, err := runCtl(t, newTestApp(), "lines", "--base-url", server.URL, "--format", "json")
	require.NoError(t, err)

	var response struct {
		Data LinesOutput `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &response))
	assert.Equal(t, "2025", response.Data.Year)
	assert.Equal(t, []LineFileOutput{{File: "S1.json", Label: "S1"}, {File: "S11.json", Label: "S11"}}, response.Data.Lines)
}

func TestStatsGolden(t *testing.T) {
	server := newDataSource(t)

	stdout, _, err := runCtl(t, newTestApp(), "stats", "--base-url", server.URL, "--format", "json")
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "stats", []byte(stdout))
}

func TestStatsText(t *testing.T) {
	server := newDataSource(t)

	stdout, _, err := runCtl(t, newTestApp(), "stats", "--base-url", server.URL, "--tod", "night")
	require.NoError(t, err)
	assert.Contains(t, stdout, "2025: 1 of 4 cancellations (1 active filters)")
	assert.Contains(t, stdout, "By time of day")
	assert.Contains(t, stdout, "Night")
	assert.NotContains(t, stdout, "Morning")
}

func TestStatsWritesCharts(t *testing.T) {
	server := newDataSource(t)
	dir := filepath.Join(t.TempDir(), "charts")

	_, stderr, err := runCtl(t, newTestApp(), "stats", "--base-url", server.URL, "--charts", dir, "-v")
	require.NoError(t, err)

	for _, name := range []string{"daily.svg", "lines.svg", "time-of-day.svg"} {
		content, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err, name)
		assert.Contains(t, string(content), "<svg", name)
		assert.Contains(t, stderr, filepath.Join(dir, name))
	}

	pngDir := t.TempDir()
	_, _, err = runCtl(t, newTestApp(), "stats", "--base-url", server.URL, "--charts", pngDir, "--chart-format", "png", "-q", "Ittersbach")
	require.NoError(t, err)
	content, err := os.ReadFile(filepath.Join(pngDir, "lines.png"))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(content, []byte("\x89PNG")))

	emptyDir := t.TempDir()
	_, _, err = runCtl(t, newTestApp(), "stats", "--base-url", server.URL, "--charts", emptyDir, "-q", "nowhere")
	require.NoError(t, err)
	entries, err := os.ReadDir(emptyDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCancellationsLineSelection(t *testing.T) {
	server := newDataSource(t)

	stdout, _, err := runCtl(t, newTestApp(),
		"cancellations", "--base-url", server.URL, "--format", "yaml", "--year", "2025", "--line", "s11")
	require.NoError(t, err)

	var response struct {
		Data CancellationsOutput `yaml:"data"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(stdout), &response))
	assert.Equal(t, []string{"S11.json"}, response.Data.Files)
	assert.Equal(t, 2, response.Data.Total)
	require.Len(t, response.Data.Cancellations, 2)
	assert.Equal(t, "1101", response.Data.Cancellations[0].TrainNumber)
	assert.Equal(t, "night", response.Data.Cancellations[0].TimeOfDay)
	assert.Equal(t, "1105", response.Data.Cancellations[1].TrainNumber)
	assert.Equal(t, "unknown", response.Data.Cancellations[1].TimeOfDay)
}

func TestCancellationsFilters(t *testing.T) {
	server := newDataSource(t)

	stdout, _, err := runCtl(t, newTestApp(), "cancellations", "--base-url", server.URL, "--tod", "morning")
	require.NoError(t, err)
	assert.Contains(t, stdout, "07:10 – 07:55")
	assert.Contains(t, stdout, "1 shown, 1 matching")

	// last7 relative to 2025-01-10 starts on 2025-01-03.
	stdout, _, err = runCtl(t, newTestApp(), "cancellations", "--base-url", server.URL, "--preset", "last7", "--format", "json")
	require.NoError(t, err)
	var response struct {
		Data CancellationsOutput `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &response))
	assert.Equal(t, FilterOutput{DateFrom: "2025-01-03", DateTo: "2025-01-10", TimeOfDay: "all"}, response.Data.Filter)
	require.Len(t, response.Data.Cancellations, 1)
	assert.Equal(t, "103", response.Data.Cancellations[0].TrainNumber)

	stdout, _, err = runCtl(t, newTestApp(), "cancellations", "--base-url", server.URL, "-q", "herrenalb", "-n", "1")
	require.NoError(t, err)
	assert.Contains(t, stdout, "1 shown, 2 matching")
}

func TestCommandErrors(t *testing.T) {
	server := newDataSource(t)

	cases := []struct {
		name string
		args []string
		code int
	}{
		{"invalid format", []string{"years", "--format", "xml"}, ExitCommandError},
		{"unknown line", []string{"stats", "--line", "S99"}, ExitCommandError},
		{"unknown preset", []string{"stats", "--preset", "lastWeek"}, ExitCommandError},
		{"unknown time of day", []string{"stats", "--tod", "noon"}, ExitCommandError},
		{"unknown chart format", []string{"stats", "--chart-format", "gif"}, ExitCommandError},
		{"unknown year", []string{"stats", "--year", "1999"}, ExitFailure},
		{"missing config", []string{"years", "--toml", filepath.Join(t.TempDir(), "missing.toml")}, ExitCommandError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := runCtl(t, newTestApp(), append(tc.args, "--base-url", server.URL)...)
			require.Error(t, err)
			assert.Equal(t, tc.code, GetExitCode(err))
		})
	}
}

func TestUnknownYearReportsFetchError(t *testing.T) {
	server := newDataSource(t)

	_, _, err := runCtl(t, newTestApp(), "stats", "--year", "1999", "--base-url", server.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch /1999/index.json: 404")
}

func TestConfigFileBaseUrl(t *testing.T) {
	server := newDataSource(t)
	t.Setenv(common.BaseUrlEnv, "")

	path := filepath.Join(t.TempDir(), "kvv.toml")
	require.NoError(t, os.WriteFile(path, []byte("base_url = \""+server.URL+"/\"\n"), 0o644))

	stdout, _, err := runCtl(t, newTestApp(), "years", "--toml", path)
	require.NoError(t, err)
	assert.Equal(t, "2024\n2025\n", stdout)
}

func TestExportCommand(t *testing.T) {
	server := newDataSource(t)

	stdout, _, err := runCtl(t, newTestApp(), "export", "--base-url", server.URL, "--encoding", "json", "--line", "S1")
	require.NoError(t, err)

	message := &gtfs.FeedMessage{}
	require.NoError(t, protojson.Unmarshal([]byte(stdout), message))
	require.Len(t, message.GetEntity(), 2)
	trip := message.GetEntity()[0].GetTripUpdate().GetTrip()
	assert.Equal(t, "S1", trip.GetRouteId())
	assert.Equal(t, "20250103", trip.GetStartDate())
	assert.Equal(t, gtfs.TripDescriptor_CANCELED, trip.GetScheduleRelationship())
	assert.Equal(t, uint64(time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC).Unix()), message.GetHeader().GetTimestamp())

	path := filepath.Join(t.TempDir(), "feed.pb")
	_, _, err = runCtl(t, newTestApp(), "export", "--base-url", server.URL, "-o", path)
	require.NoError(t, err)
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	message = &gtfs.FeedMessage{}
	require.NoError(t, proto.Unmarshal(raw, message))
	assert.Len(t, message.GetEntity(), 4)
}

func TestExecuteReturnsExitCode(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := Execute([]string{"years", "--format", "xml"}, &stdout, &stderr)
	assert.Equal(t, ExitCommandError, code)
	assert.Contains(t, stderr.String(), "invalid format")
}
