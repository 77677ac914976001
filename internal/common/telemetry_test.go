package common

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsAreNoops(t *testing.T) {
	var metrics *Metrics
	assert.NotPanics(t, func() {
		metrics.ObserveTTFB("line", time.Millisecond)
		metrics.ObserveBody("line", time.Millisecond, 10)
		metrics.IncFetchError("line")
		metrics.IncCacheLookup(true)
		metrics.ObserveStage("records", time.Second)
	})
}

func TestMetricsRecord(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)

	metrics.ObserveBody("line", time.Millisecond, 512)
	metrics.ObserveBody("line", time.Millisecond, 256)
	metrics.IncFetchError("year")
	metrics.IncCacheLookup(true)
	metrics.IncCacheLookup(false)
	metrics.IncCacheLookup(false)
	metrics.ObserveStage("records", time.Second)

	assert.Equal(t, 768.0, testutil.ToFloat64(metrics.FetchBytesTotal.WithLabelValues("line")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.FetchErrorsTotal.WithLabelValues("year")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.CacheLookupsTotal.WithLabelValues("hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.CacheLookupsTotal.WithLabelValues("miss")))
	assert.Equal(t, 1, testutil.CollectAndCount(metrics.StageSeconds))
}

func TestTelemetryServerRegistersBuildInfo(t *testing.T) {
	telemetry := NewTelemetryServer("127.0.0.1:0", zerolog.Nop())

	families, err := telemetry.GetRegistry().Gather()
	require.NoError(t, err)

	names := map[string]bool{}
	for _, family := range families {
		names[family.GetName()] = true
	}
	assert.True(t, names["kvv_build_info"])
	assert.True(t, names["go_goroutines"])

	require.NoError(t, telemetry.Start())
	assert.NoError(t, telemetry.Stop())
}

func TestRuntimeBenchmarkLogsAtDebug(t *testing.T) {
	var out bytes.Buffer
	logger := zerolog.New(&out).Level(zerolog.DebugLevel)

	value, err := RuntimeBenchmark(logger, "answer", func() (int, error) { return 42, nil })
	require.NoError(t, err)
	assert.Equal(t, 42, value)
	assert.Contains(t, out.String(), `"label":"answer"`)
	assert.Contains(t, out.String(), `"level":"debug"`)

	_, err = RuntimeBenchmark(logger, "failing", func() (string, error) { return "", errors.New("boom") })
	assert.EqualError(t, err, "boom")

	out.Reset()
	benchmarker := NewBenchmarker(logger, "stage")
	assert.GreaterOrEqual(t, benchmarker.Elapsed(), time.Duration(0))
	benchmarker.Close()
	assert.Contains(t, out.String(), `"label":"stage"`)
}

func TestNewLoggerLevels(t *testing.T) {
	var out bytes.Buffer

	logger := NewLogger("warn", &out)
	assert.Equal(t, zerolog.WarnLevel, logger.GetLevel())
	logger.Info().Msg("hidden")
	assert.Empty(t, out.String())
	logger.Warn().Msg("shown")
	assert.Contains(t, out.String(), "shown")

	assert.Equal(t, zerolog.InfoLevel, NewLogger("", &out).GetLevel())
	assert.Equal(t, zerolog.InfoLevel, NewLogger("chatty", &out).GetLevel())
	assert.Equal(t, zerolog.DebugLevel, NewLogger(" DEBUG ", &out).GetLevel())
}
