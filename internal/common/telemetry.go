package common

import (
	"net"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Metrics is nil-safe: every Observe/Inc helper is a no-op on a nil receiver.
type Metrics struct {
	FetchTTFBSeconds     *prometheus.HistogramVec
	FetchReadBodySeconds *prometheus.HistogramVec
	FetchBytesTotal      *prometheus.CounterVec
	FetchErrorsTotal     *prometheus.CounterVec
	CacheLookupsTotal    *prometheus.CounterVec
	StageSeconds         *prometheus.HistogramVec
}

func NewMetrics(registry prometheus.Registerer) *Metrics {
	metrics := &Metrics{
		FetchTTFBSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "kvv_fetch_ttfb_seconds",
				Help:    "Time from GET to response headers for data source requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		FetchReadBodySeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "kvv_fetch_read_body_seconds",
				Help:    "Time to read and decode the body of a data source response",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		FetchBytesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kvv_fetch_bytes_total",
				Help: "Bytes downloaded per endpoint",
			},
			[]string{"endpoint"},
		),
		FetchErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kvv_fetch_errors_total",
				Help: "Failed data source requests, cancellations excluded",
			},
			[]string{"endpoint"},
		),
		CacheLookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kvv_line_cache_lookups_total",
				Help: "Line file cache lookups by result",
			},
			[]string{"result"},
		),
		StageSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "kvv_loader_stage_seconds",
				Help:    "Duration of completed loader stages",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
	}

	registry.MustRegister(
		metrics.FetchTTFBSeconds,
		metrics.FetchReadBodySeconds,
		metrics.FetchBytesTotal,
		metrics.FetchErrorsTotal,
		metrics.CacheLookupsTotal,
		metrics.StageSeconds,
	)

	return metrics
}

func (metrics *Metrics) ObserveTTFB(endpoint string, elapsed time.Duration) {
	if metrics == nil {
		return
	}
	metrics.FetchTTFBSeconds.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

func (metrics *Metrics) ObserveBody(endpoint string, elapsed time.Duration, bytes int) {
	if metrics == nil {
		return
	}
	metrics.FetchReadBodySeconds.WithLabelValues(endpoint).Observe(elapsed.Seconds())
	metrics.FetchBytesTotal.WithLabelValues(endpoint).Add(float64(bytes))
}

func (metrics *Metrics) IncFetchError(endpoint string) {
	if metrics == nil {
		return
	}
	metrics.FetchErrorsTotal.WithLabelValues(endpoint).Inc()
}

func (metrics *Metrics) IncCacheLookup(hit bool) {
	if metrics == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	metrics.CacheLookupsTotal.WithLabelValues(result).Inc()
}

func (metrics *Metrics) ObserveStage(stage string, elapsed time.Duration) {
	if metrics == nil {
		return
	}
	metrics.StageSeconds.WithLabelValues(stage).Observe(elapsed.Seconds())
}

type TelemetryServer struct {
	addr     string
	mux      *http.ServeMux
	registry *prometheus.Registry
	logger   zerolog.Logger

	server   *http.Server
	listener net.Listener
}

func NewTelemetryServer(addr string, logger zerolog.Logger) *TelemetryServer {
	telemetry := &TelemetryServer{
		addr:     addr,
		registry: prometheus.NewRegistry(),
		mux:      http.NewServeMux(),
		logger:   logger,
	}

	telemetry.mux.Handle(
		"/metrics",
		promhttp.HandlerFor(telemetry.registry, promhttp.HandlerOpts{}),
	)

	buildInfo := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "kvv_build_info",
			Help: "Build metadata",
		},
		[]string{"version", "git_commit"},
	)

	telemetry.registry.MustRegister(
		collectors.NewGoCollector(), // Go runtime metrics
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		buildInfo,
	)

	buildInfo.WithLabelValues(Version, GitCommit).Set(1)

	telemetry.mux.HandleFunc("/debug/pprof/", pprof.Index)
	telemetry.mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	telemetry.mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	telemetry.mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	telemetry.mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	return telemetry
}

func (telemetry *TelemetryServer) GetRegistry() *prometheus.Registry {
	return telemetry.registry
}

func (telemetry *TelemetryServer) Start() error {
	telemetry.server = &http.Server{
		Addr:              telemetry.addr,
		Handler:           telemetry.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	listener, err := net.Listen("tcp", telemetry.addr)
	if err != nil {
		return err
	}

	telemetry.listener = listener

	go telemetry.server.Serve(telemetry.listener)

	telemetry.logger.Info().Str("addr", listener.Addr().String()).Msg("telemetry server started")
	return nil
}

func (telemetry *TelemetryServer) Stop() error {
	if telemetry.server == nil {
		return nil
	}

	return telemetry.server.Close()
}
