package dashboard

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"tarediiran-industries.com/transit-cancellations/internal/common"
	"tarediiran-industries.com/transit-cancellations/internal/feed"
	"tarediiran-industries.com/transit-cancellations/internal/loader"
)

func Run(cfg Config, logOut io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := common.NewLogger(cfg.LogLevel, logOut)

	var metrics *common.Metrics
	if cfg.TelemetryAddress != "" {
		telemetry := common.NewTelemetryServer(cfg.TelemetryAddress, logger)
		metrics = common.NewMetrics(telemetry.GetRegistry())
		if err := telemetry.Start(); err != nil {
			logger.Error().Err(err).Msg("failed to start telemetry server")
			return 1
		}
		defer telemetry.Stop()
	}

	client := feed.NewClient(cfg.BaseUrl, feed.WithLogger(logger), feed.WithMetrics(metrics))
	orchestrator := loader.New(ctx, client, loader.WithLogger(logger), loader.WithMetrics(metrics))
	defer orchestrator.Close()
	orchestrator.Start()

	server, err := NewDashboardServer(cfg.ListenAddress, orchestrator,
		WithServerLogger(logger),
		WithLoadTimeout(cfg.LoadTimeout),
	)
	if err != nil {
		logger.Error().Err(err).Msg("failed to create dashboard server")
		return 1
	}

	logger.Info().Str("base_url", cfg.BaseUrl).Msg("loading cancellations")
	if err := server.Serve(ctx); err != nil {
		logger.Error().Err(err).Msg("server error")
		return 1
	}
	return 0
}
