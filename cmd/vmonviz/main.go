package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/chambridge/vmonviz/internal/batch"
	"github.com/chambridge/vmonviz/internal/chart"
	"github.com/chambridge/vmonviz/internal/config"
	"github.com/chambridge/vmonviz/internal/db"
	"github.com/chambridge/vmonviz/internal/logging"
	"github.com/chambridge/vmonviz/internal/observability"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, cfg, logger)
	stop()
	logger.Sync() //nolint:errcheck
	os.Exit(code)
}

// run executes one batch and returns the process exit code. The metrics
// textfile is written whether or not the batch finished.
func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) int {
	recorder := observability.NewRecorder()
	defer func() {
		if cfg.MetricsTextfile == "" {
			return
		}
		if err := recorder.WriteTextfile(cfg.MetricsTextfile); err != nil {
			logger.Error("failed to write metrics textfile", zap.String("path", cfg.MetricsTextfile), zap.Error(err))
		}
	}()

	store, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", zap.Error(err))
		return 1
	}
	defer store.Close()

	runner := batch.New(batch.Options{
		Source:       store,
		Renderer:     chart.NewRenderer(chart.NewWriter(cfg.OutputDir)),
		Logger:       logger,
		Recorder:     recorder,
		Policy:       cfg.WindowPolicy,
		LookbackDays: cfg.LookbackDays,
	})

	summary, err := runner.Run(ctx)
	if err != nil {
		logger.Error("batch run failed", zap.Error(err))
		return 1
	}
	if summary.Failed > 0 {
		logger.Warn("some VMs were not charted", zap.Int("failed", summary.Failed))
	}
	return 0
}
