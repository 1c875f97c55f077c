package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"finwise/internal/cli"
	"finwise/internal/log"
	"finwise/internal/metrics"
	"finwise/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"), log.ComponentWorker)
	logger.Info("Starting finwise-worker")
	cfg := cli.LoadAndValidateConfig(logger)

	res := cli.InitBackend(context.Background(), logger, cfg)
	m := metrics.New()
	app := cli.Wire(cfg, res, m)

	w := worker.NewSummaryWorker(app.Dashboard, app.Reports, logger)
	w.OnSnapshot(m.Snapshots.Inc)

	var consumer worker.Consumer
	if res.AMQP != nil {
		consumer = res.AMQP
	} else {
		logger.Info("AMQP disabled, running periodic refresh only")
	}

	// Metrics only; the worker serves no API.
	metricsSrv := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           m.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server error", log.FieldError, err)
		}
	}()

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Metrics server shutdown error", log.FieldError, err)
		}
	})

	app.Caches.StartCleanup(ctx, 10*time.Minute)

	runErr := w.Run(ctx, consumer, cfg.SummaryRefreshInterval)
	if runErr == nil {
		cli.WaitForShutdown(ctx, done)
	}
	app.Caches.Stop()
	if err := res.Cleanup(); err != nil {
		logger.Error("Backend cleanup error", log.FieldError, err)
	}
	if runErr != nil {
		logger.Error("Worker stopped with error", log.FieldError, runErr)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
