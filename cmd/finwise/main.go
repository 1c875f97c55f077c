package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"finwise/internal/cli"
	apphttp "finwise/internal/http"
	"finwise/internal/log"
	"finwise/internal/metrics"
	"finwise/internal/middleware/ratelimit"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"), log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	res := cli.InitBackend(context.Background(), logger, cfg)
	m := metrics.New()
	app := cli.Wire(cfg, res, m)
	if _, err := app.Library.SeedCatalogue(context.Background()); err != nil {
		logger.Error("Failed to seed wisdom library", log.FieldError, err)
		os.Exit(1)
	}

	rl := ratelimit.DefaultConfig()
	rl.RequestsPerMinute = cfg.RateLimitPerMinute

	srv, err := apphttp.NewServer(":"+cfg.Port, apphttp.Services{
		Profiles:  app.Profiles,
		Dashboard: app.Dashboard,
		Benefits:  app.Benefits,
		Tax:       app.Tax,
		Reports:   app.Reports,
		Library:   app.Library,
		Parser:    app.Parser,
	}, apphttp.Options{
		Logger:    logger,
		Tokens:    res.Store,
		Ready:     res.Ready,
		Metrics:   m,
		RateLimit: rl,
	})
	if err != nil {
		logger.Error("Failed to build HTTP server", log.FieldError, err)
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		app.Caches.Stop()
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err)
		}
	})
	app.Caches.StartCleanup(ctx, 10*time.Minute)

	logger.Info("Starting finwise server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"unit_match", app.Parser.UnitMatch().String(),
		"amqp", res.AMQP != nil,
		"sheets", res.Reports != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
