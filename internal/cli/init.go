// Package cli provides common CLI initialization utilities shared by
// cmd/finwise and cmd/finwise-worker.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"finwise/internal/backend"
	"finwise/internal/cache"
	"finwise/internal/config"
	"finwise/internal/core"
	"finwise/internal/log"
	"finwise/internal/metrics"
	"finwise/internal/services"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the process logger from LOG_LEVEL and LOG_FORMAT and
// makes it the slog default. Invalid values fall back to info/text; config
// validation reports them.
func SetupLogger(level, format, component string) *log.Logger {
	lvl, _ := log.ParseLevel(level)
	if format != log.FormatJSON {
		format = log.FormatText
	}
	logger := log.New(log.Config{
		Level:     lvl,
		Format:    format,
		Component: component,
		Writer:    os.Stdout,
	})
	log.SetDefault(logger)
	return logger
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// InitBackend creates the configured backend or exits the process.
func InitBackend(ctx context.Context, logger *log.Logger, cfg *config.Config) *backend.BackendResult {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger.WithComponent(log.ComponentBackend).Logger).CreateBackend(ctx, bcfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	return res
}

// App bundles the wired domain services.
type App struct {
	Parser    *core.Parser
	Profiles  *services.ProfileService
	Benefits  *services.BenefitsService
	Tax       *services.TaxSavingsService
	Dashboard *services.DashboardService
	Reports   *services.ReportService
	Library   *services.LibraryService
	Caches    *cache.Manager
}

// Cache sizes per process.
const (
	dashboardCacheSize = 1000
	benefitsCacheSize  = 2000
)

// Wire builds the services over res. m may be nil.
func Wire(cfg *config.Config, res *backend.BackendResult, m *metrics.Metrics) *App {
	parserOpts := []core.ParserOption{core.WithUnitMatch(cfg.UnitMatch())}
	var cacheOpts []cache.Option
	if m != nil {
		parserOpts = append(parserOpts, core.WithParseHook(m.ObserveParse))
		cacheOpts = append(cacheOpts, cache.WithObserver(m.CacheHit, m.CacheMiss))
	}
	if res.AMQP != nil && m != nil {
		res.AMQP.SetMessageObserver(m.ObserveAMQP)
	}
	parser := core.NewParser(parserOpts...)

	dashCache := cache.NewLRUCache[services.DashboardStats]("dashboard", dashboardCacheSize, cfg.CacheTTL, cacheOpts...)
	benefitCache := cache.NewLRUCache[services.BenefitsSummary]("benefits", benefitsCacheSize, cfg.CacheTTL, cacheOpts...)
	manager := cache.NewManager()
	manager.Register(dashCache)
	manager.Register(benefitCache)

	store := res.Store
	benefits := services.NewBenefitsService(store, store, parser, benefitCache)
	tax := services.NewTaxSavingsService(store, parser)
	dashboard := services.NewDashboardService(store, store, benefits, tax, parser, dashCache)

	publisher := res.Publisher()
	if publisher != nil {
		benefits.SetPublisher(publisher)
	}

	return &App{
		Parser:    parser,
		Profiles:  services.NewProfileService(store, publisher, dashboard, benefits),
		Benefits:  benefits,
		Tax:       tax,
		Dashboard: dashboard,
		Reports:   services.NewReportService(store, benefits, tax, res.Reports, cfg.GoogleSheetName),
		Library:   services.NewLibraryService(store, store, store),
		Caches:    manager,
	}
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that signals when shutdown is complete.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		cancel()
		if cleanup != nil {
			cleanup(shutdownCtx)
		}

		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
		} else {
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and cleanup is done.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
