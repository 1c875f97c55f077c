package http

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"finwise/internal/core"
	"finwise/internal/log"
	"finwise/internal/metrics"
	"finwise/internal/middleware/ratelimit"
	"finwise/internal/middleware/security"
	"finwise/internal/middleware/trace"
	"finwise/internal/ports"
	"finwise/internal/services"
	"finwise/internal/session"
)

// Services are the domain services the API exposes.
type Services struct {
	Profiles  *services.ProfileService
	Dashboard *services.DashboardService
	Benefits  *services.BenefitsService
	Tax       *services.TaxSavingsService
	Reports   *services.ReportService
	Library   *services.LibraryService
	Parser    *core.Parser
}

// Options configure the server's ambient concerns.
type Options struct {
	Logger *log.Logger
	// Tokens authenticates /api/ requests.
	Tokens ports.TokenStore
	// Ready backs /readyz; nil means always ready.
	Ready func(context.Context) error
	// Metrics may be nil, which disables /metrics.
	Metrics        *metrics.Metrics
	RateLimit      ratelimit.Config
	TrustedProxies []string
}

// Server is the finwise API server.
type Server struct {
	http.Server
	svc     Services
	ready   func(context.Context) error
	limiter *ratelimit.Limiter

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// server.
func NewServer(addr string, svc Services, opts Options) (*Server, error) {
	if opts.Tokens == nil {
		return nil, errors.New("http: token store is required")
	}
	if svc.Parser == nil {
		svc.Parser = core.NewParser()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	detector, err := security.NewDetector(opts.TrustedProxies...)
	if err != nil {
		return nil, err
	}

	s := &Server{
		svc:     svc,
		ready:   opts.Ready,
		limiter: ratelimit.NewLimiter(opts.RateLimit),
	}

	api := http.NewServeMux()
	api.HandleFunc("GET /api/profile/{$}", s.handleGetProfile)
	api.HandleFunc("PUT /api/profile/{$}", s.handleUpdateProfile)
	api.HandleFunc("GET /api/dashboard/{$}", s.handleDashboard)
	api.HandleFunc("GET /api/benefits/{$}", s.handleListBenefits)
	api.HandleFunc("POST /api/benefits/state", s.handleBenefitState)
	api.HandleFunc("GET /api/tax-savings/{$}", s.handleTaxSavings)
	api.HandleFunc("GET /api/reports/{$}", s.handleListReports)
	api.HandleFunc("GET /api/reports/{type}", s.handleGenerateReport)
	api.HandleFunc("POST /api/reports/{type}/export", s.handleExportReport)
	api.HandleFunc("POST /api/amounts/parse", s.handleParseAmounts)
	api.HandleFunc("GET /api/wisdom-library/{$}", s.handleWisdomLibrary)
	api.HandleFunc("GET /api/books/{$}", s.handleListBooks)
	api.HandleFunc("GET /api/books/{id}", s.handleGetBook)
	api.HandleFunc("GET /api/reading-history/{$}", s.handleReadingHistory)
	api.HandleFunc("POST /api/reading-history/{$}", s.handleUpdateReading)
	api.HandleFunc("GET /api/reading-preferences/{$}", s.handleReadingPreferences)
	api.HandleFunc("PUT /api/reading-preferences/{$}", s.handleUpdateReadingPreferences)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	if opts.Metrics != nil {
		mux.Handle("GET /metrics", opts.Metrics.Handler())
	}
	mux.Handle("/api/", session.Middleware(opts.Tokens, writeError)(trace.RecordRoute(api)))

	var observe trace.Observer
	if opts.Metrics != nil {
		observe = func(route string, code int, elapsed time.Duration) {
			opts.Metrics.ObserveHTTP(route, code, elapsed.Seconds())
		}
	}

	limited := s.limiter.Middleware(detector.ClientIP, func(w http.ResponseWriter, r *http.Request) {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
			log.FieldClientIP, detector.ClientIP(r),
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path)
		ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, please try again later").Write(w)
	})

	var h http.Handler = trace.RecordRoute(mux)
	h = limited(h)
	h = detector.Middleware(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = log.Middleware(logger, trace.RequestID)(h)
	h = trace.NewMiddleware(logger, detector.ClientIP, observe).Middleware(h)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().JSON(map[string]string{"status": "ok"}).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
			ErrorResponse(http.StatusServiceUnavailable, "not ready").Write(w)
			return
		}
	}
	NewJSONResponse().JSON(map[string]string{"status": "ready"}).Write(w)
}

// currentUser returns the authenticated user id for r.
func currentUser(r *http.Request) (string, error) {
	sess, err := session.FromContext(r.Context())
	if err != nil {
		return "", err
	}
	return sess.UserID, nil
}
