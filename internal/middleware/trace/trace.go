// Package trace tags every request with an id and logs its outcome.
package trace

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"finwise/internal/log"
)

// ContextKey type for context keys
type ContextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey ContextKey = "request_id"

	// HeaderRequestID carries the id in and out.
	HeaderRequestID = "X-Request-ID"
)

// Observer receives the route pattern, status code and latency of each
// completed request.
type Observer func(route string, code int, elapsed time.Duration)

// Middleware handles request tracing and logging
type Middleware struct {
	logger    *log.Logger
	extractIP func(*http.Request) string
	observe   Observer
}

// NewMiddleware creates a new trace middleware. extractIP and observe may be
// nil.
func NewMiddleware(logger *log.Logger, extractIP func(*http.Request) string, observe Observer) *Middleware {
	return &Middleware{
		logger:    logger,
		extractIP: extractIP,
		observe:   observe,
	}
}

// Middleware returns HTTP middleware for request tracing
func (m *Middleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := ""
		if m.extractIP != nil {
			clientIP = m.extractIP(r)
		}

		requestID := incomingRequestID(r)
		w.Header().Set(HeaderRequestID, requestID)
		slot := new(string)
		ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
		r = r.WithContext(context.WithValue(ctx, routeKey{}, slot))

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		elapsed := time.Since(start)
		if m.logger != nil {
			m.logger.With(log.FieldRequestID, requestID).
				LogHTTPEnd(r.Context(), r, rw.statusCode, elapsed.Milliseconds(), clientIP)
		}
		if m.observe != nil {
			route := *slot
			if route == "" {
				route = r.Pattern
			}
			if route == "" {
				route = "unmatched"
			}
			m.observe(route, rw.statusCode, elapsed)
		}
	})
}

type routeKey struct{}

// RecordRoute reports the pattern a ServeMux matched back to the trace
// middleware. Wrap the mux with it when other middleware copies the request
// in between.
func RecordRoute(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r)
		// The innermost mux finishes first and names the most specific route.
		if slot, ok := r.Context().Value(routeKey{}).(*string); ok && *slot == "" && r.Pattern != "" {
			*slot = r.Pattern
		}
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}

// incomingRequestID keeps a caller-supplied UUID and mints one otherwise.
func incomingRequestID(r *http.Request) string {
	if id := r.Header.Get(HeaderRequestID); id != "" {
		if _, err := uuid.Parse(id); err == nil {
			return id
		}
	}
	return GenerateRequestID()
}

// GenerateRequestID creates a unique request ID for tracing
func GenerateRequestID() string {
	return uuid.NewString()
}

// GetRequestID extracts the request ID from context
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

// RequestID is GetRequestID for a request; it fits log.Middleware.
func RequestID(r *http.Request) string {
	return GetRequestID(r.Context())
}
