package backend

import (
	"context"

	"finwise/internal/amqp"
	"finwise/internal/ports"
	"finwise/internal/services"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the store and optional integrations, with a cleanup
// function releasing all of them.
type BackendResult struct {
	Store ports.Store
	// AMQP is nil when no broker is configured.
	AMQP *amqp.Client
	// Reports is nil when no spreadsheet is configured.
	Reports ports.ReportWriter
	Cleanup CleanupFunc
}

// Publisher returns the AMQP client as a services.Publisher, or nil.
func (r *BackendResult) Publisher() services.Publisher {
	if r.AMQP == nil {
		return nil
	}
	return r.AMQP
}

// Pinger is implemented by stores that can check their connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Ready checks the store when it supports it.
func (r *BackendResult) Ready(ctx context.Context) error {
	if p, ok := r.Store.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
