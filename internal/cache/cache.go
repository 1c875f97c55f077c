// Package cache holds per-user computed views (dashboard stats, benefit
// summaries) for a short time so repeated page loads skip recomputation.
package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Cache is the read-through surface services depend on.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	// DeletePrefix drops every key starting with prefix and returns how many
	// were removed.
	DeletePrefix(prefix string) int
	Size() int
}

// Cleaner is implemented by caches that can drop expired entries.
type Cleaner interface {
	Name() string
	CleanExpired() int
}

// Manager runs periodic cleanup for registered caches.
type Manager struct {
	mu     sync.Mutex
	caches []Cleaner
	cancel context.CancelFunc
	done   chan struct{}
}

func NewManager() *Manager {
	return &Manager{}
}

// Register adds a cache to the manager for cleanup
func (m *Manager) Register(c Cleaner) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.caches = append(m.caches, c)
}

// CleanAll cleans every registered cache once and returns the number of
// entries removed.
func (m *Manager) CleanAll() int {
	m.mu.Lock()
	caches := append([]Cleaner(nil), m.caches...)
	m.mu.Unlock()

	total := 0
	for _, c := range caches {
		if n := c.CleanExpired(); n > 0 {
			slog.Debug("Cache entries expired", "cache", c.Name(), "removed", n)
			total += n
		}
	}
	return total
}

// StartCleanup begins periodic cleanup until Stop is called or ctx ends.
func (m *Manager) StartCleanup(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})

	go func() {
		defer close(m.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.CleanAll()
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop halts the cleanup goroutine and waits for it to exit.
func (m *Manager) Stop() {
	if m.cancel == nil {
		return
	}
	m.cancel()
	<-m.done
	m.cancel = nil
}
