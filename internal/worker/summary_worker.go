// Package worker keeps dashboard snapshots current in the background.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"finwise/internal/amqp"
	"finwise/internal/core"
	"finwise/internal/log"
)

// Refresher recomputes dashboard snapshots.
type Refresher interface {
	Refresh(ctx context.Context, userID string) (core.DashboardSummary, error)
	RefreshStale(ctx context.Context, maxAge time.Duration) ([]core.DashboardSummary, error)
}

// SummaryExporter pushes a snapshot to the report sheet.
type SummaryExporter interface {
	ExportSummary(ctx context.Context, sum core.DashboardSummary) error
}

// Consumer delivers profile update messages until ctx ends.
type Consumer interface {
	ConsumeProfileUpdates(ctx context.Context, handler func(context.Context, *amqp.ProfileUpdatedMessage) error) error
}

// SummaryWorker refreshes snapshots on profile updates and on a timer.
type SummaryWorker struct {
	refresher Refresher
	exporter  SummaryExporter
	logger    *log.Logger
	// onSnapshot is called once per refreshed snapshot.
	onSnapshot func()
}

// NewSummaryWorker wires the worker. exporter may be nil.
func NewSummaryWorker(refresher Refresher, exporter SummaryExporter, logger *log.Logger) *SummaryWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &SummaryWorker{
		refresher: refresher,
		exporter:  exporter,
		logger:    logger.WithComponent(log.ComponentWorker),
	}
}

// OnSnapshot registers a callback run after every refreshed snapshot.
func (w *SummaryWorker) OnSnapshot(fn func()) {
	w.onSnapshot = fn
}

// HandleProfileUpdated recomputes the snapshot named by msg and exports it.
// A returned error makes the consumer requeue the message.
func (w *SummaryWorker) HandleProfileUpdated(ctx context.Context, msg *amqp.ProfileUpdatedMessage) error {
	w.logger.InfoContext(ctx, "Processing profile update",
		log.FieldUserID, msg.UserID,
		"reason", msg.Reason,
		"message_id", msg.ID)

	sum, err := w.refresher.Refresh(ctx, msg.UserID)
	if err != nil {
		return fmt.Errorf("refresh dashboard: %w", err)
	}
	if err := w.snapshotDone(ctx, sum); err != nil {
		return err
	}

	w.logger.InfoContext(ctx, "Dashboard snapshot refreshed",
		log.FieldUserID, sum.UserID,
		"health_score", sum.HealthScore,
		"progress", sum.ProgressPercentage)
	return nil
}

func (w *SummaryWorker) snapshotDone(ctx context.Context, sum core.DashboardSummary) error {
	if w.onSnapshot != nil {
		w.onSnapshot()
	}
	if w.exporter == nil {
		return nil
	}
	if err := w.exporter.ExportSummary(ctx, sum); err != nil {
		return fmt.Errorf("export summary: %w", err)
	}
	return nil
}

// RefreshStale refreshes every snapshot older than maxAge and exports the
// results. Export failures are logged; the count covers every refreshed
// snapshot.
func (w *SummaryWorker) RefreshStale(ctx context.Context, maxAge time.Duration) (int, error) {
	refreshed, err := w.refresher.RefreshStale(ctx, maxAge)
	for _, sum := range refreshed {
		if exportErr := w.snapshotDone(ctx, sum); exportErr != nil {
			w.logger.ErrorContext(ctx, "Failed to export refreshed snapshot",
				log.FieldUserID, sum.UserID,
				log.FieldError, exportErr)
		}
	}
	if err != nil {
		return len(refreshed), fmt.Errorf("refresh stale snapshots: %w", err)
	}
	if len(refreshed) > 0 {
		w.logger.InfoContext(ctx, "Stale snapshots refreshed", "count", len(refreshed))
	}
	return len(refreshed), nil
}

// Run consumes profile updates, when consumer is non-nil, and refreshes
// stale snapshots every interval until ctx is cancelled. A startup pass
// runs before the first tick.
func (w *SummaryWorker) Run(ctx context.Context, consumer Consumer, interval time.Duration) error {
	if interval <= 0 {
		return errors.New("worker: refresh interval must be positive")
	}
	g, ctx := errgroup.WithContext(ctx)

	if consumer != nil {
		g.Go(func() error {
			err := consumer.ConsumeProfileUpdates(ctx, w.HandleProfileUpdated)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	g.Go(func() error {
		w.periodicRefresh(ctx, interval)
		return nil
	})

	return g.Wait()
}

func (w *SummaryWorker) periodicRefresh(ctx context.Context, interval time.Duration) {
	if _, err := w.RefreshStale(ctx, interval); err != nil && ctx.Err() == nil {
		w.logger.ErrorContext(ctx, "Startup refresh failed", log.FieldError, err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.RefreshStale(ctx, interval); err != nil && ctx.Err() == nil {
				w.logger.ErrorContext(ctx, "Periodic refresh failed", log.FieldError, err)
			}
		}
	}
}
