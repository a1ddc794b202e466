package worker

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// OutboxPurger deletes processed outbox rows.
type OutboxPurger interface {
	PurgeProcessed(ctx context.Context, before time.Time) (int64, error)
}

// OutboxCleanupWorker removes processed events once they are older than
// the retention period. Failed and pending rows are never touched.
type OutboxCleanupWorker struct {
	repo      OutboxPurger
	retention time.Duration
	interval  time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

func NewOutboxCleanupWorker(repo OutboxPurger, retention, interval time.Duration, logger *zap.Logger) *OutboxCleanupWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OutboxCleanupWorker{
		repo:      repo,
		retention: retention,
		interval:  interval,
		logger:    logger,
		now:       time.Now,
	}
}

func (w *OutboxCleanupWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.Cleanup(ctx); err != nil && ctx.Err() == nil {
				w.logger.Error("outbox cleanup failed", zap.Error(err))
			}
		}
	}
}

func (w *OutboxCleanupWorker) Cleanup(ctx context.Context) (int64, error) {
	cutoff := w.now().Add(-w.retention)

	rows, err := w.repo.PurgeProcessed(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge processed events: %w", err)
	}
	if rows > 0 {
		w.logger.Info("purged processed outbox events",
			zap.Int64("rows", rows),
			zap.Time("before", cutoff))
	}
	return rows, nil
}
