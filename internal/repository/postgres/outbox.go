package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/pharmacy-api/internal/model"
	"github.com/jwalitptl/pharmacy-api/internal/repository"
)

type outboxRepository struct {
	BaseRepository
}

func NewOutboxRepository(base BaseRepository) repository.OutboxRepository {
	return &outboxRepository{base}
}

func (r *outboxRepository) Create(ctx context.Context, event *model.OutboxEvent) error {
	if event == nil {
		return fmt.Errorf("event cannot be nil")
	}
	if event.Payload == nil {
		return fmt.Errorf("event payload cannot be nil")
	}

	query := `
		INSERT INTO outbox_events (id, event_type, aggregate_id, payload, status, retry_count, created_at)
		VALUES ($1, $2, $3, $4, $5, 0, $6)
	`
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	event.Status = model.OutboxStatusPending
	event.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, query,
		event.ID,
		event.EventType,
		event.AggregateID,
		[]byte(event.Payload),
		event.Status,
		event.CreatedAt,
	)
	if err := r.observe("outbox_create", err); err != nil {
		return fmt.Errorf("failed to create outbox event: %w", err)
	}
	return nil
}

// LockPending selects pending events oldest first, skipping rows another
// worker already holds.
func (r *outboxRepository) LockPending(ctx context.Context, tx *sqlx.Tx, limit int) ([]*model.OutboxEvent, error) {
	query := `
		SELECT id, event_type, aggregate_id, payload, status, error_message,
		       retry_count, created_at, processed_at
		FROM outbox_events
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT $2
		FOR UPDATE SKIP LOCKED
	`

	events := []*model.OutboxEvent{}
	err := tx.SelectContext(ctx, &events, query, model.OutboxStatusPending, limit)
	if err := r.observe("outbox_lock_pending", err); err != nil {
		return nil, fmt.Errorf("failed to get pending events: %w", err)
	}
	return events, nil
}

func (r *outboxRepository) MarkProcessed(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) error {
	query := `
		UPDATE outbox_events
		SET status = $1, error_message = NULL, processed_at = NOW()
		WHERE id = $2
	`
	_, err := tx.ExecContext(ctx, query, model.OutboxStatusProcessed, id)
	return r.observe("outbox_mark_processed", err)
}

// MarkFailed records the error and bumps retry_count. The event stays
// pending until it has failed maxRetries times.
func (r *outboxRepository) MarkFailed(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, errMsg string, maxRetries int) error {
	query := `
		UPDATE outbox_events
		SET retry_count = retry_count + 1,
		    error_message = $1,
		    status = CASE WHEN retry_count + 1 >= $2 THEN $3 ELSE status END
		WHERE id = $4
	`
	_, err := tx.ExecContext(ctx, query, errMsg, maxRetries, model.OutboxStatusFailed, id)
	return r.observe("outbox_mark_failed", err)
}

func (r *outboxRepository) PurgeProcessed(ctx context.Context, before time.Time) (int64, error) {
	query := `DELETE FROM outbox_events WHERE status = $1 AND processed_at < $2`

	res, err := r.db.ExecContext(ctx, query, model.OutboxStatusProcessed, before)
	if err := r.observe("outbox_purge", err); err != nil {
		return 0, fmt.Errorf("failed to purge outbox events: %w", err)
	}
	return res.RowsAffected()
}
