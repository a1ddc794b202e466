package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/jwalitptl/pharmacy-api/internal/model"
	"github.com/jwalitptl/pharmacy-api/internal/repository"
	"github.com/jwalitptl/pharmacy-api/pkg/messaging"
	"github.com/jwalitptl/pharmacy-api/pkg/metrics"
)

type OutboxProcessorConfig struct {
	BatchSize     int
	PollInterval  time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
	// MaxFailures is how many failed batches an event survives before it
	// is marked failed for good.
	MaxFailures int
}

func (c OutboxProcessorConfig) validate() error {
	switch {
	case c.BatchSize <= 0:
		return errors.New("batch size must be greater than 0")
	case c.PollInterval <= 0:
		return errors.New("poll interval must be greater than 0")
	case c.RetryAttempts <= 0:
		return errors.New("retry attempts must be greater than 0")
	case c.RetryDelay < 0:
		return errors.New("retry delay must not be negative")
	case c.MaxFailures <= 0:
		return errors.New("max failures must be greater than 0")
	}
	return nil
}

// OutboxProcessor relays pending outbox rows to the broker. Each event is
// published on the channel named after its type.
type OutboxProcessor struct {
	repo    repository.OutboxRepository
	broker  messaging.Broker
	config  OutboxProcessorConfig
	logger  *zap.Logger
	metrics *metrics.Metrics
}

func NewOutboxProcessor(
	repo repository.OutboxRepository,
	broker messaging.Broker,
	config OutboxProcessorConfig,
	logger *zap.Logger,
	m *metrics.Metrics,
) (*OutboxProcessor, error) {
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid outbox processor config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OutboxProcessor{
		repo:    repo,
		broker:  broker,
		config:  config,
		logger:  logger,
		metrics: m,
	}, nil
}

// Start polls until ctx is cancelled.
func (p *OutboxProcessor) Start(ctx context.Context) {
	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	p.logger.Info("outbox processor started",
		zap.Duration("poll_interval", p.config.PollInterval),
		zap.Int("batch_size", p.config.BatchSize))

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("outbox processor stopped")
			return
		case <-ticker.C:
			if _, err := p.ProcessBatch(ctx); err != nil && ctx.Err() == nil {
				p.logger.Error("failed to process outbox batch", zap.Error(err))
			}
		}
	}
}

// ProcessBatch publishes one batch of pending events and returns how many
// were published.
func (p *OutboxProcessor) ProcessBatch(ctx context.Context) (int, error) {
	if p.metrics != nil {
		timer := prometheus.NewTimer(p.metrics.OutboxProcessingLatency)
		defer timer.ObserveDuration()
	}

	published := 0
	err := p.repo.WithTx(ctx, func(tx *sqlx.Tx) error {
		events, err := p.repo.LockPending(ctx, tx, p.config.BatchSize)
		if err != nil {
			return err
		}

		for _, event := range events {
			if err := p.processEvent(ctx, tx, event); err != nil {
				return err
			}
			if event.Status == model.OutboxStatusProcessed {
				published++
			}
		}
		return nil
	})
	return published, err
}

// processEvent only returns an error when the row itself could not be
// updated; publish failures are recorded on the row.
func (p *OutboxProcessor) processEvent(ctx context.Context, tx *sqlx.Tx, event *model.OutboxEvent) error {
	log := p.logger.With(
		zap.String("event_id", event.ID.String()),
		zap.String("event_type", event.EventType))

	err := retry(ctx, p.config.RetryAttempts, p.config.RetryDelay, func() error {
		return p.broker.Publish(ctx, event.EventType, []byte(event.Payload))
	})
	if err != nil {
		if p.metrics != nil {
			p.metrics.OutboxEventsFailed.Inc()
		}
		log.Warn("failed to publish event", zap.Int("retry_count", event.RetryCount+1), zap.Error(err))
		if updateErr := p.repo.MarkFailed(ctx, tx, event.ID, err.Error(), p.config.MaxFailures); updateErr != nil {
			return fmt.Errorf("failed to mark event %s failed: %w", event.ID, updateErr)
		}
		return nil
	}

	if err := p.repo.MarkProcessed(ctx, tx, event.ID); err != nil {
		return fmt.Errorf("failed to mark event %s processed: %w", event.ID, err)
	}
	event.Status = model.OutboxStatusProcessed
	if p.metrics != nil {
		p.metrics.OutboxEventsProcessed.Inc()
	}
	log.Debug("event published")
	return nil
}

func retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return err
}
