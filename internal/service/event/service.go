package event

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/pharmacy-api/internal/model"
	"github.com/jwalitptl/pharmacy-api/internal/repository"
	"github.com/jwalitptl/pharmacy-api/pkg/logger"
)

// Emitter records domain events after a change has been committed.
type Emitter interface {
	Emit(ctx context.Context, eventType string, aggregateID int64, data interface{})
}

type EventService struct {
	outboxRepo repository.OutboxRepository
	logger     *logger.Logger
	now        func() time.Time
}

func NewEventService(outboxRepo repository.OutboxRepository, log *logger.Logger) *EventService {
	return &EventService{
		outboxRepo: outboxRepo,
		logger:     log,
		now:        time.Now,
	}
}

// Emit writes an outbox row for the event. Failures are logged and dropped
// so the request that triggered the event still succeeds.
func (s *EventService) Emit(ctx context.Context, eventType string, aggregateID int64, data interface{}) {
	if err := s.emit(ctx, eventType, aggregateID, data); err != nil {
		s.logger.Error(err, "Failed to emit event",
			"event_type", eventType,
			"aggregate_id", aggregateID)
	}
}

func (s *EventService) emit(ctx context.Context, eventType string, aggregateID int64, data interface{}) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	id := uuid.New()
	envelope := model.EventEnvelope{
		ID:          id,
		Type:        eventType,
		AggregateID: strconv.FormatInt(aggregateID, 10),
		OccurredAt:  s.now().UTC(),
		Data:        raw,
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal event envelope: %w", err)
	}

	event := &model.OutboxEvent{
		ID:          id,
		EventType:   eventType,
		AggregateID: envelope.AggregateID,
		Payload:     payload,
	}
	if err := s.outboxRepo.Create(ctx, event); err != nil {
		return fmt.Errorf("failed to create outbox event: %w", err)
	}
	return nil
}

// Nop discards every event. It stands in when the outbox is disabled.
type Nop struct{}

func (Nop) Emit(context.Context, string, int64, interface{}) {}
