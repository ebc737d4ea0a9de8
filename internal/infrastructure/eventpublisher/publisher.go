package eventpublisher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/txsummary/internal/domain"
	"github.com/iho/txsummary/internal/infrastructure/metrics"
)

// OutboxStore is the part of the outbox repository the relay needs.
type OutboxStore interface {
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) error
}

// Publisher ships one event to an external system.
type Publisher interface {
	Publish(ctx context.Context, event *domain.OutboxEvent) error
}

// Config for EventPublisher.
type Config struct {
	Outbox    OutboxStore
	Publisher Publisher
	Metrics   *metrics.Metrics
	BatchSize int           // events fetched per poll
	Interval  time.Duration // poll period
	Retention time.Duration // published events older than this are deleted; zero keeps them
}

// EventPublisher relays outbox rows to a Publisher.
type EventPublisher struct {
	outbox    OutboxStore
	publisher Publisher
	metrics   *metrics.Metrics
	batchSize int
	interval  time.Duration
	retention time.Duration
	now       func() time.Time
}

// NewEventPublisher creates a new EventPublisher.
func NewEventPublisher(cfg Config) *EventPublisher {
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
	if cfg.Interval == 0 {
		cfg.Interval = time.Second
	}

	return &EventPublisher{
		outbox:    cfg.Outbox,
		publisher: cfg.Publisher,
		metrics:   cfg.Metrics,
		batchSize: cfg.BatchSize,
		interval:  cfg.Interval,
		retention: cfg.Retention,
		now:       time.Now,
	}
}

// Start polls the outbox until ctx is cancelled.
func (ep *EventPublisher) Start(ctx context.Context) error {
	logger := zerolog.Ctx(ctx)
	logger.Info().
		Int("batch_size", ep.batchSize).
		Dur("interval", ep.interval).
		Msg("event publisher started")

	ticker := time.NewTicker(ep.interval)
	defer ticker.Stop()

	ep.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("event publisher shutting down")
			return ctx.Err()
		case <-ticker.C:
			ep.tick(ctx)
		}
	}
}

func (ep *EventPublisher) tick(ctx context.Context) {
	logger := zerolog.Ctx(ctx)
	if err := ep.processEvents(ctx); err != nil {
		logger.Error().Err(err).Msg("error processing outbox events")
	}
	if ep.retention > 0 {
		if err := ep.outbox.DeletePublished(ctx, ep.now().Add(-ep.retention)); err != nil {
			logger.Error().Err(err).Msg("error pruning published outbox events")
		}
	}
}

// processEvents publishes one batch. A failed event stays unpublished for the next poll.
func (ep *EventPublisher) processEvents(ctx context.Context) error {
	events, err := ep.outbox.GetUnpublished(ctx, ep.batchSize)
	if err != nil {
		return err
	}

	logger := zerolog.Ctx(ctx)
	for _, event := range events {
		if err := ep.publisher.Publish(ctx, event); err != nil {
			logger.Error().Err(err).
				Str("event_id", event.ID).
				Str("event_type", event.EventType).
				Msg("failed to publish event")
			if ep.metrics != nil {
				ep.metrics.OutboxErrors.Inc()
			}
			continue
		}

		if err := ep.outbox.MarkPublished(ctx, event.ID, ep.now()); err != nil {
			logger.Error().Err(err).Str("event_id", event.ID).Msg("failed to mark event as published")
			continue
		}

		if ep.metrics != nil {
			ep.metrics.OutboxPublished.Inc()
		}
		logger.Debug().
			Str("event_id", event.ID).
			Str("event_type", event.EventType).
			Str("aggregate_id", event.AggregateID).
			Msg("event published")
	}

	return nil
}

// LogPublisher writes events to the log. Used when no broker is configured.
type LogPublisher struct {
	logger zerolog.Logger
}

// NewLogPublisher creates a new LogPublisher.
func NewLogPublisher(logger zerolog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// Publish logs the event.
func (p *LogPublisher) Publish(_ context.Context, event *domain.OutboxEvent) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return err
	}

	p.logger.Info().
		Str("event_id", event.ID).
		Str("event_type", event.EventType).
		Str("aggregate_type", event.AggregateType).
		Str("aggregate_id", event.AggregateID).
		RawJSON("payload", payload).
		Msg("outbox event")
	return nil
}
