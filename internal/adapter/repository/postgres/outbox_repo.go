package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/iho/txsummary/internal/domain"
	"github.com/iho/txsummary/internal/infrastructure/postgres/generated"
	"github.com/iho/txsummary/internal/usecase"
)

// OutboxRepository stores account events until the relay forwards them.
type OutboxRepository struct {
	queries *generated.Queries
}

func NewOutboxRepository(db generated.DBTX) *OutboxRepository {
	return &OutboxRepository{queries: generated.New(db)}
}

// Create writes the event in the same transaction as the change it describes.
func (r *OutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	q, err := queriesFor(tx)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", event.EventType, err)
	}

	err = q.CreateOutboxEvent(ctx, generated.CreateOutboxEventParams{
		ID:            event.ID,
		AggregateID:   event.AggregateID,
		AggregateType: event.AggregateType,
		EventType:     event.EventType,
		Payload:       payload,
		CreatedAt:     timeToPgTimestamptz(event.CreatedAt),
		Published:     event.Published,
	})
	if err != nil {
		return fmt.Errorf("insert outbox event %s: %w", event.ID, err)
	}
	return nil
}

// GetUnpublished returns up to limit pending events, oldest first.
// A row whose payload no longer decodes fails the whole batch.
func (r *OutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	rows, err := r.queries.GetUnpublishedEvents(ctx, int32(limit))
	if err != nil {
		return nil, fmt.Errorf("load pending outbox events: %w", err)
	}

	events := make([]*domain.OutboxEvent, len(rows))
	for i, row := range rows {
		ev, err := decodeOutboxRow(row)
		if err != nil {
			return nil, err
		}
		events[i] = ev
	}
	return events, nil
}

func (r *OutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	err := r.queries.MarkEventPublished(ctx, generated.MarkEventPublishedParams{
		ID:          id,
		PublishedAt: timeToPgTimestamptz(publishedAt),
	})
	if err != nil {
		return fmt.Errorf("mark outbox event %s published: %w", id, err)
	}
	return nil
}

// DeletePublished purges delivered events older than before.
func (r *OutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	if err := r.queries.DeletePublishedEvents(ctx, timeToPgTimestamptz(before)); err != nil {
		return fmt.Errorf("purge outbox events: %w", err)
	}
	return nil
}

func decodeOutboxRow(row generated.OutboxEvent) (*domain.OutboxEvent, error) {
	ev := &domain.OutboxEvent{
		ID:            row.ID,
		AggregateID:   row.AggregateID,
		AggregateType: row.AggregateType,
		EventType:     row.EventType,
		CreatedAt:     pgTimestamptzToTime(row.CreatedAt),
		Published:     row.Published,
	}
	if len(row.Payload) > 0 {
		if err := json.Unmarshal(row.Payload, &ev.Payload); err != nil {
			return nil, fmt.Errorf("decode payload of outbox event %s: %w", row.ID, err)
		}
	}
	if row.PublishedAt.Valid {
		at := pgTimestamptzToTime(row.PublishedAt)
		ev.PublishedAt = &at
	}
	return ev, nil
}
