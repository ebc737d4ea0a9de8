package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iho/txsummary/internal/domain"
	"github.com/iho/txsummary/internal/infrastructure/metrics"
)

// UpdateBus carries summary updates between processes over a Redis pub/sub channel.
type UpdateBus struct {
	client  *redis.Client
	channel string
	metrics *metrics.Metrics
}

// NewUpdateBus creates a new UpdateBus on the given channel.
func NewUpdateBus(client *redis.Client, channel string, m *metrics.Metrics) *UpdateBus {
	return &UpdateBus{
		client:  client,
		channel: channel,
		metrics: m,
	}
}

// PublishUpdate implements usecase.UpdatePublisher.
func (b *UpdateBus) PublishUpdate(ctx context.Context, update *domain.SummaryUpdate) error {
	raw, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("failed to encode update: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, raw).Err(); err != nil {
		return fmt.Errorf("failed to publish update: %w", err)
	}
	if b.metrics != nil {
		b.metrics.UpdatesPublished.Inc()
	}
	return nil
}

// Subscribe delivers every update on the channel to handle until ctx is done.
// Malformed payloads are logged and skipped.
func (b *UpdateBus) Subscribe(ctx context.Context, handle func(*domain.SummaryUpdate)) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	// Wait for the subscription to be confirmed so publishes are not missed.
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", b.channel, err)
	}

	logger := zerolog.Ctx(ctx)
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var update domain.SummaryUpdate
			if err := json.Unmarshal([]byte(msg.Payload), &update); err != nil {
				logger.Warn().Err(err).Str("channel", msg.Channel).Msg("dropping malformed summary update")
				continue
			}
			handle(&update)
		}
	}
}
