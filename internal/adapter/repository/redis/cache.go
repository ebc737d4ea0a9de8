package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iho/txsummary/internal/domain"
)

// SummaryCache implements usecase.SummaryCache using Redis.
type SummaryCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewSummaryCache creates a new SummaryCache. Entries expire after ttl.
func NewSummaryCache(client *redis.Client, ttl time.Duration) *SummaryCache {
	return &SummaryCache{
		client: client,
		prefix: "summary:",
		ttl:    ttl,
	}
}

// Get returns the cached summary for an account, reporting false on a miss.
func (c *SummaryCache) Get(ctx context.Context, accountID string) (*domain.TransactionSummary, bool, error) {
	raw, err := c.client.Get(ctx, c.prefix+accountID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var summary domain.TransactionSummary
	if err := json.Unmarshal(raw, &summary); err != nil {
		// A corrupt entry is treated as a miss and dropped.
		_ = c.client.Del(ctx, c.prefix+accountID).Err()
		return nil, false, nil
	}

	return &summary, true, nil
}

// Set stores a summary keyed by its account.
func (c *SummaryCache) Set(ctx context.Context, summary *domain.TransactionSummary) error {
	raw, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	return c.client.Set(ctx, c.prefix+summary.AccountID, raw, c.ttl).Err()
}

// Invalidate removes the cached summary of an account.
func (c *SummaryCache) Invalidate(ctx context.Context, accountID string) error {
	return c.client.Del(ctx, c.prefix+accountID).Err()
}
