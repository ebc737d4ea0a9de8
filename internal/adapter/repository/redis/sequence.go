package redis

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// SequenceStore implements usecase.SequenceStore with one INCR counter per account.
type SequenceStore struct {
	client *redis.Client
	prefix string
}

// NewSequenceStore creates a new SequenceStore.
func NewSequenceStore(client *redis.Client) *SequenceStore {
	return &SequenceStore{
		client: client,
		prefix: "sequence:",
	}
}

// Next increments and returns the account's sequence.
func (s *SequenceStore) Next(ctx context.Context, accountID string) (int64, error) {
	return s.client.Incr(ctx, s.prefix+accountID).Result()
}

// Current returns the account's sequence without advancing it. Unknown accounts are at zero.
func (s *SequenceStore) Current(ctx context.Context, accountID string) (int64, error) {
	n, err := s.client.Get(ctx, s.prefix+accountID).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}
