package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// inFlight occupies a key while the first request carrying it is still running.
const inFlight = "processing"

// claimScript sets the key when it is free and otherwise returns what is
// already stored, in one round trip.
var claimScript = redis.NewScript(`
if redis.call('SET', KEYS[1], ARGV[1], 'NX', 'PX', ARGV[2]) then
	return false
end
return redis.call('GET', KEYS[1])
`)

// IdempotencyStore remembers responses by Idempotency-Key header.
type IdempotencyStore struct {
	client *redis.Client
	prefix string
}

func NewIdempotencyStore(client *redis.Client) *IdempotencyStore {
	return &IdempotencyStore{client: client, prefix: "idempotency:"}
}

// CheckAndSet claims key for the caller. When the key is already taken it
// reports true and the stored response, which is nil while the first request
// is still in flight.
func (s *IdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	value := []byte(inFlight)
	if response != nil {
		value = response
	}

	stored, err := claimScript.Run(ctx, s.client, []string{s.prefix + key}, value, ttl.Milliseconds()).Text()
	switch {
	case errors.Is(err, redis.Nil):
		return false, nil, nil
	case err != nil:
		return false, nil, fmt.Errorf("claim idempotency key: %w", err)
	case stored == inFlight:
		return true, nil, nil
	default:
		return true, []byte(stored), nil
	}
}

// Update replaces the in-flight marker with the final response.
func (s *IdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	return s.client.Set(ctx, s.prefix+key, response, ttl).Err()
}

// Release frees key so a failed request can be retried with it.
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.prefix+key).Err()
}
