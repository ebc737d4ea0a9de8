package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

// SQLSTATE codes worth another attempt.
const (
	pgErrSerializationFailure = "40001"
	pgErrDeadlock             = "40P01"
	pgErrLockNotAvailable     = "55P03"
)

// Retrier reruns import transactions that lost a lock race.
type Retrier struct {
	maxRetries uint64
	initial    time.Duration
	ceiling    time.Duration
	budget     time.Duration
}

type RetrierOption func(*Retrier)

// WithMaxRetries sets how many extra attempts follow the first one.
func WithMaxRetries(n int) RetrierOption {
	return func(r *Retrier) {
		if n >= 0 {
			r.maxRetries = uint64(n)
		}
	}
}

// WithBackoff sets the first wait, the largest wait and the overall budget.
func WithBackoff(initial, ceiling, budget time.Duration) RetrierOption {
	return func(r *Retrier) {
		r.initial, r.ceiling, r.budget = initial, ceiling, budget
	}
}

func NewRetrier(opts ...RetrierOption) *Retrier {
	r := &Retrier{
		maxRetries: 3,
		initial:    50 * time.Millisecond,
		ceiling:    time.Second,
		budget:     10 * time.Second,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Retry runs op until it succeeds, fails with a non-transient error, or the
// retry budget runs out. The last error is returned unchanged.
func (r *Retrier) Retry(ctx context.Context, op func() error) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = r.initial
	policy.MaxInterval = r.ceiling
	policy.MaxElapsedTime = r.budget

	attempt := 0
	return backoff.RetryNotify(func() error {
		attempt++
		err := op()
		if err != nil && !isRetryableError(err) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(policy, r.maxRetries), ctx), func(err error, wait time.Duration) {
		zerolog.Ctx(ctx).Warn().Err(err).
			Int("attempt", attempt).
			Dur("wait", wait).
			Msg("transient database error, retrying")
	})
}

func isRetryableError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return pgconn.SafeToRetry(err)
	}
	switch pgErr.Code {
	case pgErrSerializationFailure, pgErrDeadlock, pgErrLockNotAvailable:
		return true
	default:
		return false
	}
}
