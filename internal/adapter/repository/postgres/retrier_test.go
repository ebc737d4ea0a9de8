package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestRetrierRetry(t *testing.T) {
	deadlock := &pgconn.PgError{Code: pgErrDeadlock}
	constraint := &pgconn.PgError{Code: pgUniqueViolation}

	tests := []struct {
		name     string
		failures []error
		wantErr  error
		attempts int
	}{
		{name: "first try", attempts: 1},
		{name: "recovers after deadlock", failures: []error{deadlock}, attempts: 2},
		{name: "gives up after max retries", failures: []error{deadlock, deadlock, deadlock, deadlock}, wantErr: deadlock, attempts: 3},
		{name: "constraint violation is final", failures: []error{constraint}, wantErr: constraint, attempts: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRetrier(WithMaxRetries(2), WithBackoff(time.Millisecond, 2*time.Millisecond, time.Second))

			calls := 0
			err := r.Retry(context.Background(), func() error {
				calls++
				if calls <= len(tt.failures) {
					return tt.failures[calls-1]
				}
				return nil
			})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if calls != tt.attempts {
				t.Fatalf("expected %d attempts, got %d", tt.attempts, calls)
			}
		})
	}
}

func TestRetrierHonoursCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := NewRetrier(WithBackoff(10*time.Millisecond, 10*time.Millisecond, time.Second)).Retry(ctx, func() error {
		calls++
		return &pgconn.PgError{Code: pgErrSerializationFailure}
	})
	if err == nil {
		t.Fatal("expected an error once the context is canceled")
	}
	if calls != 1 {
		t.Fatalf("expected a single attempt, got %d", calls)
	}
}

func TestIsRetryableError(t *testing.T) {
	for code, want := range map[string]bool{
		pgErrDeadlock:             true,
		pgErrSerializationFailure: true,
		pgErrLockNotAvailable:     true,
		pgUniqueViolation:         false,
		"22P02":                   false,
	} {
		if got := isRetryableError(&pgconn.PgError{Code: code}); got != want {
			t.Errorf("SQLSTATE %s: got %v, want %v", code, got, want)
		}
	}
	if isRetryableError(errors.New("plain")) {
		t.Error("plain errors are not retryable")
	}
}
