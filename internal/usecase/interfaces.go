package usecase

import (
	"context"
	"io"
	"time"

	"github.com/iho/txsummary/internal/domain"
)

// AccountRepository defines data access for accounts.
type AccountRepository interface {
	Create(ctx context.Context, tx Transaction, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	List(ctx context.Context, limit, offset int) ([]*domain.Account, error)
}

// TransactionRepository defines data access for stored transactions.
type TransactionRepository interface {
	CreateBatch(ctx context.Context, tx Transaction, txs []*domain.Transaction) error
	// ListByAccount returns a page ordered by date, newest first.
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transaction, error)
	// ListAllByAccount returns every transaction in insertion order.
	ListAllByAccount(ctx context.Context, accountID string) ([]*domain.Transaction, error)
	// CountByInputFile reports how many rows an import job already stored.
	CountByInputFile(ctx context.Context, inputFileID string) (int, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Retrier re-runs an operation on transient storage errors.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// SummaryCache stores computed summaries per account.
type SummaryCache interface {
	Get(ctx context.Context, accountID string) (*domain.TransactionSummary, bool, error)
	Set(ctx context.Context, summary *domain.TransactionSummary) error
	Invalidate(ctx context.Context, accountID string) error
}

// SequenceStore hands out monotonically increasing per-account sequence numbers.
type SequenceStore interface {
	Next(ctx context.Context, accountID string) (int64, error)
	Current(ctx context.Context, accountID string) (int64, error)
}

// UpdatePublisher fans summary updates out to live subscribers.
type UpdatePublisher interface {
	PublishUpdate(ctx context.Context, update *domain.SummaryUpdate) error
}

// JobQueue accepts import jobs for asynchronous processing.
type JobQueue interface {
	EnqueueImport(ctx context.Context, job *domain.ImportJob) error
}

// StatementParser turns an uploaded statement into transaction drafts.
// Unusable rows are reported, not fatal.
type StatementParser interface {
	Parse(r io.Reader) ([]domain.TransactionDraft, []domain.RowError, error)
}

// Mailer delivers rendered email messages.
type Mailer interface {
	Send(ctx context.Context, msg *domain.EmailMessage) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops a key whose request failed so it can be retried.
	Release(ctx context.Context, key string) error
}
