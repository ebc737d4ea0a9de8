package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/iho/txsummary/internal/domain"
	"github.com/iho/txsummary/internal/infrastructure/postgres/generated"
	"github.com/iho/txsummary/internal/usecase"
)

const pgUniqueViolation = "23505"

// AccountRepository persists accounts.
type AccountRepository struct {
	queries *generated.Queries
}

func NewAccountRepository(db generated.DBTX) *AccountRepository {
	return &AccountRepository{queries: generated.New(db)}
}

// Create inserts account inside tx. A second account with the same email and
// nickname yields domain.ErrAccountExists.
func (r *AccountRepository) Create(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	q, err := queriesFor(tx)
	if err != nil {
		return err
	}

	err = q.CreateAccount(ctx, generated.CreateAccountParams{
		ID:        account.ID,
		Nickname:  account.Nickname,
		Email:     account.Email,
		CreatedAt: timeToPgTimestamptz(account.CreatedAt),
		UpdatedAt: timeToPgTimestamptz(account.UpdatedAt),
	})
	var pgErr *pgconn.PgError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation:
		return fmt.Errorf("%w: %s", domain.ErrAccountExists, account.Email)
	default:
		return fmt.Errorf("insert account %s: %w", account.ID, err)
	}
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	row, err := r.queries.GetAccountByID(ctx, id)
	if isNoRows(err) {
		return nil, fmt.Errorf("%w: %s", domain.ErrAccountNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load account %s: %w", id, err)
	}
	return toDomainAccount(row), nil
}

// List pages through accounts in creation order.
func (r *AccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	rows, err := r.queries.ListAccounts(ctx, generated.ListAccountsParams{
		Limit:  int32(limit),
		Offset: int32(offset),
	})
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	out := make([]*domain.Account, len(rows))
	for i := range rows {
		out[i] = toDomainAccount(rows[i])
	}
	return out, nil
}

func toDomainAccount(row generated.Account) *domain.Account {
	return &domain.Account{
		ID:        row.ID,
		Nickname:  row.Nickname,
		Email:     row.Email,
		CreatedAt: pgTimestamptzToTime(row.CreatedAt),
		UpdatedAt: pgTimestamptzToTime(row.UpdatedAt),
	}
}
