package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/iho/txsummary/internal/domain"
	"github.com/iho/txsummary/internal/infrastructure/metrics"
)

// AccountUseCase registers and looks up statement owners.
type AccountUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	outboxRepo  OutboxRepository
	idGen       IDGenerator
	metrics     *metrics.Metrics
}

// NewAccountUseCase wires the account service to its stores.
func NewAccountUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	m *metrics.Metrics,
) *AccountUseCase {
	return &AccountUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		outboxRepo:  outboxRepo,
		idGen:       idGen,
		metrics:     m,
	}
}

// CreateAccountInput carries the fields of a new account.
type CreateAccountInput struct {
	Nickname string
	Email    string
}

// CreateAccount stores a validated account together with its
// account.created outbox event.
func (uc *AccountUseCase) CreateAccount(ctx context.Context, input CreateAccountInput) (*domain.Account, error) {
	now := time.Now().UTC()
	acc := domain.NewAccount(uc.idGen.Generate(), input.Nickname, input.Email, now)
	if err := acc.Validate(); err != nil {
		return nil, err
	}

	created := domain.NewAccountEvent(uc.idGen.Generate(), acc.ID, domain.EventTypeAccountCreated, map[string]any{
		"nickname": acc.Nickname,
		"email":    acc.Email,
	}, now)

	err := withTx(ctx, uc.txManager, func(ctx context.Context, tx Transaction) error {
		if err := uc.accountRepo.Create(ctx, tx, acc); err != nil {
			return err
		}
		return uc.outboxRepo.Create(ctx, tx, created)
	})
	if err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}

	if uc.metrics != nil {
		uc.metrics.AccountsCreated.Inc()
	}
	return acc, nil
}

// GetAccount returns domain.ErrAccountNotFound for unknown IDs.
func (uc *AccountUseCase) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	return uc.accountRepo.GetByID(ctx, id)
}

// ListAccountsInput pages through accounts.
type ListAccountsInput struct {
	Limit  int
	Offset int
}

// ListAccounts clamps the page to domain limits before querying.
func (uc *AccountUseCase) ListAccounts(ctx context.Context, input ListAccountsInput) ([]*domain.Account, error) {
	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)
	return uc.accountRepo.List(ctx, limit, offset)
}
