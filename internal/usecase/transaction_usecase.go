package usecase

import (
	"context"

	"github.com/iho/txsummary/internal/domain"
)

// TransactionUseCase serves raw transaction listings.
type TransactionUseCase struct {
	accountRepo AccountRepository
	txRepo      TransactionRepository
}

// NewTransactionUseCase creates a new TransactionUseCase.
func NewTransactionUseCase(accountRepo AccountRepository, txRepo TransactionRepository) *TransactionUseCase {
	return &TransactionUseCase{
		accountRepo: accountRepo,
		txRepo:      txRepo,
	}
}

// ListTransactionsInput represents input for listing transactions.
type ListTransactionsInput struct {
	AccountID string
	Limit     int
	Offset    int
}

// ListTransactions lists an account's transactions, newest first.
func (uc *TransactionUseCase) ListTransactions(ctx context.Context, input ListTransactionsInput) ([]*domain.Transaction, error) {
	if _, err := uc.accountRepo.GetByID(ctx, input.AccountID); err != nil {
		return nil, err
	}

	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)
	return uc.txRepo.ListByAccount(ctx, input.AccountID, limit, offset)
}
