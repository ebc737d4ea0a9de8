package postgres

import (
	"context"
	"fmt"

	"github.com/iho/txsummary/internal/domain"
	"github.com/iho/txsummary/internal/infrastructure/postgres/generated"
	"github.com/iho/txsummary/internal/usecase"
)

// TransactionRepository implements usecase.TransactionRepository.
type TransactionRepository struct {
	queries *generated.Queries
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(db generated.DBTX) *TransactionRepository {
	return &TransactionRepository{
		queries: generated.New(db),
	}
}

// CreateBatch bulk-inserts transactions with COPY inside tx.
func (r *TransactionRepository) CreateBatch(ctx context.Context, tx usecase.Transaction, txs []*domain.Transaction) error {
	if len(txs) == 0 {
		return nil
	}

	queries, err := queriesFor(tx)
	if err != nil {
		return err
	}

	params := make([]generated.CreateTransactionsParams, 0, len(txs))
	for _, t := range txs {
		params = append(params, generated.CreateTransactionsParams{
			ID:          t.ID,
			AccountID:   t.AccountID,
			Amount:      decimalToNumeric(t.Amount),
			InputDate:   timeToPgTimestamptz(t.Date),
			InputFileID: t.InputFileID,
			CreatedAt:   timeToPgTimestamptz(t.CreatedAt),
		})
	}

	n, err := queries.CreateTransactions(ctx, params)
	if err != nil {
		return err
	}
	if int(n) != len(params) {
		return fmt.Errorf("copy inserted %d of %d transactions", n, len(params))
	}

	return nil
}

// ListByAccount lists an account's transactions, newest first.
func (r *TransactionRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transaction, error) {
	rows, err := r.queries.ListTransactionsByAccount(ctx, generated.ListTransactionsByAccountParams{
		AccountID: accountID,
		Limit:     int32(limit),
		Offset:    int32(offset),
	})
	if err != nil {
		return nil, err
	}

	return rowsToTransactions(rows), nil
}

// ListAllByAccount returns every transaction of an account in insertion order.
func (r *TransactionRepository) ListAllByAccount(ctx context.Context, accountID string) ([]*domain.Transaction, error) {
	rows, err := r.queries.ListAllTransactionsByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	return rowsToTransactions(rows), nil
}

// CountByInputFile counts the rows stored by one import job.
func (r *TransactionRepository) CountByInputFile(ctx context.Context, inputFileID string) (int, error) {
	n, err := r.queries.CountTransactionsByInputFile(ctx, inputFileID)
	if err != nil {
		return 0, fmt.Errorf("count rows of import %s: %w", inputFileID, err)
	}
	return int(n), nil
}

func rowsToTransactions(rows []generated.Transaction) []*domain.Transaction {
	txs := make([]*domain.Transaction, 0, len(rows))
	for _, row := range rows {
		txs = append(txs, &domain.Transaction{
			ID:          row.ID,
			AccountID:   row.AccountID,
			Amount:      numericToDecimal(row.Amount),
			Date:        pgTimestamptzToTime(row.InputDate),
			InputFileID: row.InputFileID,
			CreatedAt:   pgTimestamptzToTime(row.CreatedAt),
		})
	}
	return txs
}
