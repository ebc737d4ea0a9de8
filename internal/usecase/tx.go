package usecase

import (
	"context"
	"fmt"
)

// withTx runs fn inside a transaction bounded by WriteTxTimeout. The
// transaction is committed only when fn succeeds.
func withTx(ctx context.Context, tm TransactionManager, fn func(ctx context.Context, tx Transaction) error) error {
	ctx, cancel := context.WithTimeout(ctx, WriteTxTimeout)
	defer cancel()

	tx, err := tm.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
