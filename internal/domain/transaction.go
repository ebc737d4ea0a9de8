package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType classifies a transaction by the sign of its amount.
type TransactionType string

const (
	TransactionTypeCredit TransactionType = "credit"
	TransactionTypeDebit  TransactionType = "debit"
)

// Transaction is a single signed movement on an account. It is never mutated after import.
type Transaction struct {
	ID          string
	AccountID   string
	Amount      decimal.Decimal
	Date        time.Time
	InputFileID string
	CreatedAt   time.Time
}

// Type returns credit for non-negative amounts and debit otherwise.
func (t *Transaction) Type() TransactionType {
	if t.Amount.IsNegative() {
		return TransactionTypeDebit
	}
	return TransactionTypeCredit
}

// IsCredit reports whether the amount is non-negative.
func (t *Transaction) IsCredit() bool {
	return !t.Amount.IsNegative()
}
