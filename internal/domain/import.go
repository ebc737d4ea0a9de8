package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ImportJob is a queued request to import an uploaded statement file.
type ImportJob struct {
	ID          string    `json:"id"`
	AccountID   string    `json:"account_id"`
	UserID      string    `json:"user_id,omitempty"`
	FileName    string    `json:"file_name"`
	Content     []byte    `json:"content"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// TransactionDraft is a parsed statement row that has not been stored yet.
type TransactionDraft struct {
	Line   int
	Amount decimal.Decimal
	Date   time.Time
}

// RowError describes a statement row that could not be parsed.
type RowError struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// SummaryUpdate is pushed to live subscribers after an account changes.
type SummaryUpdate struct {
	AccountID string              `json:"account_id"`
	Sequence  int64               `json:"sequence"`
	Summary   *TransactionSummary `json:"summary"`
}

// EmailMessage is a rendered message ready for delivery.
type EmailMessage struct {
	To       string
	Subject  string
	HTMLBody string
	TextBody string
}
