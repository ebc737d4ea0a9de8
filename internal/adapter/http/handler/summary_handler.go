package handler

import (
	"context"
	"net/http"

	"github.com/iho/txsummary/internal/adapter/http/dto"
	"github.com/iho/txsummary/internal/domain"
	"github.com/iho/txsummary/internal/usecase"
)

// SummaryService defines the summary lookup needed by TransactionHandler.
type SummaryService interface {
	GetSummary(ctx context.Context, accountID string) (*domain.TransactionSummary, error)
}

// TransactionService defines the raw listing needed by TransactionHandler.
type TransactionService interface {
	ListTransactions(ctx context.Context, input usecase.ListTransactionsInput) ([]*domain.Transaction, error)
}

// NotificationService defines the email delivery needed by TransactionHandler.
type NotificationService interface {
	SendSummary(ctx context.Context, accountID string) (*domain.Account, error)
}

// TransactionHandler serves summaries, raw transactions and summary emails.
type TransactionHandler struct {
	summaries     SummaryService
	transactions  TransactionService
	notifications NotificationService
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(summaries SummaryService, transactions TransactionService, notifications NotificationService) *TransactionHandler {
	return &TransactionHandler{
		summaries:     summaries,
		transactions:  transactions,
		notifications: notifications,
	}
}

// Summary returns the monthly summary of an account.
func (h *TransactionHandler) Summary(w http.ResponseWriter, r *http.Request) {
	id, ok := accountIDParam(w, r)
	if !ok {
		return
	}
	summary, err := h.summaries.GetSummary(r.Context(), id)
	if err != nil {
		respondError(w, r, err, "failed to get summary")
		return
	}

	writeJSON(w, http.StatusOK, dto.SummaryFromDomain(summary))
}

// ListByAccount returns a page of an account's transactions, newest first.
func (h *TransactionHandler) ListByAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := accountIDParam(w, r)
	if !ok {
		return
	}
	txs, err := h.transactions.ListTransactions(r.Context(), usecase.ListTransactionsInput{
		AccountID: id,
		Limit:     parseIntQuery(r, "limit", 100),
		Offset:    parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		respondError(w, r, err, "failed to list transactions")
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionsFromDomain(txs))
}

// SendSummary emails the account's summary to its owner.
func (h *TransactionHandler) SendSummary(w http.ResponseWriter, r *http.Request) {
	id, ok := accountIDParam(w, r)
	if !ok {
		return
	}
	account, err := h.notifications.SendSummary(r.Context(), id)
	if err != nil {
		respondError(w, r, err, "failed to send summary")
		return
	}

	writeJSON(w, http.StatusOK, dto.SendSummaryResponse{Status: "sent", Email: account.Email})
}
