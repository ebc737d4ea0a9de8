package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/txsummary/internal/domain"
	"github.com/iho/txsummary/internal/usecase"
)

// Server message types pushed over the websocket.
const (
	MessageTransactionUpdate = "transaction_update"
	MessageError             = "error"
)

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	ID        string    `json:"id"`
	Nickname  string    `json:"nickname"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AccountFromDomain converts domain account to response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:        a.ID,
		Nickname:  a.Nickname,
		Email:     a.Email,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// AccountsFromDomain converts domain accounts to responses.
func AccountsFromDomain(accounts []*domain.Account) []*AccountResponse {
	result := make([]*AccountResponse, len(accounts))
	for i, a := range accounts {
		result[i] = AccountFromDomain(a)
	}
	return result
}

// TransactionResponse represents a stored transaction.
type TransactionResponse struct {
	ID          string                 `json:"id"`
	AccountID   string                 `json:"account_id,omitempty"`
	Amount      float64                `json:"amount"`
	Type        domain.TransactionType `json:"type"`
	InputDate   time.Time              `json:"input_date"`
	InputFileID string                 `json:"input_file_id,omitempty"`
}

// TransactionFromDomain converts a domain transaction to response.
func TransactionFromDomain(t *domain.Transaction) *TransactionResponse {
	return &TransactionResponse{
		ID:          t.ID,
		AccountID:   t.AccountID,
		Amount:      amount(t.Amount),
		Type:        t.Type(),
		InputDate:   t.Date,
		InputFileID: t.InputFileID,
	}
}

// TransactionsFromDomain converts domain transactions to responses.
func TransactionsFromDomain(txs []*domain.Transaction) []*TransactionResponse {
	result := make([]*TransactionResponse, len(txs))
	for i, t := range txs {
		result[i] = TransactionFromDomain(t)
	}
	return result
}

// SummaryTotals is the account-wide fold.
type SummaryTotals struct {
	TotalBalance  float64 `json:"total_balance"`
	TotalCount    int     `json:"total_count"`
	TotalCredit   float64 `json:"total_credit"`
	TotalDebit    float64 `json:"total_debit"`
	AverageCredit float64 `json:"average_credit"`
	AverageDebit  float64 `json:"average_debit"`
	CreditCount   int     `json:"credit_count"`
	DebitCount    int     `json:"debit_count"`
}

// MonthlyResponse is one month bucket.
type MonthlyResponse struct {
	Year              int                    `json:"year"`
	Month             int                    `json:"month"`
	Balance           float64                `json:"balance"`
	TotalTransactions int                    `json:"total_transactions"`
	AverageCredit     float64                `json:"average_credit"`
	AverageDebit      float64                `json:"average_debit"`
	CreditCount       int                    `json:"credit_count"`
	DebitCount        int                    `json:"debit_count"`
	Transactions      []*TransactionResponse `json:"transactions"`
}

// SkippedResponse reports a transaction left out of a summary.
type SkippedResponse struct {
	TransactionID string `json:"transaction_id"`
	Reason        string `json:"reason"`
}

// TransactionSummaryResponse is the summary payload shared by the HTTP API and websocket pushes.
// MonthOrder lists the monthly keys most recent first.
type TransactionSummaryResponse struct {
	AccountID  string                      `json:"account_id"`
	Sequence   int64                       `json:"sequence"`
	Summary    SummaryTotals               `json:"summary"`
	Monthly    map[string]*MonthlyResponse `json:"monthly"`
	MonthOrder []string                    `json:"month_order"`
	Skipped    []SkippedResponse           `json:"skipped"`
}

// SummaryFromDomain converts a summary to its response form.
func SummaryFromDomain(s *domain.TransactionSummary) *TransactionSummaryResponse {
	resp := &TransactionSummaryResponse{
		AccountID: s.AccountID,
		Sequence:  s.Sequence,
		Summary: SummaryTotals{
			TotalBalance:  amount(s.Summary.TotalBalance),
			TotalCount:    s.Summary.TotalCount,
			TotalCredit:   amount(s.Summary.TotalCredit),
			TotalDebit:    amount(s.Summary.TotalDebit),
			AverageCredit: amount(s.Summary.AverageCredit),
			AverageDebit:  amount(s.Summary.AverageDebit),
			CreditCount:   s.Summary.CreditCount,
			DebitCount:    s.Summary.DebitCount,
		},
		Monthly:    make(map[string]*MonthlyResponse, len(s.Monthly)),
		MonthOrder: make([]string, 0, len(s.Monthly)),
		Skipped:    make([]SkippedResponse, 0, len(s.Skipped)),
	}

	for _, key := range s.SortedMonthKeys() {
		b := s.Monthly[key]
		txs := make([]*TransactionResponse, len(b.Transactions))
		for i, t := range b.Transactions {
			txs[i] = TransactionFromDomain(t)
			txs[i].AccountID = ""
		}
		resp.Monthly[string(key)] = &MonthlyResponse{
			Year:              b.Year,
			Month:             int(b.Month),
			Balance:           amount(b.Balance),
			TotalTransactions: b.TotalTransactions,
			AverageCredit:     amount(b.AverageCredit),
			AverageDebit:      amount(b.AverageDebit),
			CreditCount:       b.CreditCount,
			DebitCount:        b.DebitCount,
			Transactions:      txs,
		}
		resp.MonthOrder = append(resp.MonthOrder, string(key))
	}

	for _, sk := range s.Skipped {
		resp.Skipped = append(resp.Skipped, SkippedResponse{TransactionID: sk.TransactionID, Reason: sk.Reason})
	}
	return resp
}

// SummaryUpdateMessage is pushed to websocket clients when an account's summary changes.
type SummaryUpdateMessage struct {
	Type      string                      `json:"type"`
	AccountID string                      `json:"account_id"`
	Sequence  int64                       `json:"sequence"`
	Summary   *TransactionSummaryResponse `json:"summary"`
}

// SummaryUpdateFromDomain converts a live update to its websocket form.
func SummaryUpdateFromDomain(u *domain.SummaryUpdate) *SummaryUpdateMessage {
	msg := &SummaryUpdateMessage{
		Type:      MessageTransactionUpdate,
		AccountID: u.AccountID,
		Sequence:  u.Sequence,
	}
	if u.Summary != nil {
		msg.Summary = SummaryFromDomain(u.Summary)
		msg.Summary.Sequence = u.Sequence
	}
	return msg
}

// ErrorMessage is pushed to a websocket client whose message was rejected.
type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// UploadResponse acknowledges a queued upload.
type UploadResponse struct {
	Status   string `json:"status"`
	JobID    string `json:"job_id"`
	FileName string `json:"file_name"`
}

// UploadFromJob converts a queued job to response.
func UploadFromJob(job *domain.ImportJob) *UploadResponse {
	return &UploadResponse{Status: "queued", JobID: job.ID, FileName: job.FileName}
}

// SendSummaryResponse acknowledges a delivered summary email.
type SendSummaryResponse struct {
	Status string `json:"status"`
	Email  string `json:"email"`
}

// ImportResultResponse reports a finished import, as printed by the CLI.
type ImportResultResponse struct {
	JobID     string            `json:"job_id"`
	AccountID string            `json:"account_id"`
	Imported  int               `json:"imported"`
	Skipped   []domain.RowError `json:"skipped"`
	Sequence  int64             `json:"sequence"`
	Published bool              `json:"published"`
}

// ImportResultFromUseCase converts an import result to response.
func ImportResultFromUseCase(r *usecase.ImportResult) *ImportResultResponse {
	resp := &ImportResultResponse{
		JobID:     r.JobID,
		Imported:  r.Imported,
		Skipped:   r.Skipped,
		Published: r.Published,
	}
	if resp.Skipped == nil {
		resp.Skipped = []domain.RowError{}
	}
	if r.Account != nil {
		resp.AccountID = r.Account.ID
	}
	if r.Summary != nil {
		resp.Sequence = r.Summary.Sequence
	}
	return resp
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// amount renders a decimal as a JSON number rounded to cents.
func amount(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
