package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInconsistentSummary is returned when bucket aggregates disagree with their members.
var ErrInconsistentSummary = errors.New("summary is inconsistent with its transactions")

// MonthBucket aggregates the transactions of one calendar month.
type MonthBucket struct {
	Key               MonthKey
	Year              int
	Month             time.Month
	Balance           decimal.Decimal
	TotalTransactions int
	TotalCredit       decimal.Decimal
	TotalDebit        decimal.Decimal
	CreditCount       int
	DebitCount        int
	AverageCredit     decimal.Decimal
	AverageDebit      decimal.Decimal
	// Transactions keeps members in the order they were added.
	Transactions []*Transaction
}

func newMonthBucket(key MonthKey) *MonthBucket {
	return &MonthBucket{
		Key:           key,
		Year:          key.Year(),
		Month:         key.Month(),
		Balance:       decimal.Zero,
		TotalCredit:   decimal.Zero,
		TotalDebit:    decimal.Zero,
		AverageCredit: decimal.Zero,
		AverageDebit:  decimal.Zero,
	}
}

func (b *MonthBucket) add(tx *Transaction) {
	b.Transactions = append(b.Transactions, tx)
	b.TotalTransactions++
	b.Balance = b.Balance.Add(tx.Amount)

	if tx.IsCredit() {
		b.CreditCount++
		b.TotalCredit = b.TotalCredit.Add(tx.Amount)
		b.AverageCredit = mean(b.TotalCredit, b.CreditCount)
		return
	}

	b.DebitCount++
	b.TotalDebit = b.TotalDebit.Add(tx.Amount)
	b.AverageDebit = mean(b.TotalDebit, b.DebitCount)
}

// AccountSummary is the fold of every month bucket of one account.
type AccountSummary struct {
	TotalBalance  decimal.Decimal
	TotalCount    int
	TotalCredit   decimal.Decimal
	TotalDebit    decimal.Decimal
	AverageCredit decimal.Decimal
	AverageDebit  decimal.Decimal
	CreditCount   int
	DebitCount    int
}

// SkippedTransaction reports a transaction left out of the aggregation.
type SkippedTransaction struct {
	TransactionID string
	Reason        string
}

// TransactionSummary is the display-ready aggregation for one account.
type TransactionSummary struct {
	AccountID string
	// Sequence orders summaries of the same account; newer summaries have larger values.
	Sequence int64
	Summary  AccountSummary
	Monthly  map[MonthKey]*MonthBucket
	Skipped  []SkippedTransaction
}

// SortedMonthKeys returns the bucket keys, most recent month first.
func (s *TransactionSummary) SortedMonthKeys() []MonthKey {
	keys := make([]MonthKey, 0, len(s.Monthly))
	for k := range s.Monthly {
		keys = append(keys, k)
	}
	SortMonthKeysDesc(keys)
	return keys
}

// CheckConsistency recomputes every bucket from its members and the summary from the
// buckets' members, and fails if either disagrees with the stored aggregates.
func (s *TransactionSummary) CheckConsistency() error {
	total := decimal.Zero
	count := 0

	for key, bucket := range s.Monthly {
		balance := decimal.Zero
		for _, tx := range bucket.Transactions {
			if MonthKeyOf(tx.Date) != key {
				return fmt.Errorf("%w: transaction %s filed under %s", ErrInconsistentSummary, tx.ID, key)
			}
			balance = balance.Add(tx.Amount)
		}
		if !balance.Equal(bucket.Balance) || len(bucket.Transactions) != bucket.TotalTransactions {
			return fmt.Errorf("%w: bucket %s", ErrInconsistentSummary, key)
		}
		total = total.Add(balance)
		count += len(bucket.Transactions)
	}

	if !total.Equal(s.Summary.TotalBalance) || count != s.Summary.TotalCount {
		return fmt.Errorf("%w: totals", ErrInconsistentSummary)
	}

	return nil
}

// Aggregator folds transactions into month buckets one at a time.
// It is not safe for concurrent use.
type Aggregator struct {
	monthly map[MonthKey]*MonthBucket
	skipped []SkippedTransaction
}

// NewAggregator creates an empty Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{
		monthly: make(map[MonthKey]*MonthBucket),
	}
}

// Add files tx into its month bucket. A nil transaction or one without a usable
// date is recorded as skipped and an error is returned; the aggregator stays usable.
func (a *Aggregator) Add(tx *Transaction) error {
	if tx == nil {
		a.skipped = append(a.skipped, SkippedTransaction{Reason: ErrNilTransaction.Error()})
		return ErrNilTransaction
	}

	if tx.Date.IsZero() {
		a.skipped = append(a.skipped, SkippedTransaction{
			TransactionID: tx.ID,
			Reason:        ErrInvalidDate.Error(),
		})
		return fmt.Errorf("%w: transaction %s", ErrInvalidDate, tx.ID)
	}

	key := MonthKeyOf(tx.Date)
	bucket, ok := a.monthly[key]
	if !ok {
		bucket = newMonthBucket(key)
		a.monthly[key] = bucket
	}
	bucket.add(tx)

	return nil
}

// Result folds the buckets into a TransactionSummary and resets the aggregator.
func (a *Aggregator) Result(accountID string) *TransactionSummary {
	summary := &TransactionSummary{
		AccountID: accountID,
		Summary:   foldBuckets(a.monthly),
		Monthly:   a.monthly,
		Skipped:   a.skipped,
	}

	a.monthly = make(map[MonthKey]*MonthBucket)
	a.skipped = nil

	return summary
}

// Aggregate groups txs by UTC calendar month and summarizes them.
// Transactions with invalid dates are skipped and listed in the result.
func Aggregate(accountID string, txs []*Transaction) *TransactionSummary {
	agg := NewAggregator()
	for _, tx := range txs {
		_ = agg.Add(tx)
	}
	return agg.Result(accountID)
}

func foldBuckets(monthly map[MonthKey]*MonthBucket) AccountSummary {
	s := AccountSummary{
		TotalBalance:  decimal.Zero,
		TotalCredit:   decimal.Zero,
		TotalDebit:    decimal.Zero,
		AverageCredit: decimal.Zero,
		AverageDebit:  decimal.Zero,
	}

	for _, b := range monthly {
		s.TotalBalance = s.TotalBalance.Add(b.Balance)
		s.TotalCount += b.TotalTransactions
		s.TotalCredit = s.TotalCredit.Add(b.TotalCredit)
		s.TotalDebit = s.TotalDebit.Add(b.TotalDebit)
		s.CreditCount += b.CreditCount
		s.DebitCount += b.DebitCount
	}

	s.AverageCredit = mean(s.TotalCredit, s.CreditCount)
	s.AverageDebit = mean(s.TotalDebit, s.DebitCount)

	return s
}

func mean(sum decimal.Decimal, n int) decimal.Decimal {
	if n == 0 {
		return decimal.Zero
	}
	return sum.Div(decimal.NewFromInt(int64(n)))
}
