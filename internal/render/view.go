// Package render turns a transaction summary into display-ready views.
//
// Renderers never aggregate. They only format what the domain aggregator
// produced, so the browser, the CLI and the summary email all agree.
package render

import (
	"fmt"
	"maps"

	"github.com/iho/txsummary/internal/domain"
)

const dateLayout = "2006-01-02"

// ViewState holds presentation choices. It is a value: every transition
// returns a new state and leaves the receiver untouched.
type ViewState struct {
	DetailsExpanded bool
	expanded        map[domain.MonthKey]bool
}

// NewViewState returns a state with details and all months collapsed.
func NewViewState() ViewState {
	return ViewState{}
}

// ExpandAll returns a state with details and every month of s expanded.
func ExpandAll(s *domain.TransactionSummary) ViewState {
	st := ViewState{DetailsExpanded: true, expanded: make(map[domain.MonthKey]bool, len(s.Monthly))}
	for key := range s.Monthly {
		st.expanded[key] = true
	}
	return st
}

// IsExpanded reports whether the month section for key is open.
func (v ViewState) IsExpanded(key domain.MonthKey) bool {
	return v.expanded[key]
}

func (v ViewState) clone() ViewState {
	return ViewState{DetailsExpanded: v.DetailsExpanded, expanded: maps.Clone(v.expanded)}
}

func (v ViewState) with(key domain.MonthKey, open bool) ViewState {
	next := v.clone()
	if next.expanded == nil {
		next.expanded = make(map[domain.MonthKey]bool, 1)
	}
	if open {
		next.expanded[key] = true
	} else {
		delete(next.expanded, key)
	}
	return next
}

// Expand opens a month section. Expanding an open section is a no-op.
func (v ViewState) Expand(key domain.MonthKey) ViewState {
	return v.with(key, true)
}

// Collapse closes a month section. Collapsing a closed section is a no-op.
func (v ViewState) Collapse(key domain.MonthKey) ViewState {
	return v.with(key, false)
}

// Toggle flips a month section.
func (v ViewState) Toggle(key domain.MonthKey) ViewState {
	return v.with(key, !v.IsExpanded(key))
}

// ExpandDetails shows the credit/debit detail section.
func (v ViewState) ExpandDetails() ViewState {
	next := v.clone()
	next.DetailsExpanded = true
	return next
}

// CollapseDetails hides the credit/debit detail section.
func (v ViewState) CollapseDetails() ViewState {
	next := v.clone()
	next.DetailsExpanded = false
	return next
}

// View is the display tree for one account summary.
type View struct {
	AccountID string
	Sequence  int64
	Header    Header
	Details   Details
	Months    []MonthSection
	Skipped   []SkippedRow
}

// Header carries the always-visible totals.
type Header struct {
	TotalBalance string
	TotalCount   int
}

// Details carries the account-wide credit/debit breakdown.
type Details struct {
	Visible       bool
	TotalCredit   string
	TotalDebit    string
	AverageCredit string
	AverageDebit  string
	CreditCount   int
	DebitCount    int
}

// MonthSection is one collapsible month.
type MonthSection struct {
	Key               domain.MonthKey
	Label             string
	Expanded          bool
	Balance           string
	TotalTransactions int
	AverageCredit     string
	AverageDebit      string
	CreditCount       int
	DebitCount        int
	Rows              []Row
}

// Row is one transaction line inside a month.
type Row struct {
	ID     string
	Date   string
	Amount string
	Type   domain.TransactionType
}

// SkippedRow reports a transaction left out of the summary.
type SkippedRow struct {
	TransactionID string
	Reason        string
}

// Render builds the display tree for s under state.
// Months are ordered most recent first.
func Render(s *domain.TransactionSummary, state ViewState) View {
	v := View{
		AccountID: s.AccountID,
		Sequence:  s.Sequence,
		Header: Header{
			TotalBalance: money(s.Summary.TotalBalance.StringFixed(2)),
			TotalCount:   s.Summary.TotalCount,
		},
		Details: Details{
			Visible:       state.DetailsExpanded,
			TotalCredit:   money(s.Summary.TotalCredit.StringFixed(2)),
			TotalDebit:    money(s.Summary.TotalDebit.StringFixed(2)),
			AverageCredit: money(s.Summary.AverageCredit.StringFixed(2)),
			AverageDebit:  money(s.Summary.AverageDebit.StringFixed(2)),
			CreditCount:   s.Summary.CreditCount,
			DebitCount:    s.Summary.DebitCount,
		},
	}

	for _, key := range s.SortedMonthKeys() {
		b := s.Monthly[key]
		section := MonthSection{
			Key:               key,
			Label:             fmt.Sprintf("%s %d", b.Month, b.Year),
			Expanded:          state.IsExpanded(key),
			Balance:           money(b.Balance.StringFixed(2)),
			TotalTransactions: b.TotalTransactions,
			AverageCredit:     money(b.AverageCredit.StringFixed(2)),
			AverageDebit:      money(b.AverageDebit.StringFixed(2)),
			CreditCount:       b.CreditCount,
			DebitCount:        b.DebitCount,
			Rows:              make([]Row, 0, len(b.Transactions)),
		}
		for _, tx := range b.Transactions {
			section.Rows = append(section.Rows, Row{
				ID:     tx.ID,
				Date:   tx.Date.UTC().Format(dateLayout),
				Amount: money(tx.Amount.StringFixed(2)),
				Type:   tx.Type(),
			})
		}
		v.Months = append(v.Months, section)
	}

	for _, sk := range s.Skipped {
		v.Skipped = append(v.Skipped, SkippedRow{TransactionID: sk.TransactionID, Reason: sk.Reason})
	}

	return v
}

// money normalizes "-0.00" to "0.00".
func money(s string) string {
	if s == "-0.00" {
		return "0.00"
	}
	return s
}
