// Package csvimport parses uploaded CSV statements.
//
// Accepted rows are "date,amount" or "id,date,amount". An optional header row is
// skipped. Rows that cannot be parsed are reported with their line number and the
// remaining rows are still returned.
package csvimport

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/txsummary/internal/domain"
)

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006/01/02",
	"1/2/2006",
}

// Parser implements usecase.StatementParser.
type Parser struct{}

// NewParser creates a Parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse reads every row of r. The error is non-nil only when the input is not CSV at all.
func (p *Parser) Parse(r io.Reader) ([]domain.TransactionDraft, []domain.RowError, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true

	var (
		drafts  []domain.TransactionDraft
		skipped []domain.RowError
	)

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			skipped = append(skipped, domain.RowError{Line: parseErr.Line, Reason: parseErr.Err.Error()})
			continue
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read statement: %w", err)
		}

		line, _ := reader.FieldPos(0)
		if isBlank(record) {
			continue
		}
		if len(drafts) == 0 && len(skipped) == 0 && isHeader(record) {
			continue
		}

		draft, reason := parseRow(record)
		if reason != "" {
			skipped = append(skipped, domain.RowError{Line: line, Reason: reason})
			continue
		}
		draft.Line = line
		drafts = append(drafts, draft)
	}

	return drafts, skipped, nil
}

func parseRow(record []string) (domain.TransactionDraft, string) {
	var dateField, amountField string
	switch len(record) {
	case 2:
		dateField, amountField = record[0], record[1]
	case 3:
		dateField, amountField = record[1], record[2]
	default:
		return domain.TransactionDraft{}, fmt.Sprintf("expected 2 or 3 columns, got %d", len(record))
	}

	date, err := parseDate(strings.TrimSpace(dateField))
	if err != nil {
		return domain.TransactionDraft{}, err.Error()
	}

	amount, err := parseAmount(strings.TrimSpace(amountField))
	if err != nil {
		return domain.TransactionDraft{}, err.Error()
	}

	return domain.TransactionDraft{Amount: amount, Date: date}, ""
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

func parseAmount(s string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimPrefix(s, "+"))
	if err != nil || s == "" {
		return decimal.Decimal{}, fmt.Errorf("invalid amount %q", s)
	}
	return amount, nil
}

func isBlank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// isHeader matches a first row naming its columns, e.g. "Id,Date,Transaction".
func isHeader(record []string) bool {
	for _, f := range record {
		if strings.EqualFold(strings.TrimSpace(f), "date") {
			return true
		}
	}
	return false
}
