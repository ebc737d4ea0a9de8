package render

import (
	"fmt"
	"io"
	"text/tabwriter"
)

// WriteText writes v as an aligned plain-text report.
func WriteText(w io.Writer, v View) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "Account\t%s\n", v.AccountID)
	fmt.Fprintf(tw, "Total balance\t%s\n", v.Header.TotalBalance)
	fmt.Fprintf(tw, "Transactions\t%d\n", v.Header.TotalCount)

	if v.Details.Visible {
		fmt.Fprintf(tw, "Credits\t%s (%d, avg %s)\n", v.Details.TotalCredit, v.Details.CreditCount, v.Details.AverageCredit)
		fmt.Fprintf(tw, "Debits\t%s (%d, avg %s)\n", v.Details.TotalDebit, v.Details.DebitCount, v.Details.AverageDebit)
	}

	for _, m := range v.Months {
		marker := "+"
		if m.Expanded {
			marker = "-"
		}
		fmt.Fprintf(tw, "\n%s %s\tbalance %s\t%d transactions\tavg credit %s\tavg debit %s\n",
			marker, m.Label, m.Balance, m.TotalTransactions, m.AverageCredit, m.AverageDebit)
		if !m.Expanded {
			continue
		}
		for _, r := range m.Rows {
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", r.Date, r.Type, r.Amount, r.ID)
		}
	}

	if len(v.Skipped) > 0 {
		fmt.Fprintf(tw, "\nSkipped\t%d\n", len(v.Skipped))
		for _, s := range v.Skipped {
			fmt.Fprintf(tw, "  %s\t%s\n", s.TransactionID, s.Reason)
		}
	}

	return tw.Flush()
}
