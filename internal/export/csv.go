// Package export writes categorized transactions back out as CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/vkuzmin/budget-categorizer/internal/domain"
)

var header = []string{"Date", "Description", "Amount", "Type", "Category"}

// WriteCSV writes the transactions to w in a fixed five-column layout. Type
// is "Credit" for strictly positive amounts and "Debit" otherwise; an exact
// zero counts as a debit.
func WriteCSV(w io.Writer, txs []*domain.Transaction) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(header); err != nil {
		return fmt.Errorf("WriteCSV: write header: %w", err)
	}
	for i, tx := range txs {
		record := []string{
			tx.Date,
			tx.Description,
			domain.FormatAmount(tx.Amount),
			rowType(tx.Amount),
			tx.Category,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("WriteCSV: write row %d: %w", i, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("WriteCSV: flush: %w", err)
	}
	return nil
}

func rowType(amount float64) string {
	if amount > 0 {
		return "Credit"
	}
	return "Debit"
}
