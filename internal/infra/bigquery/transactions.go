package bigquery

import (
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/vkuzmin/budget-categorizer/internal/domain"
)

type TransactionRow struct {
	TransactionID string `bigquery:"transaction_id"` // REQUIRED

	Owner string `bigquery:"owner"` // REQUIRED

	StatementID string `bigquery:"statement_id"`  // NULLABLE
	ImportRunID string `bigquery:"import_run_id"` // NULLABLE

	TransactionDate bigquery.NullDate `bigquery:"transaction_date"` // NULLABLE, dateless rows import with NULL
	Description     string            `bigquery:"description"`      // REQUIRED
	Amount          float64           `bigquery:"amount"`           // REQUIRED FLOAT64
	Category        string            `bigquery:"category"`         // REQUIRED

	CreatedTS time.Time `bigquery:"created_ts"` // REQUIRED
}

// toTransactionRow maps a transaction to its stored form. An empty date is a
// valid normalized value (the source CSV had no recognizable date column) and
// becomes NULL; only a non-empty date that fails to parse is an error.
func toTransactionRow(tx *domain.Transaction) (*TransactionRow, error) {
	var date bigquery.NullDate
	if tx.Date != "" {
		parsed, err := civil.ParseDate(tx.Date)
		if err != nil {
			return nil, fmt.Errorf("toTransactionRow: parse date %q: %w", tx.Date, err)
		}
		date = bigquery.NullDate{Date: parsed, Valid: true}
	}
	return &TransactionRow{
		TransactionID:   tx.TransactionID,
		Owner:           tx.Owner,
		StatementID:     tx.StatementID,
		ImportRunID:     tx.ImportRunID,
		TransactionDate: date,
		Description:     tx.Description,
		Amount:          tx.Amount,
		Category:        tx.Category,
		CreatedTS:       time.Now().UTC(),
	}, nil
}

func fromTransactionRow(row *TransactionRow) *domain.Transaction {
	var date string
	if row.TransactionDate.Valid {
		date = row.TransactionDate.Date.String()
	}
	return &domain.Transaction{
		TransactionID: row.TransactionID,
		Owner:         row.Owner,
		Date:          date,
		Description:   row.Description,
		Amount:        row.Amount,
		Category:      row.Category,
		StatementID:   row.StatementID,
		ImportRunID:   row.ImportRunID,
	}
}
