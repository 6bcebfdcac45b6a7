package bigquery

import (
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/vkuzmin/budget-categorizer/internal/domain"
)

type ImportRunRow struct {
	ImportRunID string `bigquery:"import_run_id"` // REQUIRED
	StatementID string `bigquery:"statement_id"`  // REQUIRED

	StartedAt  time.Time              `bigquery:"started_ts"`  // REQUIRED
	FinishedAt bigquery.NullTimestamp `bigquery:"finished_ts"` // NULLABLE

	Status       string `bigquery:"status"`        // RUNNING | SUCCESS | FAILED
	ErrorMessage string `bigquery:"error_message"` // NULLABLE

	RowsTotal     bigquery.NullInt64 `bigquery:"rows_total"`
	RowsRejected  bigquery.NullInt64 `bigquery:"rows_rejected"`
	RowsDuplicate bigquery.NullInt64 `bigquery:"rows_duplicate"`
	RowsWritten   bigquery.NullInt64 `bigquery:"rows_written"`
}

func fromImportRunRow(row *ImportRunRow) *domain.ImportRun {
	run := &domain.ImportRun{
		ImportRunID:   row.ImportRunID,
		StatementID:   row.StatementID,
		Status:        row.Status,
		Error:         row.ErrorMessage,
		RowsTotal:     int(row.RowsTotal.Int64),
		RowsRejected:  int(row.RowsRejected.Int64),
		RowsDuplicate: int(row.RowsDuplicate.Int64),
		RowsWritten:   int(row.RowsWritten.Int64),
		StartedAt:     row.StartedAt,
	}
	if row.FinishedAt.Valid {
		finished := row.FinishedAt.Timestamp
		run.FinishedAt = &finished
	}
	return run
}
