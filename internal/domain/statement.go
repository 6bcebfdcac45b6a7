package domain

import "time"

// Statement import statuses.
const (
	StatementPending  = "PENDING"
	StatementImported = "IMPORTED"
	StatementFailed   = "FAILED"
)

// Import run statuses.
const (
	RunRunning = "RUNNING"
	RunSuccess = "SUCCESS"
	RunFailed  = "FAILED"
)

// Statement is one uploaded CSV export stored in cloud storage.
type Statement struct {
	StatementID      string
	Owner            string
	StorageURI       string
	OriginalFilename string
	ImportStatus     string
	UploadedAt       time.Time
}

// ImportRun records one execution of the import pipeline over a statement,
// including the row counts that back the user-facing status line. Rejected
// rows and duplicate skips are silent per row; they surface only here.
type ImportRun struct {
	ImportRunID string
	StatementID string
	Status      string
	Error       string

	RowsTotal     int
	RowsRejected  int
	RowsDuplicate int
	RowsWritten   int

	StartedAt  time.Time
	FinishedAt *time.Time
}
