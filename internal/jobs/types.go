// Package jobs defines the asynchronous work types and queue interfaces used
// to run statement imports outside the request path.
package jobs

import (
	"context"
	"time"
)

// JobType identifies what kind of work a job carries.
type JobType string

const (
	JobTypeImportStatement JobType = "import_statement"
)

// JobStatus is the lifecycle state of a job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusRetrying  JobStatus = "retrying"
)

// ImportStatementJob asks a worker to import one uploaded statement CSV.
// Retrying a half-finished import is safe: rows written by the failed
// attempt are skipped as duplicates on the next run.
type ImportStatementJob struct {
	JobID       string `json:"job_id"`
	Owner       string `json:"owner"`
	StatementID string `json:"statement_id"`
	StorageURI  string `json:"storage_uri"`

	Status      JobStatus  `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty"`

	RetryCount int `json:"retry_count"`
	MaxRetries int `json:"max_retries"`
}

// Job is the minimal surface a queue handler sees; handlers type-assert to
// the concrete job for its payload.
type Job interface {
	GetID() string
	GetType() JobType
	GetStatus() JobStatus
}

func (j *ImportStatementJob) GetID() string        { return j.JobID }
func (j *ImportStatementJob) GetType() JobType     { return JobTypeImportStatement }
func (j *ImportStatementJob) GetStatus() JobStatus { return j.Status }

// Publisher enqueues jobs. The in-memory queue implements it; a Cloud Tasks
// or Pub/Sub publisher could replace it without touching the handlers.
type Publisher interface {
	PublishImportStatement(ctx context.Context, job *ImportStatementJob) error
	Close() error
}

// Consumer pulls jobs off a queue and feeds them to a handler.
type Consumer interface {
	Start(ctx context.Context, handler JobHandler) error
	// Stop waits for in-flight jobs before returning.
	Stop(ctx context.Context) error
}

// JobHandler processes one job. A non-nil error marks the job for retry.
type JobHandler func(ctx context.Context, job Job) error

// JobStore records job state for the status endpoints.
type JobStore interface {
	SaveJob(ctx context.Context, job *ImportStatementJob) error
	GetJob(ctx context.Context, jobID string) (*ImportStatementJob, error)
	ListJobs(ctx context.Context, filter JobFilter) ([]*ImportStatementJob, error)
	UpdateJobStatus(ctx context.Context, jobID string, status JobStatus, errorMsg string) error
}

// JobFilter narrows ListJobs results. Zero values mean "any".
type JobFilter struct {
	Owner       string
	StatementID string
	Status      JobStatus
	Limit       int
	Offset      int
}
