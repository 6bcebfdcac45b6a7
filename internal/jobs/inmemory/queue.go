package inmemory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vkuzmin/budget-categorizer/internal/jobs"
)

const (
	defaultWorkers    = 5
	defaultMaxRetries = 3
)

// Queue is a channel-backed publisher/consumer for statement import jobs.
// It lives inside the API process, so a restart drops anything still queued;
// the standalone worker re-imports those statements from their PENDING record.
type Queue struct {
	jobs    chan *jobs.ImportStatementJob
	done    chan struct{}
	wg      sync.WaitGroup
	mu      sync.RWMutex
	store   jobs.JobStore
	workers int
	closed  bool
}

// NewQueue creates a queue. bufferSize is how many jobs can sit unclaimed
// before PublishImportStatement blocks.
func NewQueue(bufferSize int, store jobs.JobStore) *Queue {
	return &Queue{
		jobs:    make(chan *jobs.ImportStatementJob, bufferSize),
		done:    make(chan struct{}),
		store:   store,
		workers: defaultWorkers,
	}
}

// PublishImportStatement fills in job defaults, records the job in the store,
// and enqueues it.
func (q *Queue) PublishImportStatement(ctx context.Context, job *jobs.ImportStatementJob) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return fmt.Errorf("PublishImportStatement: queue is closed")
	}

	if job.JobID == "" {
		job.JobID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = jobs.JobStatusPending
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}
	if job.MaxRetries == 0 {
		job.MaxRetries = defaultMaxRetries
	}

	if q.store != nil {
		if err := q.store.SaveJob(ctx, job); err != nil {
			return fmt.Errorf("PublishImportStatement: save job: %w", err)
		}
	}

	select {
	case q.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-q.done:
		return fmt.Errorf("PublishImportStatement: queue is closed")
	}
}

// Start launches the worker goroutines. Each job is handed to handler; a
// handler error schedules a retry with linear backoff until MaxRetries.
func (q *Queue) Start(ctx context.Context, handler jobs.JobHandler) error {
	q.mu.RLock()
	if q.closed {
		q.mu.RUnlock()
		return fmt.Errorf("Start: queue is closed")
	}
	q.mu.RUnlock()

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.runWorker(ctx, handler)
	}
	return nil
}

func (q *Queue) runWorker(ctx context.Context, handler jobs.JobHandler) {
	defer q.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-q.done:
			return
		case job := <-q.jobs:
			if job == nil {
				return
			}
			q.runJob(ctx, job, handler)
		}
	}
}

func (q *Queue) runJob(ctx context.Context, job *jobs.ImportStatementJob, handler jobs.JobHandler) {
	started := time.Now()
	job.Status = jobs.JobStatusRunning
	job.StartedAt = &started
	if q.store != nil {
		_ = q.store.SaveJob(ctx, job)
	}

	err := handler(ctx, job)

	completed := time.Now()
	job.CompletedAt = &completed

	switch {
	case err == nil:
		job.Status = jobs.JobStatusCompleted
		job.Error = ""
	case job.RetryCount < job.MaxRetries:
		job.Error = err.Error()
		job.RetryCount++
		job.Status = jobs.JobStatusRetrying
		q.scheduleRetry(ctx, job)
	default:
		job.Error = err.Error()
		job.Status = jobs.JobStatusFailed
	}

	if q.store != nil {
		_ = q.store.SaveJob(ctx, job)
	}
}

func (q *Queue) scheduleRetry(ctx context.Context, job *jobs.ImportStatementJob) {
	backoff := time.Duration(job.RetryCount) * time.Second
	time.AfterFunc(backoff, func() {
		job.Status = jobs.JobStatusPending
		job.StartedAt = nil
		job.CompletedAt = nil
		_ = q.PublishImportStatement(ctx, job)
	})
}

// Stop closes the queue and waits for in-flight jobs, bounded by ctx.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.done)
	q.mu.Unlock()

	finished := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close implements the Publisher interface.
func (q *Queue) Close() error {
	return q.Stop(context.Background())
}

var _ jobs.Publisher = (*Queue)(nil)
var _ jobs.Consumer = (*Queue)(nil)
