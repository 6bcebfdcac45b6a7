package inmemory

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/vkuzmin/budget-categorizer/internal/jobs"
)

func TestStore_SaveAndGet(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	job := &jobs.ImportStatementJob{
		JobID:       "job-1",
		Owner:       "alice",
		StatementID: "stmt-1",
		StorageURI:  "gs://statements/export.csv",
		Status:      jobs.JobStatusPending,
	}
	if err := store.SaveJob(ctx, job); err != nil {
		t.Fatalf("SaveJob() error = %v", err)
	}

	got, err := store.GetJob(ctx, "job-1")
	if err != nil {
		t.Fatalf("GetJob() error = %v", err)
	}
	if got.StatementID != "stmt-1" || got.Status != jobs.JobStatusPending {
		t.Errorf("GetJob() = %+v", got)
	}

	// Mutating the returned copy must not affect the stored job.
	got.Status = jobs.JobStatusFailed
	again, _ := store.GetJob(ctx, "job-1")
	if again.Status != jobs.JobStatusPending {
		t.Error("GetJob() returned a shared pointer, want a copy")
	}
}

func TestStore_SaveRequiresID(t *testing.T) {
	store := NewStore()
	if err := store.SaveJob(context.Background(), &jobs.ImportStatementJob{}); err == nil {
		t.Error("SaveJob() error = nil, want error for missing job ID")
	}
}

func TestStore_ListJobsFilters(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		owner := "alice"
		if i == 2 {
			owner = "bob"
		}
		_ = store.SaveJob(ctx, &jobs.ImportStatementJob{
			JobID:       fmt.Sprintf("job-%d", i),
			Owner:       owner,
			StatementID: fmt.Sprintf("stmt-%d", i),
			Status:      jobs.JobStatusPending,
		})
	}

	byOwner, err := store.ListJobs(ctx, jobs.JobFilter{Owner: "alice"})
	if err != nil {
		t.Fatalf("ListJobs() error = %v", err)
	}
	if len(byOwner) != 2 {
		t.Errorf("ListJobs(owner=alice) = %d jobs, want 2", len(byOwner))
	}

	byStatement, err := store.ListJobs(ctx, jobs.JobFilter{StatementID: "stmt-2"})
	if err != nil {
		t.Fatalf("ListJobs() error = %v", err)
	}
	if len(byStatement) != 1 || byStatement[0].Owner != "bob" {
		t.Errorf("ListJobs(statement=stmt-2) = %+v", byStatement)
	}
}

func TestStore_UpdateJobStatus(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	_ = store.SaveJob(ctx, &jobs.ImportStatementJob{JobID: "job-1", Status: jobs.JobStatusPending})
	if err := store.UpdateJobStatus(ctx, "job-1", jobs.JobStatusFailed, "boom"); err != nil {
		t.Fatalf("UpdateJobStatus() error = %v", err)
	}

	got, _ := store.GetJob(ctx, "job-1")
	if got.Status != jobs.JobStatusFailed || got.Error != "boom" {
		t.Errorf("job after update = %+v", got)
	}

	if err := store.UpdateJobStatus(ctx, "missing", jobs.JobStatusFailed, ""); err == nil {
		t.Error("UpdateJobStatus() error = nil for unknown job, want error")
	}
}

func TestQueue_PublishAndProcess(t *testing.T) {
	store := NewStore()
	queue := NewQueue(10, store)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	processed := make(map[string]bool)
	done := make(chan struct{}, 1)

	handler := func(ctx context.Context, job jobs.Job) error {
		mu.Lock()
		processed[job.GetID()] = true
		mu.Unlock()
		done <- struct{}{}
		return nil
	}
	if err := queue.Start(ctx, handler); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	job := &jobs.ImportStatementJob{StatementID: "stmt-1", Owner: "alice"}
	if err := queue.PublishImportStatement(ctx, job); err != nil {
		t.Fatalf("PublishImportStatement() error = %v", err)
	}

	<-done
	mu.Lock()
	ok := processed[job.JobID]
	mu.Unlock()
	if !ok {
		t.Error("job was not processed")
	}

	if err := queue.Stop(context.Background()); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
	if err := queue.PublishImportStatement(ctx, &jobs.ImportStatementJob{}); err == nil {
		t.Error("PublishImportStatement() after Stop error = nil, want queue closed")
	}
}
