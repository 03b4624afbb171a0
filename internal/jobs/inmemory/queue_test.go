package inmemory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dvloznov/cc-ledger/internal/jobs"
)

func TestQueueDeliversJobs(t *testing.T) {
	ctx := context.Background()
	store := NewJobStore()
	q := NewQueue(10, 2, store)

	var mu sync.Mutex
	seen := make(map[int64]bool)
	done := make(chan struct{}, 3)

	handler := func(ctx context.Context, job jobs.Job) error {
		psj := job.(*jobs.ProcessStatementJob)
		mu.Lock()
		seen[psj.StatementID] = true
		mu.Unlock()
		done <- struct{}{}
		return nil
	}

	if err := q.Start(ctx, handler); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	for _, id := range []int64{1, 2, 3} {
		job := &jobs.ProcessStatementJob{StatementID: id, UserID: 1, GCSURI: "gs://bucket/x.pdf"}
		if err := q.PublishProcessStatement(ctx, job); err != nil {
			t.Fatalf("publish %d failed: %v", id, err)
		}
		if job.JobID == "" {
			t.Error("publish did not assign a job ID")
		}
	}

	for i := 0; i < 3; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for jobs")
		}
	}

	mu.Lock()
	defer mu.Unlock()
	for _, id := range []int64{1, 2, 3} {
		if !seen[id] {
			t.Errorf("statement %d was never processed", id)
		}
	}

	if err := q.Stop(ctx); err != nil {
		t.Errorf("Stop failed: %v", err)
	}
	if err := q.PublishProcessStatement(ctx, &jobs.ProcessStatementJob{StatementID: 4}); err == nil {
		t.Error("publish after Stop succeeded, want error")
	}
}

func TestJobStoreFiltering(t *testing.T) {
	ctx := context.Background()
	store := NewJobStore()

	base := time.Now()
	for i, status := range []jobs.JobStatus{jobs.JobStatusCompleted, jobs.JobStatusFailed, jobs.JobStatusCompleted} {
		job := &jobs.ProcessStatementJob{
			JobID:       string(rune('a' + i)),
			StatementID: int64(i + 1),
			Status:      status,
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		}
		if err := store.SaveJob(ctx, job); err != nil {
			t.Fatalf("SaveJob failed: %v", err)
		}
	}

	completed, err := store.ListJobs(ctx, jobs.JobFilter{Status: jobs.JobStatusCompleted})
	if err != nil {
		t.Fatalf("ListJobs failed: %v", err)
	}
	if len(completed) != 2 {
		t.Fatalf("completed jobs = %d, want 2", len(completed))
	}
	// Newest first.
	if completed[0].StatementID != 3 {
		t.Errorf("first job statement = %d, want 3", completed[0].StatementID)
	}

	byStatement, err := store.ListJobs(ctx, jobs.JobFilter{StatementID: 2})
	if err != nil {
		t.Fatalf("ListJobs failed: %v", err)
	}
	if len(byStatement) != 1 || byStatement[0].Status != jobs.JobStatusFailed {
		t.Errorf("statement filter returned %+v, want the failed job", byStatement)
	}

	if err := store.SaveJob(ctx, &jobs.ProcessStatementJob{}); err == nil {
		t.Error("SaveJob without ID succeeded, want error")
	}
}
