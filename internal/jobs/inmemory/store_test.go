package inmemory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/banktocfo/banktocfo/internal/jobs"
)

func TestStore_SaveAndGet(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	job := &jobs.ProcessStatementJob{
		JobID:    "job-1",
		Filename: "statement.pdf",
		Status:   jobs.JobStatusPending,
	}

	if err := store.SaveJob(ctx, job); err != nil {
		t.Fatalf("SaveJob failed: %v", err)
	}

	got, err := store.GetJob(ctx, "job-1")
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if got.Filename != "statement.pdf" || got.Status != jobs.JobStatusPending {
		t.Errorf("unexpected job: %+v", got)
	}
}

func TestStore_SaveRequiresID(t *testing.T) {
	store := NewStore()
	if err := store.SaveJob(context.Background(), &jobs.ProcessStatementJob{}); err == nil {
		t.Error("expected error for job without ID")
	}
}

func TestStore_GetMissing(t *testing.T) {
	store := NewStore()
	if _, err := store.GetJob(context.Background(), "nope"); err == nil {
		t.Error("expected error for missing job")
	}
}

func TestStore_CopiesOnSaveAndGet(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	job := &jobs.ProcessStatementJob{JobID: "job-1", Status: jobs.JobStatusPending}
	store.SaveJob(ctx, job)

	// Mutating the caller's copy must not affect the stored job.
	job.Status = jobs.JobStatusFailed

	got, _ := store.GetJob(ctx, "job-1")
	if got.Status != jobs.JobStatusPending {
		t.Errorf("stored job mutated through caller's pointer: %s", got.Status)
	}

	// Mutating a retrieved copy must not affect the store either.
	got.Status = jobs.JobStatusCompleted
	again, _ := store.GetJob(ctx, "job-1")
	if again.Status != jobs.JobStatusPending {
		t.Errorf("stored job mutated through retrieved pointer: %s", again.Status)
	}
}

func TestStore_ListJobs(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	base := time.Now()
	for i := 0; i < 5; i++ {
		status := jobs.JobStatusCompleted
		if i%2 == 0 {
			status = jobs.JobStatusPending
		}
		store.SaveJob(ctx, &jobs.ProcessStatementJob{
			JobID:     fmt.Sprintf("job-%d", i),
			Status:    status,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}

	all, err := store.ListJobs(ctx, jobs.JobFilter{})
	if err != nil {
		t.Fatalf("ListJobs failed: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("got %d jobs, want 5", len(all))
	}
	// Newest first.
	if all[0].JobID != "job-4" || all[4].JobID != "job-0" {
		t.Errorf("unexpected order: first %s last %s", all[0].JobID, all[4].JobID)
	}

	pending, _ := store.ListJobs(ctx, jobs.JobFilter{Status: jobs.JobStatusPending})
	if len(pending) != 3 {
		t.Errorf("got %d pending jobs, want 3", len(pending))
	}

	limited, _ := store.ListJobs(ctx, jobs.JobFilter{Limit: 2, Offset: 1})
	if len(limited) != 2 || limited[0].JobID != "job-3" {
		t.Errorf("unexpected page: %+v", limited)
	}
}

func TestStore_ListJobs_CompletedBefore(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	old := time.Now().Add(-48 * time.Hour)
	recent := time.Now()

	store.SaveJob(ctx, &jobs.ProcessStatementJob{JobID: "old", Status: jobs.JobStatusCompleted, CompletedAt: &old})
	store.SaveJob(ctx, &jobs.ProcessStatementJob{JobID: "recent", Status: jobs.JobStatusCompleted, CompletedAt: &recent})
	store.SaveJob(ctx, &jobs.ProcessStatementJob{JobID: "running", Status: jobs.JobStatusProcessing})

	expired, err := store.ListJobs(ctx, jobs.JobFilter{CompletedBefore: time.Now().Add(-24 * time.Hour)})
	if err != nil {
		t.Fatalf("ListJobs failed: %v", err)
	}
	if len(expired) != 1 || expired[0].JobID != "old" {
		t.Errorf("unexpected expired jobs: %+v", expired)
	}
}

func TestStore_DeleteJob(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	store.SaveJob(ctx, &jobs.ProcessStatementJob{JobID: "job-1"})
	if err := store.DeleteJob(ctx, "job-1"); err != nil {
		t.Fatalf("DeleteJob failed: %v", err)
	}
	if _, err := store.GetJob(ctx, "job-1"); err == nil {
		t.Error("expected job to be gone")
	}
	if err := store.DeleteJob(ctx, "job-1"); err == nil {
		t.Error("expected error deleting missing job")
	}
}
