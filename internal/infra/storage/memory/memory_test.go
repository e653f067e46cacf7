package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/vietddude/leadgen/internal/core/domain"
	"github.com/vietddude/leadgen/internal/infra/storage"
)

var testReq = domain.LeadRequest{Industry: "robotics", Count: 3, Country: "Germany"}

func TestCreateAssignsUniqueIDs(t *testing.T) {
	store := NewJobStore()
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		job, err := store.Create(ctx, testReq)
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if job.ID == "" {
			t.Fatal("Create returned empty id")
		}
		if seen[job.ID] {
			t.Fatalf("duplicate id %s", job.ID)
		}
		seen[job.ID] = true

		if job.Status != domain.JobStatusQueued {
			t.Errorf("new job status = %s, want queued", job.Status)
		}
		if job.CreatedAt.IsZero() {
			t.Error("new job has zero created_at")
		}
	}
}

func TestGetUnknownID(t *testing.T) {
	store := NewJobStore()
	if _, err := store.Get(context.Background(), "nope"); !errors.Is(err, storage.ErrJobNotFound) {
		t.Errorf("Get(unknown) = %v, want ErrJobNotFound", err)
	}
}

func TestLifecycleCompleted(t *testing.T) {
	store := NewJobStore()
	ctx := context.Background()

	job, err := store.Create(ctx, testReq)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := store.MarkProcessing(ctx, job.ID); err != nil {
		t.Fatalf("MarkProcessing failed: %v", err)
	}

	got, _ := store.Get(ctx, job.ID)
	if got.Status != domain.JobStatusProcessing {
		t.Errorf("status = %s, want processing", got.Status)
	}
	if got.StartedAt == nil {
		t.Fatal("started_at not set")
	}
	if got.StartedAt.Before(got.CreatedAt) {
		t.Error("started_at before created_at")
	}

	batch := &domain.LeadBatch{Companies: []domain.Company{{CompanyName: "Acme"}}}
	if err := store.MarkCompleted(ctx, job.ID, batch, ""); err != nil {
		t.Fatalf("MarkCompleted failed: %v", err)
	}

	got, _ = store.Get(ctx, job.ID)
	if got.Status != domain.JobStatusCompleted {
		t.Errorf("status = %s, want completed", got.Status)
	}
	if got.Result == nil || len(got.Result.Companies) != 1 {
		t.Error("result not stored")
	}
	if got.Error != "" {
		t.Error("completed job carries an error")
	}
	if got.CompletedAt == nil || got.CompletedAt.Before(*got.StartedAt) {
		t.Error("completed_at missing or before started_at")
	}
}

func TestLifecycleFailed(t *testing.T) {
	store := NewJobStore()
	ctx := context.Background()

	job, _ := store.Create(ctx, testReq)
	if err := store.MarkProcessing(ctx, job.ID); err != nil {
		t.Fatalf("MarkProcessing failed: %v", err)
	}
	if err := store.MarkFailed(ctx, job.ID, "permanent error: bad api key"); err != nil {
		t.Fatalf("MarkFailed failed: %v", err)
	}

	got, _ := store.Get(ctx, job.ID)
	if got.Status != domain.JobStatusFailed {
		t.Errorf("status = %s, want failed", got.Status)
	}
	if got.Error == "" {
		t.Error("failed job has no error message")
	}
	if got.Result != nil {
		t.Error("failed job carries a result")
	}
}

func TestInvalidTransitions(t *testing.T) {
	store := NewJobStore()
	ctx := context.Background()

	job, _ := store.Create(ctx, testReq)

	// Complete/fail straight from queued
	if err := store.MarkCompleted(ctx, job.ID, nil, ""); !errors.Is(err, storage.ErrInvalidTransition) {
		t.Errorf("MarkCompleted(queued) = %v, want ErrInvalidTransition", err)
	}
	if err := store.MarkFailed(ctx, job.ID, "x"); !errors.Is(err, storage.ErrInvalidTransition) {
		t.Errorf("MarkFailed(queued) = %v, want ErrInvalidTransition", err)
	}

	// Double processing
	if err := store.MarkProcessing(ctx, job.ID); err != nil {
		t.Fatalf("MarkProcessing failed: %v", err)
	}
	if err := store.MarkProcessing(ctx, job.ID); !errors.Is(err, storage.ErrInvalidTransition) {
		t.Errorf("MarkProcessing(processing) = %v, want ErrInvalidTransition", err)
	}

	// Terminal states are immutable
	if err := store.MarkCompleted(ctx, job.ID, nil, ""); err != nil {
		t.Fatalf("MarkCompleted failed: %v", err)
	}
	if err := store.MarkFailed(ctx, job.ID, "x"); !errors.Is(err, storage.ErrInvalidTransition) {
		t.Errorf("MarkFailed(completed) = %v, want ErrInvalidTransition", err)
	}
	if err := store.MarkProcessing(ctx, job.ID); !errors.Is(err, storage.ErrInvalidTransition) {
		t.Errorf("MarkProcessing(completed) = %v, want ErrInvalidTransition", err)
	}
}

func TestTransitionsOnUnknownID(t *testing.T) {
	store := NewJobStore()
	ctx := context.Background()

	if err := store.MarkProcessing(ctx, "nope"); !errors.Is(err, storage.ErrJobNotFound) {
		t.Errorf("MarkProcessing(unknown) = %v, want ErrJobNotFound", err)
	}
	if err := store.MarkCompleted(ctx, "nope", nil, ""); !errors.Is(err, storage.ErrJobNotFound) {
		t.Errorf("MarkCompleted(unknown) = %v, want ErrJobNotFound", err)
	}
	if err := store.MarkFailed(ctx, "nope", "x"); !errors.Is(err, storage.ErrJobNotFound) {
		t.Errorf("MarkFailed(unknown) = %v, want ErrJobNotFound", err)
	}
}

// Readers polling a job while its transitions run must only ever see
// consistent snapshots: a completed status always comes with a result.
func TestConcurrentReadersSeeConsistentState(t *testing.T) {
	store := NewJobStore()
	ctx := context.Background()

	job, _ := store.Create(ctx, testReq)
	batch := &domain.LeadBatch{Companies: []domain.Company{{CompanyName: "Acme"}}}

	var wg sync.WaitGroup
	stop := make(chan struct{})

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				got, err := store.Get(ctx, job.ID)
				if err != nil {
					t.Errorf("Get failed: %v", err)
					return
				}
				switch got.Status {
				case domain.JobStatusQueued:
					if got.StartedAt != nil {
						t.Error("queued job has started_at")
						return
					}
				case domain.JobStatusProcessing:
					if got.StartedAt == nil {
						t.Error("processing job missing started_at")
						return
					}
				case domain.JobStatusCompleted:
					if got.Result == nil || got.CompletedAt == nil {
						t.Error("completed job missing result or completed_at")
						return
					}
				}
			}
		}()
	}

	if err := store.MarkProcessing(ctx, job.ID); err != nil {
		t.Fatalf("MarkProcessing failed: %v", err)
	}
	if err := store.MarkCompleted(ctx, job.ID, batch, ""); err != nil {
		t.Fatalf("MarkCompleted failed: %v", err)
	}

	close(stop)
	wg.Wait()
}

func TestListSnapshots(t *testing.T) {
	store := NewJobStore()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := store.Create(ctx, testReq); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	jobs, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(jobs) != 5 {
		t.Errorf("List returned %d jobs, want 5", len(jobs))
	}

	// Mutating a returned clone must not touch the store.
	jobs[0].Status = domain.JobStatusFailed
	fresh, _ := store.Get(ctx, jobs[0].ID)
	if fresh.Status != domain.JobStatusQueued {
		t.Error("List leaked internal state")
	}
}
