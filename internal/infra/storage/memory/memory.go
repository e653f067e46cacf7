package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/leadgen/internal/core/domain"
	"github.com/vietddude/leadgen/internal/infra/storage"
)

// JobStore is the in-memory JobRepository. It is the default backend:
// jobs live for the process lifetime and are never evicted.
type JobStore struct {
	mu   sync.RWMutex
	jobs map[string]*domain.Job
}

func NewJobStore() *JobStore {
	return &JobStore{jobs: make(map[string]*domain.Job)}
}

func (s *JobStore) Create(ctx context.Context, req domain.LeadRequest) (*domain.Job, error) {
	job := &domain.Job{
		ID:        uuid.NewString(),
		Status:    domain.JobStatusQueued,
		Request:   req,
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()

	return job.Clone(), nil
}

func (s *JobStore) Get(ctx context.Context, id string) (*domain.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, storage.ErrJobNotFound
	}
	return job.Clone(), nil
}

func (s *JobStore) MarkProcessing(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return storage.ErrJobNotFound
	}
	if job.Status != domain.JobStatusQueued {
		return fmt.Errorf("%w: job %s is %s, want queued", storage.ErrInvalidTransition, id, job.Status)
	}

	now := time.Now().UTC()
	job.Status = domain.JobStatusProcessing
	job.StartedAt = &now
	return nil
}

func (s *JobStore) MarkCompleted(ctx context.Context, id string, result *domain.LeadBatch, note string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return storage.ErrJobNotFound
	}
	if job.Status != domain.JobStatusProcessing {
		return fmt.Errorf("%w: job %s is %s, want processing", storage.ErrInvalidTransition, id, job.Status)
	}

	now := time.Now().UTC()
	job.Status = domain.JobStatusCompleted
	job.CompletedAt = &now
	job.Result = result
	job.EnhancementNote = note
	return nil
}

func (s *JobStore) MarkFailed(ctx context.Context, id string, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return storage.ErrJobNotFound
	}
	if job.Status != domain.JobStatusProcessing {
		return fmt.Errorf("%w: job %s is %s, want processing", storage.ErrInvalidTransition, id, job.Status)
	}

	now := time.Now().UTC()
	job.Status = domain.JobStatusFailed
	job.CompletedAt = &now
	job.Error = errMsg
	return nil
}

func (s *JobStore) List(ctx context.Context) ([]*domain.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]*domain.Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		jobs = append(jobs, job.Clone())
	}
	return jobs, nil
}
