// Package leads orchestrates lead-generation jobs: it validates
// requests, drives the job state machine through the repository, wraps
// the generation provider in the retry policy and projects finished
// jobs into exportable form.
package leads

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/vietddude/leadgen/internal/core/domain"
	"github.com/vietddude/leadgen/internal/infra/genai"
	"github.com/vietddude/leadgen/internal/infra/storage"
	"github.com/vietddude/leadgen/internal/metrics"
	"github.com/vietddude/leadgen/internal/retry"
)

// Enhancer augments a generated batch with scraped contact data.
type Enhancer interface {
	Enhance(ctx context.Context, batch *domain.LeadBatch) (*domain.LeadBatch, error)
}

// Service is the job orchestrator. All state lives in the repository;
// the service itself only coordinates.
type Service struct {
	repo     storage.JobRepository
	provider genai.Provider
	enhancer Enhancer
	retryCfg retry.Config

	// jobTimeout bounds the detached run of one submitted job.
	jobTimeout time.Duration

	wg  sync.WaitGroup
	log *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithEnhancer wires the optional scraping enhancer.
func WithEnhancer(e Enhancer) Option {
	return func(s *Service) { s.enhancer = e }
}

// WithRetryConfig overrides the default retry policy.
func WithRetryConfig(cfg retry.Config) Option {
	return func(s *Service) { s.retryCfg = cfg }
}

// WithJobTimeout bounds how long one submitted job may run.
func WithJobTimeout(d time.Duration) Option {
	return func(s *Service) { s.jobTimeout = d }
}

func NewService(repo storage.JobRepository, provider genai.Provider, opts ...Option) *Service {
	s := &Service{
		repo:       repo,
		provider:   provider,
		retryCfg:   retry.DefaultConfig,
		jobTimeout: 10 * time.Minute,
		log:        slog.Default().With("component", "leads"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RunSync generates leads in the caller's context without creating a
// job record. The caller blocks through all retries.
func (s *Service) RunSync(ctx context.Context, req domain.LeadRequest) (*domain.LeadBatch, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	batch, _, err := s.generate(ctx, req)
	return batch, err
}

// Submit validates the request, creates a queued job and returns its id
// immediately. The job runs on a detached context so an abandoned HTTP
// request cannot kill it.
func (s *Service) Submit(ctx context.Context, req domain.LeadRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}

	job, err := s.repo.Create(ctx, req)
	if err != nil {
		return "", err
	}
	s.log.Info("job submitted", "job_id", job.ID, "industry", req.Industry, "count", req.Count)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		runCtx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
		defer cancel()
		s.run(runCtx, job)
	}()

	return job.ID, nil
}

// Wait blocks until all in-flight submitted jobs have reached a
// terminal state. Used during shutdown.
func (s *Service) Wait() {
	s.wg.Wait()
}

// run drives one submitted job to a terminal state.
func (s *Service) run(ctx context.Context, job *domain.Job) {
	metrics.JobsInflight.Inc()
	defer metrics.JobsInflight.Dec()

	// Terminal writes must land even when the job context itself is what
	// expired, or the record is stuck in processing forever.
	markCtx := context.WithoutCancel(ctx)

	if err := s.repo.MarkProcessing(ctx, job.ID); err != nil {
		s.log.Error("failed to mark job processing", "job_id", job.ID, "error", err)
		return
	}

	batch, note, err := s.generate(ctx, job.Request)
	if err != nil {
		if markErr := s.repo.MarkFailed(markCtx, job.ID, err.Error()); markErr != nil {
			s.log.Error("failed to mark job failed", "job_id", job.ID, "error", markErr)
		}
		metrics.JobsTotal.WithLabelValues("failed").Inc()
		s.log.Warn("job failed", "job_id", job.ID, "error", err)
		return
	}

	if err := s.repo.MarkCompleted(markCtx, job.ID, batch, note); err != nil {
		s.log.Error("failed to mark job completed", "job_id", job.ID, "error", err)
		return
	}
	metrics.JobsTotal.WithLabelValues("completed").Inc()
	s.log.Info("job completed", "job_id", job.ID, "companies", len(batch.Companies))
}

// generate runs the resilient generation call and, when requested, the
// best-effort enhancement. A failed enhancement never fails the job; it
// is recorded as a note on the otherwise-complete result.
func (s *Service) generate(ctx context.Context, req domain.LeadRequest) (*domain.LeadBatch, string, error) {
	batch, err := retry.Call(ctx, func(ctx context.Context) (*domain.LeadBatch, error) {
		return s.provider.GenerateLeads(ctx, req)
	}, s.retryCfg)
	if err != nil {
		return nil, "", err
	}

	if !req.EnableScraping || s.enhancer == nil {
		return batch, "", nil
	}

	enhanced, err := s.enhancer.Enhance(ctx, batch)
	if err != nil {
		s.log.Warn("enhancement failed, returning unenhanced leads", "error", err)
		return batch, "web scraping enhancement failed: " + err.Error(), nil
	}
	return enhanced, "", nil
}

// JobView is the state-appropriate projection of a job for status
// queries. Fields beyond the job's current state stay empty.
type JobView struct {
	JobID           string             `json:"job_id"`
	Status          domain.JobStatus   `json:"status"`
	Request         domain.LeadRequest `json:"request"`
	CreatedAt       time.Time          `json:"created_at"`
	StartedAt       *time.Time         `json:"started_at,omitempty"`
	CompletedAt     *time.Time         `json:"completed_at,omitempty"`
	Result          *domain.LeadBatch  `json:"result,omitempty"`
	Error           string             `json:"error,omitempty"`
	EnhancementNote string             `json:"enhancement_note,omitempty"`
}

// GetStatus returns the current projection of a job.
func (s *Service) GetStatus(ctx context.Context, id string) (*JobView, error) {
	job, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	view := &JobView{
		JobID:     job.ID,
		Status:    job.Status,
		Request:   job.Request,
		CreatedAt: job.CreatedAt,
		StartedAt: job.StartedAt,
	}
	switch job.Status {
	case domain.JobStatusCompleted:
		view.CompletedAt = job.CompletedAt
		view.Result = job.Result
		view.EnhancementNote = job.EnhancementNote
	case domain.JobStatusFailed:
		view.CompletedAt = job.CompletedAt
		view.Error = job.Error
	}
	return view, nil
}

// GetJob returns the raw job record, for export.
func (s *Service) GetJob(ctx context.Context, id string) (*domain.Job, error) {
	return s.repo.Get(ctx, id)
}

// ListJobs returns a snapshot of all known jobs.
func (s *Service) ListJobs(ctx context.Context) ([]*domain.Job, error) {
	return s.repo.List(ctx)
}
