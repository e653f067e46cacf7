package storage

import (
	"context"
	"errors"

	"github.com/vietddude/leadgen/internal/core/domain"
)

var (
	// ErrJobNotFound is returned when a job id is unknown
	ErrJobNotFound = errors.New("job not found")

	// ErrInvalidTransition signals an attempt to move a job out of the
	// wrong state. The orchestrator is the sole driver of transitions,
	// so seeing this error means a bug in job-drive logic.
	ErrInvalidTransition = errors.New("invalid job transition")
)

// JobRepository handles job lifecycle storage. All operations are safe
// under concurrent invocation; readers never observe a partially
// updated record.
type JobRepository interface {
	// Create inserts a queued job with a fresh id and returns it
	Create(ctx context.Context, req domain.LeadRequest) (*domain.Job, error)

	// Get retrieves a job by id
	Get(ctx context.Context, id string) (*domain.Job, error)

	// MarkProcessing moves queued -> processing and stamps started_at
	MarkProcessing(ctx context.Context, id string) error

	// MarkCompleted moves processing -> completed, storing the result
	// and an optional enhancement note
	MarkCompleted(ctx context.Context, id string, result *domain.LeadBatch, note string) error

	// MarkFailed moves processing -> failed, storing the error message
	MarkFailed(ctx context.Context, id string, errMsg string) error

	// List returns a snapshot of all jobs
	List(ctx context.Context) ([]*domain.Job, error)
}
