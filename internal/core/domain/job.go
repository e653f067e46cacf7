package domain

import "time"

type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether the status has no outgoing transitions.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Job represents one trackable lead-generation unit of work.
// Status moves queued -> processing -> completed|failed and never regresses.
type Job struct {
	ID      string      `json:"id"`
	Status  JobStatus   `json:"status"`
	Request LeadRequest `json:"request"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Result is set iff Status is completed, Error iff failed.
	Result *LeadBatch `json:"result,omitempty"`
	Error  string     `json:"error,omitempty"`

	// EnhancementNote records a non-fatal scraping failure on a job
	// that still completed with the unenhanced payload.
	EnhancementNote string `json:"enhancement_note,omitempty"`
}

// Clone returns a deep-enough copy for handing out to readers.
// The request is a value; the result batch is shared but treated as
// immutable once the job reaches a terminal state.
func (j *Job) Clone() *Job {
	if j == nil {
		return nil
	}
	cp := *j
	if j.StartedAt != nil {
		t := *j.StartedAt
		cp.StartedAt = &t
	}
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		cp.CompletedAt = &t
	}
	return &cp
}
