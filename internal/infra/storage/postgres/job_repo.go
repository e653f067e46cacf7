package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/leadgen/internal/core/domain"
	"github.com/vietddude/leadgen/internal/infra/storage"
)

// JobRepo implements storage.JobRepository using PostgreSQL. Transition
// guards run inside the UPDATE's WHERE clause so concurrent drivers
// cannot race a job out of order.
type JobRepo struct {
	db *DB
}

// NewJobRepo creates a new PostgreSQL job repository.
func NewJobRepo(db *DB) *JobRepo {
	return &JobRepo{db: db}
}

type jobRow struct {
	ID              string         `db:"id"`
	Status          string         `db:"status"`
	Industry        string         `db:"industry"`
	LeadCount       int            `db:"lead_count"`
	Country         string         `db:"country"`
	EnableScraping  bool           `db:"enable_scraping"`
	Result          []byte         `db:"result"`
	ErrorMsg        sql.NullString `db:"error_msg"`
	EnhancementNote sql.NullString `db:"enhancement_note"`
	CreatedAt       time.Time      `db:"created_at"`
	StartedAt       sql.NullTime   `db:"started_at"`
	CompletedAt     sql.NullTime   `db:"completed_at"`
}

func (r *JobRepo) Create(ctx context.Context, req domain.LeadRequest) (*domain.Job, error) {
	job := &domain.Job{
		ID:        uuid.NewString(),
		Status:    domain.JobStatusQueued,
		Request:   req,
		CreatedAt: time.Now().UTC(),
	}

	query := `
		INSERT INTO jobs (id, status, industry, lead_count, country, enable_scraping, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		job.ID,
		string(job.Status),
		req.Industry,
		req.Count,
		req.Country,
		req.EnableScraping,
		job.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert job: %w", err)
	}
	return job, nil
}

func (r *JobRepo) Get(ctx context.Context, id string) (*domain.Job, error) {
	query := `
		SELECT id, status, industry, lead_count, country, enable_scraping,
		       result, error_msg, enhancement_note, created_at, started_at, completed_at
		FROM jobs WHERE id = $1
	`
	var row jobRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return row.toDomain()
}

func (r *JobRepo) MarkProcessing(ctx context.Context, id string) error {
	query := `
		UPDATE jobs SET status = $1, started_at = $2
		WHERE id = $3 AND status = $4
	`
	res, err := r.db.ExecContext(ctx, query,
		string(domain.JobStatusProcessing), time.Now().UTC(), id, string(domain.JobStatusQueued))
	if err != nil {
		return fmt.Errorf("failed to mark job processing: %w", err)
	}
	return r.checkTransition(ctx, res, id, domain.JobStatusQueued)
}

func (r *JobRepo) MarkCompleted(ctx context.Context, id string, result *domain.LeadBatch, note string) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	query := `
		UPDATE jobs SET status = $1, completed_at = $2, result = $3, enhancement_note = NULLIF($4, '')
		WHERE id = $5 AND status = $6
	`
	res, err := r.db.ExecContext(ctx, query,
		string(domain.JobStatusCompleted), time.Now().UTC(), payload, note, id,
		string(domain.JobStatusProcessing))
	if err != nil {
		return fmt.Errorf("failed to mark job completed: %w", err)
	}
	return r.checkTransition(ctx, res, id, domain.JobStatusProcessing)
}

func (r *JobRepo) MarkFailed(ctx context.Context, id string, errMsg string) error {
	query := `
		UPDATE jobs SET status = $1, completed_at = $2, error_msg = $3
		WHERE id = $4 AND status = $5
	`
	res, err := r.db.ExecContext(ctx, query,
		string(domain.JobStatusFailed), time.Now().UTC(), errMsg, id,
		string(domain.JobStatusProcessing))
	if err != nil {
		return fmt.Errorf("failed to mark job failed: %w", err)
	}
	return r.checkTransition(ctx, res, id, domain.JobStatusProcessing)
}

func (r *JobRepo) List(ctx context.Context) ([]*domain.Job, error) {
	query := `
		SELECT id, status, industry, lead_count, country, enable_scraping,
		       result, error_msg, enhancement_note, created_at, started_at, completed_at
		FROM jobs ORDER BY created_at DESC
	`
	var rows []jobRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	jobs := make([]*domain.Job, 0, len(rows))
	for i := range rows {
		job, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// checkTransition distinguishes a missing job from a guard miss after a
// zero-row UPDATE.
func (r *JobRepo) checkTransition(ctx context.Context, res sql.Result, id string, want domain.JobStatus) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}

	var status string
	err = r.db.GetContext(ctx, &status, `SELECT status FROM jobs WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrJobNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to check job status: %w", err)
	}
	return fmt.Errorf("%w: job %s is %s, want %s", storage.ErrInvalidTransition, id, status, want)
}

func (row *jobRow) toDomain() (*domain.Job, error) {
	job := &domain.Job{
		ID:     row.ID,
		Status: domain.JobStatus(row.Status),
		Request: domain.LeadRequest{
			Industry:       row.Industry,
			Count:          row.LeadCount,
			Country:        row.Country,
			EnableScraping: row.EnableScraping,
		},
		CreatedAt: row.CreatedAt,
	}
	if row.StartedAt.Valid {
		t := row.StartedAt.Time
		job.StartedAt = &t
	}
	if row.CompletedAt.Valid {
		t := row.CompletedAt.Time
		job.CompletedAt = &t
	}
	if row.ErrorMsg.Valid {
		job.Error = row.ErrorMsg.String
	}
	if row.EnhancementNote.Valid {
		job.EnhancementNote = row.EnhancementNote.String
	}
	if len(row.Result) > 0 {
		var batch domain.LeadBatch
		if err := json.Unmarshal(row.Result, &batch); err != nil {
			return nil, fmt.Errorf("failed to decode job result: %w", err)
		}
		job.Result = &batch
	}
	return job, nil
}
