package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/vietddude/leadgen/internal/core/domain"
	"github.com/vietddude/leadgen/internal/infra/storage"
)

// maxTxRetries bounds optimistic-lock retries on a watched key.
const maxTxRetries = 5

// JobStore implements storage.JobRepository on Redis. Each job is one
// JSON blob; transitions run under WATCH so a concurrent writer cannot
// produce a torn or out-of-order update.
type JobStore struct {
	rdb *redis.Client
}

func NewJobStore(rdb *redis.Client) *JobStore {
	return &JobStore{rdb: rdb}
}

func jobKey(id string) string {
	return fmt.Sprintf("leadgen:jobs:%s", id)
}

const indexKey = "leadgen:jobs:index"

func (s *JobStore) Create(ctx context.Context, req domain.LeadRequest) (*domain.Job, error) {
	job := &domain.Job{
		ID:        uuid.NewString(),
		Status:    domain.JobStatusQueued,
		Request:   req,
		CreatedAt: time.Now().UTC(),
	}

	data, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("failed to encode job: %w", err)
	}

	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, jobKey(job.ID), data, 0)
	pipe.ZAdd(ctx, indexKey, redis.Z{Score: float64(job.CreatedAt.UnixNano()), Member: job.ID})
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to store job: %w", err)
	}
	return job, nil
}

func (s *JobStore) Get(ctx context.Context, id string) (*domain.Job, error) {
	raw, err := s.rdb.Get(ctx, jobKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, storage.ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	var job domain.Job
	if err := json.Unmarshal(raw, &job); err != nil {
		return nil, fmt.Errorf("failed to decode job: %w", err)
	}
	return &job, nil
}

func (s *JobStore) MarkProcessing(ctx context.Context, id string) error {
	return s.transition(ctx, id, func(job *domain.Job) error {
		if job.Status != domain.JobStatusQueued {
			return fmt.Errorf("%w: job %s is %s, want queued", storage.ErrInvalidTransition, id, job.Status)
		}
		now := time.Now().UTC()
		job.Status = domain.JobStatusProcessing
		job.StartedAt = &now
		return nil
	})
}

func (s *JobStore) MarkCompleted(ctx context.Context, id string, result *domain.LeadBatch, note string) error {
	return s.transition(ctx, id, func(job *domain.Job) error {
		if job.Status != domain.JobStatusProcessing {
			return fmt.Errorf("%w: job %s is %s, want processing", storage.ErrInvalidTransition, id, job.Status)
		}
		now := time.Now().UTC()
		job.Status = domain.JobStatusCompleted
		job.CompletedAt = &now
		job.Result = result
		job.EnhancementNote = note
		return nil
	})
}

func (s *JobStore) MarkFailed(ctx context.Context, id string, errMsg string) error {
	return s.transition(ctx, id, func(job *domain.Job) error {
		if job.Status != domain.JobStatusProcessing {
			return fmt.Errorf("%w: job %s is %s, want processing", storage.ErrInvalidTransition, id, job.Status)
		}
		now := time.Now().UTC()
		job.Status = domain.JobStatusFailed
		job.CompletedAt = &now
		job.Error = errMsg
		return nil
	})
}

func (s *JobStore) List(ctx context.Context) ([]*domain.Job, error) {
	ids, err := s.rdb.ZRevRange(ctx, indexKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list job ids: %w", err)
	}

	jobs := make([]*domain.Job, 0, len(ids))
	for _, id := range ids {
		job, err := s.Get(ctx, id)
		if errors.Is(err, storage.ErrJobNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// transition applies fn to the stored job under WATCH, retrying on
// contention.
func (s *JobStore) transition(ctx context.Context, id string, fn func(*domain.Job) error) error {
	key := jobKey(id)

	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return storage.ErrJobNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get job: %w", err)
		}

		var job domain.Job
		if err := json.Unmarshal(raw, &job); err != nil {
			return fmt.Errorf("failed to decode job: %w", err)
		}
		if err := fn(&job); err != nil {
			return err
		}

		data, err := json.Marshal(&job)
		if err != nil {
			return fmt.Errorf("failed to encode job: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			return nil
		})
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := s.rdb.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("job %s transition aborted after %d contention retries", id, maxTxRetries)
}
