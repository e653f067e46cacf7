package leads

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/vietddude/leadgen/internal/core/domain"
	"github.com/vietddude/leadgen/internal/infra/genai"
	redisstore "github.com/vietddude/leadgen/internal/infra/redis"
	"github.com/vietddude/leadgen/internal/infra/storage/memory"
	"github.com/vietddude/leadgen/internal/retry"
)

// fakeProvider fails the first failures calls, then returns batch.
type fakeProvider struct {
	mu       sync.Mutex
	calls    int
	failures int
	failWith error
	batch    *domain.LeadBatch
}

func (f *fakeProvider) GetName() string { return "fake" }

func (f *fakeProvider) GetHealth() genai.HealthStatus {
	return genai.HealthStatus{Available: true, Configured: true}
}

func (f *fakeProvider) GenerateLeads(ctx context.Context, req domain.LeadRequest) (*domain.LeadBatch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.failures {
		return nil, f.failWith
	}
	return f.batch, nil
}

func (f *fakeProvider) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeEnhancer struct {
	err   error
	calls int
}

func (f *fakeEnhancer) Enhance(ctx context.Context, batch *domain.LeadBatch) (*domain.LeadBatch, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return batch, nil
}

var fastRetry = retry.Config{MaxAttempts: 5, InitialDelay: time.Millisecond, MaxDelay: 4 * time.Millisecond, BackoffMultiple: 2.0}

func threeCompanies() *domain.LeadBatch {
	return &domain.LeadBatch{Companies: []domain.Company{
		{CompanyName: "Kuka"}, {CompanyName: "Festo"}, {CompanyName: "SICK"},
	}}
}

var roboticsReq = domain.LeadRequest{Industry: "robotics", Count: 3, Country: "Germany"}

func waitTerminal(t *testing.T, svc *Service, id string) *JobView {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		view, err := svc.GetStatus(context.Background(), id)
		if err != nil {
			t.Fatalf("GetStatus failed: %v", err)
		}
		if view.Status.Terminal() {
			return view
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("job never reached a terminal state")
	return nil
}

func TestSubmitRecoversFromTransientOverload(t *testing.T) {
	provider := &fakeProvider{
		failures: 2,
		failWith: &genai.StatusError{Code: http.StatusServiceUnavailable, Message: "overloaded"},
		batch:    threeCompanies(),
	}
	svc := NewService(memory.NewJobStore(), provider, WithRetryConfig(fastRetry))

	id, err := svc.Submit(context.Background(), roboticsReq)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if id == "" {
		t.Fatal("Submit returned empty id")
	}

	view := waitTerminal(t, svc, id)
	if view.Status != domain.JobStatusCompleted {
		t.Fatalf("status = %s, want completed (error: %s)", view.Status, view.Error)
	}
	if view.Result == nil || len(view.Result.Companies) != 3 {
		t.Errorf("result = %+v, want 3 companies", view.Result)
	}
	if got := provider.callCount(); got != 3 {
		t.Errorf("provider called %d times, want 3", got)
	}
	if view.StartedAt == nil || view.CompletedAt == nil {
		t.Fatal("timestamps not stamped")
	}
	if !view.CompletedAt.After(*view.StartedAt) {
		t.Errorf("completed_at %v not after started_at %v", view.CompletedAt, view.StartedAt)
	}
	if !view.StartedAt.After(view.CreatedAt) && !view.StartedAt.Equal(view.CreatedAt) {
		t.Errorf("started_at %v before created_at %v", view.StartedAt, view.CreatedAt)
	}
}

func TestSubmitPermanentFailure(t *testing.T) {
	provider := &fakeProvider{
		failures: 100,
		failWith: &genai.StatusError{Code: http.StatusUnauthorized, Message: "invalid key"},
	}
	svc := NewService(memory.NewJobStore(), provider, WithRetryConfig(fastRetry))

	id, err := svc.Submit(context.Background(), roboticsReq)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	view := waitTerminal(t, svc, id)
	if view.Status != domain.JobStatusFailed {
		t.Fatalf("status = %s, want failed", view.Status)
	}
	if view.Error == "" {
		t.Error("failed job has no error message")
	}
	if view.Result != nil {
		t.Error("failed job carries a result")
	}
	if got := provider.callCount(); got != 1 {
		t.Errorf("permanent error retried: %d calls", got)
	}
}

func TestSubmitExhaustsRetries(t *testing.T) {
	provider := &fakeProvider{
		failures: 100,
		failWith: errors.New("rate limit exceeded"),
	}
	svc := NewService(memory.NewJobStore(), provider, WithRetryConfig(fastRetry))

	id, _ := svc.Submit(context.Background(), roboticsReq)
	view := waitTerminal(t, svc, id)

	if view.Status != domain.JobStatusFailed {
		t.Fatalf("status = %s, want failed", view.Status)
	}
	if got := provider.callCount(); got != fastRetry.MaxAttempts {
		t.Errorf("provider called %d times, want %d", got, fastRetry.MaxAttempts)
	}
}

func TestSubmitRejectsInvalidRequestBeforeAnyRecord(t *testing.T) {
	repo := memory.NewJobStore()
	svc := NewService(repo, &fakeProvider{batch: threeCompanies()})

	_, err := svc.Submit(context.Background(), domain.LeadRequest{Industry: "robotics", Count: 0, Country: "Germany"})
	var vErr *domain.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("Submit(count=0) = %v, want ValidationError", err)
	}

	jobs, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(jobs) != 0 {
		t.Errorf("invalid request left %d job records behind", len(jobs))
	}
}

func TestSubmitEnhancementFailureCompletesWithNote(t *testing.T) {
	enhancer := &fakeEnhancer{err: fmt.Errorf("all fetches failed")}
	svc := NewService(memory.NewJobStore(), &fakeProvider{batch: threeCompanies()},
		WithRetryConfig(fastRetry), WithEnhancer(enhancer))

	req := roboticsReq
	req.EnableScraping = true

	id, _ := svc.Submit(context.Background(), req)
	view := waitTerminal(t, svc, id)

	if view.Status != domain.JobStatusCompleted {
		t.Fatalf("status = %s, want completed", view.Status)
	}
	if view.Result == nil || len(view.Result.Companies) != 3 {
		t.Error("unenhanced payload lost")
	}
	if view.EnhancementNote == "" {
		t.Error("enhancement failure left no note")
	}
	if enhancer.calls != 1 {
		t.Errorf("enhancer called %d times, want 1", enhancer.calls)
	}
}

func TestSubmitSkipsEnhancerWhenScrapingDisabled(t *testing.T) {
	enhancer := &fakeEnhancer{}
	svc := NewService(memory.NewJobStore(), &fakeProvider{batch: threeCompanies()},
		WithRetryConfig(fastRetry), WithEnhancer(enhancer))

	id, _ := svc.Submit(context.Background(), roboticsReq)
	waitTerminal(t, svc, id)

	if enhancer.calls != 0 {
		t.Errorf("enhancer called %d times with scraping disabled", enhancer.calls)
	}
}

// slowProvider never answers; it blocks until the call context dies.
type slowProvider struct{}

func (p *slowProvider) GetName() string { return "slow" }

func (p *slowProvider) GetHealth() genai.HealthStatus {
	return genai.HealthStatus{Available: true, Configured: true}
}

func (p *slowProvider) GenerateLeads(ctx context.Context, req domain.LeadRequest) (*domain.LeadBatch, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestJobTimeoutStillReachesTerminalState(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	svc := NewService(redisstore.NewJobStore(rdb), &slowProvider{},
		WithRetryConfig(fastRetry), WithJobTimeout(50*time.Millisecond))

	id, err := svc.Submit(context.Background(), roboticsReq)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	svc.Wait()

	view, err := svc.GetStatus(context.Background(), id)
	if err != nil {
		t.Fatalf("GetStatus failed: %v", err)
	}
	if view.Status != domain.JobStatusFailed {
		t.Fatalf("status = %s, want failed after the job deadline expired", view.Status)
	}
	if view.Error == "" {
		t.Error("timed-out job has no error message")
	}
	if view.CompletedAt == nil {
		t.Error("timed-out job has no completed_at")
	}
}

func TestRunSync(t *testing.T) {
	svc := NewService(memory.NewJobStore(), &fakeProvider{
		failures: 1,
		failWith: errors.New("connection reset"),
		batch:    threeCompanies(),
	}, WithRetryConfig(fastRetry))

	batch, err := svc.RunSync(context.Background(), roboticsReq)
	if err != nil {
		t.Fatalf("RunSync failed: %v", err)
	}
	if len(batch.Companies) != 3 {
		t.Errorf("got %d companies, want 3", len(batch.Companies))
	}
}

func TestRunSyncValidates(t *testing.T) {
	svc := NewService(memory.NewJobStore(), &fakeProvider{batch: threeCompanies()})

	_, err := svc.RunSync(context.Background(), domain.LeadRequest{Industry: " ", Count: 3, Country: "Germany"})
	var vErr *domain.ValidationError
	if !errors.As(err, &vErr) {
		t.Errorf("RunSync(blank industry) = %v, want ValidationError", err)
	}
}

func TestGetStatusUnknownJob(t *testing.T) {
	svc := NewService(memory.NewJobStore(), &fakeProvider{})
	if _, err := svc.GetStatus(context.Background(), "missing"); err == nil {
		t.Error("expected error for unknown job id")
	}
}
