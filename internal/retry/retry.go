// Package retry owns the only retry policy in the system: it classifies
// failures from the generation collaborators and drives a bounded
// exponential-backoff loop around them.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/vietddude/leadgen/internal/core/domain"
	"github.com/vietddude/leadgen/internal/infra/genai"
	"github.com/vietddude/leadgen/internal/metrics"
)

// Class is the classification of a collaborator error.
type Class int

const (
	ClassPermanent Class = iota
	ClassOverload
	ClassRateLimit
	ClassConnection
)

func (c Class) String() string {
	switch c {
	case ClassOverload:
		return "overload"
	case ClassRateLimit:
		return "rate_limit"
	case ClassConnection:
		return "connection"
	default:
		return "permanent"
	}
}

// Retryable reports whether the class is worth another attempt.
func (c Class) Retryable() bool {
	return c != ClassPermanent
}

// Classify maps an error to exactly one class. The checks run in strict
// precedence order: overload outranks rate limiting, which outranks
// connection trouble, so an overload message that also mentions
// "connection" still classifies as overload. Everything unrecognized is
// permanent and must not be retried.
func Classify(err error) Class {
	if err == nil {
		return ClassPermanent
	}

	msg := strings.ToLower(err.Error())

	var statusErr *genai.StatusError
	hasStatus := errors.As(err, &statusErr)

	// 1. Overloaded / unavailable
	if hasStatus && statusErr.Code == http.StatusServiceUnavailable {
		return ClassOverload
	}
	if strings.Contains(msg, "overloaded") || strings.Contains(msg, "unavailable") {
		return ClassOverload
	}

	// 2. Rate limited
	if hasStatus && statusErr.Code == http.StatusTooManyRequests {
		return ClassRateLimit
	}
	if strings.Contains(msg, "rate limit") || strings.Contains(msg, "too many requests") {
		return ClassRateLimit
	}

	// 3. Connection / timeout
	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return ClassConnection
	}
	if strings.Contains(msg, "connection") || strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "network") {
		return ClassConnection
	}

	return ClassPermanent
}

// Config defines retry behavior.
type Config struct {
	MaxAttempts     int
	InitialDelay    time.Duration
	MaxDelay        time.Duration
	BackoffMultiple float64
}

// DefaultConfig provides sensible defaults.
var DefaultConfig = Config{
	MaxAttempts:     5,
	InitialDelay:    2 * time.Second,
	MaxDelay:        60 * time.Second,
	BackoffMultiple: 2.0,
}

// ExhaustedError is returned when every attempt failed with a retryable
// error. It preserves the last classification and the attempt count.
type ExhaustedError struct {
	Class    Class
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s error after %d attempts: %v", e.Class, e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// Func is one attempt against a collaborator.
type Func func(ctx context.Context) (*domain.LeadBatch, error)

// Call executes fn with classified exponential backoff. Permanent errors
// return immediately; retryable ones back off min(initial*mult^(n-1), cap)
// between attempts. Backoff sleeps are cancellable through ctx. Every
// retry is logged with its attempt number and computed delay.
func Call(ctx context.Context, fn Func, cfg Config) (*domain.LeadBatch, error) {
	if cfg.MaxAttempts <= 0 {
		cfg = DefaultConfig
	}

	var lastErr error
	var lastClass Class

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}

		lastErr = err
		lastClass = Classify(err)

		if !lastClass.Retryable() {
			return nil, fmt.Errorf("permanent error: %w", err)
		}

		if attempt == cfg.MaxAttempts {
			break
		}

		delay := backoffDelay(attempt, cfg)
		slog.Warn("transient generation error, backing off",
			"class", lastClass.String(),
			"attempt", attempt,
			"max_attempts", cfg.MaxAttempts,
			"delay", delay,
			"error", err,
		)
		metrics.RetryAttemptsTotal.WithLabelValues(lastClass.String()).Inc()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	return nil, &ExhaustedError{Class: lastClass, Attempts: cfg.MaxAttempts, Err: lastErr}
}

// backoffDelay computes the capped exponential delay for a 1-based attempt.
func backoffDelay(attempt int, cfg Config) time.Duration {
	delay := float64(cfg.InitialDelay) * math.Pow(cfg.BackoffMultiple, float64(attempt-1))
	if delay > float64(cfg.MaxDelay) {
		delay = float64(cfg.MaxDelay)
	}
	return time.Duration(delay)
}
