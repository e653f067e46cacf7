// Package genai implements the external lead-generation collaborator.
//
// This package contains:
//   - Provider interface: core abstraction for text-generation backends
//   - HTTPProvider: OpenAI-compatible chat-completions implementation
//   - StatusError: machine-readable transport failures for classification
package genai

import (
	"context"
	"fmt"
	"time"

	"github.com/vietddude/leadgen/internal/core/domain"
)

// Provider defines the core interface for a lead-generation backend.
// Implementations are stateless from the caller's point of view and
// safe to retry.
type Provider interface {
	// GetName returns provider identifier (e.g., "gemini", "openai")
	GetName() string

	// GenerateLeads produces a batch of company leads for the request
	GenerateLeads(ctx context.Context, req domain.LeadRequest) (*domain.LeadBatch, error)

	// GetHealth returns current health metrics
	GetHealth() HealthStatus
}

// StatusError is a transport-level failure carrying the HTTP status code
// so the retry classifier can act on it without parsing message text.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http %d: %s", e.Code, e.Message)
}

// HealthStatus represents the health state of a provider.
type HealthStatus struct {
	Available     bool
	Configured    bool
	ErrorRate     float64
	Latency       time.Duration
	LastSuccessAt time.Time
	LastFailureAt time.Time
}
