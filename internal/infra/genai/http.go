package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/vietddude/leadgen/internal/core/domain"
	"github.com/vietddude/leadgen/internal/metrics"
)

// Config holds settings for an OpenAI-compatible provider endpoint.
type Config struct {
	Name    string        `yaml:"name"`
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

// HTTPProvider implements Provider over an OpenAI-compatible
// chat-completions API (the original deployment pointed this at
// Gemini's compatibility endpoint).
type HTTPProvider struct {
	name       string
	endpoint   string
	apiKey     string
	model      string
	httpClient *http.Client

	mu           sync.RWMutex
	health       HealthStatus
	totalLatency time.Duration
	successCount int
	failureCount int
	requestCount int
}

// NewHTTPProvider creates a new HTTP-based generation provider.
func NewHTTPProvider(cfg Config) *HTTPProvider {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	return &HTTPProvider{
		name:     cfg.Name,
		endpoint: strings.TrimRight(cfg.BaseURL, "/") + "/chat/completions",
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		health: HealthStatus{
			Available:  true,
			Configured: cfg.APIKey != "",
		},
	}
}

// GetName returns the provider's name.
func (p *HTTPProvider) GetName() string {
	return p.name
}

// GetHealth returns the provider's health status.
func (p *HTTPProvider) GetHealth() HealthStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.health
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// GenerateLeads posts the lead-generation prompt and parses the model's
// JSON payload. Transport failures carry a StatusError; unparseable
// output is returned as a plain error and is not retried upstream.
func (p *HTTPProvider) GenerateLeads(ctx context.Context, req domain.LeadRequest) (*domain.LeadBatch, error) {
	start := time.Now()
	metrics.GenerateCallsTotal.WithLabelValues(p.name).Inc()

	batch, err := p.generate(ctx, req)
	if err != nil {
		p.recordFailure()
		metrics.GenerateErrorsTotal.WithLabelValues(p.name, errorKind(err)).Inc()
		return nil, err
	}

	latency := time.Since(start)
	p.recordSuccess(latency)
	metrics.GenerateLatency.WithLabelValues(p.name).Observe(latency.Seconds())
	return batch, nil
}

func (p *HTTPProvider) generate(ctx context.Context, req domain.LeadRequest) (*domain.LeadBatch, error) {
	body := chatRequest{
		Model:    p.model,
		Messages: []chatMessage{{Role: "user", Content: buildPrompt(req)}},
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("generation call: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(string(raw))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, &StatusError{Code: resp.StatusCode, Message: msg}
	}

	var chat chatResponse
	if err := json.Unmarshal(raw, &chat); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if len(chat.Choices) == 0 {
		return nil, fmt.Errorf("empty completion from %s", p.name)
	}

	content := stripCodeFences(chat.Choices[0].Message.Content)

	var batch domain.LeadBatch
	if err := json.Unmarshal([]byte(content), &batch); err != nil {
		return nil, fmt.Errorf("parse model output: %w", err)
	}
	if len(batch.Companies) == 0 {
		return nil, fmt.Errorf("model output contains no companies")
	}
	return &batch, nil
}

// stripCodeFences removes markdown code blocks the model sometimes wraps
// around its JSON payload despite being told not to.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.Index(s, "```json"); idx >= 0 {
		s = s[idx+len("```json"):]
	} else if idx := strings.Index(s, "```"); idx >= 0 {
		s = s[idx+len("```"):]
	} else {
		return s
	}
	if idx := strings.Index(s, "```"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

func errorKind(err error) string {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.Code {
		case http.StatusTooManyRequests:
			return "rate_limit"
		case http.StatusServiceUnavailable:
			return "overload"
		default:
			return "http"
		}
	}
	if strings.Contains(err.Error(), "parse model output") {
		return "parse"
	}
	return "transport"
}

func (p *HTTPProvider) recordSuccess(latency time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.successCount++
	p.requestCount++
	p.totalLatency += latency
	p.health.LastSuccessAt = time.Now()
	p.health.Available = true

	if p.requestCount > 0 {
		p.health.ErrorRate = float64(p.failureCount) / float64(p.requestCount)
	}
	if p.successCount > 0 {
		p.health.Latency = p.totalLatency / time.Duration(p.successCount)
	}
}

func (p *HTTPProvider) recordFailure() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.failureCount++
	p.requestCount++
	p.health.LastFailureAt = time.Now()

	if p.requestCount > 0 {
		p.health.ErrorRate = float64(p.failureCount) / float64(p.requestCount)
	}
	if p.health.ErrorRate > 0.5 {
		p.health.Available = false
	}
}
