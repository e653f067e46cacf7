package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/vietddude/leadgen/internal/core/domain"
	"github.com/vietddude/leadgen/internal/infra/email"
	"github.com/vietddude/leadgen/internal/infra/genai"
	"github.com/vietddude/leadgen/internal/leads"
)

// LeadHandler handles lead-generation endpoints.
type LeadHandler struct {
	svc      *leads.Service
	provider genai.Provider
}

// NewLeadHandler creates a new LeadHandler.
func NewLeadHandler(svc *leads.Service, provider genai.Provider) *LeadHandler {
	return &LeadHandler{svc: svc, provider: provider}
}

type generateRequest struct {
	Industry       string `json:"industry" validate:"required"`
	Count          int    `json:"number" validate:"required,min=1,max=50"`
	Country        string `json:"country" validate:"required"`
	EnableScraping bool   `json:"enable_web_scraping"`
}

func (r generateRequest) toDomain() domain.LeadRequest {
	return domain.LeadRequest{
		Industry:       r.Industry,
		Count:          r.Count,
		Country:        r.Country,
		EnableScraping: r.EnableScraping,
	}
}

func bindGenerateRequest(c echo.Context) (domain.LeadRequest, error) {
	var req generateRequest
	if err := c.Bind(&req); err != nil {
		return domain.LeadRequest{}, &domain.ValidationError{Field: "body", Message: "invalid JSON body"}
	}
	if err := c.Validate(&req); err != nil {
		return domain.LeadRequest{}, err
	}
	return req.toDomain(), nil
}

// Generate runs generation synchronously and returns the batch wrapped
// in its request metadata.
func (h *LeadHandler) Generate(c echo.Context) error {
	req, err := bindGenerateRequest(c)
	if err != nil {
		return err
	}

	batch, err := h.svc.RunSync(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return JSON(c, http.StatusOK, map[string]any{
		"industry":             req.Industry,
		"country":              req.Country,
		"requested_count":      req.Count,
		"actual_count":         len(batch.Companies),
		"web_scraping_enabled": req.EnableScraping,
		"generated_at":         time.Now().UTC(),
		"companies":            batch.Companies,
	})
}

// GenerateAsync submits a background job and returns its id.
func (h *LeadHandler) GenerateAsync(c echo.Context) error {
	req, err := bindGenerateRequest(c)
	if err != nil {
		return err
	}

	id, err := h.svc.Submit(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return JSON(c, http.StatusAccepted, map[string]any{
		"job_id": id,
		"status": domain.JobStatusQueued,
	})
}

// Status returns the current projection of a job.
func (h *LeadHandler) Status(c echo.Context) error {
	view, err := h.svc.GetStatus(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return JSON(c, http.StatusOK, view)
}

// Export streams a completed job's leads as JSON or CSV.
func (h *LeadHandler) Export(c echo.Context) error {
	job, err := h.svc.GetJob(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}

	format := leads.ExportFormat(c.QueryParam("format"))
	data, err := leads.Export(job, format)
	if err != nil {
		return err
	}

	if format == leads.FormatCSV {
		c.Response().Header().Set(echo.HeaderContentDisposition,
			fmt.Sprintf("attachment; filename=leads_%s.csv", job.ID))
		return c.Blob(http.StatusOK, "text/csv", data)
	}
	return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, data)
}

// List returns all known jobs, newest first where the backend orders them.
func (h *LeadHandler) List(c echo.Context) error {
	jobs, err := h.svc.ListJobs(c.Request().Context())
	if err != nil {
		return err
	}

	views := make([]map[string]any, 0, len(jobs))
	for _, job := range jobs {
		views = append(views, map[string]any{
			"job_id":     job.ID,
			"status":     job.Status,
			"industry":   job.Request.Industry,
			"country":    job.Request.Country,
			"created_at": job.CreatedAt,
		})
	}
	return JSON(c, http.StatusOK, views)
}

// Health reports service and provider health.
func (h *LeadHandler) Health(c echo.Context) error {
	health := h.provider.GetHealth()

	status := http.StatusOK
	state := "healthy"
	if !health.Configured {
		state = "unconfigured"
		status = http.StatusServiceUnavailable
	} else if !health.Available {
		state = "degraded"
		status = http.StatusServiceUnavailable
	}

	return c.JSON(status, map[string]any{
		"status": state,
		"time":   time.Now().UTC(),
		"generator": map[string]any{
			"name":       h.provider.GetName(),
			"available":  health.Available,
			"configured": health.Configured,
			"error_rate": health.ErrorRate,
			"latency_ms": health.Latency.Milliseconds(),
		},
	})
}

// EmailHandler handles outbound email endpoints.
type EmailHandler struct {
	sender email.Sender
}

// NewEmailHandler creates a new EmailHandler.
func NewEmailHandler(sender email.Sender) *EmailHandler {
	return &EmailHandler{sender: sender}
}

type sendEmailRequest struct {
	To      []string `json:"to" validate:"required,min=1,dive,email"`
	Subject string   `json:"subject" validate:"required"`
	Body    string   `json:"body" validate:"required"`
}

// Send delivers an HTML email through the configured SMTP sender.
func (h *EmailHandler) Send(c echo.Context) error {
	var req sendEmailRequest
	if err := c.Bind(&req); err != nil {
		return &domain.ValidationError{Field: "body", Message: "invalid JSON body"}
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	err := h.sender.Send(c.Request().Context(), email.Message{
		To:      req.To,
		Subject: req.Subject,
		Body:    req.Body,
	})
	if err != nil {
		return err
	}
	return JSON(c, http.StatusOK, map[string]any{"sent": true, "recipients": len(req.To)})
}
