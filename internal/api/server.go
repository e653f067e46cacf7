// Package api exposes the HTTP surface: lead generation (sync and
// async), job status and export, email delivery, health and metrics.
package api

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vietddude/leadgen/internal/infra/email"
	"github.com/vietddude/leadgen/internal/infra/genai"
	"github.com/vietddude/leadgen/internal/leads"
)

// Server wraps the echo instance and its route wiring.
type Server struct {
	echo *echo.Echo
	port int
}

// NewServer builds the HTTP server. The email sender may be nil when
// SMTP is not configured; the email route then returns an error.
func NewServer(port int, svc *leads.Service, provider genai.Provider, sender email.Sender) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewAppValidator()
	e.HTTPErrorHandler = HTTPErrorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			slog.Info("request", "method", v.Method, "uri", v.URI, "status", v.Status)
			return nil
		},
	}))

	leadHandler := NewLeadHandler(svc, provider)

	e.GET("/health", leadHandler.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := e.Group("/api/v1")
	v1.POST("/leads/generate", leadHandler.Generate)
	v1.POST("/leads/generate-async", leadHandler.GenerateAsync)
	v1.GET("/leads/status/:id", leadHandler.Status)
	v1.GET("/leads/export/:id", leadHandler.Export)
	v1.GET("/leads/jobs", leadHandler.List)

	if sender != nil {
		emailHandler := NewEmailHandler(sender)
		v1.POST("/email/send", emailHandler.Send)
	}

	return &Server{echo: e, port: port}
}

// Start blocks serving HTTP until Shutdown is called.
func (s *Server) Start() error {
	return s.echo.Start(fmt.Sprintf(":%d", s.port))
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
