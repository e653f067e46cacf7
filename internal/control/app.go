// Package control wires the application together: storage backend
// selection, the generation provider, optional collaborators and the
// HTTP server, with a Start/Stop lifecycle.
package control

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pressly/goose/v3"
	goredis "github.com/redis/go-redis/v9"

	"github.com/vietddude/leadgen/internal/api"
	"github.com/vietddude/leadgen/internal/core/config"
	"github.com/vietddude/leadgen/internal/infra/email"
	"github.com/vietddude/leadgen/internal/infra/genai"
	redisclient "github.com/vietddude/leadgen/internal/infra/redis"
	"github.com/vietddude/leadgen/internal/infra/scraper"
	"github.com/vietddude/leadgen/internal/infra/storage"
	"github.com/vietddude/leadgen/internal/infra/storage/memory"
	"github.com/vietddude/leadgen/internal/infra/storage/postgres"
	"github.com/vietddude/leadgen/internal/leads"
	"github.com/vietddude/leadgen/internal/retry"
)

// App is the assembled application.
type App struct {
	cfg    *config.AppConfig
	server *api.Server
	svc    *leads.Service
	db     *postgres.DB
	rdb    *goredis.Client
	log    *slog.Logger
}

// NewApp builds the application from configuration. Storage backend
// precedence: postgres when database.url is set, redis when redis.url
// is set, otherwise in-memory.
func NewApp(cfg *config.AppConfig) (*App, error) {
	app := &App{cfg: cfg, log: slog.Default()}

	repo, err := app.initStorage(cfg)
	if err != nil {
		return nil, err
	}

	provider := genai.NewHTTPProvider(cfg.Generator)
	if cfg.Generator.APIKey == "" {
		app.log.Warn("generator api key not configured, generation calls will fail")
	}

	opts := []leads.Option{
		leads.WithRetryConfig(retry.Config{
			MaxAttempts:     cfg.Retry.MaxAttempts,
			InitialDelay:    cfg.Retry.InitialDelay,
			MaxDelay:        cfg.Retry.MaxDelay,
			BackoffMultiple: cfg.Retry.BackoffMultiple,
		}),
		leads.WithEnhancer(scraper.New(cfg.Scraper)),
	}
	app.svc = leads.NewService(repo, provider, opts...)

	var sender email.Sender
	if cfg.Email.Host != "" {
		sender = email.NewSMTPSender(cfg.Email)
	} else {
		app.log.Info("smtp not configured, email endpoint disabled")
	}

	app.server = api.NewServer(cfg.Server.Port, app.svc, provider, sender)
	return app, nil
}

func (a *App) initStorage(cfg *config.AppConfig) (storage.JobRepository, error) {
	if cfg.Database.URL != "" {
		db, err := postgres.NewDB(context.Background(), cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to init db: %w", err)
		}
		a.db = db

		// Goose needs the raw *sql.DB that sqlx wraps.
		if err := goose.SetDialect("postgres"); err != nil {
			return nil, err
		}
		if err := goose.Up(db.DB.DB, "migrations"); err != nil {
			return nil, fmt.Errorf("failed to migrate db: %w", err)
		}

		a.log.Info("Using PostgreSQL storage")
		return postgres.NewJobRepo(db), nil
	}

	if cfg.Redis.URL != "" {
		rdb, err := redisclient.NewClient(cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to init redis: %w", err)
		}
		a.rdb = rdb
		a.log.Info("Using Redis storage")
		return redisclient.NewJobStore(rdb), nil
	}

	a.log.Info("Using Memory storage")
	return memory.NewJobStore(), nil
}

// Start starts the HTTP server.
func (a *App) Start(ctx context.Context) error {
	go func() {
		if err := a.server.Start(); err != nil {
			a.log.Error("HTTP server stopped", "error", err)
		}
	}()
	a.log.Info("HTTP server listening", "port", a.cfg.Server.Port)
	return nil
}

// Stop drains in-flight jobs and shuts the server down.
func (a *App) Stop(ctx context.Context) error {
	a.log.Info("Stopping leadgen...")

	done := make(chan struct{})
	go func() {
		a.svc.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		a.log.Warn("Shutdown deadline reached with jobs still in flight")
	}

	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.log.Warn("Failed to close Redis", "error", err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Warn("Failed to close database", "error", err)
		}
	}

	return a.server.Shutdown(ctx)
}
