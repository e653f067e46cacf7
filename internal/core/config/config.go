package config

import (
	"time"

	"github.com/vietddude/leadgen/internal/infra/email"
	"github.com/vietddude/leadgen/internal/infra/genai"
	redisclient "github.com/vietddude/leadgen/internal/infra/redis"
	"github.com/vietddude/leadgen/internal/infra/scraper"
	"github.com/vietddude/leadgen/internal/infra/storage/postgres"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server    ServerConfig       `yaml:"server"`
	Generator genai.Config       `yaml:"generator"`
	Retry     RetryConfig        `yaml:"retry"`
	Scraper   scraper.Config     `yaml:"scraper"`
	Email     email.Config       `yaml:"email"`
	Redis     redisclient.Config `yaml:"redis"`
	Database  postgres.Config    `yaml:"database"`
	Logging   LoggingConfig      `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// RetryConfig holds the retry policy for generation calls.
type RetryConfig struct {
	MaxAttempts     int           `yaml:"max_attempts"`
	InitialDelay    time.Duration `yaml:"initial_delay"`
	MaxDelay        time.Duration `yaml:"max_delay"`
	BackoffMultiple float64       `yaml:"backoff_multiple"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}
