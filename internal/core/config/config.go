package config

import (
	"time"

	"github.com/vietddude/resilience/internal/core/apperr"
	redisclient "github.com/vietddude/resilience/internal/infra/redis"
	"github.com/vietddude/resilience/internal/infra/session"
	"github.com/vietddude/resilience/internal/infra/storage/postgres"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server        ServerConfig       `yaml:"server"`
	Logging       LoggingConfig      `yaml:"logging"`
	Retry         RetryConfig        `yaml:"retry"`
	Recovery      RecoveryConfig     `yaml:"recovery"`
	Session       session.Config     `yaml:"session"`
	Notifications NotificationConfig `yaml:"notifications"`
	Reporting     ReportingConfig    `yaml:"reporting"`
	Metrics       MetricsConfig      `yaml:"metrics"`
	Retention     RetentionConfig    `yaml:"retention"`
	Redis         redisclient.Config `yaml:"redis"`
	Database      postgres.Config    `yaml:"database"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// RetryConfig holds the defaults for the retry wrapper.
type RetryConfig struct {
	MaxRetries               int           `yaml:"max_retries"`
	RetryDelay               time.Duration `yaml:"retry_delay"`
	SuppressUntilLastAttempt bool          `yaml:"suppress_until_last_attempt"`
}

// BackoffConfig is an exponential backoff base and cap.
type BackoffConfig struct {
	Initial time.Duration `yaml:"initial"`
	Max     time.Duration `yaml:"max"`
}

// RecoveryConfig paces the built-in recovery strategies.
type RecoveryConfig struct {
	Network  BackoffConfig `yaml:"network"`
	Database BackoffConfig `yaml:"database"`
}

// NotificationConfig controls user-facing notifications.
type NotificationConfig struct {
	MinSeverity apperr.Severity `yaml:"min_severity"`
}

// ReportingConfig selects the reporters registered at startup.
type ReportingConfig struct {
	RemoteURL     string        `yaml:"remote_url"`
	RemoteTimeout time.Duration `yaml:"remote_timeout"`
	RedisStream   string        `yaml:"redis_stream"` // empty disables the stream reporter
	StreamMaxLen  int64         `yaml:"stream_max_len"`
	StoreErrors   bool          `yaml:"store_errors"`
}

// MetricsConfig tunes the error rate and health thresholds.
type MetricsConfig struct {
	RateWindow   time.Duration `yaml:"rate_window"`
	DegradedRate float64       `yaml:"degraded_rate"` // errors per minute
}

// RetentionConfig bounds the persisted error log.
type RetentionConfig struct {
	Period time.Duration `yaml:"period"` // 0 = infinite
}
