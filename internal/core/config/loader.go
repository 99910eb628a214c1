package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/vietddude/resilience/internal/core/apperr"
	redisclient "github.com/vietddude/resilience/internal/infra/redis"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML, expanding environment variables, and applies
// defaults.
func Parse(data []byte) (*AppConfig, error) {
	var cfg AppConfig
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ApplyDefaults()
	return &cfg, nil
}

// Default returns a configuration with only defaults set.
func Default() *AppConfig {
	var cfg AppConfig
	cfg.ApplyDefaults()
	return &cfg
}

// ApplyDefaults fills zero values. MaxRetries is only defaulted when
// negative so that 0 can disable retries.
func (c *AppConfig) ApplyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}

	if c.Retry.MaxRetries < 0 {
		c.Retry.MaxRetries = 0
	} else if c.Retry.MaxRetries == 0 {
		c.Retry.MaxRetries = 3
	}
	if c.Retry.RetryDelay == 0 {
		c.Retry.RetryDelay = time.Second
	}

	if c.Recovery.Network.Initial == 0 {
		c.Recovery.Network = BackoffConfig{Initial: time.Second, Max: 30 * time.Second}
	}
	if c.Recovery.Database.Initial == 0 {
		c.Recovery.Database = BackoffConfig{Initial: 2 * time.Second, Max: 10 * time.Second}
	}

	if c.Session.Timeout == 0 {
		c.Session.Timeout = 10 * time.Second
	}

	if c.Notifications.MinSeverity == "" {
		c.Notifications.MinSeverity = apperr.SeverityMedium
	} else {
		c.Notifications.MinSeverity = apperr.ParseSeverity(string(c.Notifications.MinSeverity))
	}

	if c.Reporting.RemoteTimeout == 0 {
		c.Reporting.RemoteTimeout = 5 * time.Second
	}
	if c.Reporting.StreamMaxLen == 0 {
		c.Reporting.StreamMaxLen = redisclient.DefaultStreamMaxLen
	}

	if c.Metrics.RateWindow == 0 {
		c.Metrics.RateWindow = 5 * time.Minute
	}
	if c.Metrics.DegradedRate == 0 {
		c.Metrics.DegradedRate = 5
	}
}
