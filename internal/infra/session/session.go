// Package session talks to the auth gateway on behalf of the auth recovery
// strategy.
package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/vietddude/resilience/internal/core/apperr"
)

// ErrNotConfigured is returned by Refresh when no refresh endpoint is set.
var ErrNotConfigured = errors.New("session refresh endpoint not configured")

// Config holds the auth gateway endpoints.
type Config struct {
	RefreshURL string        `yaml:"refresh_url"`
	LoginURL   string        `yaml:"login_url"`
	Timeout    time.Duration `yaml:"timeout"`
}

// Client refreshes sessions and signals login redirects over HTTP.
type Client struct {
	cfg        Config
	httpClient *http.Client
	log        *slog.Logger
}

func NewClient(cfg Config, log *slog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		log: log,
	}
}

// Refresh asks the gateway for a new session. Any non-2xx answer is
// returned as an apperr value.
func (c *Client) Refresh(ctx context.Context) error {
	if c.cfg.RefreshURL == "" {
		return ErrNotConfigured
	}
	return c.post(ctx, c.cfg.RefreshURL, nil)
}

// RedirectToLogin records the redirect and, when a login endpoint is
// configured, notifies it with the reason.
func (c *Client) RedirectToLogin(ctx context.Context, reason string) error {
	c.log.Warn("Redirecting to login", "reason", reason)
	if c.cfg.LoginURL == "" {
		return nil
	}
	return c.post(ctx, c.cfg.LoginURL, map[string]string{"reason": reason})
}

func (c *Client) post(ctx context.Context, url string, body any) error {
	var payload io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, payload)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call %s: %w", url, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apperr.FromHTTPStatus(resp.StatusCode, url, http.MethodPost)
	}
	return nil
}
