package recovery

import (
	"context"
	"log/slog"
	"time"

	"github.com/vietddude/resilience/internal/core/apperr"
)

// SessionRefresher renews the current session with the auth provider.
type SessionRefresher interface {
	Refresh(ctx context.Context) error
}

// LoginRedirector sends the user back to the login entry point.
type LoginRedirector interface {
	RedirectToLogin(ctx context.Context, reason string) error
}

func eligible(err apperr.Error, kind apperr.Kind) bool {
	return err != nil && err.Kind() == kind && err.Retryable()
}

// NetworkStrategy paces the caller's next attempt. It does not probe
// connectivity itself.
type NetworkStrategy struct {
	backoff Backoff
}

func NewNetworkStrategy(b Backoff) *NetworkStrategy {
	return &NetworkStrategy{backoff: b}
}

func (s *NetworkStrategy) CanRecover(err apperr.Error) bool {
	return eligible(err, apperr.KindNetwork)
}

func (s *NetworkStrategy) Recover(ctx context.Context, _ apperr.Error, scope apperr.Scope) bool {
	return Sleep(ctx, s.backoff.Delay(scope.RetryCount()))
}

func (s *NetworkStrategy) MaxRetries() int           { return 3 }
func (s *NetworkStrategy) RetryDelay() time.Duration { return time.Second }

// AuthStrategy refreshes the session, falling back to a login redirect.
type AuthStrategy struct {
	refresher  SessionRefresher
	redirector LoginRedirector
}

func NewAuthStrategy(refresher SessionRefresher, redirector LoginRedirector) *AuthStrategy {
	return &AuthStrategy{refresher: refresher, redirector: redirector}
}

func (s *AuthStrategy) CanRecover(err apperr.Error) bool {
	return eligible(err, apperr.KindAuth)
}

func (s *AuthStrategy) Recover(ctx context.Context, err apperr.Error, _ apperr.Scope) bool {
	if s.refresher != nil {
		refreshErr := s.refresher.Refresh(ctx)
		if refreshErr == nil {
			return true
		}
		slog.Warn("Session refresh failed", "code", err.Code(), "error", refreshErr)
	}

	if s.redirector != nil {
		if redirErr := s.redirector.RedirectToLogin(ctx, err.Code()); redirErr != nil {
			slog.Error("Login redirect failed", "error", redirErr)
		}
	}
	return false
}

func (s *AuthStrategy) MaxRetries() int           { return 1 }
func (s *AuthStrategy) RetryDelay() time.Duration { return 0 }

// CacheStrategy lets the caller continue without the cache.
type CacheStrategy struct{}

func NewCacheStrategy() *CacheStrategy {
	return &CacheStrategy{}
}

func (s *CacheStrategy) CanRecover(err apperr.Error) bool {
	return eligible(err, apperr.KindCache)
}

func (s *CacheStrategy) Recover(context.Context, apperr.Error, apperr.Scope) bool {
	return true
}

func (s *CacheStrategy) MaxRetries() int           { return 1 }
func (s *CacheStrategy) RetryDelay() time.Duration { return 0 }

// DatabaseStrategy waits out transient database failures.
type DatabaseStrategy struct {
	backoff Backoff
}

func NewDatabaseStrategy(b Backoff) *DatabaseStrategy {
	return &DatabaseStrategy{backoff: b}
}

func (s *DatabaseStrategy) CanRecover(err apperr.Error) bool {
	return eligible(err, apperr.KindDatabase)
}

func (s *DatabaseStrategy) Recover(ctx context.Context, _ apperr.Error, scope apperr.Scope) bool {
	return Sleep(ctx, s.backoff.Delay(scope.RetryCount()))
}

func (s *DatabaseStrategy) MaxRetries() int           { return 3 }
func (s *DatabaseStrategy) RetryDelay() time.Duration { return 2 * time.Second }
