package recovery

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vietddude/resilience/internal/core/apperr"
)

// =============================================================================
// Mocks
// =============================================================================

type mockRefresher struct {
	err   error
	calls int
}

func (m *mockRefresher) Refresh(ctx context.Context) error {
	m.calls++
	return m.err
}

type mockRedirector struct {
	reasons []string
}

func (m *mockRedirector) RedirectToLogin(ctx context.Context, reason string) error {
	m.reasons = append(m.reasons, reason)
	return nil
}

type namedStub struct {
	id string
}

func (s *namedStub) CanRecover(apperr.Error) bool                             { return true }
func (s *namedStub) Recover(context.Context, apperr.Error, apperr.Scope) bool { return true }
func (s *namedStub) MaxRetries() int                                          { return 0 }
func (s *namedStub) RetryDelay() time.Duration                                { return 0 }

// =============================================================================
// Backoff Tests
// =============================================================================

func TestBackoff_Delay(t *testing.T) {
	tests := []struct {
		name    string
		backoff Backoff
		attempt int
		want    time.Duration
	}{
		{"network_first", NetworkBackoff, 0, time.Second},
		{"network_third", NetworkBackoff, 2, 4 * time.Second},
		{"network_capped", NetworkBackoff, 6, 30 * time.Second},
		{"database_first", DatabaseBackoff, 0, 2 * time.Second},
		{"database_second", DatabaseBackoff, 1, 4 * time.Second},
		{"database_capped", DatabaseBackoff, 3, 10 * time.Second},
		{"negative_attempt", NetworkBackoff, -1, time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.backoff.Delay(tt.attempt); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestSleep_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	if Sleep(ctx, time.Minute) {
		t.Error("expected false on cancelled context")
	}
	if time.Since(start) > time.Second {
		t.Error("sleep did not return promptly")
	}
}

// =============================================================================
// Strategy Tests
// =============================================================================

func TestStrategies_Eligibility(t *testing.T) {
	network := NewNetworkStrategy(Backoff{Initial: time.Millisecond})
	auth := NewAuthStrategy(nil, nil)
	cache := NewCacheStrategy()
	db := NewDatabaseStrategy(Backoff{Initial: time.Millisecond})

	tests := []struct {
		name     string
		strategy Strategy
		err      apperr.Error
		want     bool
	}{
		{"network_retryable", network, apperr.NewNetworkError(apperr.NetworkTimeout), true},
		{"network_not_retryable", network, apperr.NewNetworkError(apperr.NetworkNotFound), false},
		{"network_wrong_kind", network, apperr.NewCacheError(apperr.CacheMiss), false},
		{"auth_expired", auth, apperr.NewAuthError(apperr.AuthSessionExpired), true},
		{"auth_locked", auth, apperr.NewAuthError(apperr.AuthAccountLocked), false},
		{"cache_miss", cache, apperr.NewCacheError(apperr.CacheMiss), true},
		{"db_deadlock", db, apperr.NewDatabaseError(apperr.DatabaseDeadlock), true},
		{"db_wrong_kind", db, apperr.NewOfflineQueueError(apperr.QueueSyncFailed), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.strategy.CanRecover(tt.err); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestNetworkStrategy_UsesRetryCount(t *testing.T) {
	s := NewNetworkStrategy(Backoff{Initial: 10 * time.Millisecond, Max: time.Second})
	scope := apperr.Scope{}.With("retryCount", 2)

	start := time.Now()
	ok := s.Recover(context.Background(), apperr.NewNetworkError(apperr.NetworkTimeout), scope)
	elapsed := time.Since(start)

	if !ok {
		t.Error("expected network recovery to succeed")
	}
	if elapsed < 40*time.Millisecond {
		t.Errorf("expected >= 40ms backoff, got %v", elapsed)
	}
}

func TestDatabaseStrategy_Cancelled(t *testing.T) {
	s := NewDatabaseStrategy(DatabaseBackoff)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if s.Recover(ctx, apperr.NewDatabaseError(apperr.DatabaseTimeout), apperr.Scope{}) {
		t.Error("expected cancelled recovery to report false")
	}
}

func TestAuthStrategy_RefreshSucceeds(t *testing.T) {
	refresher := &mockRefresher{}
	redirector := &mockRedirector{}
	s := NewAuthStrategy(refresher, redirector)

	if !s.Recover(context.Background(), apperr.NewAuthError(apperr.AuthTokenExpired), apperr.Scope{}) {
		t.Error("expected recovery after refresh")
	}
	if refresher.calls != 1 {
		t.Errorf("expected 1 refresh, got %d", refresher.calls)
	}
	if len(redirector.reasons) != 0 {
		t.Error("should not redirect on successful refresh")
	}
}

func TestAuthStrategy_RefreshFailsRedirects(t *testing.T) {
	refresher := &mockRefresher{err: errors.New("refresh endpoint returned 401")}
	redirector := &mockRedirector{}
	s := NewAuthStrategy(refresher, redirector)

	if s.Recover(context.Background(), apperr.NewAuthError(apperr.AuthSessionExpired), apperr.Scope{}) {
		t.Error("expected false after failed refresh")
	}
	if len(redirector.reasons) != 1 || redirector.reasons[0] != "SESSION_EXPIRED" {
		t.Errorf("expected one redirect with SESSION_EXPIRED, got %v", redirector.reasons)
	}
}

// =============================================================================
// Registry Tests
// =============================================================================

func TestDefaultRegistry_Order(t *testing.T) {
	r := DefaultRegistry(Defaults{})

	entries := r.Entries()
	want := []string{"network", "auth", "cache", "database"}
	if len(entries) != len(want) {
		t.Fatalf("expected %d strategies, got %d", len(want), len(entries))
	}
	for i, name := range want {
		if entries[i].Name != name {
			t.Errorf("position %d: expected %s, got %s", i, name, entries[i].Name)
		}
	}

	queueErr := apperr.NewOfflineQueueError(apperr.QueueSyncFailed)
	for _, e := range entries {
		if e.Strategy.CanRecover(queueErr) {
			t.Errorf("%s should not claim offline queue errors", e.Name)
		}
	}
}

func TestDefaultRegistry_DeclaredLimits(t *testing.T) {
	r := DefaultRegistry(Defaults{})

	tests := []struct {
		name    string
		retries int
		delay   time.Duration
	}{
		{"network", 3, time.Second},
		{"auth", 1, 0},
		{"cache", 1, 0},
		{"database", 3, 2 * time.Second},
	}
	for _, tt := range tests {
		s, ok := r.Get(tt.name)
		if !ok {
			t.Fatalf("missing %s", tt.name)
		}
		if s.MaxRetries() != tt.retries || s.RetryDelay() != tt.delay {
			t.Errorf("%s: expected %d/%v, got %d/%v",
				tt.name, tt.retries, tt.delay, s.MaxRetries(), s.RetryDelay())
		}
	}
}

func TestRegistry_OverrideKeepsPosition(t *testing.T) {
	r := NewRegistry()
	first := &namedStub{id: "a"}
	r.Register("a", first)
	r.Register("b", &namedStub{id: "b"})

	replacement := &namedStub{id: "a2"}
	r.Register("a", replacement)

	entries := r.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Name != "a" || entries[0].Strategy != replacement {
		t.Error("override should replace in place")
	}
}
