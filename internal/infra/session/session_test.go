package session

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vietddude/resilience/internal/core/apperr"
	"github.com/vietddude/resilience/internal/handling/recovery"
)

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestClient_Refresh(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	c := NewClient(Config{RefreshURL: server.URL, Timeout: time.Second}, quiet())
	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("expected refresh to succeed, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestClient_RefreshRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	c := NewClient(Config{RefreshURL: server.URL}, quiet())
	err := c.Refresh(context.Background())

	appErr, ok := apperr.As(err)
	if !ok {
		t.Fatalf("expected apperr value, got %v", err)
	}
	if appErr.Kind() != apperr.KindAuth || appErr.Code() != "UNAUTHORIZED" {
		t.Errorf("expected Auth/UNAUTHORIZED, got %s/%s", appErr.Kind(), appErr.Code())
	}
}

func TestClient_RefreshNotConfigured(t *testing.T) {
	c := NewClient(Config{}, quiet())
	if err := c.Refresh(context.Background()); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
}

func TestClient_RedirectToLogin(t *testing.T) {
	var got map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
	}))
	defer server.Close()

	c := NewClient(Config{LoginURL: server.URL}, quiet())
	if err := c.RedirectToLogin(context.Background(), "SESSION_EXPIRED"); err != nil {
		t.Fatalf("redirect failed: %v", err)
	}
	if got["reason"] != "SESSION_EXPIRED" {
		t.Errorf("expected reason SESSION_EXPIRED, got %v", got)
	}

	// Without a login endpoint the redirect is only logged.
	if err := NewClient(Config{}, quiet()).RedirectToLogin(context.Background(), "x"); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}

func TestClient_DrivesAuthStrategy(t *testing.T) {
	var redirected bool
	mux := http.NewServeMux()
	mux.HandleFunc("/refresh", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		redirected = true
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c := NewClient(Config{RefreshURL: server.URL + "/refresh", LoginURL: server.URL + "/login"}, quiet())
	strategy := recovery.NewAuthStrategy(c, c)

	ok := strategy.Recover(context.Background(), apperr.NewAuthError(apperr.AuthTokenExpired), apperr.Scope{})
	if ok {
		t.Error("expected recovery to fail when refresh is rejected")
	}
	if !redirected {
		t.Error("expected login redirect")
	}
}
