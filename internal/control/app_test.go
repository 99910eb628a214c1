package control

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vietddude/resilience/internal/core/apperr"
	"github.com/vietddude/resilience/internal/core/config"
	"github.com/vietddude/resilience/internal/handling"
	"github.com/vietddude/resilience/internal/handling/retry"
	"github.com/vietddude/resilience/internal/infra/storage"
)

func testConfig() *config.AppConfig {
	cfg := config.Default()
	cfg.Server.Port = 0
	cfg.Reporting.StoreErrors = true
	cfg.Retry.RetryDelay = time.Millisecond
	cfg.Recovery.Network = config.BackoffConfig{Initial: time.Millisecond, Max: time.Millisecond}
	return cfg
}

func TestApp_Lifecycle(t *testing.T) {
	app, err := NewApp(context.Background(), testConfig())
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := app.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// Wait a bit to let goroutines spin up
	time.Sleep(50 * time.Millisecond)

	if err := app.Stop(ctx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
}

func TestApp_StoresHandledErrors(t *testing.T) {
	app, err := NewApp(context.Background(), testConfig())
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	ctx := context.Background()

	app.Handler().Handle(ctx, apperr.NewOfflineQueueError(apperr.QueueFull), apperr.Scope{Component: "sync"}, handling.Options{})

	recs, err := app.ErrorLog().List(ctx, storage.Filter{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(recs) != 1 || recs[0].Kind != apperr.KindOfflineQueue || recs[0].Component != "sync" {
		t.Errorf("expected stored queue error, got %+v", recs)
	}
	if m := app.Handler().ErrorMetrics(); m.ErrorCount != 1 {
		t.Errorf("expected 1 tracked error, got %d", m.ErrorCount)
	}
}

func TestApp_RetryOptions(t *testing.T) {
	cfg := testConfig()
	cfg.Retry.MaxRetries = 2

	app, err := NewApp(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}

	calls := 0
	_, err = retry.Do(context.Background(), app.Handler(), func(ctx context.Context) (int, error) {
		calls++
		return 0, errors.New("read: connection reset by peer")
	}, apperr.Scope{Component: "probe"}, app.RetryOptions()...)

	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}
