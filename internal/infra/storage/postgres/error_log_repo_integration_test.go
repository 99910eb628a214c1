package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/resilience/internal/core/apperr"
	"github.com/vietddude/resilience/internal/infra/storage"
)

func TestErrorLogRepo_Live(t *testing.T) {
	url := os.Getenv("DATABASE_URL")
	if os.Getenv("E2E_LIVE") == "" || url == "" {
		t.Skip("Skipping live postgres test. Set E2E_LIVE=true and DATABASE_URL to run.")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := NewDB(ctx, Config{URL: url})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	repo := NewErrorLogRepo(db)
	rec := &storage.ErrorRecord{
		ID:         uuid.NewString(),
		Kind:       apperr.KindDatabase,
		Code:       "DEADLOCK",
		Message:    "Database deadlock detected",
		Severity:   apperr.SeverityHigh,
		Retryable:  true,
		Component:  "reports",
		Context:    apperr.Fields{"table": "daily_reports"},
		OccurredAt: time.Now().UTC(),
	}
	if err := repo.Save(ctx, rec); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := repo.Save(ctx, rec); err != nil {
		t.Fatalf("duplicate save should be ignored: %v", err)
	}

	got, err := repo.Get(ctx, rec.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Code != "DEADLOCK" || got.Context["table"] != "daily_reports" {
		t.Errorf("unexpected record: %+v", got)
	}

	list, err := repo.List(ctx, storage.Filter{
		Kind:        apperr.KindDatabase,
		MinSeverity: apperr.SeverityMedium,
		Since:       rec.OccurredAt.Add(-time.Minute),
		Limit:       10,
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) == 0 {
		t.Error("expected the saved record in the list")
	}

	if _, err := repo.DeleteOlderThan(ctx, time.Now().Add(time.Minute)); err != nil {
		t.Fatalf("prune: %v", err)
	}
	if _, err := repo.Get(ctx, rec.ID); err != storage.ErrNotFound {
		t.Errorf("expected ErrNotFound after prune, got %v", err)
	}
}
