package worker

import (
	"context"
	"testing"
	"time"

	"github.com/vietddude/resilience/internal/core/apperr"
	"github.com/vietddude/resilience/internal/infra/storage"
	"github.com/vietddude/resilience/internal/infra/storage/memory"
)

func TestPruner_Prune(t *testing.T) {
	repo := memory.NewErrorLogRepo()
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	old := storage.NewErrorRecord(apperr.NewNetworkError(apperr.NetworkTimeout), apperr.Scope{})
	old.OccurredAt = now.Add(-48 * time.Hour)
	fresh := storage.NewErrorRecord(apperr.NewCacheError(apperr.CacheMiss), apperr.Scope{})
	fresh.OccurredAt = now.Add(-time.Hour)

	for _, rec := range []*storage.ErrorRecord{old, fresh} {
		if err := repo.Save(ctx, rec); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}

	p := NewPruner(repo, 24*time.Hour)
	p.now = func() time.Time { return now }

	if n := p.Prune(ctx); n != 1 {
		t.Errorf("expected 1 deleted, got %d", n)
	}
	if _, err := repo.Get(ctx, old.ID); err != storage.ErrNotFound {
		t.Errorf("expected old record pruned, got %v", err)
	}
	if _, err := repo.Get(ctx, fresh.ID); err != nil {
		t.Errorf("expected fresh record kept, got %v", err)
	}
}

func TestPruner_Interval(t *testing.T) {
	tests := []struct {
		retention time.Duration
		want      time.Duration
	}{
		{5 * time.Minute, time.Minute},
		{2 * time.Hour, 12 * time.Minute},
		{30 * 24 * time.Hour, time.Hour},
	}
	for _, tt := range tests {
		if got := NewPruner(nil, tt.retention).Interval(); got != tt.want {
			t.Errorf("retention %v: expected %v, got %v", tt.retention, tt.want, got)
		}
	}
}

func TestPruner_DisabledReturnsImmediately(t *testing.T) {
	done := make(chan struct{})
	go func() {
		NewPruner(nil, 0).Start(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expected Start to return when retention is disabled")
	}
}
