package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vietddude/resilience/internal/core/apperr"
	"github.com/vietddude/resilience/internal/infra/storage"
)

func record(id string, kind apperr.Kind, sev apperr.Severity, at time.Time) *storage.ErrorRecord {
	return &storage.ErrorRecord{
		ID:         id,
		Kind:       kind,
		Code:       "X",
		Severity:   sev,
		OccurredAt: at,
	}
}

func TestErrorLogRepo_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewErrorLogRepo()
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	_ = repo.Save(ctx, record("a", apperr.KindNetwork, apperr.SeverityMedium, base))
	_ = repo.Save(ctx, record("b", apperr.KindAuth, apperr.SeverityCritical, base.Add(time.Minute)))
	_ = repo.Save(ctx, record("c", apperr.KindCache, apperr.SeverityLow, base.Add(2*time.Minute)))

	all, err := repo.List(ctx, storage.Filter{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(all) != 3 || all[0].ID != "c" || all[2].ID != "a" {
		t.Errorf("expected c,b,a got %v", ids(all))
	}

	high, _ := repo.List(ctx, storage.Filter{MinSeverity: apperr.SeverityHigh})
	if len(high) != 1 || high[0].ID != "b" {
		t.Errorf("expected only b, got %v", ids(high))
	}

	limited, _ := repo.List(ctx, storage.Filter{Limit: 2})
	if len(limited) != 2 {
		t.Errorf("expected 2, got %d", len(limited))
	}

	network, _ := repo.List(ctx, storage.Filter{Kind: apperr.KindNetwork})
	if len(network) != 1 || network[0].ID != "a" {
		t.Errorf("expected only a, got %v", ids(network))
	}
}

func TestErrorLogRepo_SaveIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := NewErrorLogRepo()
	rec := record("dup", apperr.KindDatabase, apperr.SeverityHigh, time.Now())

	_ = repo.Save(ctx, rec)
	_ = repo.Save(ctx, rec)

	counts, _ := repo.CountByKind(ctx)
	if counts[apperr.KindDatabase] != 1 {
		t.Errorf("expected 1, got %d", counts[apperr.KindDatabase])
	}
}

func TestErrorLogRepo_DeleteOlderThan(t *testing.T) {
	ctx := context.Background()
	repo := NewErrorLogRepo()
	now := time.Now()

	_ = repo.Save(ctx, record("old", apperr.KindNetwork, apperr.SeverityMedium, now.Add(-48*time.Hour)))
	_ = repo.Save(ctx, record("new", apperr.KindNetwork, apperr.SeverityMedium, now))

	n, err := repo.DeleteOlderThan(ctx, now.Add(-24*time.Hour))
	if err != nil || n != 1 {
		t.Fatalf("expected 1 deletion, got %d (%v)", n, err)
	}
	if _, err := repo.Get(ctx, "old"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := repo.Get(ctx, "new"); err != nil {
		t.Errorf("expected new record to survive, got %v", err)
	}
}

func TestNewErrorRecord(t *testing.T) {
	err := apperr.NewAuthError(apperr.AuthSessionExpired,
		apperr.WithUserID("u-42"),
		apperr.WithContext(apperr.Fields{"route": "/api/reports"}),
	)
	scope := apperr.Scope{Component: "reports", Action: "load", UserID: "u-1"}.With("retryCount", 1)

	rec := storage.NewErrorRecord(err, scope)
	if rec.ID != err.ID() || rec.Kind != apperr.KindAuth || rec.Code != "SESSION_EXPIRED" {
		t.Errorf("unexpected record identity: %+v", rec)
	}
	if rec.UserID != "u-42" {
		t.Errorf("expected error user to win over scope user, got %s", rec.UserID)
	}
	if rec.Context["route"] != "/api/reports" || rec.Context["retryCount"] != 1 {
		t.Errorf("expected merged context, got %v", rec.Context)
	}
}

func ids(recs []*storage.ErrorRecord) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.ID
	}
	return out
}
