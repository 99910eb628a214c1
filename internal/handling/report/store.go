package report

import (
	"context"

	"github.com/vietddude/resilience/internal/core/apperr"
	"github.com/vietddude/resilience/internal/infra/storage"
)

// StoreReporter writes errors to the persistent error log.
type StoreReporter struct {
	repo storage.ErrorLogRepository
}

func NewStoreReporter(repo storage.ErrorLogRepository) *StoreReporter {
	return &StoreReporter{repo: repo}
}

func (r *StoreReporter) Name() string { return "store" }

func (r *StoreReporter) Report(ctx context.Context, err apperr.Error, scope apperr.Scope) error {
	return r.repo.Save(ctx, storage.NewErrorRecord(err, scope))
}

func (r *StoreReporter) ReportBatch(ctx context.Context, errs []apperr.Error, scope apperr.Scope) error {
	return reportEach(ctx, r, errs, scope)
}
