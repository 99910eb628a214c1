package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/vietddude/resilience/internal/core/apperr"
	"github.com/vietddude/resilience/internal/infra/storage"
)

// ErrorLogRepo keeps the error log in process memory.
type ErrorLogRepo struct {
	mu      sync.RWMutex
	records map[string]*storage.ErrorRecord
}

func NewErrorLogRepo() *ErrorLogRepo {
	return &ErrorLogRepo{records: make(map[string]*storage.ErrorRecord)}
}

func (r *ErrorLogRepo) Save(ctx context.Context, rec *storage.ErrorRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[rec.ID]; ok {
		return nil
	}
	cp := *rec
	cp.Context = rec.Context.Clone()
	r.records[rec.ID] = &cp
	return nil
}

func (r *ErrorLogRepo) Get(ctx context.Context, id string) (*storage.ErrorRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (r *ErrorLogRepo) List(ctx context.Context, f storage.Filter) ([]*storage.ErrorRecord, error) {
	r.mu.RLock()
	var out []*storage.ErrorRecord
	for _, rec := range r.records {
		if f.Matches(rec) {
			cp := *rec
			out = append(out, &cp)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].OccurredAt.After(out[j].OccurredAt)
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *ErrorLogRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, rec := range r.records {
		if rec.OccurredAt.Before(cutoff) {
			delete(r.records, id)
			n++
		}
	}
	return n, nil
}

func (r *ErrorLogRepo) CountByKind(ctx context.Context) (map[apperr.Kind]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[apperr.Kind]int64)
	for _, rec := range r.records {
		out[rec.Kind]++
	}
	return out, nil
}
