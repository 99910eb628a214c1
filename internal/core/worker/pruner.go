package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/vietddude/resilience/internal/infra/storage"
)

// Pruner deletes error log records past the retention period.
type Pruner struct {
	repo      storage.ErrorLogRepository
	retention time.Duration
	now       func() time.Time
}

// NewPruner creates a new Pruner worker. A zero retention disables pruning.
func NewPruner(repo storage.ErrorLogRepository, retention time.Duration) *Pruner {
	return &Pruner{
		repo:      repo,
		retention: retention,
		now:       time.Now,
	}
}

// Interval is how often Start prunes: a tenth of the retention period,
// clamped to [1m, 1h].
func (p *Pruner) Interval() time.Duration {
	interval := min(p.retention/10, time.Hour)
	return max(interval, time.Minute)
}

// Start runs the pruner loop until ctx is done.
func (p *Pruner) Start(ctx context.Context) {
	if p.retention <= 0 {
		return
	}

	ticker := time.NewTicker(p.Interval())
	defer ticker.Stop()

	p.Prune(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Prune(ctx)
		}
	}
}

// Prune runs a single pass and returns the number of deleted records.
func (p *Pruner) Prune(ctx context.Context) int64 {
	cutoff := p.now().Add(-p.retention)

	n, err := p.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		slog.Error("Failed to prune error log", "cutoff", cutoff, "error", err)
		return 0
	}
	if n > 0 {
		slog.Info("Pruned error log", "deleted", n, "cutoff", cutoff)
	}
	return n
}
