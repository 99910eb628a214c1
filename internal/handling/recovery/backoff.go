package recovery

import (
	"context"
	"math"
	"time"
)

// Backoff computes exponentially growing, capped delays.
type Backoff struct {
	Initial time.Duration
	Max     time.Duration
}

// NetworkBackoff paces network retries: 1s, 2s, 4s ... capped at 30s.
var NetworkBackoff = Backoff{Initial: time.Second, Max: 30 * time.Second}

// DatabaseBackoff paces database retries: 2s, 4s, 8s, capped at 10s.
var DatabaseBackoff = Backoff{Initial: 2 * time.Second, Max: 10 * time.Second}

// Delay calculates Initial * 2^attempt, capped at Max.
func (b Backoff) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	delay := float64(b.Initial) * math.Pow(2, float64(attempt))
	if b.Max > 0 && delay > float64(b.Max) {
		return b.Max
	}
	return time.Duration(delay)
}

// Sleep waits for d or until ctx is done. It reports whether the full
// delay elapsed.
func Sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
