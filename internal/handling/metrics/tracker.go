// Package metrics keeps the process-wide error counters and mirrors them to
// Prometheus.
package metrics

import (
	"sync"
	"time"

	"github.com/vietddude/resilience/internal/core/apperr"
)

// DefaultWindow is the span ErrorRate is computed over.
const DefaultWindow = 5 * time.Minute

// ErrorMetrics is a point-in-time copy of the tracker state.
type ErrorMetrics struct {
	ErrorCount       int64                     `json:"errorCount"`
	ErrorRate        float64                   `json:"errorRate"` // per minute over Window
	ErrorsByType     map[apperr.Kind]int64     `json:"errorsByType"`
	ErrorsBySeverity map[apperr.Severity]int64 `json:"errorsBySeverity"`
	LastError        apperr.Error              `json:"lastError,omitempty"`
	LastErrorTime    time.Time                 `json:"lastErrorTime"`
	Window           time.Duration             `json:"window"`
	CriticalInWindow int                       `json:"criticalInWindow"`
}

// Tracker aggregates handled errors. Safe for concurrent use.
type Tracker struct {
	window    time.Duration
	now       func() time.Time
	collector *Collector

	mu         sync.Mutex
	count      int64
	byKind     map[apperr.Kind]int64
	bySeverity map[apperr.Severity]int64
	recent     []time.Time
	critical   []time.Time
	last       apperr.Error
	lastAt     time.Time
}

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithWindow sets the sliding window used for ErrorRate.
func WithWindow(d time.Duration) TrackerOption {
	return func(t *Tracker) {
		if d > 0 {
			t.window = d
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) TrackerOption {
	return func(t *Tracker) { t.now = now }
}

// WithCollector mirrors every update to Prometheus.
func WithCollector(c *Collector) TrackerOption {
	return func(t *Tracker) { t.collector = c }
}

// NewTracker creates a zeroed tracker.
func NewTracker(opts ...TrackerOption) *Tracker {
	t := &Tracker{
		window: DefaultWindow,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.zero()
	return t
}

// Collector returns the attached Prometheus collector, if any.
func (t *Tracker) Collector() *Collector {
	return t.collector
}

func (t *Tracker) zero() {
	t.count = 0
	t.byKind = make(map[apperr.Kind]int64)
	t.bySeverity = make(map[apperr.Severity]int64, len(apperr.Severities))
	for _, s := range apperr.Severities {
		t.bySeverity[s] = 0
	}
	t.recent = nil
	t.critical = nil
	t.last = nil
	t.lastAt = time.Time{}
}

// Record counts one handled error.
func (t *Tracker) Record(err apperr.Error) {
	t.mu.Lock()
	now := t.now()
	t.count++
	t.byKind[err.Kind()]++
	t.bySeverity[err.Severity()]++
	t.recent = append(t.recent, now)
	if err.Severity() == apperr.SeverityCritical {
		t.critical = append(t.critical, now)
	}
	t.last = err
	t.lastAt = now
	t.prune(now)
	rate := t.rate()
	t.mu.Unlock()

	if t.collector != nil {
		t.collector.ErrorsTotal.WithLabelValues(
			string(err.Kind()), err.Code(), string(err.Severity()),
		).Inc()
		t.collector.ErrorRate.Set(rate)
	}
}

// Snapshot returns a copy of the current counters.
func (t *Tracker) Snapshot() ErrorMetrics {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.prune(t.now())

	m := ErrorMetrics{
		ErrorCount:       t.count,
		ErrorRate:        t.rate(),
		ErrorsByType:     make(map[apperr.Kind]int64, len(t.byKind)),
		ErrorsBySeverity: make(map[apperr.Severity]int64, len(t.bySeverity)),
		LastError:        t.last,
		LastErrorTime:    t.lastAt,
		Window:           t.window,
		CriticalInWindow: len(t.critical),
	}
	for k, v := range t.byKind {
		m.ErrorsByType[k] = v
	}
	for k, v := range t.bySeverity {
		m.ErrorsBySeverity[k] = v
	}
	return m
}

// Reset returns the tracker to its zero state.
func (t *Tracker) Reset() {
	t.mu.Lock()
	t.zero()
	t.mu.Unlock()

	if t.collector != nil {
		t.collector.ErrorRate.Set(0)
	}
}

// prune drops timestamps older than the window. Caller holds mu.
func (t *Tracker) prune(now time.Time) {
	cutoff := now.Add(-t.window)
	t.recent = dropBefore(t.recent, cutoff)
	t.critical = dropBefore(t.critical, cutoff)
}

// rate is errors per minute across the window. Caller holds mu.
func (t *Tracker) rate() float64 {
	return float64(len(t.recent)) / t.window.Minutes()
}

func dropBefore(ts []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(ts) && ts[i].Before(cutoff) {
		i++
	}
	if i == 0 {
		return ts
	}
	return append(ts[:0], ts[i:]...)
}
