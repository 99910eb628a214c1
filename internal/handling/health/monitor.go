package health

import (
	"context"
	"sort"
	"sync"

	"github.com/vietddude/resilience/internal/handling/metrics"
)

// DefaultDegradedRate is the errors-per-minute level above which the
// service reports degraded.
const DefaultDegradedRate = 5.0

// MetricsSource provides error metric snapshots.
type MetricsSource interface {
	ErrorMetrics() metrics.ErrorMetrics
}

// Checker probes a backing dependency such as postgres or redis.
type Checker interface {
	Health(ctx context.Context) error
}

// Monitor evaluates service health from the error metrics and dependency
// checks.
type Monitor struct {
	source       MetricsSource
	degradedRate float64

	mu       sync.RWMutex
	checkers map[string]Checker
}

// NewMonitor creates a new health monitor. A non-positive degradedRate
// uses DefaultDegradedRate.
func NewMonitor(source MetricsSource, degradedRate float64) *Monitor {
	if degradedRate <= 0 {
		degradedRate = DefaultDegradedRate
	}
	return &Monitor{
		source:       source,
		degradedRate: degradedRate,
		checkers:     make(map[string]Checker),
	}
}

// AddCheck registers a dependency probe under name.
func (m *Monitor) AddCheck(name string, c Checker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkers[name] = c
}

// CheckHealth evaluates the current status.
//
// Critical: a CRITICAL error inside the rate window.
// Degraded: error rate above the threshold, or a failing dependency.
func (m *Monitor) CheckHealth(ctx context.Context) Report {
	snap := m.source.ErrorMetrics()

	report := Report{
		Status:           StatusHealthy,
		ErrorCount:       snap.ErrorCount,
		ErrorRate:        snap.ErrorRate,
		CriticalInWindow: snap.CriticalInWindow,
	}
	if snap.LastError != nil {
		report.LastErrorCode = snap.LastError.Code()
		at := snap.LastErrorTime
		report.LastErrorTime = &at
	}

	depFailed := false
	for _, name := range m.checkNames() {
		m.mu.RLock()
		c := m.checkers[name]
		m.mu.RUnlock()

		if report.Dependencies == nil {
			report.Dependencies = make(map[string]string)
		}
		if err := c.Health(ctx); err != nil {
			report.Dependencies[name] = err.Error()
			depFailed = true
			continue
		}
		report.Dependencies[name] = "ok"
	}

	switch {
	case snap.CriticalInWindow > 0:
		report.Status = StatusCritical
	case snap.ErrorRate > m.degradedRate || depFailed:
		report.Status = StatusDegraded
	}
	return report
}

func (m *Monitor) checkNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.checkers))
	for name := range m.checkers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
