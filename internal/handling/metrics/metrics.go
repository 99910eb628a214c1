package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector exports error handling activity to Prometheus.
type Collector struct {
	// ErrorsTotal tracks handled errors per kind, code and severity
	ErrorsTotal *prometheus.CounterVec

	// RecoveriesTotal tracks recovery attempts per strategy and outcome
	RecoveriesTotal *prometheus.CounterVec

	// ReporterFailuresTotal tracks reporters that returned an error or panicked
	ReporterFailuresTotal *prometheus.CounterVec

	// RetryAttemptsTotal tracks operation attempts made by the retry wrapper
	RetryAttemptsTotal *prometheus.CounterVec

	// ErrorRate tracks errors per minute over the sliding window
	ErrorRate prometheus.Gauge
}

// NewCollector registers the error handling collectors with reg.
// A nil reg yields unregistered collectors, which is what tests want.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		ErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "resilience_errors_total",
				Help: "Total number of errors passed to the handler",
			},
			[]string{"kind", "code", "severity"},
		),
		RecoveriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "resilience_recoveries_total",
				Help: "Total number of recovery strategy invocations",
			},
			[]string{"strategy", "result"},
		),
		ReporterFailuresTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "resilience_reporter_failures_total",
				Help: "Total number of failed reporter invocations",
			},
			[]string{"reporter"},
		),
		RetryAttemptsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "resilience_retry_attempts_total",
				Help: "Total number of operation attempts made by the retry wrapper",
			},
			[]string{"component", "outcome"},
		),
		ErrorRate: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "resilience_error_rate_per_minute",
				Help: "Errors per minute over the sliding window",
			},
		),
	}
}
