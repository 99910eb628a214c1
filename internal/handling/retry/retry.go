// Package retry wraps operations in a bounded retry loop driven by the
// error dispatcher.
package retry

import (
	"context"
	"time"

	"github.com/vietddude/resilience/internal/core/apperr"
	"github.com/vietddude/resilience/internal/handling"
	"github.com/vietddude/resilience/internal/handling/metrics"
	"github.com/vietddude/resilience/internal/handling/recovery"
)

const (
	DefaultMaxRetries = 3
	DefaultRetryDelay = time.Second
)

// Dispatcher is the part of handling.Handler the retry loop needs.
type Dispatcher interface {
	Handle(ctx context.Context, err error, scope apperr.Scope, opts handling.Options) bool
}

type options struct {
	maxRetries int
	retryDelay time.Duration
	suppress   bool
	collector  *metrics.Collector
}

// Option configures Do.
type Option func(*options)

// WithMaxRetries sets how many retries follow the first attempt.
func WithMaxRetries(n int) Option {
	return func(o *options) { o.maxRetries = max(n, 0) }
}

// WithRetryDelay sets the base delay; attempt n waits delay*2^n.
func WithRetryDelay(d time.Duration) Option {
	return func(o *options) { o.retryDelay = max(d, 0) }
}

// SuppressUntilLastAttempt skips reporters for all but the final attempt.
func SuppressUntilLastAttempt() Option {
	return func(o *options) { o.suppress = true }
}

// WithCollector counts attempts in Prometheus.
func WithCollector(c *metrics.Collector) Option {
	return func(o *options) { o.collector = c }
}

// Delay returns the pause after a failed attempt.
func Delay(base time.Duration, attempt int) time.Duration {
	return recovery.Backoff{Initial: base}.Delay(attempt)
}

// Do runs op until it succeeds, the error is terminal, or retries run out.
// Every failure passes through d. The last error is always returned.
func Do[T any](ctx context.Context, d Dispatcher, op func(ctx context.Context) (T, error), scope apperr.Scope, opts ...Option) (T, error) {
	o := options{
		maxRetries: DefaultMaxRetries,
		retryDelay: DefaultRetryDelay,
	}
	for _, opt := range opts {
		opt(&o)
	}

	var zero T
	for attempt := 0; ; attempt++ {
		val, err := op(ctx)
		if err == nil {
			o.count(scope, "success")
			return val, nil
		}
		o.count(scope, "failure")

		last := attempt == o.maxRetries
		shouldRetry := !last && apperr.IsRetryable(err)

		attemptScope := scope
		attemptScope.Data = scope.Data.Merge(apperr.Fields{
			"attempt":    attempt,
			"maxRetries": o.maxRetries,
			"retryCount": attempt,
		})

		recovered := d.Handle(ctx, err, attemptScope, handling.Options{
			SkipRecovery:  !shouldRetry,
			SkipReporting: o.suppress && !last,
		})
		if !shouldRetry || !recovered {
			return zero, err
		}

		if !recovery.Sleep(ctx, Delay(o.retryDelay, attempt)) {
			return zero, err
		}
	}
}

func (o *options) count(scope apperr.Scope, outcome string) {
	if o.collector == nil {
		return
	}
	o.collector.RetryAttemptsTotal.WithLabelValues(scope.Component, outcome).Inc()
}
