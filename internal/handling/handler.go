// Package handling is the central error dispatcher: every error passes
// through Handle, which records metrics, runs registered handlers and
// reporters, and consults recovery strategies.
package handling

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/vietddude/resilience/internal/core/apperr"
	"github.com/vietddude/resilience/internal/handling/classify"
	"github.com/vietddude/resilience/internal/handling/metrics"
	"github.com/vietddude/resilience/internal/handling/recovery"
	"github.com/vietddude/resilience/internal/handling/report"
)

// ErrorHandler is invoked for errors of a registered kind, or per call via
// Options.CustomHandler. Its outcome does not affect dispatch.
type ErrorHandler func(ctx context.Context, err apperr.Error, scope apperr.Scope)

// Options adjust a single Handle call.
type Options struct {
	CustomHandler ErrorHandler
	SkipReporting bool
	SkipRecovery  bool
}

// Handler dispatches errors. Safe for concurrent use.
type Handler struct {
	log        *slog.Logger
	tracker    *metrics.Tracker
	strategies *recovery.Registry
	classify   func(error) apperr.Error

	mu        sync.RWMutex
	handlers  map[apperr.Kind]ErrorHandler
	reporters []report.Reporter
}

// Option configures a Handler.
type Option func(*Handler)

func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) { h.log = l }
}

// WithTracker replaces the metrics tracker, e.g. to attach a Prometheus
// collector or a shorter rate window.
func WithTracker(t *metrics.Tracker) Option {
	return func(h *Handler) { h.tracker = t }
}

// WithStrategies replaces the default strategy registry.
func WithStrategies(r *recovery.Registry) Option {
	return func(h *Handler) { h.strategies = r }
}

// WithReporters replaces the default console reporter.
func WithReporters(rs ...report.Reporter) Option {
	return func(h *Handler) { h.reporters = append(make([]report.Reporter, 0, len(rs)), rs...) }
}

// WithClassifier replaces the function that turns untyped errors into
// apperr values. The default wraps every untyped error as NETWORK_ERROR;
// classify.Classify maps driver and transport errors onto better-fitting
// kinds. A classifier returning nil falls back to the default.
func WithClassifier(fn func(error) apperr.Error) Option {
	return func(h *Handler) { h.classify = fn }
}

// New creates a Handler with the default strategies and a console reporter.
func New(opts ...Option) *Handler {
	h := &Handler{
		log:      slog.Default(),
		classify: classify.Generic,
		handlers: make(map[apperr.Kind]ErrorHandler),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.tracker == nil {
		h.tracker = metrics.NewTracker()
	}
	if h.strategies == nil {
		h.strategies = recovery.DefaultRegistry(recovery.Defaults{})
	}
	if h.reporters == nil {
		h.reporters = []report.Reporter{report.NewConsoleReporter(report.WithLogger(h.log))}
	}
	return h
}

// Handle runs err through the pipeline and reports whether it was
// recovered. It never panics. A nil err is ignored and not counted in the
// error metrics.
func (h *Handler) Handle(ctx context.Context, err error, scope apperr.Scope, opts Options) bool {
	if err == nil {
		return false
	}
	appErr := h.coerce(err)

	h.tracker.Record(appErr)

	if opts.CustomHandler != nil {
		h.guard("custom handler", appErr, func() { opts.CustomHandler(ctx, appErr, scope) })
	}

	h.mu.RLock()
	kindHandler := h.handlers[appErr.Kind()]
	reporters := append([]report.Reporter(nil), h.reporters...)
	h.mu.RUnlock()

	if kindHandler != nil {
		h.guard("kind handler", appErr, func() { kindHandler(ctx, appErr, scope) })
	}

	if !opts.SkipReporting {
		for _, r := range reporters {
			h.report(ctx, r, appErr, scope)
		}
	}

	if opts.SkipRecovery || !appErr.Retryable() {
		return false
	}
	return h.attemptRecovery(ctx, appErr, scope)
}

// HandleBatch records and reports errs as one batch per reporter. Recovery
// is not attempted.
func (h *Handler) HandleBatch(ctx context.Context, errs []error, scope apperr.Scope) {
	batch := make([]apperr.Error, 0, len(errs))
	for _, err := range errs {
		if err == nil {
			continue
		}
		appErr := h.coerce(err)
		h.tracker.Record(appErr)
		batch = append(batch, appErr)
	}
	if len(batch) == 0 {
		return
	}

	h.mu.RLock()
	reporters := append([]report.Reporter(nil), h.reporters...)
	h.mu.RUnlock()

	for _, r := range reporters {
		name := report.NameOf(r)
		var rErr error
		if panicked := h.guard("reporter "+name, batch[0], func() { rErr = r.ReportBatch(ctx, batch, scope) }); panicked {
			h.countReporterFailure(name)
			continue
		}
		if rErr != nil {
			h.log.Warn("Reporter batch failed", "reporter", name, "size", len(batch), "error", rErr)
			h.countReporterFailure(name)
		}
	}
}

// RegisterErrorHandler sets the handler for kind, replacing any previous one.
func (h *Handler) RegisterErrorHandler(kind apperr.Kind, fn ErrorHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handlers[kind] = fn
}

// RegisterRecoveryStrategy adds or overrides a named strategy.
func (h *Handler) RegisterRecoveryStrategy(name string, s recovery.Strategy) {
	h.strategies.Register(name, s)
}

// RegisterErrorReporter appends a reporter.
func (h *Handler) RegisterErrorReporter(r report.Reporter) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.reporters = append(h.reporters, r)
}

// Strategies exposes the recovery strategy registry.
func (h *Handler) Strategies() *recovery.Registry {
	return h.strategies
}

// Tracker exposes the metrics tracker.
func (h *Handler) Tracker() *metrics.Tracker {
	return h.tracker
}

// ErrorMetrics returns a snapshot of the counters.
func (h *Handler) ErrorMetrics() metrics.ErrorMetrics {
	return h.tracker.Snapshot()
}

// ResetErrorMetrics zeroes the counters.
func (h *Handler) ResetErrorMetrics() {
	h.tracker.Reset()
}

func (h *Handler) coerce(err error) apperr.Error {
	if appErr, ok := apperr.As(err); ok {
		return appErr
	}
	if appErr := h.classify(err); appErr != nil {
		return appErr
	}
	return classify.Generic(err)
}

func (h *Handler) report(ctx context.Context, r report.Reporter, err apperr.Error, scope apperr.Scope) {
	name := report.NameOf(r)
	var rErr error
	if panicked := h.guard("reporter "+name, err, func() { rErr = r.Report(ctx, err, scope) }); panicked {
		h.countReporterFailure(name)
		return
	}
	if rErr != nil {
		h.log.Warn("Reporter failed", "reporter", name, "errorId", err.ID(), "error", rErr)
		h.countReporterFailure(name)
	}
}

func (h *Handler) attemptRecovery(ctx context.Context, err apperr.Error, scope apperr.Scope) bool {
	for _, entry := range h.strategies.Entries() {
		if !h.canRecover(entry, err) {
			continue
		}

		var recovered bool
		panicked := h.guard("strategy "+entry.Name, err, func() {
			recovered = entry.Strategy.Recover(ctx, err, scope)
		})

		result := "failed"
		switch {
		case panicked:
			result = "panic"
		case recovered:
			result = "recovered"
		}
		if c := h.tracker.Collector(); c != nil {
			c.RecoveriesTotal.WithLabelValues(entry.Name, result).Inc()
		}
		h.log.Debug("Recovery attempted", "strategy", entry.Name, "code", err.Code(), "result", result)

		// Only the first matching strategy is consulted.
		return recovered
	}
	return false
}

func (h *Handler) canRecover(entry recovery.Entry, err apperr.Error) bool {
	var ok bool
	h.guard("strategy "+entry.Name, err, func() { ok = entry.Strategy.CanRecover(err) })
	return ok
}

// guard runs fn, converting a panic into a log line. It reports whether fn
// panicked.
func (h *Handler) guard(what string, err apperr.Error, fn func()) (panicked bool) {
	defer func() {
		if r := recover(); r != nil {
			panicked = true
			h.log.Error("Recovered panic in error pipeline",
				"stage", what,
				"errorId", err.ID(),
				"panic", fmt.Sprint(r),
			)
		}
	}()
	fn()
	return false
}

func (h *Handler) countReporterFailure(name string) {
	if c := h.tracker.Collector(); c != nil {
		c.ReporterFailuresTotal.WithLabelValues(name).Inc()
	}
}
