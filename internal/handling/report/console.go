package report

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vietddude/resilience/internal/core/apperr"
)

// ConsoleReporter logs every error and raises a notification for those at
// or above the configured severity.
type ConsoleReporter struct {
	log         *slog.Logger
	sink        NotificationSink
	minSeverity apperr.Severity
}

// ConsoleOption configures a ConsoleReporter.
type ConsoleOption func(*ConsoleReporter)

// WithLogger replaces the default logger.
func WithLogger(l *slog.Logger) ConsoleOption {
	return func(r *ConsoleReporter) { r.log = l }
}

// WithNotificationSink attaches the toast collaborator.
func WithNotificationSink(s NotificationSink) ConsoleOption {
	return func(r *ConsoleReporter) { r.sink = s }
}

// WithMinSeverity sets the lowest severity that produces a notification.
func WithMinSeverity(s apperr.Severity) ConsoleOption {
	return func(r *ConsoleReporter) { r.minSeverity = s }
}

func NewConsoleReporter(opts ...ConsoleOption) *ConsoleReporter {
	r := &ConsoleReporter{
		log:         slog.Default(),
		minSeverity: apperr.SeverityMedium,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *ConsoleReporter) Name() string { return "console" }

func (r *ConsoleReporter) Report(ctx context.Context, err apperr.Error, scope apperr.Scope) error {
	level := slog.LevelWarn
	if err.Severity().AtLeast(apperr.SeverityHigh) {
		level = slog.LevelError
	}
	r.log.Log(ctx, level, "Error handled",
		"id", err.ID(),
		"kind", err.Kind(),
		"code", err.Code(),
		"severity", err.Severity(),
		"retryable", err.Retryable(),
		"component", scope.Component,
		"action", scope.Action,
		"error", err.Error(),
	)

	if r.sink == nil || !err.Severity().AtLeast(r.minSeverity) {
		return nil
	}

	n := Notification{
		Title:    NotificationTitle(err.Kind()),
		Message:  UserMessage(err),
		Duration: NotificationDuration(err.Severity()),
		Severity: err.Severity(),
	}
	if nErr := r.sink.Notify(ctx, n); nErr != nil {
		return fmt.Errorf("failed to notify: %w", nErr)
	}
	return nil
}

func (r *ConsoleReporter) ReportBatch(ctx context.Context, errs []apperr.Error, scope apperr.Scope) error {
	return reportEach(ctx, r, errs, scope)
}

// LogSink is a NotificationSink that writes toasts to the log. It stands
// in for a UI when the engine runs as a service.
type LogSink struct {
	Logger *slog.Logger
}

func (s LogSink) Notify(ctx context.Context, n Notification) error {
	l := s.Logger
	if l == nil {
		l = slog.Default()
	}
	l.InfoContext(ctx, "Notification",
		"title", n.Title,
		"message", n.Message,
		"duration", n.Duration,
		"severity", n.Severity,
	)
	return nil
}
