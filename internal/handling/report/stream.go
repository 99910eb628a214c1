package report

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/vietddude/resilience/internal/core/apperr"
)

// StreamAppender appends one entry to an append-only stream.
type StreamAppender interface {
	Append(ctx context.Context, values map[string]any) (string, error)
}

// StreamReporter publishes errors to a Redis stream for other consumers.
type StreamReporter struct {
	stream StreamAppender
}

func NewStreamReporter(stream StreamAppender) *StreamReporter {
	return &StreamReporter{stream: stream}
}

func (r *StreamReporter) Name() string { return "stream" }

func (r *StreamReporter) Report(ctx context.Context, err apperr.Error, scope apperr.Scope) error {
	payload, mErr := json.Marshal(NewEnvelope(err, scope).Details)
	if mErr != nil {
		return fmt.Errorf("failed to marshal stream entry: %w", mErr)
	}

	_, aErr := r.stream.Append(ctx, map[string]any{
		"id":        err.ID(),
		"kind":      string(err.Kind()),
		"code":      err.Code(),
		"severity":  string(err.Severity()),
		"component": scope.Component,
		"payload":   string(payload),
	})
	return aErr
}

func (r *StreamReporter) ReportBatch(ctx context.Context, errs []apperr.Error, scope apperr.Scope) error {
	return reportEach(ctx, r, errs, scope)
}
