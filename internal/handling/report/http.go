package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vietddude/resilience/internal/core/apperr"
)

// Envelope is the error body accepted by the remote log sink.
type Envelope struct {
	Status  string  `json:"status"`
	Message string  `json:"message"`
	Code    string  `json:"code,omitempty"`
	Details Details `json:"details"`
}

// Details is the wire record plus the call-site scope.
type Details struct {
	apperr.Record
	Scope apperr.Fields `json:"scope,omitempty"`
}

// NewEnvelope wraps err for the remote sink.
func NewEnvelope(err apperr.Error, scope apperr.Scope) Envelope {
	return Envelope{
		Status:  "error",
		Message: err.Message(),
		Code:    err.Code(),
		Details: Details{Record: err.Record(), Scope: scope.Fields()},
	}
}

// HTTPReporter posts error envelopes to a remote endpoint.
type HTTPReporter struct {
	url    string
	client *http.Client
}

func NewHTTPReporter(url string, timeout time.Duration) *HTTPReporter {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPReporter{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

func (r *HTTPReporter) Name() string { return "http" }

func (r *HTTPReporter) Report(ctx context.Context, err apperr.Error, scope apperr.Scope) error {
	return r.post(ctx, NewEnvelope(err, scope))
}

// ReportBatch posts all envelopes in a single JSON array.
func (r *HTTPReporter) ReportBatch(ctx context.Context, errs []apperr.Error, scope apperr.Scope) error {
	if len(errs) == 0 {
		return nil
	}
	batch := make([]Envelope, len(errs))
	for i, e := range errs {
		batch[i] = NewEnvelope(e, scope)
	}
	return r.post(ctx, batch)
}

func (r *HTTPReporter) post(ctx context.Context, body any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send report: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("remote sink returned status %d", resp.StatusCode)
	}
	return nil
}
