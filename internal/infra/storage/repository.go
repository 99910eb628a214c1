package storage

import (
	"context"
	"errors"
	"time"

	"github.com/vietddude/resilience/internal/core/apperr"
)

var (
	// ErrNotFound is returned when an error record doesn't exist
	ErrNotFound = errors.New("error record not found")
)

// ErrorRecord is one reported error as kept in the error log.
type ErrorRecord struct {
	ID         string          `json:"id"`
	Kind       apperr.Kind     `json:"kind"`
	Code       string          `json:"code"`
	Message    string          `json:"message"`
	Severity   apperr.Severity `json:"severity"`
	Retryable  bool            `json:"retryable"`
	Component  string          `json:"component,omitempty"`
	Action     string          `json:"action,omitempty"`
	UserID     string          `json:"userId,omitempty"`
	Context    apperr.Fields   `json:"context,omitempty"`
	OccurredAt time.Time       `json:"occurredAt"`
}

// NewErrorRecord flattens err and the call-site scope into a record.
func NewErrorRecord(err apperr.Error, scope apperr.Scope) *ErrorRecord {
	ctx := err.Context()
	for k, v := range scope.Data {
		if _, ok := ctx[k]; !ok {
			ctx[k] = v
		}
	}
	if cause := err.Unwrap(); cause != nil {
		ctx["cause"] = cause.Error()
	}

	userID := scope.UserID
	if ae, ok := err.(*apperr.AuthError); ok && ae.UserID() != "" {
		userID = ae.UserID()
	}

	return &ErrorRecord{
		ID:         err.ID(),
		Kind:       err.Kind(),
		Code:       err.Code(),
		Message:    err.Message(),
		Severity:   err.Severity(),
		Retryable:  err.Retryable(),
		Component:  scope.Component,
		Action:     scope.Action,
		UserID:     userID,
		Context:    ctx,
		OccurredAt: err.Timestamp(),
	}
}

// Filter narrows List results. Zero values match everything.
type Filter struct {
	Kind        apperr.Kind
	MinSeverity apperr.Severity
	Since       time.Time
	Limit       int
}

// Matches reports whether rec passes the filter, ignoring Limit.
func (f Filter) Matches(rec *ErrorRecord) bool {
	if f.Kind != "" && rec.Kind != f.Kind {
		return false
	}
	if f.MinSeverity != "" && !rec.Severity.AtLeast(f.MinSeverity) {
		return false
	}
	if !f.Since.IsZero() && rec.OccurredAt.Before(f.Since) {
		return false
	}
	return true
}

// Severities expands MinSeverity into the set of matching severities.
func (f Filter) Severities() []apperr.Severity {
	var out []apperr.Severity
	for _, s := range apperr.Severities {
		if f.MinSeverity == "" || s.AtLeast(f.MinSeverity) {
			out = append(out, s)
		}
	}
	return out
}

// ErrorLogRepository persists reported errors
type ErrorLogRepository interface {
	// Save stores a record; saving an existing ID is a no-op
	Save(ctx context.Context, rec *ErrorRecord) error

	// Get retrieves a record by ID
	Get(ctx context.Context, id string) (*ErrorRecord, error)

	// List returns matching records, newest first
	List(ctx context.Context, f Filter) ([]*ErrorRecord, error)

	// DeleteOlderThan removes records that occurred before cutoff
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)

	// CountByKind returns the number of stored records per kind
	CountByKind(ctx context.Context) (map[apperr.Kind]int64, error)
}
