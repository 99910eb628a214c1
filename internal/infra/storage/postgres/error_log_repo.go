package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/vietddude/resilience/internal/core/apperr"
	"github.com/vietddude/resilience/internal/infra/storage"
)

// ErrorLogRepo implements storage.ErrorLogRepository using PostgreSQL.
type ErrorLogRepo struct {
	db *DB
}

// NewErrorLogRepo creates a new PostgreSQL error log repository.
func NewErrorLogRepo(db *DB) *ErrorLogRepo {
	return &ErrorLogRepo{db: db}
}

type errorRow struct {
	ID         string    `db:"id"`
	Kind       string    `db:"kind"`
	Code       string    `db:"code"`
	Message    string    `db:"message"`
	Severity   string    `db:"severity"`
	Retryable  bool      `db:"retryable"`
	Component  string    `db:"component"`
	Action     string    `db:"action"`
	UserID     string    `db:"user_id"`
	Context    []byte    `db:"context"`
	OccurredAt time.Time `db:"occurred_at"`
}

const errorColumns = `id, kind, code, message, severity, retryable, component, action, user_id, context, occurred_at`

func (row errorRow) toRecord() (*storage.ErrorRecord, error) {
	var fields apperr.Fields
	if len(row.Context) > 0 {
		if err := json.Unmarshal(row.Context, &fields); err != nil {
			return nil, fmt.Errorf("failed to decode context of %s: %w", row.ID, err)
		}
	}
	return &storage.ErrorRecord{
		ID:         row.ID,
		Kind:       apperr.Kind(row.Kind),
		Code:       row.Code,
		Message:    row.Message,
		Severity:   apperr.Severity(row.Severity),
		Retryable:  row.Retryable,
		Component:  row.Component,
		Action:     row.Action,
		UserID:     row.UserID,
		Context:    fields,
		OccurredAt: row.OccurredAt,
	}, nil
}

// Save inserts a record, ignoring duplicates.
func (r *ErrorLogRepo) Save(ctx context.Context, rec *storage.ErrorRecord) error {
	payload, err := json.Marshal(rec.Context)
	if err != nil {
		return fmt.Errorf("failed to encode context: %w", err)
	}

	query := `
		INSERT INTO error_log (` + errorColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO NOTHING
	`
	_, err = r.db.ExecContext(
		ctx,
		query,
		rec.ID,
		string(rec.Kind),
		rec.Code,
		rec.Message,
		string(rec.Severity),
		rec.Retryable,
		rec.Component,
		rec.Action,
		rec.UserID,
		payload,
		rec.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save error record: %w", err)
	}
	return nil
}

// Get retrieves a record by ID.
func (r *ErrorLogRepo) Get(ctx context.Context, id string) (*storage.ErrorRecord, error) {
	query := `SELECT ` + errorColumns + ` FROM error_log WHERE id = $1`

	var row errorRow
	err := r.db.GetContext(ctx, &row, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get error record: %w", err)
	}
	return row.toRecord()
}

// List returns matching records, newest first.
func (r *ErrorLogRepo) List(ctx context.Context, f storage.Filter) ([]*storage.ErrorRecord, error) {
	var (
		where []string
		args  []any
	)
	if f.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, string(f.Kind))
	}
	if f.MinSeverity != "" {
		sevs := make([]string, 0, 4)
		for _, s := range f.Severities() {
			sevs = append(sevs, string(s))
		}
		where = append(where, "severity IN (?)")
		args = append(args, sevs)
	}
	if !f.Since.IsZero() {
		where = append(where, "occurred_at >= ?")
		args = append(args, f.Since)
	}

	query := `SELECT ` + errorColumns + ` FROM error_log`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY occurred_at DESC"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", f.Limit)
	}

	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to build error log query: %w", err)
	}
	query = r.db.Rebind(query)

	var rows []errorRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list error records: %w", err)
	}

	out := make([]*storage.ErrorRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := row.toRecord()
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// DeleteOlderThan removes records that occurred before cutoff.
func (r *ErrorLogRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM error_log WHERE occurred_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune error log: %w", err)
	}
	return res.RowsAffected()
}

// CountByKind returns the number of stored records per kind.
func (r *ErrorLogRepo) CountByKind(ctx context.Context) (map[apperr.Kind]int64, error) {
	query := `
		SELECT kind, COUNT(*) AS total
		FROM error_log
		GROUP BY kind
	`
	var rows []struct {
		Kind  string `db:"kind"`
		Total int64  `db:"total"`
	}
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to count error records: %w", err)
	}

	out := make(map[apperr.Kind]int64, len(rows))
	for _, row := range rows {
		out[apperr.Kind(row.Kind)] = row.Total
	}
	return out, nil
}
