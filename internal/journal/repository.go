package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nerrad567/gray-logic-diagnostics/internal/diagnostics"
	"github.com/nerrad567/gray-logic-diagnostics/internal/resource"
)

// Status is the lifecycle of a journal entry.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Page size bounds for List.
const (
	defaultLimit = 50
	maxLimit     = 200
)

// Entry is one journaled diagnostic request.
type Entry struct {
	ID          string                   `json:"id"`
	Command     string                   `json:"command"`
	ResourceID  string                   `json:"resource_id,omitempty"`
	URI         string                   `json:"uri"`
	Path        diagnostics.Path         `json:"path"`
	Status      Status                   `json:"status"`
	State       diagnostics.State        `json:"state"`
	Code        string                   `json:"code,omitempty"`
	Error       string                   `json:"error,omitempty"`
	Response    *resource.Representation `json:"response,omitempty"`
	IssuedAt    time.Time                `json:"issued_at"`
	CompletedAt *time.Time               `json:"completed_at,omitempty"`
	DurationMS  *int64                   `json:"duration_ms,omitempty"`
}

// Filter controls which entries List returns.
type Filter struct {
	Command string // optional: reboot, factoryreset
	Status  Status // optional: pending, completed, failed
	URI     string // optional: exact resource URI
	Limit   int    // default 50, max 200
	Offset  int    // pagination offset
}

// ListResult is one page of entries.
type ListResult struct {
	Entries []Entry `json:"entries"`
	Total   int     `json:"total"`
	Limit   int     `json:"limit"`
	Offset  int     `json:"offset"`
}

// Repository defines journal storage operations.
type Repository interface {
	Record(ctx context.Context, info diagnostics.RequestInfo) error
	Complete(ctx context.Context, res diagnostics.Result) error
	Get(ctx context.Context, id string) (*Entry, error)
	List(ctx context.Context, filter Filter) (*ListResult, error)
}

// SQLiteRepository stores the journal in the diagnostic_requests table.
type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

var _ Repository = (*SQLiteRepository)(nil)

// NewSQLiteRepository creates a journal over db.
// The diagnostic_requests migration must already be applied.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db, now: time.Now}
}

// Record inserts a pending entry for a newly issued request.
func (r *SQLiteRepository) Record(ctx context.Context, info diagnostics.RequestInfo) error {
	issuedAt := info.IssuedAt
	if issuedAt.IsZero() {
		issuedAt = r.now()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO diagnostic_requests (id, command, resource_id, uri, path, status, state, issued_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		info.ID, info.Command, nullableString(info.ResourceID), info.URI,
		string(info.Path), string(StatusPending), string(info.State),
		formatTime(issuedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting journal entry %s: %w", info.ID, err)
	}
	return nil
}

// Complete records the terminal outcome of a pending entry.
// An entry that was never recorded is inserted in its final form.
func (r *SQLiteRepository) Complete(ctx context.Context, res diagnostics.Result) error {
	status := StatusCompleted
	var errText *string
	if res.Err != nil {
		status = StatusFailed
		s := res.Err.Error()
		errText = &s
	}

	var response *string
	if len(res.Representation.Attributes) > 0 || len(res.Representation.Children) > 0 || res.Representation.URI != "" {
		b, err := json.Marshal(res.Representation)
		if err != nil {
			return fmt.Errorf("marshalling journal response: %w", err)
		}
		s := string(b)
		response = &s
	}

	completedAt := formatTime(r.now())
	durationMS := res.Duration.Milliseconds()

	result, err := r.db.ExecContext(ctx,
		`UPDATE diagnostic_requests
		 SET status = ?, state = ?, code = ?, error = ?, response = ?, completed_at = ?, duration_ms = ?
		 WHERE id = ? AND status = ?`,
		string(status), string(res.State), res.Code.String(), errText, response,
		completedAt, durationMS,
		res.ID, string(StatusPending),
	)
	if err != nil {
		return fmt.Errorf("updating journal entry %s: %w", res.ID, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking journal update: %w", err)
	}
	if n == 1 {
		return nil
	}

	// Either already completed or never recorded.
	var existing string
	err = r.db.QueryRowContext(ctx, "SELECT status FROM diagnostic_requests WHERE id = ?", res.ID).Scan(&existing)
	switch {
	case err == nil:
		return fmt.Errorf("%w: %s is %s", ErrAlreadyCompleted, res.ID, existing)
	case !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("looking up journal entry %s: %w", res.ID, err)
	}

	issuedAt := res.IssuedAt
	if issuedAt.IsZero() {
		issuedAt = r.now()
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO diagnostic_requests
		 (id, command, resource_id, uri, path, status, state, code, error, response, issued_at, completed_at, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.ID, res.Command, nullableString(res.ResourceID), res.URI,
		string(res.Path), string(status), string(res.State), res.Code.String(), errText, response,
		formatTime(issuedAt), completedAt, durationMS,
	)
	if err != nil {
		return fmt.Errorf("inserting completed journal entry %s: %w", res.ID, err)
	}
	return nil
}

// Get returns the entry with the given id, or ErrNotFound.
func (r *SQLiteRepository) Get(ctx context.Context, id string) (*Entry, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+entryColumns+" FROM diagnostic_requests WHERE id = ?", id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// List returns entries matching the filter, most recent first.
func (r *SQLiteRepository) List(ctx context.Context, filter Filter) (*ListResult, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultLimit
	}
	if filter.Limit > maxLimit {
		filter.Limit = maxLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	var conditions []string
	var args []any

	if filter.Command != "" {
		conditions = append(conditions, "command = ?")
		args = append(args, filter.Command)
	}
	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.URI != "" {
		conditions = append(conditions, "uri = ?")
		args = append(args, filter.URI)
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := "SELECT COUNT(*) FROM diagnostic_requests " + where //nolint:gosec // WHERE built from parameterised conditions
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting journal entries: %w", err)
	}

	query := fmt.Sprintf( //nolint:gosec // WHERE built from parameterised conditions
		"SELECT %s FROM diagnostic_requests %s ORDER BY issued_at DESC, id LIMIT ? OFFSET ?",
		entryColumns, where,
	)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying journal entries: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating journal entries: %w", err)
	}

	return &ListResult{
		Entries: entries,
		Total:   total,
		Limit:   filter.Limit,
		Offset:  filter.Offset,
	}, nil
}

const entryColumns = "id, command, resource_id, uri, path, status, state, code, error, response, issued_at, completed_at, duration_ms"

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (*Entry, error) {
	var e Entry
	var path, status, state, issuedAt string
	var resourceID, code, errText, response, completedAt sql.NullString
	var durationMS sql.NullInt64

	if err := s.Scan(&e.ID, &e.Command, &resourceID, &e.URI, &path, &status, &state,
		&code, &errText, &response, &issuedAt, &completedAt, &durationMS); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning journal entry: %w", err)
	}

	e.ResourceID = resourceID.String
	e.Path = diagnostics.Path(path)
	e.Status = Status(status)
	e.State = diagnostics.State(state)
	e.Code = code.String
	e.Error = errText.String

	if response.Valid && response.String != "" {
		var rep resource.Representation
		if json.Unmarshal([]byte(response.String), &rep) == nil {
			e.Response = &rep
		}
	}

	t, err := parseTime(issuedAt)
	if err != nil {
		return nil, err
	}
	e.IssuedAt = t

	if completedAt.Valid {
		t, err := parseTime(completedAt.String)
		if err != nil {
			return nil, err
		}
		e.CompletedAt = &t
	}
	if durationMS.Valid {
		d := durationMS.Int64
		e.DurationMS = &d
	}

	return &e, nil
}

// nullableString returns nil for empty strings so nullable TEXT columns stay NULL.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// Timestamps keep millisecond precision so issued_at orders requests made
// within the same second.
const timeLayout = "2006-01-02T15:04:05.000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing journal timestamp %q: %w", s, err)
	}
	return t, nil
}
