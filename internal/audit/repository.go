package audit

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Outcome values stored in directive_log.outcome.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// timeFormat is fixed width so created_at sorts lexically.
const timeFormat = "2006-01-02T15:04:05.000000Z"

// List page sizes.
const (
	defaultLimit = 50
	maxLimit     = 200
)

// Entry is one executed directive.
type Entry struct {
	ID           string    `json:"id"`
	MessageID    string    `json:"message_id,omitempty"`
	Namespace    string    `json:"namespace"`
	Name         string    `json:"name"`
	EndpointID   string    `json:"endpoint_id,omitempty"`
	Outcome      string    `json:"outcome"`
	ErrorType    string    `json:"error_type,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	DurationMS   int64     `json:"duration_ms"`
	CreatedAt    time.Time `json:"created_at"`
}

// Filter selects entries. Zero fields match everything.
type Filter struct {
	Namespace  string
	Name       string
	EndpointID string
	Outcome    string
	Limit      int // default 50, max 200
	Offset     int
}

// ListResult is one page of entries, newest first.
type ListResult struct {
	Entries []Entry `json:"entries"`
	Total   int     `json:"total"`
	Limit   int     `json:"limit"`
	Offset  int     `json:"offset"`
}

// Repository stores the directive audit trail.
type Repository interface {
	Create(ctx context.Context, e *Entry) error
	List(ctx context.Context, f Filter) (*ListResult, error)
	Prune(ctx context.Context, before time.Time) (int64, error)
}

// SQLiteRepository implements Repository on the directive_log table.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a repository on db. The directive_log
// migration must already be applied.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Create inserts e, filling ID and CreatedAt when empty.
func (r *SQLiteRepository) Create(ctx context.Context, e *Entry) error {
	if e.Namespace == "" || e.Name == "" {
		return ErrInvalidEntry
	}
	if e.Outcome != OutcomeSuccess && e.Outcome != OutcomeError {
		return fmt.Errorf("%w: outcome %q", ErrInvalidEntry, e.Outcome)
	}
	if e.ID == "" {
		e.ID = "dir-" + uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO directive_log
		 (id, message_id, namespace, name, endpoint_id, outcome, error_type, error_message, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.MessageID, e.Namespace, e.Name, e.EndpointID,
		e.Outcome, e.ErrorType, e.ErrorMessage, e.DurationMS,
		e.CreatedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("inserting directive log: %w", err)
	}
	return nil
}

// List returns entries matching f, newest first.
func (r *SQLiteRepository) List(ctx context.Context, f Filter) (*ListResult, error) {
	if f.Limit <= 0 {
		f.Limit = defaultLimit
	}
	if f.Limit > maxLimit {
		f.Limit = maxLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	var conds []string
	var args []any
	for _, c := range []struct{ col, val string }{
		{"namespace", f.Namespace},
		{"name", f.Name},
		{"endpoint_id", f.EndpointID},
		{"outcome", f.Outcome},
	} {
		if c.val != "" {
			conds = append(conds, c.col+" = ?")
			args = append(args, c.val)
		}
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	//nolint:gosec // WHERE holds fixed column names and ? placeholders only
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM directive_log"+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting directive log: %w", err)
	}

	//nolint:gosec // WHERE holds fixed column names and ? placeholders only
	query := `SELECT id, message_id, namespace, name, endpoint_id, outcome, error_type, error_message, duration_ms, created_at
		FROM directive_log` + where + ` ORDER BY created_at DESC, id LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, query, append(args, f.Limit, f.Offset)...)
	if err != nil {
		return nil, fmt.Errorf("querying directive log: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		var created string
		if err := rows.Scan(&e.ID, &e.MessageID, &e.Namespace, &e.Name, &e.EndpointID,
			&e.Outcome, &e.ErrorType, &e.ErrorMessage, &e.DurationMS, &created); err != nil {
			return nil, fmt.Errorf("scanning directive log: %w", err)
		}
		if e.CreatedAt, err = time.Parse(timeFormat, created); err != nil {
			return nil, fmt.Errorf("parsing directive log timestamp %q: %w", created, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating directive log: %w", err)
	}

	return &ListResult{Entries: entries, Total: total, Limit: f.Limit, Offset: f.Offset}, nil
}

// Prune deletes entries created before the cutoff and returns how many
// were removed.
func (r *SQLiteRepository) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM directive_log WHERE created_at < ?",
		before.UTC().Format(timeFormat),
	)
	if err != nil {
		return 0, fmt.Errorf("pruning directive log: %w", err)
	}
	return res.RowsAffected()
}
