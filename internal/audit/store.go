package audit

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/videomind/internal/db"
)

// timestampLayout sorts lexicographically and keeps sub-second order.
const timestampLayout = "2006-01-02 15:04:05.000"

// Store persists lifecycle history.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Log inserts a new entry. Empty ID and zero timestamp are filled in.
func (s *Store) Log(ctx context.Context, entry Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	if entry.Outcome == "" {
		entry.Outcome = OutcomeCommitted
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO lifecycle_events (
			id, timestamp, action, outcome, state, tier, version,
			root_topic, node_count, media, error_kind, detail
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.Timestamp.UTC().Format(timestampLayout),
		string(entry.Action),
		string(entry.Outcome),
		entry.State,
		entry.Tier,
		int64(entry.Version),
		entry.RootTopic,
		entry.NodeCount,
		entry.Media,
		entry.ErrorKind,
		entry.Detail,
	)
	if err != nil {
		return fmt.Errorf("inserting lifecycle event: %w", err)
	}
	return nil
}

// GetByID retrieves a single entry.
func (s *Store) GetByID(ctx context.Context, id string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" WHERE id = ?", id)
	return scanInto(row)
}

// QueryFilter controls which entries Query returns.
type QueryFilter struct {
	Action  Action
	Outcome Outcome
	Since   *time.Time
	Limit   int
	Offset  int
}

const selectColumns = `SELECT id, timestamp, action, outcome, state, tier, version,
	root_topic, node_count, media, error_kind, detail FROM lifecycle_events`

// Query returns entries matching the filter, newest first.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]Entry, error) {
	var (
		clauses []string
		args    []any
	)

	if filter.Action != "" {
		clauses = append(clauses, "action = ?")
		args = append(args, string(filter.Action))
	}
	if filter.Outcome != "" {
		clauses = append(clauses, "outcome = ?")
		args = append(args, string(filter.Outcome))
	}
	if filter.Since != nil {
		clauses = append(clauses, "timestamp >= ?")
		args = append(args, filter.Since.UTC().Format(timestampLayout))
	}

	query := selectColumns
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY timestamp DESC, rowid DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
		if filter.Offset > 0 {
			query += fmt.Sprintf(" OFFSET %d", filter.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying lifecycle events: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		e, err := scanInto(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// DeleteBefore removes entries older than the given time and returns how
// many were removed.
func (s *Store) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM lifecycle_events WHERE timestamp < ?",
		before.UTC().Format(timestampLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("deleting old lifecycle events: %w", err)
	}
	return res.RowsAffected()
}

// scanner is implemented by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanInto(sc scanner) (*Entry, error) {
	var (
		e               Entry
		ts              string
		action, outcome string
		version         int64
	)
	err := sc.Scan(&e.ID, &ts, &action, &outcome, &e.State, &e.Tier, &version,
		&e.RootTopic, &e.NodeCount, &e.Media, &e.ErrorKind, &e.Detail)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("lifecycle event not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("scanning lifecycle event: %w", err)
	}

	e.Action = Action(action)
	e.Outcome = Outcome(outcome)
	e.Version = uint64(version)
	if t, parseErr := time.Parse(timestampLayout, ts); parseErr == nil {
		e.Timestamp = t
	} else if t, parseErr := time.Parse(time.DateTime, ts); parseErr == nil {
		e.Timestamp = t
	}
	return &e, nil
}
