// Package sqlite provides a SQLite-backed submissionlog.Repository.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jcmexdev/braider-storefront/internal/submission/submissionlog"

	// pure-Go driver, registers as "sqlite"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS submission_logs (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    order_id    TEXT NOT NULL,
    status      TEXT NOT NULL,
    bundle      TEXT NOT NULL DEFAULT '',
    error       TEXT NOT NULL DEFAULT '',
    trace_id    TEXT NOT NULL DEFAULT '',
    span_id     TEXT NOT NULL DEFAULT '',
    recorded_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_submission_logs_order_id ON submission_logs(order_id, recorded_at);
CREATE INDEX IF NOT EXISTS idx_submission_logs_status ON submission_logs(status);
`

type Repository struct {
	db *sql.DB
}

var (
	_ submissionlog.Repository = (*Repository)(nil)
	_ submissionlog.Reader     = (*Repository)(nil)
)

// Open opens (or creates) the database at path in WAL mode and applies the schema.
func Open(path string) (*Repository, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}
	// one writer; background deliveries queue on the busy timeout
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: apply schema: %w", err)
	}
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

// Save inserts a new row. Safe for concurrent use.
func (r *Repository) Save(ctx context.Context, entry *submissionlog.Entry) error {
	const q = `
		INSERT INTO submission_logs
			(order_id, status, bundle, error, trace_id, span_id, recorded_at)
		VALUES
			(?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, q,
		entry.OrderID,
		string(entry.Status),
		entry.Bundle,
		entry.Error,
		entry.TraceID,
		entry.SpanID,
		entry.RecordedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("sqlite: save submission log for %q: %w", entry.OrderID, err)
	}
	return nil
}

// Latest returns the row written last for orderID. Rows are append-only,
// so insertion order is delivery order.
func (r *Repository) Latest(ctx context.Context, orderID string) (*submissionlog.Entry, error) {
	const q = `
		SELECT order_id, status, bundle, error, trace_id, span_id, recorded_at
		FROM   submission_logs
		WHERE  order_id = ?
		ORDER  BY id DESC
		LIMIT  1`

	var (
		entry      submissionlog.Entry
		recordedAt string
	)
	err := r.db.QueryRowContext(ctx, q, orderID).Scan(
		&entry.OrderID,
		&entry.Status,
		&entry.Bundle,
		&entry.Error,
		&entry.TraceID,
		&entry.SpanID,
		&recordedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, submissionlog.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: latest for %q: %w", orderID, err)
	}

	entry.RecordedAt, err = parseTimestamp(recordedAt)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// CountByStatus reports how many rows carry each status; used by the health endpoint.
func (r *Repository) CountByStatus(ctx context.Context) (map[submissionlog.Status]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM submission_logs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: count by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[submissionlog.Status]int)
	for rows.Next() {
		var (
			status submissionlog.Status
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("sqlite: scan count: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}
