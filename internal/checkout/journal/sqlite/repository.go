// Package sqlite provides a SQLite-backed implementation of
// journal.Repository.
//
// WAL mode is enabled on Open so readers never block writers: the handler's
// confirm path writes while an operator may be querying attempt history.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mifarmacia/storefront/internal/checkout/journal"

	// Register the pure-Go SQLite driver. modernc.org/sqlite avoids CGO,
	// which keeps Docker builds trivial.
	_ "modernc.org/sqlite"
)

// schema is the DDL executed once on startup. The table is append-only: each
// row is an immutable event in a checkout attempt's lifecycle.
const schema = `
CREATE TABLE IF NOT EXISTS checkout_logs (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,

    -- Identifier of the confirmation attempt. Not UNIQUE: one row per
    -- transition.
    attempt_id      TEXT        NOT NULL,

    -- Cart the attempt was confirming.
    cart_id         TEXT        NOT NULL DEFAULT '',

    -- Lifecycle state at the time this row was written.
    status          TEXT        NOT NULL,

    -- Name of the step that just executed (e.g. "confirm_card").
    step            TEXT        NOT NULL DEFAULT '',

    -- JSON confirmation input. Written once on STARTED, NULL after.
    payload         TEXT,

    -- JSON array of error strings accumulated on failure.
    error_messages  TEXT        NOT NULL DEFAULT '[]',

    -- W3C trace_id / span_id from the active OTel span.
    trace_id        TEXT        NOT NULL DEFAULT '',
    span_id         TEXT        NOT NULL DEFAULT '',

    -- RFC3339 stored as TEXT, the SQLite idiom.
    updated_at      TEXT        NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_checkout_logs_attempt_id ON checkout_logs(attempt_id, updated_at);
CREATE INDEX IF NOT EXISTS idx_checkout_logs_cart_id    ON checkout_logs(cart_id);
CREATE INDEX IF NOT EXISTS idx_checkout_logs_trace_id   ON checkout_logs(trace_id);
`

// Repository is the SQLite implementation of journal.Repository.
type Repository struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
//
//	repo, err := sqlite.Open("./data/checkout.db")
func Open(path string) (*Repository, error) {
	// busy_timeout waits for locks instead of failing immediately; WAL lets
	// readers run alongside the single writer.
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}

	// SQLite performs best with a single writer connection.
	db.SetMaxOpenConns(1)

	if err := applySchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Repository{db: db}, nil
}

// Close releases the database connection. Call it with defer in main().
func (r *Repository) Close() error {
	return r.db.Close()
}

// Save inserts a new log entry. Safe for concurrent use.
func (r *Repository) Save(ctx context.Context, entry *journal.Entry) error {
	const q = `
		INSERT INTO checkout_logs
			(attempt_id, cart_id, status, step, payload, error_messages, trace_id, span_id, updated_at)
		VALUES
			(?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, q,
		entry.AttemptID,
		entry.CartID,
		string(entry.Status),
		entry.Step,
		nullableString(entry.Payload),
		entry.ErrorMessages,
		entry.TraceID,
		entry.SpanID,
		entry.UpdatedAt.UTC().Format("2006-01-02T15:04:05.999999999Z"),
	)
	if err != nil {
		return fmt.Errorf("sqlite: save checkout log for %q: %w", entry.AttemptID, err)
	}
	return nil
}

// GetLatest returns the most recent log entry for an attempt, for a status
// endpoint or a post-mortem query.
func (r *Repository) GetLatest(ctx context.Context, attemptID string) (*journal.Entry, error) {
	const q = `
		SELECT attempt_id, cart_id, status, step, COALESCE(payload,''), error_messages,
		       trace_id, span_id, updated_at
		FROM   checkout_logs
		WHERE  attempt_id = ?
		ORDER  BY updated_at DESC, id DESC
		LIMIT  1`

	row := r.db.QueryRowContext(ctx, q, attemptID)

	var entry journal.Entry
	var updatedAt string
	err := row.Scan(
		&entry.AttemptID,
		&entry.CartID,
		&entry.Status,
		&entry.Step,
		&entry.Payload,
		&entry.ErrorMessages,
		&entry.TraceID,
		&entry.SpanID,
		&updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("sqlite: attempt %q not found", attemptID)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get latest for %q: %w", attemptID, err)
	}

	entry.UpdatedAt, err = parseRFC3339(updatedAt)
	if err != nil {
		return nil, err
	}

	return &entry, nil
}

// applySchema runs the DDL statements once. Idempotent due to IF NOT EXISTS.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("sqlite: apply schema: %w", err)
	}
	return nil
}

// nullableString returns nil for empty strings so SQLite stores NULL instead
// of an empty TEXT on non-STARTED rows.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
