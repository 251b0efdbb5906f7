// Package storage persists flashcards, notes, review history and deck sources
// in SQLite. It is the single scheduling authority on the write path: outcome
// recording applies the leitner mapping itself, so no caller can persist a
// (box, due_at) pair that diverges from it.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // registers the sqlite driver
)

// ErrNotFound is returned when a row does not exist. Check with errors.Is.
var ErrNotFound = errors.New("storage: not found")

// DB wraps the SQL database connection.
type DB struct {
	conn *sql.DB
	now  func() time.Time
}

// Option tweaks store construction.
type Option func(*DB)

// WithClock replaces the wall clock used for created timestamps, for tests.
func WithClock(now func() time.Time) Option {
	return func(db *DB) { db.now = now }
}

// Open creates a new database connection, applies pragmas and ensures the
// schema is up to date, migrating legacy column names if present.
func Open(dsn string, opts ...Option) (*DB, error) {
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// foreign_keys and busy_timeout are per-connection settings; a single
	// pooled connection keeps the pragmas in force for every query.
	conn.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := conn.Exec(pragma); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("failed to apply %s: %w", pragma, err)
		}
	}

	db := &DB{conn: conn, now: time.Now}
	for _, opt := range opts {
		opt(db)
	}
	if err := db.migrateLegacy(context.Background()); err != nil {
		_ = conn.Close()
		return nil, err
	}
	if _, err := conn.Exec(schema); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	if err := db.backfillLegacy(context.Background()); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrateLegacy reshapes tables written by earlier revisions of the schema:
// leitner_box/next_review are renamed to box/due_at, missing columns are
// added, and timestamp columns declared DATETIME (text values) are rebuilt as
// epoch-millisecond integers. Runs before the schema so CREATE TABLE IF NOT
// EXISTS sees the migrated table.
func (db *DB) migrateLegacy(ctx context.Context) error {
	cols, err := db.columnTypes(ctx, "flashcards")
	if err != nil {
		return err
	}
	if len(cols) == 0 {
		return nil // fresh database
	}

	renames := []struct{ from, to string }{
		{"leitner_box", "box"},
		{"next_review", "due_at"},
	}
	for _, r := range renames {
		_, hasFrom := cols[r.from]
		_, hasTo := cols[r.to]
		if hasFrom && !hasTo {
			stmt := fmt.Sprintf("ALTER TABLE flashcards RENAME COLUMN %s TO %s", r.from, r.to)
			if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("failed to rename column %s: %w", r.from, err)
			}
		}
	}

	adds := []struct{ name, ddl string }{
		{"box", "ALTER TABLE flashcards ADD COLUMN box INTEGER NOT NULL DEFAULT 1"},
		{"due_at", "ALTER TABLE flashcards ADD COLUMN due_at INTEGER"},
		{"fingerprint", "ALTER TABLE flashcards ADD COLUMN fingerprint TEXT"},
		{"source_id", "ALTER TABLE flashcards ADD COLUMN source_id INTEGER"},
		{"created_at", "ALTER TABLE flashcards ADD COLUMN created_at INTEGER NOT NULL DEFAULT 0"},
	}
	cols, err = db.columnTypes(ctx, "flashcards")
	if err != nil {
		return err
	}
	for _, a := range adds {
		if _, ok := cols[a.name]; ok {
			continue
		}
		if _, err := db.conn.ExecContext(ctx, a.ddl); err != nil {
			return fmt.Errorf("failed to add column %s: %w", a.name, err)
		}
	}

	// The original app's ORM declared its timestamps DATETIME and stored text
	// like "2024-01-01 10:00:00.000000". The driver keys its scan conversion
	// on the declared type, so converting the values in place is not enough;
	// the column itself has to become INTEGER.
	cols, err = db.columnTypes(ctx, "flashcards")
	if err != nil {
		return err
	}
	for _, name := range []string{"due_at", "created_at"} {
		typ, ok := cols[name]
		if !ok || strings.Contains(typ, "INT") {
			continue
		}
		if err := db.rebuildTimestampColumn(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

// rebuildTimestampColumn replaces a DATETIME-declared flashcards column with
// an INTEGER one holding epoch milliseconds. Text values are parsed as UTC
// datetimes; numeric values are assumed to be epoch millis already.
func (db *DB) rebuildTimestampColumn(ctx context.Context, name string) error {
	old := name + "_legacy"
	stmts := []string{
		fmt.Sprintf("ALTER TABLE flashcards RENAME COLUMN %s TO %s", name, old),
		fmt.Sprintf("ALTER TABLE flashcards ADD COLUMN %s INTEGER", name),
		fmt.Sprintf(`UPDATE flashcards SET %[1]s = CASE
			WHEN %[2]s IS NULL THEN NULL
			WHEN typeof(%[2]s) = 'text' THEN CAST(strftime('%%s', %[2]s) AS INTEGER) * 1000
			ELSE CAST(%[2]s AS INTEGER)
		END`, name, old),
		fmt.Sprintf("ALTER TABLE flashcards DROP COLUMN %s", old),
	}
	for _, stmt := range stmts {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to rebuild column %s: %w", name, err)
		}
	}
	return nil
}

// backfillLegacy repairs rows written before the current invariants were
// enforced.
func (db *DB) backfillLegacy(ctx context.Context) error {
	if _, err := db.conn.ExecContext(ctx,
		"UPDATE flashcards SET box = 1 WHERE box IS NULL OR box < 1 OR box > 4",
	); err != nil {
		return fmt.Errorf("failed to backfill boxes: %w", err)
	}
	if _, err := db.conn.ExecContext(ctx,
		"UPDATE flashcards SET created_at = 0 WHERE created_at IS NULL",
	); err != nil {
		return fmt.Errorf("failed to backfill created_at: %w", err)
	}
	return nil
}

func (db *DB) columnTypes(ctx context.Context, table string) (map[string]string, error) {
	rows, err := db.conn.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, fmt.Errorf("failed to inspect table %s: %w", table, err)
	}
	defer rows.Close()

	cols := make(map[string]string)
	for rows.Next() {
		var (
			cid     int
			name    string
			typ     string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("failed to scan column info for %s: %w", table, err)
		}
		cols[strings.ToLower(name)] = strings.ToUpper(typ)
	}
	return cols, rows.Err()
}

// Timestamps are stored as UTC epoch milliseconds so SQL comparisons and
// ordering agree with Go's.

func toMillis(t time.Time) int64 { return t.UnixMilli() }

func toNullMillis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}

func fromMillis(ms int64) time.Time { return time.UnixMilli(ms).UTC() }

func fromNullMillis(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := fromMillis(v.Int64)
	return &t
}
