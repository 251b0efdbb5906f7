package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"studykeet/internal/domain"
)

// Source is a registered deck origin, either a local directory or a git URL.
type Source struct {
	ID          int64      `json:"id"`
	Path        string     `json:"path"`
	Type        string     `json:"type"` // "local" or "git"
	LastScanned *time.Time `json:"last_scanned"`
}

// InsertSource registers a new deck source and returns it.
func (db *DB) InsertSource(ctx context.Context, path, typ string) (Source, error) {
	res, err := db.conn.ExecContext(ctx,
		"INSERT INTO sources (path, type) VALUES (?, ?)", path, typ)
	if err != nil {
		return Source{}, fmt.Errorf("failed to insert source %s: %w", path, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Source{}, fmt.Errorf("failed to get source insert ID: %w", err)
	}
	return Source{ID: id, Path: path, Type: typ}, nil
}

// FindSourceByPath retrieves a source by its path; nil if not registered.
func (db *DB) FindSourceByPath(ctx context.Context, path string) (*Source, error) {
	row := db.conn.QueryRowContext(ctx,
		"SELECT id, path, type, last_scanned FROM sources WHERE path = ?", path)
	s, err := scanSource(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find source by path %s: %w", path, err)
	}
	return &s, nil
}

func scanSource(row interface{ Scan(...any) error }) (Source, error) {
	var (
		s       Source
		scanned sql.NullInt64
	)
	if err := row.Scan(&s.ID, &s.Path, &s.Type, &scanned); err != nil {
		return Source{}, err
	}
	s.LastScanned = fromNullMillis(scanned)
	return s, nil
}

// GetAllSources retrieves every registered source.
func (db *DB) GetAllSources(ctx context.Context) ([]Source, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT id, path, type, last_scanned FROM sources ORDER BY id ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to get sources: %w", err)
	}
	defer rows.Close()

	var sources []Source
	for rows.Next() {
		s, err := scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan source row: %w", err)
		}
		sources = append(sources, s)
	}
	return sources, rows.Err()
}

// DeleteSource removes a source together with the cards imported from it.
func (db *DB) DeleteSource(ctx context.Context, id int64) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin source delete tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM flashcards WHERE source_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete cards of source %d: %w", id, err)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM sources WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete source %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("source %d: %w", id, ErrNotFound)
	}
	return tx.Commit()
}

// UpdateSourceLastScanned stamps a completed reconciliation pass.
func (db *DB) UpdateSourceLastScanned(ctx context.Context, id int64, at time.Time) error {
	_, err := db.conn.ExecContext(ctx,
		"UPDATE sources SET last_scanned = ? WHERE id = ?", toMillis(at), id)
	if err != nil {
		return fmt.Errorf("failed to update last scanned for source %d: %w", id, err)
	}
	return nil
}

// InsertImportedFlashcard creates a card that came from a deck source. New
// imports start in nest 1, immediately due, like any other new card.
func (db *DB) InsertImportedFlashcard(ctx context.Context, card domain.Flashcard, fingerprint string, sourceID int64) (domain.Flashcard, error) {
	res, err := db.conn.ExecContext(ctx, `
		INSERT INTO flashcards (subject, question, answer, color, box, due_at, fingerprint, source_id, created_at)
		VALUES (?, ?, ?, ?, 1, NULL, ?, ?, ?)
	`, card.Subject, card.Question, card.Answer, card.Color, fingerprint, sourceID, toMillis(db.now().UTC()))
	if err != nil {
		return domain.Flashcard{}, fmt.Errorf("failed to insert imported flashcard %s: %w", fingerprint, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Flashcard{}, fmt.Errorf("failed to get imported flashcard insert ID: %w", err)
	}
	return db.GetFlashcard(ctx, id)
}

// FindFingerprint reports whether a source already holds a card with the given
// fingerprint.
func (db *DB) FindFingerprint(ctx context.Context, sourceID int64, fingerprint string) (bool, error) {
	row := db.conn.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM flashcards WHERE source_id = ? AND fingerprint = ?",
		sourceID, fingerprint)
	var n int
	if err := row.Scan(&n); err != nil {
		return false, fmt.Errorf("failed to check fingerprint %s: %w", fingerprint, err)
	}
	return n > 0, nil
}

// SourceFingerprints returns fingerprint -> card id for every card imported
// from the source.
func (db *DB) SourceFingerprints(ctx context.Context, sourceID int64) (map[string]int64, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT id, fingerprint FROM flashcards WHERE source_id = ? AND fingerprint IS NOT NULL",
		sourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get fingerprints for source %d: %w", sourceID, err)
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var (
			id int64
			fp string
		)
		if err := rows.Scan(&id, &fp); err != nil {
			return nil, fmt.Errorf("failed to scan fingerprint row: %w", err)
		}
		out[fp] = id
	}
	return out, rows.Err()
}
