package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"studykeet/internal/domain"
	"studykeet/internal/leitner"
)

const flashcardColumns = "id, subject, question, answer, color, box, due_at, created_at"

func scanFlashcard(row interface{ Scan(...any) error }) (domain.Flashcard, error) {
	var (
		c       domain.Flashcard
		dueAt   sql.NullInt64
		created int64
	)
	err := row.Scan(&c.ID, &c.Subject, &c.Question, &c.Answer, &c.Color, &c.Box, &dueAt, &created)
	if err != nil {
		return domain.Flashcard{}, err
	}
	c.DueAt = fromNullMillis(dueAt)
	c.CreatedAt = fromMillis(created)
	return c, nil
}

// InsertFlashcard creates a new card. Box and DueAt are forced to the new-card
// state (nest 1, immediately due) regardless of what the input carries.
func (db *DB) InsertFlashcard(ctx context.Context, card domain.Flashcard) (domain.Flashcard, error) {
	res, err := db.conn.ExecContext(ctx, `
		INSERT INTO flashcards (subject, question, answer, color, box, due_at, created_at)
		VALUES (?, ?, ?, ?, 1, NULL, ?)
	`, card.Subject, card.Question, card.Answer, card.Color, toMillis(db.now().UTC()))
	if err != nil {
		return domain.Flashcard{}, fmt.Errorf("failed to insert flashcard: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Flashcard{}, fmt.Errorf("failed to get flashcard insert ID: %w", err)
	}
	return db.GetFlashcard(ctx, id)
}

// GetFlashcard retrieves one card by id.
func (db *DB) GetFlashcard(ctx context.Context, id int64) (domain.Flashcard, error) {
	row := db.conn.QueryRowContext(ctx,
		"SELECT "+flashcardColumns+" FROM flashcards WHERE id = ?", id)
	card, err := scanFlashcard(row)
	if err == sql.ErrNoRows {
		return domain.Flashcard{}, fmt.Errorf("flashcard %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return domain.Flashcard{}, fmt.Errorf("failed to get flashcard %d: %w", id, err)
	}
	return card, nil
}

// ListFlashcards returns all cards, optionally restricted to an exact subject.
func (db *DB) ListFlashcards(ctx context.Context, subject string) ([]domain.Flashcard, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT `+flashcardColumns+` FROM flashcards
		WHERE (? = '' OR subject = ?)
		ORDER BY id ASC
	`, subject, subject)
	if err != nil {
		return nil, fmt.Errorf("failed to list flashcards: %w", err)
	}
	defer rows.Close()
	return collectFlashcards(rows)
}

func collectFlashcards(rows *sql.Rows) ([]domain.Flashcard, error) {
	var cards []domain.Flashcard
	for rows.Next() {
		card, err := scanFlashcard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan flashcard row: %w", err)
		}
		cards = append(cards, card)
	}
	return cards, rows.Err()
}

// UpdateFlashcard edits the content fields of a card. Box and DueAt are
// untouched; only review outcomes move them.
func (db *DB) UpdateFlashcard(ctx context.Context, id int64, subject, question, answer, color string) (domain.Flashcard, error) {
	res, err := db.conn.ExecContext(ctx, `
		UPDATE flashcards SET subject = ?, question = ?, answer = ?, color = ?
		WHERE id = ?
	`, subject, question, answer, color, id)
	if err != nil {
		return domain.Flashcard{}, fmt.Errorf("failed to update flashcard %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.Flashcard{}, fmt.Errorf("flashcard %d: %w", id, ErrNotFound)
	}
	return db.GetFlashcard(ctx, id)
}

// DeleteFlashcard removes a card and, via the foreign key, its review log.
func (db *DB) DeleteFlashcard(ctx context.Context, id int64) error {
	res, err := db.conn.ExecContext(ctx, "DELETE FROM flashcards WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete flashcard %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("flashcard %d: %w", id, ErrNotFound)
	}
	return nil
}

// FlashcardSubjects returns the distinct non-empty subjects in use.
func (db *DB) FlashcardSubjects(ctx context.Context) ([]string, error) {
	return db.distinctSubjects(ctx, "flashcards")
}

func (db *DB) distinctSubjects(ctx context.Context, table string) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT DISTINCT subject FROM "+table+" WHERE subject != '' ORDER BY subject ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to get subjects from %s: %w", table, err)
	}
	defer rows.Close()

	var subjects []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan subject row: %w", err)
		}
		subjects = append(subjects, s)
	}
	return subjects, rows.Err()
}

// dueWhere is the single inclusion rule for due cards; DuePreview counts over
// exactly the same predicate DueFlashcards selects with.
const dueWhere = "(due_at IS NULL OR due_at <= ?) AND (? = '' OR subject = ?)"

// DueFlashcards returns the cards due for review at now, never-reviewed cards
// first, then ascending due time, ties broken by id.
func (db *DB) DueFlashcards(ctx context.Context, subject string, now time.Time) ([]domain.Flashcard, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT `+flashcardColumns+` FROM flashcards
		WHERE `+dueWhere+`
		ORDER BY (due_at IS NULL) DESC, due_at ASC, id ASC
	`, toMillis(now), subject, subject)
	if err != nil {
		return nil, fmt.Errorf("failed to get due flashcards: %w", err)
	}
	defer rows.Close()
	return collectFlashcards(rows)
}

// DuePreview counts the due set for the filter, broken down by current nest.
func (db *DB) DuePreview(ctx context.Context, subject string, now time.Time) (leitner.Preview, error) {
	row := db.conn.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(box = 1), 0),
		       COALESCE(SUM(box = 2), 0),
		       COALESCE(SUM(box = 3), 0),
		       COALESCE(SUM(box = 4), 0)
		FROM flashcards WHERE `+dueWhere,
		toMillis(now), subject, subject)

	var p leitner.Preview
	if err := row.Scan(&p.DueCount, &p.Box1, &p.Box2, &p.Box3, &p.Box4); err != nil {
		return leitner.Preview{}, fmt.Errorf("failed to get due preview: %w", err)
	}
	return p, nil
}

// Stats summarizes the whole collection: cards due now, total cards, and the
// nest distribution over all cards (not just due ones).
type Stats struct {
	DueToday        int         `json:"due_today"`
	Total           int         `json:"total"`
	Remaining       int         `json:"remaining"`
	BoxDistribution map[int]int `json:"box_distribution"`
}

// Stats returns collection-wide counts for the session stats endpoint.
func (db *DB) Stats(ctx context.Context, now time.Time) (Stats, error) {
	row := db.conn.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(due_at IS NULL OR due_at <= ?), 0),
		       COALESCE(SUM(box = 1), 0),
		       COALESCE(SUM(box = 2), 0),
		       COALESCE(SUM(box = 3), 0),
		       COALESCE(SUM(box = 4), 0)
		FROM flashcards
	`, toMillis(now))

	var s Stats
	var b1, b2, b3, b4 int
	if err := row.Scan(&s.Total, &s.DueToday, &b1, &b2, &b3, &b4); err != nil {
		return Stats{}, fmt.Errorf("failed to get stats: %w", err)
	}
	s.Remaining = s.DueToday
	s.BoxDistribution = map[int]int{1: b1, 2: b2, 3: b3, 4: b4}
	return s, nil
}

// RecordOutcome applies the Leitner transition for the outcome and persists
// the new (box, due_at) together with a review_log entry in one transaction.
func (db *DB) RecordOutcome(ctx context.Context, id int64, o leitner.Outcome, now time.Time) (domain.Flashcard, error) {
	card, err := db.GetFlashcard(ctx, id)
	if err != nil {
		return domain.Flashcard{}, err
	}

	updated, err := leitner.Apply(card, o, now)
	if err != nil {
		return domain.Flashcard{}, err
	}
	// Round DueAt to storage precision so the returned card matches a later
	// read of the same row.
	if updated.DueAt != nil {
		due := fromMillis(updated.DueAt.UnixMilli())
		updated.DueAt = &due
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return domain.Flashcard{}, fmt.Errorf("failed to begin review tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		"UPDATE flashcards SET box = ?, due_at = ? WHERE id = ?",
		updated.Box, toNullMillis(updated.DueAt), id,
	); err != nil {
		return domain.Flashcard{}, fmt.Errorf("failed to update flashcard %d state: %w", id, err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO review_log (card_id, reviewed_at, outcome, box) VALUES (?, ?, ?, ?)",
		id, toMillis(now), o.String(), updated.Box,
	); err != nil {
		return domain.Flashcard{}, fmt.Errorf("failed to log review for flashcard %d: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return domain.Flashcard{}, fmt.Errorf("failed to commit review for flashcard %d: %w", id, err)
	}
	return updated, nil
}

// ResetCard puts a card back in nest 1, immediately due. The review log is
// kept; a reset is not a review.
func (db *DB) ResetCard(ctx context.Context, id int64) (domain.Flashcard, error) {
	res, err := db.conn.ExecContext(ctx,
		"UPDATE flashcards SET box = 1, due_at = NULL WHERE id = ?", id)
	if err != nil {
		return domain.Flashcard{}, fmt.Errorf("failed to reset flashcard %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.Flashcard{}, fmt.Errorf("flashcard %d: %w", id, ErrNotFound)
	}
	return db.GetFlashcard(ctx, id)
}

// ReviewHistory returns the recorded outcomes for a card, oldest first.
func (db *DB) ReviewHistory(ctx context.Context, id int64) ([]domain.ReviewRecord, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT card_id, reviewed_at, outcome, box FROM review_log
		WHERE card_id = ? ORDER BY reviewed_at ASC, id ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get review history for %d: %w", id, err)
	}
	defer rows.Close()

	var records []domain.ReviewRecord
	for rows.Next() {
		var (
			r  domain.ReviewRecord
			at int64
		)
		if err := rows.Scan(&r.CardID, &at, &r.Outcome, &r.Box); err != nil {
			return nil, fmt.Errorf("failed to scan review row: %w", err)
		}
		r.ReviewedAt = fromMillis(at)
		records = append(records, r)
	}
	return records, rows.Err()
}
