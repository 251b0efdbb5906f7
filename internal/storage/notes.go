package storage

import (
	"context"
	"database/sql"
	"fmt"

	"studykeet/internal/domain"
)

const noteColumns = "id, subject, title, content, color, created_at"

func scanNote(row interface{ Scan(...any) error }) (domain.Note, error) {
	var (
		n       domain.Note
		created int64
	)
	if err := row.Scan(&n.ID, &n.Subject, &n.Title, &n.Content, &n.Color, &created); err != nil {
		return domain.Note{}, err
	}
	n.CreatedAt = fromMillis(created)
	return n, nil
}

// InsertNote creates a new note.
func (db *DB) InsertNote(ctx context.Context, note domain.Note) (domain.Note, error) {
	res, err := db.conn.ExecContext(ctx, `
		INSERT INTO notes (subject, title, content, color, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, note.Subject, note.Title, note.Content, note.Color, toMillis(db.now().UTC()))
	if err != nil {
		return domain.Note{}, fmt.Errorf("failed to insert note: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Note{}, fmt.Errorf("failed to get note insert ID: %w", err)
	}
	return db.GetNote(ctx, id)
}

// GetNote retrieves one note by id.
func (db *DB) GetNote(ctx context.Context, id int64) (domain.Note, error) {
	row := db.conn.QueryRowContext(ctx,
		"SELECT "+noteColumns+" FROM notes WHERE id = ?", id)
	note, err := scanNote(row)
	if err == sql.ErrNoRows {
		return domain.Note{}, fmt.Errorf("note %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return domain.Note{}, fmt.Errorf("failed to get note %d: %w", id, err)
	}
	return note, nil
}

// ListNotes returns all notes, optionally restricted to an exact subject.
func (db *DB) ListNotes(ctx context.Context, subject string) ([]domain.Note, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT `+noteColumns+` FROM notes
		WHERE (? = '' OR subject = ?)
		ORDER BY id ASC
	`, subject, subject)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	defer rows.Close()

	var notes []domain.Note
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan note row: %w", err)
		}
		notes = append(notes, note)
	}
	return notes, rows.Err()
}

// UpdateNote edits a note's fields.
func (db *DB) UpdateNote(ctx context.Context, id int64, subject, title, content, color string) (domain.Note, error) {
	res, err := db.conn.ExecContext(ctx, `
		UPDATE notes SET subject = ?, title = ?, content = ?, color = ?
		WHERE id = ?
	`, subject, title, content, color, id)
	if err != nil {
		return domain.Note{}, fmt.Errorf("failed to update note %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.Note{}, fmt.Errorf("note %d: %w", id, ErrNotFound)
	}
	return db.GetNote(ctx, id)
}

// DeleteNote removes a note.
func (db *DB) DeleteNote(ctx context.Context, id int64) error {
	res, err := db.conn.ExecContext(ctx, "DELETE FROM notes WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete note %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("note %d: %w", id, ErrNotFound)
	}
	return nil
}

// NoteSubjects returns the distinct non-empty note subjects.
func (db *DB) NoteSubjects(ctx context.Context) ([]string, error) {
	return db.distinctSubjects(ctx, "notes")
}
