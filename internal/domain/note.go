package domain

import "time"

// Note is a stored study-material item. Notes share the subject namespace with
// flashcards but play no part in scheduling.
type Note struct {
	ID        int64     `json:"id"`
	Subject   string    `json:"subject"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"created_at"`
}
