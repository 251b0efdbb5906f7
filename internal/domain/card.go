package domain

import "time"

// Flashcard is a single question-answer card with its Leitner scheduling state.
//
// Box is the current Leitner nest (1-4). DueAt is the next scheduled review;
// nil means the card has never been reviewed and is immediately due.
type Flashcard struct {
	ID        int64      `json:"id"`
	Subject   string     `json:"subject"`
	Question  string     `json:"question"`
	Answer    string     `json:"answer"`
	Color     string     `json:"color"`
	Box       int        `json:"box"`
	DueAt     *time.Time `json:"due_at"`
	CreatedAt time.Time  `json:"created_at"`
}

// Due reports whether the card is a candidate for review at the given time.
func (c Flashcard) Due(now time.Time) bool {
	return c.DueAt == nil || !c.DueAt.After(now)
}

// ReviewRecord is one review event for a card: the outcome the user chose and
// the box the card landed in as a result.
type ReviewRecord struct {
	CardID     int64     `json:"card_id"`
	ReviewedAt time.Time `json:"reviewed_at"`
	Outcome    string    `json:"outcome"`
	Box        int       `json:"box"`
}
