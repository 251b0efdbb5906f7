// Package leitner implements the four-nest Leitner scheduling used for
// flashcard review.
//
// Unlike a classical Leitner ladder, the transition is absolute: the outcome
// alone picks the destination nest and review delay, regardless of the card's
// prior nest. The mapping is:
//
//	again -> nest 1, due in 15 minutes
//	hard  -> nest 2, due in 1 day
//	good  -> nest 3, due in 2 days
//	easy  -> nest 4, due in 7 days
package leitner

import (
	"fmt"
	"time"

	"studykeet/internal/domain"
)

// Nest bounds for flashcard boxes.
const (
	MinBox = 1
	MaxBox = 4
)

var intervals = [...]time.Duration{
	Again: 15 * time.Minute,
	Hard:  24 * time.Hour,
	Good:  48 * time.Hour,
	Easy:  7 * 24 * time.Hour,
}

// NextBox returns the nest a card moves to for the given outcome. The prior
// nest does not participate: again->1, hard->2, good->3, easy->4.
func NextBox(o Outcome) (int, error) {
	if !o.IsValid() {
		return 0, fmt.Errorf("%w: %d", ErrInvalidOutcome, int(o))
	}
	return int(o), nil
}

// Interval returns the delay until a card reviewed with the given outcome is
// due again.
func Interval(o Outcome) (time.Duration, error) {
	if !o.IsValid() {
		return 0, fmt.Errorf("%w: %d", ErrInvalidOutcome, int(o))
	}
	return intervals[o], nil
}

// NextDueAt returns the next review timestamp for a card reviewed at now with
// the given outcome.
func NextDueAt(now time.Time, o Outcome) (time.Time, error) {
	d, err := Interval(o)
	if err != nil {
		return time.Time{}, err
	}
	return now.Add(d), nil
}

// Apply returns a copy of card with Box and DueAt updated for the given
// outcome. All other fields are untouched and the input is never mutated; the
// caller owns persistence of the returned value.
func Apply(card domain.Flashcard, o Outcome, now time.Time) (domain.Flashcard, error) {
	box, err := NextBox(o)
	if err != nil {
		return domain.Flashcard{}, err
	}
	due := now.Add(intervals[o])

	card.Box = box
	card.DueAt = &due
	return card, nil
}
