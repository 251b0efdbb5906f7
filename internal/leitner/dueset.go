package leitner

import (
	"sort"
	"time"

	"studykeet/internal/domain"
)

// Preview summarizes the due set for a subject filter without selecting it:
// how many cards are due in total and per current nest.
type Preview struct {
	DueCount int `json:"due_count"`
	Box1     int `json:"box_1"`
	Box2     int `json:"box_2"`
	Box3     int `json:"box_3"`
	Box4     int `json:"box_4"`
}

func included(c domain.Flashcard, subject string, now time.Time) bool {
	if subject != "" && c.Subject != subject {
		return false
	}
	return c.Due(now)
}

// SelectDue returns the cards due for review at now, optionally restricted to
// an exact subject match (empty subject means all). Ordering is deterministic:
// never-reviewed cards (nil DueAt) first, then ascending DueAt, ties broken by
// ascending ID. The result is a fresh slice; the input is not reordered.
func SelectDue(cards []domain.Flashcard, subject string, now time.Time) []domain.Flashcard {
	var due []domain.Flashcard
	for _, c := range cards {
		if included(c, subject, now) {
			due = append(due, c)
		}
	}

	sort.SliceStable(due, func(i, j int) bool {
		a, b := due[i], due[j]
		switch {
		case a.DueAt == nil && b.DueAt != nil:
			return true
		case a.DueAt != nil && b.DueAt == nil:
			return false
		case a.DueAt != nil && b.DueAt != nil && !a.DueAt.Equal(*b.DueAt):
			return a.DueAt.Before(*b.DueAt)
		default:
			return a.ID < b.ID
		}
	})
	return due
}

// SelectPreview counts the due set for the given filter, broken down by each
// card's current nest. It applies exactly the inclusion rule of SelectDue, so
// DueCount always equals len(SelectDue(cards, subject, now)).
func SelectPreview(cards []domain.Flashcard, subject string, now time.Time) Preview {
	var p Preview
	for _, c := range cards {
		if !included(c, subject, now) {
			continue
		}
		p.DueCount++
		switch c.Box {
		case 1:
			p.Box1++
		case 2:
			p.Box2++
		case 3:
			p.Box3++
		case 4:
			p.Box4++
		}
	}
	return p
}
