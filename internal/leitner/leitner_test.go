package leitner

import (
	"errors"
	"testing"
	"time"

	"studykeet/internal/domain"
)

func TestNextBox(t *testing.T) {
	cases := []struct {
		outcome Outcome
		box     int
	}{
		{Again, 1},
		{Hard, 2},
		{Good, 3},
		{Easy, 4},
	}
	for _, tc := range cases {
		t.Run(tc.outcome.String(), func(t *testing.T) {
			box, err := NextBox(tc.outcome)
			if err != nil {
				t.Fatalf("NextBox(%v) failed: %v", tc.outcome, err)
			}
			if box != tc.box {
				t.Errorf("NextBox(%v) = %d, want %d", tc.outcome, box, tc.box)
			}
		})
	}
}

func TestNextBoxInvalid(t *testing.T) {
	for _, o := range []Outcome{0, 5, -1} {
		if _, err := NextBox(o); !errors.Is(err, ErrInvalidOutcome) {
			t.Errorf("NextBox(%d) error = %v, want ErrInvalidOutcome", int(o), err)
		}
	}
}

func TestInterval(t *testing.T) {
	cases := []struct {
		outcome Outcome
		delay   time.Duration
	}{
		{Again, 15 * time.Minute},
		{Hard, 24 * time.Hour},
		{Good, 48 * time.Hour},
		{Easy, 7 * 24 * time.Hour},
	}
	for _, tc := range cases {
		t.Run(tc.outcome.String(), func(t *testing.T) {
			d, err := Interval(tc.outcome)
			if err != nil {
				t.Fatalf("Interval(%v) failed: %v", tc.outcome, err)
			}
			if d != tc.delay {
				t.Errorf("Interval(%v) = %v, want %v", tc.outcome, d, tc.delay)
			}
		})
	}
}

func TestNextDueAt(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	due, err := NextDueAt(now, Easy)
	if err != nil {
		t.Fatalf("NextDueAt failed: %v", err)
	}
	want := now.Add(7 * 24 * time.Hour)
	if !due.Equal(want) {
		t.Errorf("NextDueAt(now, Easy) = %v, want %v", due, want)
	}

	if _, err := NextDueAt(now, Outcome(9)); !errors.Is(err, ErrInvalidOutcome) {
		t.Errorf("NextDueAt with invalid outcome: error = %v, want ErrInvalidOutcome", err)
	}
}

func TestApplyMemoryless(t *testing.T) {
	// The destination nest depends only on the outcome, never on the nest the
	// card was in before the review.
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for _, o := range Outcomes() {
		for prior := MinBox; prior <= MaxBox; prior++ {
			card := domain.Flashcard{ID: 7, Box: prior}
			updated, err := Apply(card, o, now)
			if err != nil {
				t.Fatalf("Apply(box=%d, %v) failed: %v", prior, o, err)
			}
			if updated.Box != int(o) {
				t.Errorf("Apply(box=%d, %v).Box = %d, want %d", prior, o, updated.Box, int(o))
			}
			wantDue := now.Add(intervals[o])
			if updated.DueAt == nil || !updated.DueAt.Equal(wantDue) {
				t.Errorf("Apply(box=%d, %v).DueAt = %v, want %v", prior, o, updated.DueAt, wantDue)
			}
		}
	}
}

func TestApplyPreservesContent(t *testing.T) {
	now := time.Now()
	old := now.Add(-time.Hour)
	card := domain.Flashcard{
		ID:       42,
		Subject:  "Biology",
		Question: "What is an egg tooth?",
		Answer:   "A temporary projection a chick uses to break the shell.",
		Color:    "yellow.300",
		Box:      2,
		DueAt:    &old,
	}

	updated, err := Apply(card, Good, now)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	if updated.ID != card.ID || updated.Subject != card.Subject ||
		updated.Question != card.Question || updated.Answer != card.Answer ||
		updated.Color != card.Color {
		t.Errorf("Apply changed content fields: %+v", updated)
	}

	// Input must not be mutated; the caller owns persistence.
	if card.Box != 2 || card.DueAt == nil || !card.DueAt.Equal(old) {
		t.Errorf("Apply mutated its input: %+v", card)
	}
}

func TestApplyScenarioNewCardEasy(t *testing.T) {
	// A never-reviewed card (box 1, nil DueAt) answered easy lands in nest 4,
	// due a week out.
	now := time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)
	card := domain.Flashcard{ID: 1, Box: 1}

	updated, err := Apply(card, Easy, now)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if updated.Box != 4 {
		t.Errorf("Box = %d, want 4", updated.Box)
	}
	if want := now.Add(7 * 24 * time.Hour); updated.DueAt == nil || !updated.DueAt.Equal(want) {
		t.Errorf("DueAt = %v, want %v", updated.DueAt, want)
	}
}

func TestApplyInvalid(t *testing.T) {
	if _, err := Apply(domain.Flashcard{ID: 1}, Outcome(0), time.Now()); !errors.Is(err, ErrInvalidOutcome) {
		t.Errorf("Apply with invalid outcome: error = %v, want ErrInvalidOutcome", err)
	}
}
