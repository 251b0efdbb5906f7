package leitner

import (
	"testing"
	"time"

	"studykeet/internal/domain"
)

func tp(t time.Time) *time.Time { return &t }

func TestSelectDueInclusion(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cards := []domain.Flashcard{
		{ID: 1, Box: 1, DueAt: tp(now.Add(-time.Second))}, // just overdue
		{ID: 2, Box: 2, DueAt: tp(now.Add(time.Second))},  // not yet due
		{ID: 3, Box: 3, DueAt: nil},                       // never reviewed
		{ID: 4, Box: 4, DueAt: tp(now)},                   // due exactly now
	}

	due := SelectDue(cards, "", now)
	ids := make([]int64, len(due))
	for i, c := range due {
		ids[i] = c.ID
	}
	// nil DueAt sorts first, then ascending DueAt.
	want := []int64{3, 1, 4}
	if len(ids) != len(want) {
		t.Fatalf("SelectDue returned ids %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("SelectDue returned ids %v, want %v", ids, want)
		}
	}
}

func TestSelectDueSubjectFilter(t *testing.T) {
	now := time.Now()
	cards := []domain.Flashcard{
		{ID: 1, Subject: "Chemistry", Box: 1},
		{ID: 2, Subject: "Biology", Box: 1},
		{ID: 3, Subject: "Chemistry", Box: 2},
	}

	due := SelectDue(cards, "Chemistry", now)
	if len(due) != 2 {
		t.Fatalf("SelectDue with filter returned %d cards, want 2", len(due))
	}
	for _, c := range due {
		if c.Subject != "Chemistry" {
			t.Errorf("filtered selection included subject %q", c.Subject)
		}
	}

	if got := SelectDue(cards, "History", now); len(got) != 0 {
		t.Errorf("SelectDue with unmatched filter returned %d cards, want 0", len(got))
	}
}

func TestSelectDueTieBreakByID(t *testing.T) {
	now := time.Now()
	at := now.Add(-time.Hour)
	cards := []domain.Flashcard{
		{ID: 9, Box: 1, DueAt: tp(at)},
		{ID: 2, Box: 1, DueAt: tp(at)},
		{ID: 5, Box: 1, DueAt: tp(at)},
	}

	due := SelectDue(cards, "", now)
	if due[0].ID != 2 || due[1].ID != 5 || due[2].ID != 9 {
		t.Errorf("tie break by id: got %d,%d,%d", due[0].ID, due[1].ID, due[2].ID)
	}
}

func TestSelectDueDeterministic(t *testing.T) {
	now := time.Now()
	cards := []domain.Flashcard{
		{ID: 3, Box: 1, DueAt: tp(now.Add(-2 * time.Hour))},
		{ID: 1, Box: 2, DueAt: nil},
		{ID: 2, Box: 3, DueAt: tp(now.Add(-time.Hour))},
	}

	first := SelectDue(cards, "", now)
	second := SelectDue(cards, "", now)
	if len(first) != len(second) {
		t.Fatalf("repeated selection disagrees on length: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Errorf("repeated selection disagrees at %d: %d vs %d", i, first[i].ID, second[i].ID)
		}
	}
	// The input order must survive selection.
	if cards[0].ID != 3 || cards[1].ID != 1 || cards[2].ID != 2 {
		t.Error("SelectDue reordered its input")
	}
}

func TestSelectPreviewMatchesSelection(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cards := []domain.Flashcard{
		{ID: 1, Subject: "Math", Box: 1, DueAt: nil},
		{ID: 2, Subject: "Math", Box: 2, DueAt: tp(now.Add(-time.Minute))},
		{ID: 3, Subject: "Math", Box: 2, DueAt: tp(now.Add(time.Minute))},
		{ID: 4, Subject: "Art", Box: 4, DueAt: tp(now.Add(-time.Minute))},
	}

	for _, subject := range []string{"", "Math", "Art", "History"} {
		p := SelectPreview(cards, subject, now)
		if got := len(SelectDue(cards, subject, now)); p.DueCount != got {
			t.Errorf("subject %q: preview DueCount = %d, selection = %d", subject, p.DueCount, got)
		}
	}

	p := SelectPreview(cards, "Math", now)
	if p.Box1 != 1 || p.Box2 != 1 || p.Box3 != 0 || p.Box4 != 0 {
		t.Errorf("Math preview boxes = %+v", p)
	}
}

func TestSelectDueEmpty(t *testing.T) {
	if got := SelectDue(nil, "", time.Now()); len(got) != 0 {
		t.Errorf("SelectDue(nil) = %v, want empty", got)
	}
	if p := SelectPreview(nil, "", time.Now()); p.DueCount != 0 {
		t.Errorf("SelectPreview(nil).DueCount = %d, want 0", p.DueCount)
	}
}
