package web_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"studykeet/internal/domain"
	"studykeet/internal/leitner"
	"studykeet/internal/storage"
	"studykeet/internal/web"
)

type testAPI struct {
	t      *testing.T
	server *httptest.Server
	now    time.Time
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "web.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(web.NewServer(db, t.TempDir(), web.WithClock(func() time.Time { return now })))
	t.Cleanup(srv.Close)
	return &testAPI{t: t, server: srv, now: now}
}

func (a *testAPI) do(method, path string, body any, out any) int {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			a.t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, a.server.URL+path, &buf)
	if err != nil {
		a.t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		a.t.Fatalf("%s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			a.t.Fatalf("decode %s %s response: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func (a *testAPI) createCard(subject, question string) domain.Flashcard {
	a.t.Helper()
	var card domain.Flashcard
	status := a.do("POST", "/api/flashcards", map[string]string{
		"subject":  subject,
		"question": question,
		"answer":   "an answer",
		"color":    "yellow.300",
	}, &card)
	if status != http.StatusCreated {
		a.t.Fatalf("create card: status %d", status)
	}
	return card
}

func TestCreateFlashcardValidation(t *testing.T) {
	api := newTestAPI(t)
	status := api.do("POST", "/api/flashcards", map[string]string{"subject": "Math"}, nil)
	if status != http.StatusBadRequest {
		t.Errorf("missing question/answer: status %d, want 400", status)
	}
}

func TestFlashcardLifecycle(t *testing.T) {
	api := newTestAPI(t)
	card := api.createCard("Math", "What is 2+2?")
	if card.Box != 1 || card.DueAt != nil {
		t.Errorf("new card state: %+v", card)
	}

	var updated domain.Flashcard
	status := api.do("PUT", fmt.Sprintf("/api/flashcards/%d", card.ID), map[string]string{
		"subject": "Math", "question": "What is 3+3?", "answer": "6", "color": "pink.300",
	}, &updated)
	if status != http.StatusOK || updated.Question != "What is 3+3?" {
		t.Errorf("update: status %d card %+v", status, updated)
	}

	var cards []domain.Flashcard
	if status := api.do("GET", "/api/flashcards?subject=Math", nil, &cards); status != http.StatusOK {
		t.Fatalf("list: status %d", status)
	}
	if len(cards) != 1 {
		t.Fatalf("list returned %d cards", len(cards))
	}

	if status := api.do("DELETE", fmt.Sprintf("/api/flashcards/%d", card.ID), nil, nil); status != http.StatusOK {
		t.Errorf("delete: status %d", status)
	}
	if status := api.do("DELETE", fmt.Sprintf("/api/flashcards/%d", card.ID), nil, nil); status != http.StatusNotFound {
		t.Errorf("double delete: status %d, want 404", status)
	}
}

func TestReviewAndResetEndpoints(t *testing.T) {
	api := newTestAPI(t)
	card := api.createCard("Math", "Q")

	var reviewed domain.Flashcard
	status := api.do("POST", fmt.Sprintf("/api/flashcards/%d/review", card.ID),
		map[string]string{"outcome": "easy"}, &reviewed)
	if status != http.StatusOK {
		t.Fatalf("review: status %d", status)
	}
	if reviewed.Box != 4 {
		t.Errorf("box after easy = %d, want 4", reviewed.Box)
	}
	if want := api.now.Add(7 * 24 * time.Hour); reviewed.DueAt == nil || !reviewed.DueAt.Equal(want) {
		t.Errorf("due_at after easy = %v, want %v", reviewed.DueAt, want)
	}

	status = api.do("POST", fmt.Sprintf("/api/flashcards/%d/review", card.ID),
		map[string]string{"outcome": "perfect"}, nil)
	if status != http.StatusBadRequest {
		t.Errorf("invalid outcome: status %d, want 400", status)
	}

	var history []domain.ReviewRecord
	if status := api.do("GET", fmt.Sprintf("/api/flashcards/%d/history", card.ID), nil, &history); status != http.StatusOK {
		t.Fatalf("history: status %d", status)
	}
	if len(history) != 1 || history[0].Outcome != "easy" {
		t.Errorf("history = %+v", history)
	}

	var reset domain.Flashcard
	if status := api.do("POST", fmt.Sprintf("/api/flashcards/%d/reset", card.ID), nil, &reset); status != http.StatusOK {
		t.Fatalf("reset: status %d", status)
	}
	if reset.Box != 1 || reset.DueAt != nil {
		t.Errorf("after reset: %+v", reset)
	}
}

func TestDueAndPreviewEndpointsAgree(t *testing.T) {
	api := newTestAPI(t)
	api.createCard("Math", "a")
	api.createCard("Math", "b")
	scheduled := api.createCard("Math", "c")

	// Push one card out a week so it drops from the due set.
	if status := api.do("POST", fmt.Sprintf("/api/flashcards/%d/review", scheduled.ID),
		map[string]string{"outcome": "easy"}, nil); status != http.StatusOK {
		t.Fatalf("review: status %d", status)
	}

	var due []domain.Flashcard
	if status := api.do("GET", "/api/flashcards/due?subject=Math", nil, &due); status != http.StatusOK {
		t.Fatalf("due: status %d", status)
	}
	var preview leitner.Preview
	if status := api.do("GET", "/api/flashcards/preview?subject=Math", nil, &preview); status != http.StatusOK {
		t.Fatalf("preview: status %d", status)
	}

	if len(due) != 2 {
		t.Errorf("due set size = %d, want 2", len(due))
	}
	if preview.DueCount != len(due) {
		t.Errorf("preview due_count = %d, selection = %d", preview.DueCount, len(due))
	}

	var stats storage.Stats
	if status := api.do("GET", "/api/flashcards/stats", nil, &stats); status != http.StatusOK {
		t.Fatalf("stats: status %d", status)
	}
	if stats.Total != 3 || stats.DueToday != 2 {
		t.Errorf("stats = %+v", stats)
	}
}

type sessionResponse struct {
	ID         string            `json:"id"`
	State      string            `json:"state"`
	Phase      string            `json:"phase"`
	Total      int               `json:"total"`
	Reviewed   int               `json:"reviewed"`
	Tally      map[string]int    `json:"tally"`
	Card       *domain.Flashcard `json:"card"`
	NothingDue bool              `json:"nothing_due"`
}

func TestSessionLifecycle(t *testing.T) {
	api := newTestAPI(t)
	api.createCard("Math", "a")
	api.createCard("Math", "b")

	var sess sessionResponse
	status := api.do("POST", "/api/sessions", map[string]any{"subject": "Math"}, &sess)
	if status != http.StatusCreated {
		t.Fatalf("start session: status %d", status)
	}
	if sess.State != "in_progress" || sess.Total != 2 || sess.Card == nil {
		t.Fatalf("session = %+v", sess)
	}
	base := "/api/sessions/" + sess.ID

	// Outcome before flip is a sequencing error.
	if status := api.do("POST", base+"/answer", map[string]string{"outcome": "good"}, nil); status != http.StatusBadRequest {
		t.Errorf("answer before flip: status %d, want 400", status)
	}

	for i := 0; i < 2; i++ {
		if status := api.do("POST", base+"/flip", nil, &sess); status != http.StatusOK {
			t.Fatalf("flip %d: status %d", i, status)
		}
		if sess.Phase != "revealed" {
			t.Fatalf("phase after flip = %q", sess.Phase)
		}
		if status := api.do("POST", base+"/answer", map[string]string{"outcome": "good"}, &sess); status != http.StatusOK {
			t.Fatalf("answer %d: status %d", i, status)
		}
	}

	if sess.State != "complete" || sess.Reviewed != 2 || sess.Tally["good"] != 2 {
		t.Errorf("final session = %+v", sess)
	}

	// Everything was graded good (due in 2 days), so a restart finds nothing.
	if status := api.do("POST", base+"/restart", nil, &sess); status != http.StatusOK {
		t.Fatalf("restart: status %d", status)
	}
	if sess.State != "nothing_due" {
		t.Errorf("state after restart = %q, want nothing_due", sess.State)
	}

	if status := api.do("DELETE", base, nil, nil); status != http.StatusOK {
		t.Errorf("close: status %d", status)
	}
	if status := api.do("GET", base, nil, nil); status != http.StatusNotFound {
		t.Errorf("get closed session: status %d, want 404", status)
	}

	// The outcomes recorded before closing stayed persisted.
	var cards []domain.Flashcard
	if status := api.do("GET", "/api/flashcards?subject=Math", nil, &cards); status != http.StatusOK {
		t.Fatalf("list: status %d", status)
	}
	for _, c := range cards {
		if c.Box != 3 {
			t.Errorf("card %d box = %d, want 3", c.ID, c.Box)
		}
	}
}

func TestSessionNothingDue(t *testing.T) {
	api := newTestAPI(t)
	var sess sessionResponse
	status := api.do("POST", "/api/sessions", map[string]any{"subject": "Empty"}, &sess)
	if status != http.StatusOK {
		t.Fatalf("start with nothing due: status %d, want 200", status)
	}
	if !sess.NothingDue {
		t.Errorf("response = %+v, want nothing_due", sess)
	}
}

func TestPracticeSessionLeavesSchedulesAlone(t *testing.T) {
	api := newTestAPI(t)
	card := api.createCard("Math", "a")

	var sess sessionResponse
	if status := api.do("POST", "/api/sessions", map[string]any{"subject": "Math", "practice": true}, &sess); status != http.StatusCreated {
		t.Fatalf("start practice: status %d", status)
	}
	base := "/api/sessions/" + sess.ID
	if status := api.do("POST", base+"/flip", nil, nil); status != http.StatusOK {
		t.Fatalf("flip failed")
	}
	if status := api.do("POST", base+"/answer", map[string]string{"outcome": "easy"}, &sess); status != http.StatusOK {
		t.Fatalf("answer failed")
	}

	var after domain.Flashcard
	var cards []domain.Flashcard
	if status := api.do("GET", "/api/flashcards?subject=Math", nil, &cards); status != http.StatusOK || len(cards) != 1 {
		t.Fatalf("list failed")
	}
	after = cards[0]
	if after.Box != card.Box || after.DueAt != nil {
		t.Errorf("practice session changed schedule: %+v", after)
	}
}

func TestUnknownSession(t *testing.T) {
	api := newTestAPI(t)
	if status := api.do("POST", "/api/sessions/9b1deb4d-3b7d-4bad-9bdd-2b0d7b3dcb6d/flip", nil, nil); status != http.StatusNotFound {
		t.Errorf("unknown session: status %d, want 404", status)
	}
	if status := api.do("POST", "/api/sessions/not-a-uuid/flip", nil, nil); status != http.StatusBadRequest {
		t.Errorf("malformed session id: status %d, want 400", status)
	}
}

func TestNotesEndpoints(t *testing.T) {
	api := newTestAPI(t)

	var note domain.Note
	status := api.do("POST", "/api/notes", map[string]string{
		"subject": "Math", "title": "Limits", "content": "lim x->0", "color": "blue.300",
	}, &note)
	if status != http.StatusCreated {
		t.Fatalf("create note: status %d", status)
	}

	var subjects []string
	if status := api.do("GET", "/api/notes/subjects", nil, &subjects); status != http.StatusOK {
		t.Fatalf("note subjects: status %d", status)
	}
	if len(subjects) != 1 || subjects[0] != "Math" {
		t.Errorf("subjects = %v", subjects)
	}

	if status := api.do("DELETE", fmt.Sprintf("/api/notes/%d", note.ID), nil, nil); status != http.StatusOK {
		t.Errorf("delete note: status %d", status)
	}
}

func TestSourceTypeDetection(t *testing.T) {
	api := newTestAPI(t)

	var src storage.Source
	if status := api.do("POST", "/api/sources", map[string]string{"path": "https://example.com/decks.git"}, &src); status != http.StatusCreated {
		t.Fatalf("create source: status %d", status)
	}
	if src.Type != "git" {
		t.Errorf("source type = %q, want git", src.Type)
	}

	if status := api.do("POST", "/api/sources", map[string]string{"path": "/home/user/decks"}, &src); status != http.StatusCreated {
		t.Fatalf("create local source: status %d", status)
	}
	if src.Type != "local" {
		t.Errorf("source type = %q, want local", src.Type)
	}
}
