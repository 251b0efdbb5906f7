package web

import (
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/google/uuid"

	"studykeet/internal/domain"
	"studykeet/internal/leitner"
	"studykeet/internal/review"
)

var errSessionNotFound = errors.New("session not found")

// sessionRegistry holds live review sessions keyed by id. Each entry carries
// its own lock: the runner itself is single-threaded by contract, so all
// handler access to one session is serialized here. This also guarantees at
// most one in-flight persistence call per card.
type sessionRegistry struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*sessionEntry
}

type sessionEntry struct {
	mu     sync.Mutex
	runner *review.Runner
}

func newSessionRegistry() *sessionRegistry {
	return &sessionRegistry{entries: make(map[uuid.UUID]*sessionEntry)}
}

func (reg *sessionRegistry) add(r *review.Runner) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.entries[r.ID()] = &sessionEntry{runner: r}
}

func (reg *sessionRegistry) get(id uuid.UUID) (*sessionEntry, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	e, ok := reg.entries[id]
	return e, ok
}

func (reg *sessionRegistry) remove(id uuid.UUID) (*sessionEntry, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	e, ok := reg.entries[id]
	delete(reg.entries, id)
	return e, ok
}

type sessionRequest struct {
	Subject  string `json:"subject"`
	Practice bool   `json:"practice"`
}

func (s *Server) handleStartSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req sessionRequest
		if err := s.decode(r, &req); err != nil {
			s.writeError(w, err)
			return
		}

		runner := review.New(review.Config{
			Subject:  req.Subject,
			Practice: req.Practice,
			Writer:   s.db,
			Source:   s.db,
			Now:      s.now,
		})

		set, err := s.sessionSet(r, req)
		if err != nil {
			s.writeError(w, err)
			return
		}

		if err := runner.Start(set); err != nil {
			if errors.Is(err, review.ErrEmptySet) {
				s.writeJSON(w, http.StatusOK, map[string]any{"nothing_due": true})
				return
			}
			s.writeError(w, err)
			return
		}

		s.sessions.add(runner)
		s.writeJSON(w, http.StatusCreated, runner.Summary())
	}
}

// sessionSet picks the working set: a graded session runs over the due cards,
// a practice session replays the whole collection for the subject without
// touching schedules.
func (s *Server) sessionSet(r *http.Request, req sessionRequest) ([]domain.Flashcard, error) {
	if req.Practice {
		return s.db.ListFlashcards(r.Context(), req.Subject)
	}
	return s.db.DueFlashcards(r.Context(), req.Subject, s.now())
}

func (s *Server) withSession(w http.ResponseWriter, r *http.Request, fn func(*review.Runner) error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.writeError(w, fmt.Errorf("%w: invalid session id", errBadRequest))
		return
	}
	entry, ok := s.sessions.get(id)
	if !ok {
		s.writeError(w, errSessionNotFound)
		return
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	if err := fn(entry.runner); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, entry.runner.Summary())
}

func (s *Server) handleGetSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.withSession(w, r, func(*review.Runner) error { return nil })
	}
}

func (s *Server) handleFlip() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.withSession(w, r, func(runner *review.Runner) error {
			return runner.Flip()
		})
	}
}

type answerRequest struct {
	Outcome leitner.Outcome `json:"outcome"`
}

func (s *Server) handleAnswer() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req answerRequest
		if err := s.decode(r, &req); err != nil {
			s.writeError(w, err)
			return
		}
		s.withSession(w, r, func(runner *review.Runner) error {
			return runner.Record(r.Context(), req.Outcome)
		})
	}
}

func (s *Server) handleRestartSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.withSession(w, r, func(runner *review.Runner) error {
			return runner.Restart(r.Context())
		})
	}
}

func (s *Server) handleCloseSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			s.writeError(w, fmt.Errorf("%w: invalid session id", errBadRequest))
			return
		}
		entry, ok := s.sessions.remove(id)
		if !ok {
			s.writeError(w, errSessionNotFound)
			return
		}
		entry.mu.Lock()
		summary := entry.runner.Summary()
		entry.runner.Close()
		entry.mu.Unlock()
		s.writeJSON(w, http.StatusOK, summary)
	}
}
