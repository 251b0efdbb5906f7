// Package web exposes the studykeet JSON API: flashcard and note CRUD, due-set
// selection and preview, review sessions, and deck source management.
package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"studykeet/internal/leitner"
	"studykeet/internal/review"
	"studykeet/internal/storage"
)

// Server holds the dependencies for the HTTP API.
type Server struct {
	db       *storage.DB
	router   *http.ServeMux
	validate *validator.Validate
	sessions *sessionRegistry
	reposDir string
	now      func() time.Time
}

// Option tweaks server construction.
type Option func(*Server)

// WithClock replaces the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// NewServer creates and configures a new API server.
func NewServer(db *storage.DB, reposDir string, opts ...Option) *Server {
	s := &Server{
		db:       db,
		router:   http.NewServeMux(),
		validate: validator.New(),
		sessions: newSessionRegistry(),
		reposDir: reposDir,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// routes sets up the routing for the server.
func (s *Server) routes() {
	// Flashcards
	s.router.HandleFunc("POST /api/flashcards", s.handleCreateFlashcard())
	s.router.HandleFunc("GET /api/flashcards", s.handleListFlashcards())
	s.router.HandleFunc("GET /api/flashcards/subjects", s.handleFlashcardSubjects())
	s.router.HandleFunc("GET /api/flashcards/due", s.handleDueFlashcards())
	s.router.HandleFunc("GET /api/flashcards/preview", s.handleDuePreview())
	s.router.HandleFunc("GET /api/flashcards/stats", s.handleStats())
	s.router.HandleFunc("PUT /api/flashcards/{id}", s.handleUpdateFlashcard())
	s.router.HandleFunc("DELETE /api/flashcards/{id}", s.handleDeleteFlashcard())
	s.router.HandleFunc("POST /api/flashcards/{id}/review", s.handleReviewFlashcard())
	s.router.HandleFunc("POST /api/flashcards/{id}/reset", s.handleResetFlashcard())
	s.router.HandleFunc("GET /api/flashcards/{id}/history", s.handleReviewHistory())

	// Review sessions
	s.router.HandleFunc("POST /api/sessions", s.handleStartSession())
	s.router.HandleFunc("GET /api/sessions/{id}", s.handleGetSession())
	s.router.HandleFunc("POST /api/sessions/{id}/flip", s.handleFlip())
	s.router.HandleFunc("POST /api/sessions/{id}/answer", s.handleAnswer())
	s.router.HandleFunc("POST /api/sessions/{id}/restart", s.handleRestartSession())
	s.router.HandleFunc("DELETE /api/sessions/{id}", s.handleCloseSession())

	// Notes
	s.router.HandleFunc("POST /api/notes", s.handleCreateNote())
	s.router.HandleFunc("GET /api/notes", s.handleListNotes())
	s.router.HandleFunc("GET /api/notes/subjects", s.handleNoteSubjects())
	s.router.HandleFunc("PUT /api/notes/{id}", s.handleUpdateNote())
	s.router.HandleFunc("DELETE /api/notes/{id}", s.handleDeleteNote())

	// Deck sources
	s.router.HandleFunc("POST /api/sources", s.handleCreateSource())
	s.router.HandleFunc("GET /api/sources", s.handleListSources())
	s.router.HandleFunc("DELETE /api/sources/{id}", s.handleDeleteSource())
	s.router.HandleFunc("POST /api/sync", s.handleSync())
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// decode unmarshals and validates a request body.
func (s *Server) decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %s", errBadRequest, err)
	}
	if err := s.validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %s", errBadRequest, err)
	}
	return nil
}

var errBadRequest = errors.New("bad request")

func (s *Server) writeError(w http.ResponseWriter, err error) {
	var status int
	switch {
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, errSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, errBadRequest),
		errors.Is(err, leitner.ErrInvalidOutcome),
		errors.Is(err, review.ErrNotRevealed),
		errors.Is(err, review.ErrAlreadyRevealed),
		errors.Is(err, review.ErrNotComplete),
		errors.Is(err, review.ErrAlreadyStarted):
		status = http.StatusBadRequest
	case errors.Is(err, review.ErrSessionClosed):
		status = http.StatusConflict
	default:
		status = http.StatusInternalServerError
		slog.Error("request failed", "error", err)
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid id %q", errBadRequest, r.PathValue("id"))
	}
	return id, nil
}
