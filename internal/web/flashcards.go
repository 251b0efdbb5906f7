package web

import (
	"net/http"

	"studykeet/internal/domain"
	"studykeet/internal/leitner"
)

type flashcardRequest struct {
	Subject  string `json:"subject" validate:"required"`
	Question string `json:"question" validate:"required"`
	Answer   string `json:"answer" validate:"required"`
	Color    string `json:"color"`
}

func (s *Server) handleCreateFlashcard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req flashcardRequest
		if err := s.decode(r, &req); err != nil {
			s.writeError(w, err)
			return
		}
		card, err := s.db.InsertFlashcard(r.Context(), domain.Flashcard{
			Subject:  req.Subject,
			Question: req.Question,
			Answer:   req.Answer,
			Color:    req.Color,
		})
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusCreated, card)
	}
}

func (s *Server) handleListFlashcards() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cards, err := s.db.ListFlashcards(r.Context(), r.URL.Query().Get("subject"))
		if err != nil {
			s.writeError(w, err)
			return
		}
		if cards == nil {
			cards = []domain.Flashcard{}
		}
		s.writeJSON(w, http.StatusOK, cards)
	}
}

func (s *Server) handleFlashcardSubjects() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subjects, err := s.db.FlashcardSubjects(r.Context())
		if err != nil {
			s.writeError(w, err)
			return
		}
		if subjects == nil {
			subjects = []string{}
		}
		s.writeJSON(w, http.StatusOK, subjects)
	}
}

func (s *Server) handleUpdateFlashcard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			s.writeError(w, err)
			return
		}
		var req flashcardRequest
		if err := s.decode(r, &req); err != nil {
			s.writeError(w, err)
			return
		}
		card, err := s.db.UpdateFlashcard(r.Context(), id, req.Subject, req.Question, req.Answer, req.Color)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, card)
	}
}

func (s *Server) handleDeleteFlashcard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			s.writeError(w, err)
			return
		}
		if err := s.db.DeleteFlashcard(r.Context(), id); err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]string{"message": "flashcard deleted"})
	}
}

func (s *Server) handleDueFlashcards() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cards, err := s.db.DueFlashcards(r.Context(), r.URL.Query().Get("subject"), s.now())
		if err != nil {
			s.writeError(w, err)
			return
		}
		if cards == nil {
			cards = []domain.Flashcard{}
		}
		s.writeJSON(w, http.StatusOK, cards)
	}
}

func (s *Server) handleDuePreview() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		preview, err := s.db.DuePreview(r.Context(), r.URL.Query().Get("subject"), s.now())
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, preview)
	}
}

func (s *Server) handleStats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := s.db.Stats(r.Context(), s.now())
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, stats)
	}
}

type reviewRequest struct {
	Outcome leitner.Outcome `json:"outcome"`
}

func (s *Server) handleReviewFlashcard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			s.writeError(w, err)
			return
		}
		var req reviewRequest
		if err := s.decode(r, &req); err != nil {
			s.writeError(w, err)
			return
		}
		card, err := s.db.RecordOutcome(r.Context(), id, req.Outcome, s.now())
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, card)
	}
}

func (s *Server) handleResetFlashcard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			s.writeError(w, err)
			return
		}
		card, err := s.db.ResetCard(r.Context(), id)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, card)
	}
}

func (s *Server) handleReviewHistory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			s.writeError(w, err)
			return
		}
		// 404 for unknown cards, empty history for known-but-unreviewed ones.
		if _, err := s.db.GetFlashcard(r.Context(), id); err != nil {
			s.writeError(w, err)
			return
		}
		history, err := s.db.ReviewHistory(r.Context(), id)
		if err != nil {
			s.writeError(w, err)
			return
		}
		if history == nil {
			history = []domain.ReviewRecord{}
		}
		s.writeJSON(w, http.StatusOK, history)
	}
}
