package web

import (
	"net/http"

	"studykeet/internal/domain"
)

type noteRequest struct {
	Subject string `json:"subject" validate:"required"`
	Title   string `json:"title" validate:"required"`
	Content string `json:"content" validate:"required"`
	Color   string `json:"color"`
}

func (s *Server) handleCreateNote() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req noteRequest
		if err := s.decode(r, &req); err != nil {
			s.writeError(w, err)
			return
		}
		note, err := s.db.InsertNote(r.Context(), domain.Note{
			Subject: req.Subject,
			Title:   req.Title,
			Content: req.Content,
			Color:   req.Color,
		})
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusCreated, note)
	}
}

func (s *Server) handleListNotes() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		notes, err := s.db.ListNotes(r.Context(), r.URL.Query().Get("subject"))
		if err != nil {
			s.writeError(w, err)
			return
		}
		if notes == nil {
			notes = []domain.Note{}
		}
		s.writeJSON(w, http.StatusOK, notes)
	}
}

func (s *Server) handleNoteSubjects() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subjects, err := s.db.NoteSubjects(r.Context())
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

func (s *Server) handleUpdateNote() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			s.writeError(w, err)
			return
		}
		var req noteRequest
		if err := s.decode(r, &req); err != nil {
			s.writeError(w, err)
			return
		}
		note, err := s.db.UpdateNote(r.Context(), id, req.Subject, req.Title, req.Content, req.Color)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, note)
	}
}

func (s *Server) handleDeleteNote() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			s.writeError(w, err)
			return
		}
		if err := s.db.DeleteNote(r.Context(), id); err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]string{"message": "note deleted"})
	}
}
