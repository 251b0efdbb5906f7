package web

import (
	"net/http"

	"studykeet/internal/decksync"
	"studykeet/internal/storage"
)

type sourceRequest struct {
	Path string `json:"path" validate:"required"`
}

func (s *Server) handleCreateSource() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req sourceRequest
		if err := s.decode(r, &req); err != nil {
			s.writeError(w, err)
			return
		}

		typ := "local"
		if decksync.IsGitPath(req.Path) {
			typ = "git"
		}
		source, err := s.db.InsertSource(r.Context(), req.Path, typ)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusCreated, source)
	}
}

func (s *Server) handleListSources() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sources, err := s.db.GetAllSources(r.Context())
		if err != nil {
			s.writeError(w, err)
			return
		}
		if sources == nil {
			sources = []storage.Source{}
		}
		s.writeJSON(w, http.StatusOK, sources)
	}
}

func (s *Server) handleDeleteSource() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			s.writeError(w, err)
			return
		}
		if err := s.db.DeleteSource(r.Context(), id); err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]string{"message": "source deleted"})
	}
}

// handleSync runs a reconcile pass in the foreground so the caller sees fresh
// cards as soon as the request returns.
func (s *Server) handleSync() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := decksync.Run(r.Context(), s.db, s.reposDir); err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]string{"message": "sync complete"})
	}
}
