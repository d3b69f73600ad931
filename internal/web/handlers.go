package web

import (
	"net/http"

	"github.com/JonMunkholm/dataprep/internal/core"
)

// handleHealth reports liveness and load capacity.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"loads":  s.service.LoadLimiterStatus(),
	})
}

// handleCreateSession starts a new, empty session.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	id, err := s.service.CreateSession()
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// handleGetSession returns what the session currently holds.
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, r := sessionParam(r)
	info, err := s.service.SessionInfo(id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// handleCloseSession discards the session and its table.
func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	id, r := sessionParam(r)
	if err := s.service.CloseSession(id); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleListCoercions returns the accepted transformation names.
func (s *Server) handleListCoercions(w http.ResponseWriter, r *http.Request) {
	cs := core.Coercions()
	type coercion struct {
		Usage string    `json:"usage"`
		Kind  core.Kind `json:"kind"`
	}
	out := make([]coercion, len(cs))
	for i, c := range cs {
		out[i] = coercion{Usage: c.String(), Kind: c.Kind()}
	}
	writeJSON(w, http.StatusOK, out)
}
