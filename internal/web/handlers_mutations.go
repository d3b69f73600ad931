package web

import (
	"fmt"
	"net/http"

	"github.com/JonMunkholm/dataprep/internal/core"
)

// handleDrop removes columns from the active table.
func (s *Server) handleDrop(w http.ResponseWriter, r *http.Request) {
	id, r := sessionParam(r)

	var req columnsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	if err := s.service.Drop(id, req.Columns); err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondOutcome(w, r, core.Succeeded("Dropped columns: %v", req.Columns), nil)
}

type renameRequest struct {
	Column string `json:"column"`
	Name   string `json:"name"`
}

// handleRename renames one column of the active table.
func (s *Server) handleRename(w http.ResponseWriter, r *http.Request) {
	id, r := sessionParam(r)

	var req renameRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	if err := s.service.Rename(id, req.Column, req.Name); err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondOutcome(w, r, core.Succeeded("Renamed '%s' to '%s'", req.Column, req.Name), nil)
}

type transformRequest struct {
	Column string `json:"column"`
	Usage  string `json:"usage"`
}

// handleTransform converts one column and answers with a preview of the
// updated table.
func (s *Server) handleTransform(w http.ResponseWriter, r *http.Request) {
	id, r := sessionParam(r)

	var req transformRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if req.Column == "" {
		s.respondError(w, r, fmt.Errorf("%w: column", core.ErrMissingArgument))
		return
	}

	c, err := s.service.Transform(id, req.Column, req.Usage)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	preview, err := s.service.Preview(id, 0)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondOutcome(w, r, core.Succeeded("%s converted to %s", req.Column, c), preview)
}
