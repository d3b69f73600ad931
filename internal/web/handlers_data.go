package web

import (
	"bytes"
	"net/http"

	"github.com/JonMunkholm/dataprep/internal/core"
	"github.com/JonMunkholm/dataprep/internal/web/views"
)

// handlePreview returns the first rows of the active table.
// Query: rows (default PREVIEW_DEFAULT_ROWS, minimum 1).
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	id, r := sessionParam(r)

	n, err := parseRowsParam(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	preview, err := s.service.Preview(id, n)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if isHTMX(r) {
		render(w, r, views.TablePreview(preview))
		return
	}
	writeJSON(w, http.StatusOK, toPreviewResponse(preview))
}

// handleSummary returns row, column and per-column counts.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	id, r := sessionParam(r)

	summary, err := s.service.Summarize(id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// handleInfo returns the text report for the active table.
func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	id, r := sessionParam(r)

	var buf bytes.Buffer
	if err := s.service.Info(id, &buf); err != nil {
		s.respondError(w, r, err)
		return
	}

	if isHTMX(r) {
		render(w, r, views.InfoReport(buf.String()))
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write(buf.Bytes())
}

type columnsRequest struct {
	Columns []string `json:"columns"`
}

// handleSelect returns the requested columns without changing the table.
// Query: rows, resolved the same way as for handlePreview.
func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	id, r := sessionParam(r)

	n, err := parseRowsParam(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var req columnsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	selected, err := s.service.Select(id, req.Columns)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	preview, err := core.PreviewTable(selected, s.service.RowCount(n))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if isHTMX(r) {
		render(w, r, views.TablePreview(preview))
		return
	}
	writeJSON(w, http.StatusOK, toPreviewResponse(preview))
}
