// Package web provides HTTP handlers for the table cleaning service.
// This file contains shared utilities and helper functions used across handlers.
package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/JonMunkholm/dataprep/internal/core"
	"github.com/JonMunkholm/dataprep/internal/logging"
	"github.com/JonMunkholm/dataprep/internal/web/views"
	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
)

// maxJSONBody caps request bodies for the JSON endpoints.
const maxJSONBody = 1 << 20

var errBadRequest = errors.New("bad request")

// sessionParam returns the {id} URL parameter and tags the request context
// with it for logging.
func sessionParam(r *http.Request) (string, *http.Request) {
	id := chi.URLParam(r, "id")
	return id, r.WithContext(logging.WithSession(r.Context(), id))
}

// parseRowsParam parses the rows query parameter. Missing means 0, which
// the service resolves to its default.
func parseRowsParam(r *http.Request) (int, error) {
	val := r.URL.Query().Get("rows")
	if val == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("%w: rows=%q", core.ErrInvalidRowCount, val)
	}
	if n < 1 {
		return 0, fmt.Errorf("%w: %d (must be at least 1)", core.ErrInvalidRowCount, n)
	}
	return n, nil
}

// decodeJSON reads a JSON request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", errBadRequest, err)
	}
	return nil
}

// writeJSON encodes v as JSON and writes it to w.
// Logs encoding errors since headers are already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}

// render writes an HTML fragment for HTMX requests.
func render(w http.ResponseWriter, r *http.Request, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := c.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render error", "error", err)
	}
}

// PreviewResponse is the JSON form of a table preview. Cells are plain JSON
// values; missing cells are null.
type PreviewResponse struct {
	Columns   []core.ColumnHeader `json:"columns"`
	Rows      [][]any             `json:"rows"`
	TotalRows int                 `json:"totalRows"`
	Empty     bool                `json:"empty,omitempty"`
}

func toPreviewResponse(p *core.PreviewResult) PreviewResponse {
	rows := make([][]any, len(p.Rows))
	for i, row := range p.Rows {
		out := make([]any, len(row))
		for j, v := range row {
			out[j] = core.Native(v)
		}
		rows[i] = out
	}
	return PreviewResponse{
		Columns:   p.Columns,
		Rows:      rows,
		TotalRows: p.TotalRows,
		Empty:     p.Empty(),
	}
}

// MutationResponse answers every state-changing route.
type MutationResponse struct {
	core.Outcome
	Preview *PreviewResponse `json:"preview,omitempty"`
}

// respondOutcome writes a successful outcome, with an optional preview, as
// JSON or as an HTMX fragment.
func (s *Server) respondOutcome(w http.ResponseWriter, r *http.Request, o core.Outcome, p *core.PreviewResult) {
	if isHTMX(r) {
		render(w, r, views.Result(o, p))
		return
	}
	resp := MutationResponse{Outcome: o}
	if p != nil {
		pr := toPreviewResponse(p)
		resp.Preview = &pr
	}
	writeJSON(w, http.StatusOK, resp)
}
