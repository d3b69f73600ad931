package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/JonMunkholm/dataprep/internal/core"
	"github.com/JonMunkholm/dataprep/internal/logging"
	"github.com/dustin/go-humanize"
)

// multipartOverhead leaves room for form boundaries and headers on top of
// the file itself.
const multipartOverhead = 1 << 20

// LoadResponse answers a successful load.
type LoadResponse struct {
	core.Outcome
	Summary core.Summary     `json:"summary"`
	Preview *PreviewResponse `json:"preview,omitempty"`
}

// handleLoad reads the multipart "file" part and makes it the session's
// active table.
func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	id, r := sessionParam(r)

	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			s.respondError(w, r, fmt.Errorf("%w: limit %s", core.ErrFileTooLarge, humanize.Bytes(uint64(maxSize))))
			return
		}
		s.respondError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, core.ErrNoFile)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.respondError(w, r, fmt.Errorf("read upload: %w", err))
		return
	}

	f := core.File{
		Name:      header.Filename,
		MediaType: core.MediaTypeFor(header.Filename, header.Header.Get("Content-Type")),
		Data:      data,
	}

	logger := logging.WithFields(r.Context(), "file", f.Name, "size", humanize.Bytes(uint64(len(data))))
	logger.Debug("load started", "media_type", f.MediaType)

	ctx := WithRequestMetadata(r.Context(), r)
	summary, err := s.service.Load(ctx, id, f)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	logger.Debug("load completed", "rows", summary.Rows, "columns", summary.Columns)

	outcome := core.Succeeded("File loaded successfully")
	preview, err := s.service.Preview(id, 0)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if isHTMX(r) {
		s.respondOutcome(w, r, outcome, preview)
		return
	}
	pr := toPreviewResponse(preview)
	writeJSON(w, http.StatusOK, LoadResponse{Outcome: outcome, Summary: summary, Preview: &pr})
}
