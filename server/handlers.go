package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/viant/imgvec/feature"
	"github.com/viant/imgvec/rank"
	"github.com/viant/imgvec/search"
	"github.com/viant/imgvec/vector"
)

// SearchResult is one entry of the POST /search response.
type SearchResult struct {
	Filename   string  `json:"filename"`
	Similarity float64 `json:"similarity"`
}

// IngestResponse is the POST /images response.
type IngestResponse struct {
	ID        string `json:"id"`
	State     string `json:"state"`
	Dimension int    `json:"dimension,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

type errorResponse struct {
	Detail    string `json:"detail"`
	RequestID string `json:"request_id,omitempty"`
}

const msgNoData = "no data in the vector store"

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	k := 0
	if raw := r.URL.Query().Get("k"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			s.writeError(w, r, http.StatusBadRequest, fmt.Sprintf("invalid k %q", raw))
			return
		}
		if v < 1 {
			s.writeError(w, r, http.StatusBadRequest, search.Reason(rank.ErrInvalidK))
			return
		}
		k = v
	}
	data, _, ok := s.readUpload(w, r)
	if !ok {
		return
	}
	res, err := s.pipeline.Query(r.Context(), data, k)
	if err != nil {
		s.writeError(w, r, statusFor(err), search.Reason(err))
		return
	}
	if res.NoData() {
		s.writeError(w, r, http.StatusNotFound, msgNoData)
		return
	}
	out := make([]SearchResult, len(res.Matches))
	for i, m := range res.Matches {
		out[i] = SearchResult{Filename: m.ID, Similarity: m.Score}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	data, filename, ok := s.readUpload(w, r)
	if !ok {
		return
	}
	if name := strings.TrimSpace(r.FormValue("filename")); name != "" {
		filename = name
	}
	out := s.pipeline.Ingest(r.Context(), data, filename)
	if !out.Stored() {
		writeJSON(w, statusFor(out.Err), IngestResponse{ID: out.ID, State: string(out.State), Reason: out.Reason})
		return
	}
	if s.opts.ImageDir != "" {
		if err := saveImage(s.opts.ImageDir, out.ID, data); err != nil {
			s.logger.WarnContext(r.Context(), "save reference image failed", "id", out.ID, "error", err)
		}
	}
	writeJSON(w, http.StatusCreated, IngestResponse{ID: out.ID, State: string(out.State), Dimension: out.Dimension})
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if id, err := search.Identifier(name); err != nil || id != name {
		s.writeError(w, r, http.StatusBadRequest, search.Reason(search.ErrInvalidIdentifier))
		return
	}
	id, err := s.pipeline.Remove(r.Context(), name)
	if err != nil {
		s.writeError(w, r, statusFor(err), search.Reason(err))
		return
	}
	if s.opts.ImageDir != "" {
		if err := os.Remove(filepath.Join(s.opts.ImageDir, id)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			s.logger.WarnContext(r.Context(), "remove reference image failed", "id", id, "error", err)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dim, err := s.pipeline.Store().Dimension(r.Context())
	if err != nil {
		s.writeError(w, r, http.StatusServiceUnavailable, search.Reason(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"strategy":  s.pipeline.Extractor().Strategy(),
		"dimension": dim,
	})
}

// imageFiles serves files from ImageDir without directory listings.
func (s *Server) imageFiles() http.Handler {
	files := http.StripPrefix("/images/", http.FileServer(http.Dir(s.opts.ImageDir)))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, "/images/")
		if id, err := search.Identifier(name); err != nil || id != name {
			http.NotFound(w, r)
			return
		}
		files.ServeHTTP(w, r)
	})
}

// readUpload returns the multipart "file" field. It writes the error
// response itself and reports false on failure.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, r, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d bytes", tooLarge.Limit))
			return nil, "", false
		}
		s.writeError(w, r, http.StatusBadRequest, "multipart field \"file\" is required")
		return nil, "", false
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, "could not read upload")
		return nil, "", false
	}
	return data, header.Filename, true
}

// statusFor maps pipeline errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, vector.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, vector.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, search.ErrRemoveUnsupported):
		return http.StatusNotImplemented
	case errors.Is(err, feature.ErrDecode),
		errors.Is(err, feature.ErrNoRegion),
		errors.Is(err, feature.ErrExtraction),
		errors.Is(err, search.ErrInvalidIdentifier),
		errors.Is(err, rank.ErrInvalidK),
		errors.Is(err, rank.ErrInvalidQuery):
		return http.StatusBadRequest
	case errors.Is(err, vector.ErrInvalidRecord):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	}
	var dm *vector.DimensionMismatchError
	if errors.As(err, &dm) {
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func saveImage(dir, id string, data []byte) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, id), data, 0o644)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail, RequestID: RequestID(r.Context())})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
