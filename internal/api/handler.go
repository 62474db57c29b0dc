package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"

	"posebvh/internal/bvh"
	"posebvh/internal/export"
	"posebvh/internal/parser"
	"posebvh/internal/store"
)

const writeFailureMessage = "Failed to write BVH file on server."

// Exporter produces a transient BVH file from frames.
type Exporter interface {
	Export(ctx context.Context, frames []bvh.Frame, source string) (*export.Result, error)
}

type Handler struct {
	exporter     Exporter
	db           store.Store
	maxBodyBytes int64
}

// NewHandler builds the HTTP handlers. db may be nil when history is
// disabled.
func NewHandler(exporter Exporter, db store.Store, maxBodyBytes int64) *Handler {
	return &Handler{exporter: exporter, db: db, maxBodyBytes: maxBodyBytes}
}

// SaveBVH encodes the posted frames and returns the document as a download.
func (h *Handler) SaveBVH(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body := r.Body
	if h.maxBodyBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "reading request body", http.StatusBadRequest)
		return
	}

	capture, err := parser.Parse(data)
	switch {
	case errors.Is(err, bvh.ErrEmptyInput):
		http.Error(w, "No frames", http.StatusBadRequest)
		return
	case err != nil:
		http.Error(w, "invalid JSON structure", http.StatusBadRequest)
		return
	}

	result, err := h.exporter.Export(r.Context(), capture.Frames, store.SourceHTTP)
	if err != nil {
		if errors.Is(err, bvh.ErrEmptyInput) {
			http.Error(w, "No frames", http.StatusBadRequest)
			return
		}
		slog.Error("exporting bvh", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"msg": writeFailureMessage})
		return
	}
	defer result.Cleanup()

	f, err := os.Open(result.Path)
	if err != nil {
		slog.Error("opening transient export", "path", result.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"msg": writeFailureMessage})
		return
	}
	defer f.Close()

	setAttachmentHeaders(w, result.FileName)
	http.ServeContent(w, r, result.FileName, result.CreatedAt, f)
}

// ListExports returns recent export records without their documents.
func (h *Handler) ListExports(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		writeJSON(w, http.StatusOK, []store.Export{})
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	exports, err := h.db.ListExports(r.Context(), limit)
	if err != nil {
		slog.Error("listing exports", "error", err)
		http.Error(w, "listing exports failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, exports)
}

// GetExport returns a stored document as a download.
func (h *Handler) GetExport(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		http.NotFound(w, r)
		return
	}

	e, err := h.db.GetExport(r.Context(), r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		slog.Error("getting export", "id", r.PathValue("id"), "error", err)
		http.Error(w, "getting export failed", http.StatusInternalServerError)
		return
	}

	setAttachmentHeaders(w, e.FileName)
	w.Header().Set("Content-Length", strconv.Itoa(len(e.Document)))
	w.WriteHeader(http.StatusOK)
	w.Write(e.Document)
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, "ok")
}

func setAttachmentHeaders(w http.ResponseWriter, fileName string) {
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", "attachment; filename=\""+fileName+"\"")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("writing json response", "error", err)
	}
}
