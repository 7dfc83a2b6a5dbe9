package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/starford/laguz/internal/apperr"
	"github.com/starford/laguz/internal/noteservice"
	"github.com/starford/laguz/internal/search"
)

// Handler holds API route handlers.
type Handler struct {
	svc *noteservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *noteservice.Service) *Handler {
	return &Handler{svc: svc}
}

// ListNotes handles GET /api/notes.
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	records := h.svc.ListNotes(r.Context())
	items := make([]NoteListItem, len(records))
	for i, rec := range records {
		items[i] = NoteListItem{
			Path:     rec.RelPath(),
			Basename: rec.Basename,
			Type:     string(rec.Type),
		}
	}
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: items, Total: len(items)})
}

// Links handles GET /api/notes/links?path=...
func (h *Handler) Links(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimSpace(r.URL.Query().Get("path"))
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	links, err := h.svc.Links(r.Context(), path)
	if err != nil {
		h.writeError(w, "links", path, err)
		return
	}
	writeJSON(w, http.StatusOK, LinkListResponse{Links: links, Total: len(links)})
}

// Backlinks handles GET /api/notes/backlinks?path=...
func (h *Handler) Backlinks(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimSpace(r.URL.Query().Get("path"))
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	links, err := h.svc.Backlinks(r.Context(), path)
	if err != nil {
		h.writeError(w, "backlinks", path, err)
		return
	}
	writeJSON(w, http.StatusOK, LinkListResponse{Links: links, Total: len(links)})
}

// PreviewRename handles POST /api/rename/preview.
func (h *Handler) PreviewRename(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRename(w, r)
	if !ok {
		return
	}
	prev, err := h.svc.PreviewRename(r.Context(), req.Path, req.NewBasename)
	if err != nil {
		h.writeError(w, "rename preview", req.Path, err)
		return
	}
	writeJSON(w, http.StatusOK, prev)
}

// Rename handles POST /api/rename. The rewrite counters are reported even
// when some lines were skipped as stale; a failed final file move is flagged
// in the partial field with status 207.
func (h *Handler) Rename(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRename(w, r)
	if !ok {
		return
	}
	out, err := h.svc.Rename(r.Context(), req.Path, req.NewBasename, req.Backup)
	if err != nil {
		h.writeError(w, "rename", req.Path, err)
		return
	}
	status := http.StatusOK
	if out.Partial != "" {
		status = http.StatusMultiStatus
	}
	writeJSON(w, status, out)
}

// Search handles GET /api/search?q=...&limit=N.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	if !h.svc.SearchEnabled() {
		writeJSON(w, http.StatusNotImplemented, errorBody("search is disabled"))
		return
	}
	q := r.URL.Query().Get("q")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		slog.Error("search failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if results == nil {
		results = []search.Result{}
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// Invalidate handles POST /api/index/invalidate.
func (h *Handler) Invalidate(w http.ResponseWriter, r *http.Request) {
	h.svc.Index().Invalidate()
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decodeRename(w http.ResponseWriter, r *http.Request) (RenameRequest, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req RenameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid json body"))
		return req, false
	}
	if strings.TrimSpace(req.Path) == "" || strings.TrimSpace(req.NewBasename) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path and new_basename are required"))
		return req, false
	}
	return req, true
}

func (h *Handler) writeError(w http.ResponseWriter, op, path string, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, apperr.ErrDestinationExists):
		writeJSON(w, http.StatusConflict, errorBody("destination already exists"))
	case errors.Is(err, apperr.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	default:
		slog.Error(op+" failed", slog.String("path", path), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}
