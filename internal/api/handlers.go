package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/scribe/internal/apperr"
	"github.com/starford/scribe/internal/captureservice"
	"github.com/starford/scribe/internal/formatter"
	"github.com/starford/scribe/internal/journal"
	"github.com/starford/scribe/internal/prompt"
	"github.com/starford/scribe/internal/templates"
)

const maxBody = 10 << 20

// Handler holds API route handlers.
type Handler struct {
	svc       *captureservice.Service
	journal   journal.Journal
	templates *templates.Registry
}

// NewHandler creates a new Handler. journal and templates may be nil; the
// routes that need them then answer 404.
func NewHandler(svc *captureservice.Service, j journal.Journal, reg *templates.Registry) *Handler {
	return &Handler{svc: svc, journal: j, templates: reg}
}

// wildcardPath extracts the path after the route prefix. Supports encoded
// slashes (e.g. daily%2Fnote.md).
func wildcardPath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// writeError maps domain errors to status codes.
func writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, apperr.ErrInvalid), errors.Is(err, captureservice.ErrNoTemplates):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrCancelled):
		writeJSON(w, http.StatusConflict, errorBody("cancelled"))
	case errors.Is(err, prompt.ErrMissingValue),
		errors.Is(err, prompt.ErrInvalidChoice),
		errors.Is(err, formatter.ErrTemplateDepth),
		errors.Is(err, formatter.ErrInvalidDate):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody(err.Error()))
	default:
		slog.Error(op+" failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

// Format handles POST /api/format.
//
//	@Summary		Expand a template or inline format without writing
//	@Tags			format
//	@Accept			json
//	@Produce		json
//	@Param			body	body		FormatRequest	true	"Template and answers"
//	@Success		200		{object}	captureservice.FormatResult
//	@Failure		400		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/format [post]
func (h *Handler) Format(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	var req FormatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	res, err := h.svc.Format(r.Context(), req.FormatRequest, prompt.Static(req.Answers))
	if err != nil {
		writeError(w, "format", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// CreateCapture handles POST /api/captures.
//
//	@Summary		Capture into a vault file
//	@Tags			captures
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CaptureRequest	true	"Capture"
//	@Success		201		{object}	captureservice.Result
//	@Success		200		{object}	captureservice.Result	"dry run"
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/captures [post]
func (h *Handler) CreateCapture(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	var req CaptureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	res, err := h.svc.Capture(r.Context(), req.Request, prompt.Static(req.Answers))
	if err != nil {
		writeError(w, "capture", err)
		return
	}
	status := http.StatusCreated
	if res.DryRun {
		status = http.StatusOK
	}
	writeJSON(w, status, res)
}

// ListCaptures handles GET /api/captures.
//
//	@Summary		List or search journaled captures, newest first
//	@Tags			captures
//	@Produce		json
//	@Param			limit	query		int		false	"Page size"
//	@Param			offset	query		int		false	"Page offset"
//	@Param			path	query		string	false	"Filter by file"
//	@Param			q		query		string	false	"Search text"
//	@Success		200		{object}	CaptureListResponse
//	@Security		BearerAuth
//	@Router			/captures [get]
func (h *Handler) ListCaptures(w http.ResponseWriter, r *http.Request) {
	if h.journal == nil {
		writeJSON(w, http.StatusNotFound, errorBody("journal disabled"))
		return
	}
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	if text := strings.TrimSpace(q.Get("q")); text != "" {
		items, err := h.journal.Search(text, limit)
		if err != nil {
			writeError(w, "search captures", err)
			return
		}
		writeJSON(w, http.StatusOK, CaptureListResponse{Captures: items, Total: len(items)})
		return
	}

	items, total, err := h.journal.List(limit, offset, q.Get("path"))
	if err != nil {
		writeError(w, "list captures", err)
		return
	}
	writeJSON(w, http.StatusOK, CaptureListResponse{Captures: items, Total: total})
}

// GetCapture handles GET /api/captures/{id}.
//
//	@Summary		Get one journaled capture
//	@Tags			captures
//	@Produce		json
//	@Param			id	path		string	true	"Capture ID"
//	@Success		200	{object}	models.CaptureEntry
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/captures/{id} [get]
func (h *Handler) GetCapture(w http.ResponseWriter, r *http.Request) {
	if h.journal == nil {
		writeJSON(w, http.StatusNotFound, errorBody("journal disabled"))
		return
	}
	entry, err := h.journal.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "get capture", err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// ListTemplates handles GET /api/templates.
//
//	@Summary		List templates, or fuzzy-match them with q
//	@Tags			templates
//	@Produce		json
//	@Param			q	query		string	false	"Fuzzy query"
//	@Success		200	{object}	TemplateListResponse
//	@Security		BearerAuth
//	@Router			/templates [get]
func (h *Handler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	if h.templates == nil {
		writeJSON(w, http.StatusOK, TemplateListResponse{Templates: []TemplateInfo{}})
		return
	}
	items := h.templates.List()
	if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
		items = h.templates.Suggest(q)
	}
	if items == nil {
		items = []TemplateInfo{}
	}
	writeJSON(w, http.StatusOK, TemplateListResponse{Templates: items})
}

// GetTemplate handles GET /api/templates/*.
//
//	@Summary		Get the raw text of a template
//	@Tags			templates
//	@Produce		json
//	@Param			name	path		string	true	"Template name or path"
//	@Success		200		{object}	TemplateDetail
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/templates/{name} [get]
func (h *Handler) GetTemplate(w http.ResponseWriter, r *http.Request) {
	name := wildcardPath(r)
	if name == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("name is required"))
		return
	}
	if h.templates == nil {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	text, err := h.templates.Load(r.Context(), name)
	if err != nil {
		writeError(w, "get template", err)
		return
	}
	writeJSON(w, http.StatusOK, TemplateDetail{Name: name, Path: h.templates.Resolve(name), Content: text})
}
