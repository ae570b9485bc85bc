package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(h *Handler, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Post("/format", h.Format)

	r.Post("/captures", h.CreateCapture)
	r.Get("/captures", h.ListCaptures)
	r.Get("/captures/{id}", h.GetCapture)

	r.Get("/templates", h.ListTemplates)
	r.Get("/templates/*", h.GetTemplate)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
