package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/starford/laguz/internal/noteservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
func NewRouter(svc *noteservice.Service, authEnabled bool, token string) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/notes", h.ListNotes)
	r.Get("/notes/links", h.Links)
	r.Get("/notes/backlinks", h.Backlinks)

	r.Post("/rename/preview", h.PreviewRename)
	r.Post("/rename", h.Rename)

	r.Get("/search", h.Search)

	r.Post("/index/invalidate", h.Invalidate)

	return r
}
