package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter wires the HTTP surface: the two API endpoints, the health check,
// and a structured 404 for everything else. The rate limiter is not router
// middleware: the handlers consult it after validation so a request rejected
// with 400 never consumes a window slot.
func NewRouter(h *Handler, m *Middleware) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(m.CORS)
	r.Use(m.Timeout)
	r.Use(m.RequestLogger)

	r.Get("/health", h.HandleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/ask-ai", h.HandleAskAI)
		r.Post("/save", h.HandleSave)
	})

	r.NotFound(h.HandleNotFound)
	r.MethodNotAllowed(h.HandleNotFound)

	return r
}
