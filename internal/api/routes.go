package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hyperengineering/stockin/internal/auth"
)

// NewRouter creates a new router with all routes configured.
// Protected routes run the identity gate before any body decoding.
func NewRouter(h *Handler, verifier auth.Verifier) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware (all routes)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		// Public routes (no auth required)
		r.Post("/signup", h.Signup)
		r.Post("/login", h.Login)
		r.Post("/news_feed", h.NewsFeed)
		r.Post("/news_for_company", h.NewsForCompany)

		// Protected routes (bearer token required)
		r.Group(func(r chi.Router) {
			r.Use(RequireUser(verifier))
			r.Get("/recents", h.Recents)
			r.Post("/remove_recent", h.RemoveRecent)
			r.Get("/favourites", h.ListFavourites)
			r.Post("/favourites", h.SaveFavourite)
			r.Post("/research", h.Research)
		})

		r.NotFound(unknownEndpoint)
		r.MethodNotAllowed(unknownEndpoint)
	})

	// Everything else is a static asset lookup.
	r.Get("/*", h.Static)
	r.NotFound(unknownEndpoint)
	r.MethodNotAllowed(unknownEndpoint)

	return r
}

// unknownEndpoint is the contractual 404 body for unmatched routes.
func unknownEndpoint(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "unknown endpoint")
}
