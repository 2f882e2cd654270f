package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter creates a new router with all routes configured
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware (all routes)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggingMiddleware)
	r.Use(RecoveryMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes (no auth required)
		r.Get("/health", h.Health)

		// Protected routes (auth required)
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(h.apiKey))

			r.Post("/users", h.CreateUser)
			r.Get("/users/{userID}/recommendations", h.Recommendations)
			r.Delete("/users/{userID}/recommendations/cache", h.ClearRecommendationCache)
			r.Post("/users/{userID}/reviews", h.CreateReview)
			r.Post("/users/{userID}/favorites", h.CreateFavorite)

			r.Get("/books", h.ListBooks)
			r.Post("/books", h.CreateBook)
			r.Get("/books/{bookID}", h.GetBook)
			r.Put("/books/{bookID}/cover", h.UploadCover)
			r.Get("/books/{bookID}/cover", h.GetCoverURL)
		})
	})

	return r
}
