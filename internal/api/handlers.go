package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/shelfwise/shelfwise/internal/covers"
	"github.com/shelfwise/shelfwise/internal/store"
	"github.com/shelfwise/shelfwise/internal/types"
	"github.com/shelfwise/shelfwise/internal/validation"
)

// maxCoverBytes bounds cover image uploads.
const maxCoverBytes = 5 << 20

// defaultSearchLimit caps catalog search results.
const defaultSearchLimit = 50

// Recommender is the slice of the recommendation engine the API uses.
type Recommender interface {
	Recommend(ctx context.Context, userID string) ([]types.Recommendation, error)
	ClearCache(userID string)
}

// Handler implements the API handlers
type Handler struct {
	store    store.Store
	engine   Recommender
	uploader covers.Uploader
	model    string
	apiKey   string
	version  string
}

// NewHandler creates a new Handler with store.Store interface
func NewHandler(s store.Store, engine Recommender, uploader covers.Uploader, model, apiKey, version string) *Handler {
	return &Handler{
		store:    s,
		engine:   engine,
		uploader: uploader,
		model:    model,
		apiKey:   apiKey,
		version:  version,
	}
}

// Health returns the health status
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	count, err := h.store.CountBooks(r.Context())
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	resp := types.HealthResponse{
		Status:          "healthy",
		Version:         h.version,
		CompletionModel: h.model,
		BookCount:       count,
	}

	writeJSON(w, http.StatusOK, resp)
}

// CreateUser handles POST /api/v1/users
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req types.NewUser
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}

	if errs := validation.ValidateUserRequest(req); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return
	}

	user, err := h.store.CreateUser(r.Context(), req)
	if err != nil {
		slog.Error("create user failed", "error", err)
		MapStoreError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// Recommendations handles GET /api/v1/users/{userID}/recommendations
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	recs, err := h.engine.Recommend(r.Context(), userID)
	if err != nil {
		MapStoreError(w, r, err)
		return
	}

	resp := types.RecommendationsResponse{Recommendations: recs}
	if len(recs) == 0 {
		resp.Message = "Add reviews or favorites to get personalized recommendations."
	}

	writeJSON(w, http.StatusOK, resp)
}

// ClearRecommendationCache handles DELETE /api/v1/users/{userID}/recommendations/cache
func (h *Handler) ClearRecommendationCache(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	if _, err := h.store.GetUser(r.Context(), userID); err != nil {
		MapStoreError(w, r, err)
		return
	}

	h.engine.ClearCache(userID)
	w.WriteHeader(http.StatusNoContent)
}

// CreateReview handles POST /api/v1/users/{userID}/reviews
func (h *Handler) CreateReview(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var req types.NewReview
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}

	if errs := validation.ValidateReviewRequest(req); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return
	}

	review, err := h.store.CreateReview(r.Context(), userID, req)
	if err != nil {
		slog.Error("create review failed", "error", err, "user_id", userID, "book_id", req.BookID)
		MapStoreError(w, r, err)
		return
	}

	// The user's taste changed; cached recommendations are stale.
	h.engine.ClearCache(userID)

	writeJSON(w, http.StatusCreated, review)
}

// CreateFavorite handles POST /api/v1/users/{userID}/favorites
func (h *Handler) CreateFavorite(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var req types.NewFavorite
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}

	if errs := validation.ValidateFavoriteRequest(req); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return
	}

	favorite, err := h.store.CreateFavorite(r.Context(), userID, req.BookID)
	if err != nil {
		slog.Error("create favorite failed", "error", err, "user_id", userID, "book_id", req.BookID)
		MapStoreError(w, r, err)
		return
	}

	h.engine.ClearCache(userID)

	writeJSON(w, http.StatusCreated, favorite)
}

// CreateBook handles POST /api/v1/books
func (h *Handler) CreateBook(w http.ResponseWriter, r *http.Request) {
	var req types.NewBook
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}

	if errs := validation.ValidateBookRequest(req); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return
	}

	book, err := h.store.CreateBook(r.Context(), req)
	if err != nil {
		slog.Error("create book failed", "error", err, "title", req.Title)
		MapStoreError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, book)
}

// ListBooks handles GET /api/v1/books with optional ?q= search.
func (h *Handler) ListBooks(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	limit := defaultSearchLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			WriteProblem(w, r, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	var (
		books []types.Book
		err   error
	)
	switch {
	case query != "":
		books, err = h.store.SearchBooks(r.Context(), query, limit)
	case r.URL.Query().Get("genre") != "":
		books, err = h.store.ListByGenres(r.Context(), []string{r.URL.Query().Get("genre")}, nil, limit)
	default:
		books, err = h.store.ListBooks(r.Context())
	}
	if err != nil {
		slog.Error("list books failed", "error", err)
		MapStoreError(w, r, err)
		return
	}

	if books == nil {
		books = []types.Book{}
	}
	writeJSON(w, http.StatusOK, books)
}

// GetBook handles GET /api/v1/books/{bookID}
func (h *Handler) GetBook(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "bookID")

	book, err := h.store.GetBook(r.Context(), bookID)
	if err != nil {
		MapStoreError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, book)
}

// UploadCover handles PUT /api/v1/books/{bookID}/cover
func (h *Handler) UploadCover(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "bookID")

	if _, err := h.store.GetBook(r.Context(), bookID); err != nil {
		MapStoreError(w, r, err)
		return
	}

	body := http.MaxBytesReader(w, r.Body, maxCoverBytes)
	defer body.Close()

	contentType := r.Header.Get("Content-Type")
	if err := h.uploader.Upload(r.Context(), bookID, body, r.ContentLength, contentType); err != nil {
		slog.Error("cover upload failed", "error", err, "book_id", bookID)
		MapStoreError(w, r, err)
		return
	}

	if err := h.store.SetBookCover(r.Context(), bookID, "covers/"+bookID); err != nil {
		slog.Error("set cover key failed", "error", err, "book_id", bookID)
		MapStoreError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetCoverURL handles GET /api/v1/books/{bookID}/cover
func (h *Handler) GetCoverURL(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "bookID")

	book, err := h.store.GetBook(r.Context(), bookID)
	if err != nil {
		MapStoreError(w, r, err)
		return
	}
	if book.CoverKey == "" {
		WriteProblem(w, r, http.StatusNotFound, "Book has no cover image")
		return
	}

	url, expiry, err := h.uploader.PresignedURL(r.Context(), bookID)
	if err != nil {
		slog.Error("presign cover URL failed", "error", err, "book_id", bookID)
		MapStoreError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, types.CoverURLResponse{URL: url, ExpiresAt: expiry})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
