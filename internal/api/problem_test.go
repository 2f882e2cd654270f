package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shelfwise/shelfwise/internal/covers"
	"github.com/shelfwise/shelfwise/internal/store"
	"github.com/shelfwise/shelfwise/internal/validation"
)

func TestWriteProblem_KnownStatus(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/books/nope", nil)
	w := httptest.NewRecorder()

	WriteProblem(w, req, http.StatusNotFound, "Book not found")

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Errorf("Content-Type = %q, want problem+json", ct)
	}

	var p Problem
	if err := json.NewDecoder(w.Body).Decode(&p); err != nil {
		t.Fatalf("decode problem: %v", err)
	}
	if p.Title != "Not Found" {
		t.Errorf("title = %q, want Not Found", p.Title)
	}
	if p.Detail != "Book not found" {
		t.Errorf("detail = %q", p.Detail)
	}
	if p.Instance != "/api/v1/books/nope" {
		t.Errorf("instance = %q", p.Instance)
	}
}

func TestWriteProblem_UnknownStatusFallsBack(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	WriteProblem(w, req, http.StatusTeapot, "odd")

	var p Problem
	if err := json.NewDecoder(w.Body).Decode(&p); err != nil {
		t.Fatalf("decode problem: %v", err)
	}
	if p.Type != "https://shelfwise.dev/errors/unknown" {
		t.Errorf("type = %q, want unknown fallback", p.Type)
	}
	if p.Title != http.StatusText(http.StatusTeapot) {
		t.Errorf("title = %q", p.Title)
	}
}

func TestWriteProblemWithErrors(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/books", nil)
	w := httptest.NewRecorder()

	errs := []validation.ValidationError{
		{Field: "title", Message: "is required"},
		{Field: "rating", Message: "must be between 1 and 5"},
	}
	WriteProblemWithErrors(w, req, "Request contains invalid fields", errs)

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", w.Code)
	}

	var p ProblemWithErrors
	if err := json.NewDecoder(w.Body).Decode(&p); err != nil {
		t.Fatalf("decode problem: %v", err)
	}
	if len(p.Errors) != 2 {
		t.Errorf("expected 2 field errors, got %d", len(p.Errors))
	}
}

func TestMapStoreError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"user not found", store.ErrUserNotFound, http.StatusNotFound},
		{"book not found", store.ErrBookNotFound, http.StatusNotFound},
		{"duplicate review", store.ErrDuplicateReview, http.StatusConflict},
		{"covers not configured", covers.ErrNotConfigured, http.StatusServiceUnavailable},
		{"unknown error", errors.New("disk full"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			w := httptest.NewRecorder()

			MapStoreError(w, req, tt.err)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestMapStoreError_NeverLeaksInternalDetail(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	MapStoreError(w, req, errors.New("sqlite: table reviews is locked at /var/data/shelfwise.db"))

	var p Problem
	if err := json.NewDecoder(w.Body).Decode(&p); err != nil {
		t.Fatalf("decode problem: %v", err)
	}
	if p.Detail != "Internal Server Error" {
		t.Errorf("internal detail leaked to client: %q", p.Detail)
	}
}
