package types

import (
	"encoding/json"
	"time"
)

// User represents a registered reader.
type User struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}

// Book is a catalog entry. The recommendation engine treats it as read-only;
// AverageRating and ReviewCount are maintained by the review write path.
type Book struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Author        string    `json:"author"`
	Description   string    `json:"description,omitempty"`
	CoverKey      string    `json:"cover_key,omitempty"`
	Genres        []string  `json:"genres"`
	PublishedYear int       `json:"published_year,omitempty"`
	AverageRating float64   `json:"average_rating"`
	ReviewCount   int       `json:"review_count"`
	CreatedAt     time.Time `json:"created_at"`
}

// Review is a user's rating of a book with optional free text.
// Book is populated on reads that join the catalog (profile building).
type Review struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	BookID    string    `json:"book_id"`
	Rating    int       `json:"rating"`
	Content   string    `json:"content,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Book      *Book     `json:"book,omitempty"`
}

// Favorite marks a book the user saved without rating it.
type Favorite struct {
	UserID    string    `json:"user_id"`
	BookID    string    `json:"book_id"`
	CreatedAt time.Time `json:"created_at"`
	Book      *Book     `json:"book,omitempty"`
}

// Recommendation pairs a catalog book with the reason it was suggested.
// Confidence is a quality signal in [0,1], not a probability.
type Recommendation struct {
	Book       Book    `json:"book"`
	Reason     string  `json:"reason"`
	Confidence float64 `json:"confidence"`
}

// NewBook is the input type for creating catalog entries.
type NewBook struct {
	Title         string   `json:"title"`
	Author        string   `json:"author"`
	Description   string   `json:"description"`
	Genres        []string `json:"genres"`
	PublishedYear int      `json:"published_year"`
}

// NewReview is the input type for submitting a review.
type NewReview struct {
	BookID  string `json:"book_id"`
	Rating  int    `json:"rating"`
	Content string `json:"content"`
}

// NewFavorite is the input type for saving a favorite.
type NewFavorite struct {
	BookID string `json:"book_id"`
}

// NewUser is the input type for registering a user.
type NewUser struct {
	DisplayName string `json:"display_name"`
}

// RecommendationsResponse is the payload for the recommendations endpoint.
// Message carries guidance when the list is empty.
type RecommendationsResponse struct {
	Recommendations []Recommendation `json:"recommendations"`
	Message         string           `json:"message,omitempty"`
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status          string `json:"status"`
	Version         string `json:"version"`
	CompletionModel string `json:"completion_model"`
	BookCount       int64  `json:"book_count"`
}

// CoverURLResponse carries a pre-signed cover download URL.
type CoverURLResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// MarshalJSON ensures nil Genres marshals as [] not null.
func (b Book) MarshalJSON() ([]byte, error) {
	if b.Genres == nil {
		b.Genres = []string{}
	}
	type Alias Book
	return json.Marshal(Alias(b))
}

// MarshalJSON ensures nil slices in RecommendationsResponse marshal as [] not null.
func (r RecommendationsResponse) MarshalJSON() ([]byte, error) {
	if r.Recommendations == nil {
		r.Recommendations = []Recommendation{}
	}
	type Alias RecommendationsResponse
	return json.Marshal(Alias(r))
}
