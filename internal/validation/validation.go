package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shelfwise/shelfwise/internal/types"
)

// ValidationError represents a single field validation failure.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Collector accumulates validation errors without failing on first.
type Collector struct {
	errors []ValidationError
}

// Add appends a validation error to the collector if non-nil.
func (c *Collector) Add(err *ValidationError) {
	if err != nil {
		c.errors = append(c.errors, *err)
	}
}

// HasErrors returns true if the collector has accumulated any errors.
func (c *Collector) HasErrors() bool {
	return len(c.errors) > 0
}

// Errors returns all accumulated validation errors.
func (c *Collector) Errors() []ValidationError {
	return c.errors
}

// ValidateRequired returns an error if the value is empty or whitespace-only.
func ValidateRequired(field, value string) *ValidationError {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{
			Field:   field,
			Message: "is required",
		}
	}
	return nil
}

// ValidateUTF8 returns an error if the value is not valid UTF-8.
func ValidateUTF8(field, value string) *ValidationError {
	if !utf8.ValidString(value) {
		return &ValidationError{
			Field:   field,
			Message: "must be valid UTF-8",
		}
	}
	return nil
}

// ValidateMaxLength returns an error if the value exceeds max runes.
func ValidateMaxLength(field, value string, max int) *ValidationError {
	if utf8.RuneCountInString(value) > max {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("exceeds maximum length of %d characters", max),
		}
	}
	return nil
}

// ValidateULID returns an error if the value is not a valid ULID format.
// ULIDs are 26 characters using Crockford Base32 (excludes I, L, O, U).
func ValidateULID(field, value string) *ValidationError {
	if len(value) != 26 {
		return &ValidationError{
			Field:   field,
			Message: "must be a valid ULID (26 characters)",
		}
	}

	const crockfordBase32 = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"
	for _, r := range value {
		upper := strings.ToUpper(string(r))
		if !strings.Contains(crockfordBase32, upper) {
			return &ValidationError{
				Field:   field,
				Message: "must be a valid ULID (invalid character)",
			}
		}
	}
	return nil
}

// ValidateIntRange returns an error if the value is outside [min, max].
func ValidateIntRange(field string, value, min, max int) *ValidationError {
	if value < min || value > max {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("must be between %d and %d", min, max),
		}
	}
	return nil
}

// Field limits for request payloads.
const (
	maxTitleLength       = 500
	maxAuthorLength      = 200
	maxGenreLength       = 50
	maxGenres            = 10
	maxDescriptionLength = 5000
	maxReviewLength      = 10000
	maxDisplayNameLength = 100
	minPublishedYear     = 1000
	maxPublishedYear     = 2100
)

// ValidateUserRequest validates a user registration payload.
func ValidateUserRequest(req types.NewUser) []ValidationError {
	var c Collector
	c.Add(ValidateRequired("display_name", req.DisplayName))
	c.Add(ValidateUTF8("display_name", req.DisplayName))
	c.Add(ValidateMaxLength("display_name", req.DisplayName, maxDisplayNameLength))
	return c.Errors()
}

// ValidateBookRequest validates a catalog entry payload.
func ValidateBookRequest(req types.NewBook) []ValidationError {
	var c Collector
	c.Add(ValidateRequired("title", req.Title))
	c.Add(ValidateUTF8("title", req.Title))
	c.Add(ValidateMaxLength("title", req.Title, maxTitleLength))
	c.Add(ValidateRequired("author", req.Author))
	c.Add(ValidateUTF8("author", req.Author))
	c.Add(ValidateMaxLength("author", req.Author, maxAuthorLength))
	c.Add(ValidateMaxLength("description", req.Description, maxDescriptionLength))

	if len(req.Genres) > maxGenres {
		c.Add(&ValidationError{
			Field:   "genres",
			Message: fmt.Sprintf("exceeds maximum of %d genres", maxGenres),
		})
	}
	for i, g := range req.Genres {
		field := fmt.Sprintf("genres[%d]", i)
		c.Add(ValidateRequired(field, g))
		c.Add(ValidateMaxLength(field, g, maxGenreLength))
	}

	if req.PublishedYear != 0 {
		c.Add(ValidateIntRange("published_year", req.PublishedYear, minPublishedYear, maxPublishedYear))
	}
	return c.Errors()
}

// ValidateReviewRequest validates a review submission payload.
func ValidateReviewRequest(req types.NewReview) []ValidationError {
	var c Collector
	c.Add(ValidateRequired("book_id", req.BookID))
	if req.BookID != "" {
		c.Add(ValidateULID("book_id", req.BookID))
	}
	c.Add(ValidateIntRange("rating", req.Rating, 1, 5))
	c.Add(ValidateUTF8("content", req.Content))
	c.Add(ValidateMaxLength("content", req.Content, maxReviewLength))
	return c.Errors()
}

// ValidateFavoriteRequest validates a favorite payload.
func ValidateFavoriteRequest(req types.NewFavorite) []ValidationError {
	var c Collector
	c.Add(ValidateRequired("book_id", req.BookID))
	if req.BookID != "" {
		c.Add(ValidateULID("book_id", req.BookID))
	}
	return c.Errors()
}
