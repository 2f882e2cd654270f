package recommend

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shelfwise/shelfwise/internal/types"
)

// ErrMalformedResponse indicates the completion response did not contain a
// parseable suggestion array. This signals a broken contract with the
// provider and is never swallowed at parse time.
var ErrMalformedResponse = errors.New("malformed suggestion payload")

// defaultConfidence is assigned when a suggestion omits confidence or
// provides a non-numeric value.
const defaultConfidence = 0.8

// Suggestion is a single free-text book suggestion from the completion
// service, before resolution against the catalog.
type Suggestion struct {
	Title      string
	Author     string
	Reason     string
	Confidence float64
}

type rawSuggestion struct {
	Title      string `json:"title"`
	Author     string `json:"author"`
	Reason     string `json:"reason"`
	Confidence any    `json:"confidence"`
}

// ParseSuggestions extracts the JSON array from the completion response.
// The model often wraps the array in prose or markdown fences, so parsing
// starts at the first '[' and ends at the last ']'.
func ParseSuggestions(raw string) ([]Suggestion, error) {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start == -1 || end <= start {
		return nil, fmt.Errorf("%w: no JSON array in response", ErrMalformedResponse)
	}

	var items []rawSuggestion
	if err := json.Unmarshal([]byte(raw[start:end+1]), &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	suggestions := make([]Suggestion, 0, len(items))
	for _, item := range items {
		suggestions = append(suggestions, Suggestion{
			Title:      item.Title,
			Author:     item.Author,
			Reason:     item.Reason,
			Confidence: normalizeConfidence(item.Confidence),
		})
	}
	return suggestions, nil
}

// normalizeConfidence coerces the raw confidence value to [0,1], falling
// back to defaultConfidence when absent or non-numeric.
func normalizeConfidence(v any) float64 {
	f, ok := v.(float64)
	if !ok {
		return defaultConfidence
	}
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// ResolveSuggestions matches suggestions against a catalog snapshot,
// rejecting books in the exclusion set and dropping unmatched suggestions
// silently (the model may hallucinate titles absent from the catalog).
// Output preserves model order and is capped at limit.
func ResolveSuggestions(suggestions []Suggestion, catalog []types.Book, exclude map[string]struct{}, limit int) []types.Recommendation {
	var recs []types.Recommendation
	seen := make(map[string]struct{})

	for _, s := range suggestions {
		if len(recs) >= limit {
			break
		}

		book := matchSuggestion(s, catalog)
		if book == nil {
			continue
		}
		if _, excluded := exclude[book.ID]; excluded {
			continue
		}
		if _, dup := seen[book.ID]; dup {
			continue
		}
		seen[book.ID] = struct{}{}

		reason := s.Reason
		if reason == "" {
			reason = "Suggested based on your reading history"
		}
		recs = append(recs, types.Recommendation{
			Book:       *book,
			Reason:     reason,
			Confidence: s.Confidence,
		})
	}

	return recs
}

// matchSuggestion finds a catalog entry for a suggestion: first an exact
// case-insensitive substring match of the suggested title against catalog
// titles, then a looser match requiring the title's first token in the
// catalog title and the suggested author in the catalog author field.
func matchSuggestion(s Suggestion, catalog []types.Book) *types.Book {
	title := strings.ToLower(strings.TrimSpace(s.Title))
	if title == "" {
		return nil
	}

	for i := range catalog {
		if strings.Contains(strings.ToLower(catalog[i].Title), title) {
			return &catalog[i]
		}
	}

	fields := strings.Fields(title)
	author := strings.ToLower(strings.TrimSpace(s.Author))
	if len(fields) == 0 || author == "" {
		return nil
	}
	firstToken := fields[0]

	for i := range catalog {
		if strings.Contains(strings.ToLower(catalog[i].Title), firstToken) &&
			strings.Contains(strings.ToLower(catalog[i].Author), author) {
			return &catalog[i]
		}
	}

	return nil
}
