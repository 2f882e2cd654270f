package recommend

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/shelfwise/shelfwise/internal/types"
)

const (
	genreConfidence   = 0.7
	popularConfidence = 0.6
)

// CatalogStore defines the catalog queries the fallback strategies need.
type CatalogStore interface {
	ListByGenres(ctx context.Context, genres, excludeIDs []string, limit int) ([]types.Book, error)
	ListPopular(ctx context.Context, excludeIDs []string, limit int) ([]types.Book, error)
}

// Fallback produces recommendations without the completion service.
// Both strategies fail closed: a catalog query error yields an empty list,
// never an error, so the engine can always answer.
type Fallback struct {
	catalog CatalogStore
	limit   int
}

// NewFallback creates the fallback strategies over the given catalog.
func NewFallback(catalog CatalogStore, limit int) *Fallback {
	return &Fallback{catalog: catalog, limit: limit}
}

// ByGenres recommends highly rated books whose genres intersect the user's
// favorite genres, excluding already-rated/favorited ids at query time.
func (f *Fallback) ByGenres(ctx context.Context, genres []string, exclude map[string]struct{}) []types.Recommendation {
	if len(genres) == 0 {
		return nil
	}

	books, err := f.catalog.ListByGenres(ctx, genres, excludeList(exclude), f.limit)
	if err != nil {
		slog.Warn("genre fallback query failed",
			"error", err,
			"genres", genres,
			"component", "recommend",
		)
		return nil
	}

	recs := make([]types.Recommendation, 0, len(books))
	for _, book := range books {
		recs = append(recs, types.Recommendation{
			Book:       book,
			Reason:     genreReason(book, genres),
			Confidence: genreConfidence,
		})
	}
	return recs
}

// Popular recommends the highest-rated reviewed books. Last resort, used
// when the user has no history or every other strategy failed.
func (f *Fallback) Popular(ctx context.Context, exclude map[string]struct{}) []types.Recommendation {
	books, err := f.catalog.ListPopular(ctx, excludeList(exclude), f.limit)
	if err != nil {
		slog.Warn("popularity fallback query failed",
			"error", err,
			"component", "recommend",
		)
		return nil
	}

	recs := make([]types.Recommendation, 0, len(books))
	for _, book := range books {
		recs = append(recs, types.Recommendation{
			Book:       book,
			Reason:     fmt.Sprintf("Popular with other readers (%d reviews, %.1f average rating)", book.ReviewCount, book.AverageRating),
			Confidence: popularConfidence,
		})
	}
	return recs
}

// genreReason names the genres the book shares with the user's favorites.
func genreReason(book types.Book, genres []string) string {
	var matched []string
	for _, g := range book.Genres {
		for _, want := range genres {
			if strings.EqualFold(g, want) {
				matched = append(matched, g)
				break
			}
		}
	}
	if len(matched) == 0 {
		return "Highly rated in genres you enjoy"
	}
	return fmt.Sprintf("Highly rated in %s, genres you enjoy", strings.Join(matched, ", "))
}

// excludeList converts the exclusion set to a sorted slice for SQL binding.
func excludeList(exclude map[string]struct{}) []string {
	if len(exclude) == 0 {
		return nil
	}
	ids := make([]string, 0, len(exclude))
	for id := range exclude {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
