// Package recommend builds personalized book recommendations from a user's
// review and favorite history, backed by an external completion service with
// catalog-based fallbacks. Failures degrade to weaker strategies; the only
// error surfaced to callers is an unresolvable user identity.
package recommend

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/shelfwise/shelfwise/internal/types"
)

// favoriteWeight is the implicit rating applied per favorited book when
// accumulating genre preference ("would rate highly").
const favoriteWeight = 4.5

// maxFavoriteGenres caps the derived genre preference list.
const maxFavoriteGenres = 5

// HistoryStore defines the store operations needed to build a profile.
type HistoryStore interface {
	GetUser(ctx context.Context, id string) (*types.User, error)
	ListUserReviews(ctx context.Context, userID string) ([]types.Review, error)
	ListUserFavorites(ctx context.Context, userID string) ([]types.Favorite, error)
}

// Profile is the derived summary of a user's taste, computed fresh per
// request and never persisted.
type Profile struct {
	User           types.User
	Reviews        []types.Review   // most recent first
	Favorites      []types.Favorite // most recent first
	FavoriteGenres []string         // top genres by accumulated weight
	AverageRating  float64          // 0 when the user has no reviews
}

// HasHistory reports whether the user has any reviews or favorites.
// Users without history skip the completion service entirely.
func (p *Profile) HasHistory() bool {
	return len(p.Reviews) > 0 || len(p.Favorites) > 0
}

// ExcludedIDs returns the set of book ids the user has already reviewed or
// favorited. Recommendations must never reference these.
func (p *Profile) ExcludedIDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(p.Reviews)+len(p.Favorites))
	for _, r := range p.Reviews {
		ids[r.BookID] = struct{}{}
	}
	for _, f := range p.Favorites {
		ids[f.BookID] = struct{}{}
	}
	return ids
}

// BuildProfile fetches the user's reviews and favorites and derives the
// genre preference vector and average rating. Returns the store's
// user-not-found error unchanged when the identity does not resolve.
func BuildProfile(ctx context.Context, store HistoryStore, userID string) (*Profile, error) {
	user, err := store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	// The two reads are independent; fetch them concurrently.
	var (
		wg        sync.WaitGroup
		reviews   []types.Review
		favorites []types.Favorite
		rErr      error
		fErr      error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		reviews, rErr = store.ListUserReviews(ctx, userID)
	}()
	go func() {
		defer wg.Done()
		favorites, fErr = store.ListUserFavorites(ctx, userID)
	}()
	wg.Wait()

	if rErr != nil {
		return nil, fmt.Errorf("load reviews: %w", rErr)
	}
	if fErr != nil {
		return nil, fmt.Errorf("load favorites: %w", fErr)
	}

	return &Profile{
		User:           *user,
		Reviews:        reviews,
		Favorites:      favorites,
		FavoriteGenres: rankGenres(reviews, favorites),
		AverageRating:  averageRating(reviews),
	}, nil
}

// rankGenres accumulates genre weight (review rating per reviewed book,
// favoriteWeight per favorited book) and returns the top genres by weight
// descending. Ties keep first-seen order from the accumulation pass.
func rankGenres(reviews []types.Review, favorites []types.Favorite) []string {
	weights := make(map[string]float64)
	var order []string

	add := func(genre string, weight float64) {
		if _, seen := weights[genre]; !seen {
			order = append(order, genre)
		}
		weights[genre] += weight
	}

	for _, r := range reviews {
		if r.Book == nil {
			continue
		}
		for _, g := range r.Book.Genres {
			add(g, float64(r.Rating))
		}
	}
	for _, f := range favorites {
		if f.Book == nil {
			continue
		}
		for _, g := range f.Book.Genres {
			add(g, favoriteWeight)
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return weights[order[i]] > weights[order[j]]
	})

	if len(order) > maxFavoriteGenres {
		order = order[:maxFavoriteGenres]
	}
	return order
}

// averageRating returns the arithmetic mean of review ratings, 0 when empty.
func averageRating(reviews []types.Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	var sum int
	for _, r := range reviews {
		sum += r.Rating
	}
	return float64(sum) / float64(len(reviews))
}
