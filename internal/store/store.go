package store

import (
	"context"

	"github.com/shelfwise/shelfwise/internal/types"
)

// Store defines the persistence operations the service depends on.
// Consumers should declare narrower interfaces with just the methods they use.
type Store interface {
	// Users
	CreateUser(ctx context.Context, input types.NewUser) (*types.User, error)
	GetUser(ctx context.Context, id string) (*types.User, error)

	// Catalog
	CreateBook(ctx context.Context, input types.NewBook) (*types.Book, error)
	GetBook(ctx context.Context, id string) (*types.Book, error)
	ListBooks(ctx context.Context) ([]types.Book, error)
	SearchBooks(ctx context.Context, query string, limit int) ([]types.Book, error)
	SetBookCover(ctx context.Context, bookID, coverKey string) error
	CountBooks(ctx context.Context) (int64, error)

	// Reviews and favorites
	CreateReview(ctx context.Context, userID string, input types.NewReview) (*types.Review, error)
	ListUserReviews(ctx context.Context, userID string) ([]types.Review, error)
	CreateFavorite(ctx context.Context, userID, bookID string) (*types.Favorite, error)
	ListUserFavorites(ctx context.Context, userID string) ([]types.Favorite, error)

	// Recommendation queries
	ListByGenres(ctx context.Context, genres, excludeIDs []string, limit int) ([]types.Book, error)
	ListPopular(ctx context.Context, excludeIDs []string, limit int) ([]types.Book, error)

	Close() error
}
