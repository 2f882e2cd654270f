package recommend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shelfwise/shelfwise/internal/store"
	"github.com/shelfwise/shelfwise/internal/types"
)

// Store combines the store operations the engine depends on.
type Store interface {
	HistoryStore
	CatalogStore
	ListBooks(ctx context.Context) ([]types.Book, error)
}

// Completer is the slice of the completion client the engine uses.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Config tunes the engine's decision policy.
type Config struct {
	// MaxResults caps every recommendation list.
	MaxResults int
	// MinAIResults is the threshold below which genre-fallback results are
	// appended to the resolved suggestions.
	MinAIResults int
	// PipelineTimeout bounds the completion path (prompt, throttled and
	// retried external calls, resolution). Expiry is treated as a
	// completion failure and falls back.
	PipelineTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxResults < 1 {
		c.MaxResults = 5
	}
	if c.MinAIResults < 1 {
		c.MinAIResults = 3
	}
	if c.PipelineTimeout <= 0 {
		c.PipelineTimeout = 90 * time.Second
	}
	return c
}

// Engine orchestrates the recommendation pipeline: cache check, profile
// build, completion request, suggestion resolution, fallbacks, cache write.
// No internal failure reaches the caller except an unresolvable user id.
type Engine struct {
	store     Store
	completer Completer
	cache     Cache
	fallback  *Fallback
	cfg       Config
}

// NewEngine creates the recommendation engine.
func NewEngine(s Store, completer Completer, cache Cache, cfg Config) *Engine {
	cfg = cfg.withDefaults()
	return &Engine{
		store:     s,
		completer: completer,
		cache:     cache,
		fallback:  NewFallback(s, cfg.MaxResults),
		cfg:       cfg,
	}
}

// Recommend returns up to MaxResults recommendations for the user.
// Returns store.ErrUserNotFound when the identity does not resolve; every
// other failure degrades to a fallback strategy and still answers.
func (e *Engine) Recommend(ctx context.Context, userID string) ([]types.Recommendation, error) {
	if recs, ok := e.cache.Get(userID); ok {
		return recs, nil
	}

	profile, err := BuildProfile(ctx, e.store, userID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, err
		}
		slog.Warn("profile build failed, using popularity fallback",
			"user_id", userID,
			"error", err,
			"component", "recommend",
		)
		return e.finish(ctx, userID, e.fallback.Popular(ctx, nil)), nil
	}

	if !profile.HasHistory() {
		return e.finish(ctx, userID, e.fallback.Popular(ctx, nil)), nil
	}

	exclude := profile.ExcludedIDs()

	recs, err := e.fromCompletion(ctx, profile, exclude)
	if err != nil {
		slog.Warn("completion path failed, using genre fallback",
			"user_id", userID,
			"error", err,
			"component", "recommend",
		)
		return e.finish(ctx, userID, e.fallback.ByGenres(ctx, profile.FavoriteGenres, exclude)), nil
	}

	if len(recs) < e.cfg.MinAIResults {
		extra := e.fallback.ByGenres(ctx, profile.FavoriteGenres, exclude)
		recs = mergeRecommendations(recs, extra, e.cfg.MaxResults)
	}
	if len(recs) > e.cfg.MaxResults {
		recs = recs[:e.cfg.MaxResults]
	}

	return e.finish(ctx, userID, recs), nil
}

// ClearCache evicts the user's cached recommendations so the next request
// recomputes from scratch.
func (e *Engine) ClearCache(userID string) {
	e.cache.Invalidate(userID)
}

// finish writes the list through the cache before returning it. Every
// terminal success path passes here, fallbacks included. A dead request
// context skips the write: the fallback queries fail closed on
// cancellation, and caching that empty list would pin a degraded answer
// for the full TTL after the caller has already gone away.
func (e *Engine) finish(ctx context.Context, userID string, recs []types.Recommendation) []types.Recommendation {
	if recs == nil {
		recs = []types.Recommendation{}
	}
	if ctx.Err() == nil {
		e.cache.Put(userID, recs)
	}
	return recs
}

// fromCompletion runs the primary strategy under the pipeline deadline:
// compose the prompt, call the completion service, parse, and resolve
// against a catalog snapshot.
func (e *Engine) fromCompletion(ctx context.Context, profile *Profile, exclude map[string]struct{}) ([]types.Recommendation, error) {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.PipelineTimeout)
	defer cancel()

	system, user := buildPrompt(profile, e.cfg.MaxResults)

	raw, err := e.completer.Complete(ctx, system, user)
	if err != nil {
		return nil, err
	}

	suggestions, err := ParseSuggestions(raw)
	if err != nil {
		return nil, err
	}

	catalog, err := e.store.ListBooks(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog snapshot: %w", err)
	}

	return ResolveSuggestions(suggestions, catalog, exclude, e.cfg.MaxResults), nil
}
