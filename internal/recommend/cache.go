package recommend

import (
	"sync"
	"time"

	"github.com/shelfwise/shelfwise/internal/types"
)

// Cache memoizes recommendation lists per user. Implementations must be
// safe for concurrent use; an alternative backing store (e.g. a distributed
// cache) can be substituted without touching the engine.
type Cache interface {
	Get(userID string) ([]types.Recommendation, bool)
	Put(userID string, recs []types.Recommendation)
	Invalidate(userID string)
	InvalidateAll()
}

// Compile-time interface check
var _ Cache = (*MemoryCache)(nil)

type cacheEntry struct {
	recommendations []types.Recommendation
	createdAt       time.Time
}

// MemoryCache is an in-memory, process-lifetime Cache with pure TTL expiry:
// entries are evicted lazily on read, with no sliding refresh and no
// background sweep. One entry per user; last write wins.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	ttl     time.Duration

	now func() time.Time // injectable for tests
}

// NewMemoryCache creates a cache with the given TTL.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the cached list if present and younger than the TTL.
// Stale entries are evicted and reported as absent.
func (c *MemoryCache) Get(userID string) ([]types.Recommendation, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[userID]
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.createdAt) >= c.ttl {
		delete(c.entries, userID)
		return nil, false
	}
	return entry.recommendations, true
}

// Put unconditionally overwrites the user's entry.
func (c *MemoryCache) Put(userID string, recs []types.Recommendation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[userID] = cacheEntry{
		recommendations: recs,
		createdAt:       c.now(),
	}
}

// Invalidate removes the user's entry. Called by the review/favorite write
// paths whenever a user's history changes.
func (c *MemoryCache) Invalidate(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, userID)
}

// InvalidateAll clears the cache.
func (c *MemoryCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}
