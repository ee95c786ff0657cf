package queries

import (
	"sync"

	"coursegraph/application/queries/bus"
)

// GraphCacheInvalidator drops cached snapshots after the user's documents
// change. It also versions each key so the caching middleware can discard a
// snapshot read before the change but stored after it.
type GraphCacheInvalidator struct {
	cache bus.Cache

	mu       sync.Mutex
	versions map[string]uint64
}

// NewGraphCacheInvalidator creates an invalidator over the query cache
func NewGraphCacheInvalidator(cache bus.Cache) *GraphCacheInvalidator {
	return &GraphCacheInvalidator{
		cache:    cache,
		versions: make(map[string]uint64),
	}
}

// InvalidateUser implements ports.GraphCache
func (i *GraphCacheInvalidator) InvalidateUser(userID string) {
	key := GraphCacheKey(userID)

	i.mu.Lock()
	i.versions[key]++
	i.mu.Unlock()

	i.cache.Delete(key)
}

// Version implements bus.KeyVersions
func (i *GraphCacheInvalidator) Version(key string) uint64 {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.versions[key]
}
