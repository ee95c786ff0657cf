package queries

import (
	"errors"

	"coursegraph/domain/graph"
)

// GetGraphDataQuery asks for the user's document graph
type GetGraphDataQuery struct {
	UserID string `json:"user_id"`
}

// Validate validates the query
func (q GetGraphDataQuery) Validate() error {
	if q.UserID == "" {
		return errors.New("userID is required")
	}
	return nil
}

// CacheKey keys the result per user
func (q GetGraphDataQuery) CacheKey() string {
	return GraphCacheKey(q.UserID)
}

// GraphCacheKey is the cache key of a user's snapshot
func GraphCacheKey(userID string) string {
	return "graph:" + userID
}

// GetGraphDataResult is the assembled snapshot. Placeholder is set when the
// document store could not be read and the fixed sample graph was served.
type GetGraphDataResult struct {
	Snapshot    graph.Snapshot
	Placeholder bool
}

// Cacheable keeps placeholder results out of the cache
func (r *GetGraphDataResult) Cacheable() bool {
	return !r.Placeholder
}
