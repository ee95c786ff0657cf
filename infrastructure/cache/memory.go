// Package cache provides the in-process cache behind the query bus and the
// session lookup.
package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Memory is an expiring in-process cache
type Memory struct {
	items *gocache.Cache
}

// NewMemory creates a cache whose entries default to ttl and are swept every cleanup
func NewMemory(ttl, cleanup time.Duration) *Memory {
	return &Memory{items: gocache.New(ttl, cleanup)}
}

func (m *Memory) Get(key string) (any, bool) {
	return m.items.Get(key)
}

// Set stores value for ttl; a zero ttl uses the cache default
func (m *Memory) Set(key string, value any, ttl time.Duration) {
	if ttl == 0 {
		ttl = gocache.DefaultExpiration
	}
	m.items.Set(key, value, ttl)
}

func (m *Memory) Delete(key string) {
	m.items.Delete(key)
}

// Len returns the number of entries, including expired ones not yet swept
func (m *Memory) Len() int {
	return m.items.ItemCount()
}
