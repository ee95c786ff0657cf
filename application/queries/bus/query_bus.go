package bus

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"time"
)

// Query represents a read-only query
type Query interface {
	Validate() error
}

// QueryHandler handles a specific query type
type QueryHandler interface {
	Handle(ctx context.Context, query Query) (any, error)
}

// QueryHandlerFunc is an adapter to allow functions to be used as handlers
type QueryHandlerFunc func(ctx context.Context, query Query) (any, error)

// Handle implements QueryHandler
func (f QueryHandlerFunc) Handle(ctx context.Context, query Query) (any, error) {
	return f(ctx, query)
}

// Middleware decorates a handler
type Middleware interface {
	Wrap(next QueryHandler) QueryHandler
}

// QueryBus dispatches queries to their handlers
type QueryBus struct {
	handlers   map[reflect.Type]QueryHandler
	middleware []Middleware
	mu         sync.RWMutex
}

// NewQueryBus creates a query bus. Middleware is applied to every handler
// registered afterwards, the first one outermost.
func NewQueryBus(middleware ...Middleware) *QueryBus {
	return &QueryBus{
		handlers:   make(map[reflect.Type]QueryHandler),
		middleware: middleware,
	}
}

// Register registers a handler for a query type
func (b *QueryBus) Register(queryType Query, handler QueryHandler) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	t := reflect.TypeOf(queryType)
	if _, exists := b.handlers[t]; exists {
		return fmt.Errorf("handler already registered for query type %s", t.Name())
	}

	for i := len(b.middleware) - 1; i >= 0; i-- {
		handler = b.middleware[i].Wrap(handler)
	}
	b.handlers[t] = handler
	return nil
}

// Ask dispatches a query to its handler and returns the result
func (b *QueryBus) Ask(ctx context.Context, query Query) (any, error) {
	if err := query.Validate(); err != nil {
		return nil, fmt.Errorf("query validation failed: %w", err)
	}

	b.mu.RLock()
	handler, exists := b.handlers[reflect.TypeOf(query)]
	b.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("no handler registered for query type %T", query)
	}

	result, err := handler.Handle(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query handler failed: %w", err)
	}
	return result, nil
}

// Cache stores query results
type Cache interface {
	Get(key string) (any, bool)
	Set(key string, value any, ttl time.Duration)
	Delete(key string)
}

// CacheKeyer is implemented by queries whose results may be cached
type CacheKeyer interface {
	CacheKey() string
}

// Cacheable lets a result opt out of caching
type Cacheable interface {
	Cacheable() bool
}

// CacheMetrics records cache effectiveness
type CacheMetrics interface {
	RecordCacheHit()
	RecordCacheMiss()
}

// KeyVersions counts invalidations per cache key. A key's version changes
// before its entry is deleted.
type KeyVersions interface {
	Version(key string) uint64
}

// CachingMiddleware caches results of queries implementing CacheKeyer
type CachingMiddleware struct {
	cache    Cache
	ttl      time.Duration
	versions KeyVersions
	metrics  CacheMetrics
}

// NewCachingMiddleware creates a new caching middleware. When versions is
// set, a result computed across an invalidation of its key is not kept.
func NewCachingMiddleware(cache Cache, ttl time.Duration, versions KeyVersions, metrics CacheMetrics) *CachingMiddleware {
	return &CachingMiddleware{cache: cache, ttl: ttl, versions: versions, metrics: metrics}
}

// Wrap wraps a query handler with caching
func (m *CachingMiddleware) Wrap(next QueryHandler) QueryHandler {
	return QueryHandlerFunc(func(ctx context.Context, query Query) (any, error) {
		keyer, ok := query.(CacheKeyer)
		if !ok || m.ttl <= 0 {
			return next.Handle(ctx, query)
		}
		key := keyer.CacheKey()

		if cached, found := m.cache.Get(key); found {
			if m.metrics != nil {
				m.metrics.RecordCacheHit()
			}
			return cached, nil
		}
		if m.metrics != nil {
			m.metrics.RecordCacheMiss()
		}

		version := m.version(key)
		result, err := next.Handle(ctx, query)
		if err != nil {
			return nil, err
		}

		if c, ok := result.(Cacheable); !ok || c.Cacheable() {
			m.cache.Set(key, result, m.ttl)
			// an invalidation that landed after the read may have deleted
			// before this Set
			if m.version(key) != version {
				m.cache.Delete(key)
			}
		}
		return result, nil
	})
}

func (m *CachingMiddleware) version(key string) uint64 {
	if m.versions == nil {
		return 0
	}
	return m.versions.Version(key)
}

// Metrics records handler latency and failures
type Metrics interface {
	RecordQuery(query string, d time.Duration, err error)
}

// MetricsMiddleware adds metrics to query handlers
type MetricsMiddleware struct {
	metrics Metrics
}

// NewMetricsMiddleware creates a new metrics middleware
func NewMetricsMiddleware(metrics Metrics) *MetricsMiddleware {
	return &MetricsMiddleware{metrics: metrics}
}

// Wrap wraps a query handler with metrics
func (m *MetricsMiddleware) Wrap(next QueryHandler) QueryHandler {
	return QueryHandlerFunc(func(ctx context.Context, query Query) (any, error) {
		start := time.Now()
		result, err := next.Handle(ctx, query)
		m.metrics.RecordQuery(reflect.TypeOf(query).Name(), time.Since(start), err)
		return result, err
	})
}
