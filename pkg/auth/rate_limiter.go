package auth

import (
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// IPRateLimiter keeps one token bucket per client IP. Idle buckets expire.
type IPRateLimiter struct {
	limiters  *cache.Cache
	perMinute int
	limit     rate.Limit
	burst     int
}

// NewIPRateLimiter allows requestsPerMinute per IP with the given burst
func NewIPRateLimiter(requestsPerMinute, burst int) *IPRateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &IPRateLimiter{
		limiters:  cache.New(10*time.Minute, 5*time.Minute),
		perMinute: requestsPerMinute,
		limit:     rate.Limit(float64(requestsPerMinute) / 60),
		burst:     burst,
	}
}

// PerMinute returns the sustained request rate allowed per IP
func (l *IPRateLimiter) PerMinute() int {
	return l.perMinute
}

// Allow reports whether a request from ip may proceed now
func (l *IPRateLimiter) Allow(ip string) bool {
	return l.get(fmt.Sprintf("ip:%s", ip)).Allow()
}

func (l *IPRateLimiter) get(key string) *rate.Limiter {
	if v, ok := l.limiters.Get(key); ok {
		return v.(*rate.Limiter)
	}
	limiter := rate.NewLimiter(l.limit, l.burst)
	if err := l.limiters.Add(key, limiter, cache.DefaultExpiration); err != nil {
		// lost a race with another request for the same key
		if v, ok := l.limiters.Get(key); ok {
			return v.(*rate.Limiter)
		}
	}
	return limiter
}
