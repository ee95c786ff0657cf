package middleware

import (
	"net"
	"net/http"

	"go.uber.org/zap"

	"coursegraph/pkg/auth"
	pkgerrors "coursegraph/pkg/errors"
)

// RateLimit rejects requests from client IPs that exceed limiter
func RateLimit(limiter *auth.IPRateLimiter, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			if !limiter.Allow(ip) {
				logger.Warn("Rate limit exceeded", zap.String("ip", ip), zap.String("path", r.URL.Path))
				err := pkgerrors.NewRateLimitError(limiter.PerMinute(), "minute")
				respondWithError(w, err.HTTPStatus, err.Message)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP expects chi's RealIP middleware to have normalized RemoteAddr
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
