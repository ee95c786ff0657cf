package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"time"

	"go.uber.org/zap"

	"coursegraph/domain/identity"
	"coursegraph/pkg/auth"
	pkgerrors "coursegraph/pkg/errors"
)

// UserResolver resolves the profile behind an access token
type UserResolver interface {
	CurrentUser(ctx context.Context, accessToken string) (*identity.User, error)
}

// UserCache remembers resolved users for a short time
type UserCache interface {
	Get(key string) (any, bool)
	Set(key string, value any, ttl time.Duration)
	Delete(key string)
}

// DefaultSessionTTL is how long a resolved access token is trusted without
// asking the identity provider again
const DefaultSessionTTL = time.Minute

// RequireSession resolves the access-token cookie to a user and puts it in
// the request context. Requests without a valid session get a 401.
func RequireSession(resolver UserResolver, cache UserCache, ttl time.Duration, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := auth.AccessToken(r)
			if token == "" {
				respondWithError(w, http.StatusUnauthorized, "Not authenticated")
				return
			}

			key := sessionKey(token)
			var user *identity.User
			if cache != nil {
				if v, ok := cache.Get(key); ok {
					user, _ = v.(*identity.User)
				}
			}

			if user == nil {
				resolved, err := resolver.CurrentUser(r.Context(), token)
				if err != nil {
					if pkgerrors.IsUnauthorized(err) {
						logger.Debug("Session rejected", zap.String("path", r.URL.Path), zap.Error(err))
					} else {
						logger.Warn("Session lookup failed", zap.String("path", r.URL.Path), zap.Error(err))
					}
					respondWithError(w, pkgerrors.StatusOf(err), pkgerrors.MessageOf(err, "Not authenticated"))
					return
				}
				user = resolved
				if cache != nil {
					cache.Set(key, user, ttl)
				}
			}

			next.ServeHTTP(w, r.WithContext(auth.SetUserInContext(r.Context(), user)))
		})
	}
}

// EndSession forgets the cached user of the request's access token before
// next runs, so a signed-out token is resolved upstream again.
func EndSession(cache UserCache) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := auth.AccessToken(r); token != "" && cache != nil {
				cache.Delete(sessionKey(token))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// sessionKey keeps raw tokens out of the cache
func sessionKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "session:" + hex.EncodeToString(sum[:])
}
