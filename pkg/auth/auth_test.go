package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursegraph/domain/identity"
)

func TestUserContext(t *testing.T) {
	_, err := GetUserFromContext(context.Background())
	assert.ErrorIs(t, err, ErrNoUser)

	ctx := SetUserInContext(context.Background(), &identity.User{UserID: "sub-1"})
	user, err := GetUserFromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, "sub-1", user.UserID)
}

func TestSetSessionCookies(t *testing.T) {
	rec := httptest.NewRecorder()

	SetSessionCookies(rec, identity.Tokens{IDToken: "id", AccessToken: "access", RefreshToken: "refresh"}, true)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 3)
	want := map[string]string{IDTokenCookie: "id", AccessTokenCookie: "access", RefreshTokenCookie: "refresh"}
	for _, c := range cookies {
		assert.Equal(t, want[c.Name], c.Value)
		assert.Equal(t, "/", c.Path)
		assert.Equal(t, 7*24*60*60, c.MaxAge)
		assert.True(t, c.HttpOnly)
		assert.True(t, c.Secure)
		assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	}
}

func TestClearSessionCookies(t *testing.T) {
	rec := httptest.NewRecorder()

	ClearSessionCookies(rec, false)

	headers := rec.Header().Values("Set-Cookie")
	require.Len(t, headers, 3)
	for _, h := range headers {
		assert.Contains(t, h, "Max-Age=0")
		assert.Contains(t, h, "HttpOnly")
		assert.Contains(t, h, "SameSite=Lax")
		assert.NotContains(t, h, "Secure")
	}
}

func TestAccessToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, AccessToken(req))

	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "tok"})
	assert.Equal(t, "tok", AccessToken(req))
}

func TestIPRateLimiter(t *testing.T) {
	l := NewIPRateLimiter(1, 2)

	assert.True(t, l.Allow("1.2.3.4"))
	assert.True(t, l.Allow("1.2.3.4"))
	assert.False(t, l.Allow("1.2.3.4"), "burst exhausted")
	assert.True(t, l.Allow("5.6.7.8"), "buckets are per IP")
}
