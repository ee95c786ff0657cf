package auth

import (
	"net/http"
	"time"

	"coursegraph/domain/identity"
)

// Session cookie names
const (
	IDTokenCookie      = "idToken"
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)

// SessionMaxAge is the lifetime of every session cookie
const SessionMaxAge = 7 * 24 * time.Hour

var sessionCookies = []string{IDTokenCookie, AccessTokenCookie, RefreshTokenCookie}

// SetSessionCookies stores the three session tokens as HTTP-only cookies
func SetSessionCookies(w http.ResponseWriter, tokens identity.Tokens, secure bool) {
	values := map[string]string{
		IDTokenCookie:      tokens.IDToken,
		AccessTokenCookie:  tokens.AccessToken,
		RefreshTokenCookie: tokens.RefreshToken,
	}
	for _, name := range sessionCookies {
		http.SetCookie(w, sessionCookie(name, values[name], int(SessionMaxAge/time.Second), secure))
	}
}

// ClearSessionCookies expires the three session cookies
func ClearSessionCookies(w http.ResponseWriter, secure bool) {
	for _, name := range sessionCookies {
		// a negative MaxAge is sent as Max-Age=0
		http.SetCookie(w, sessionCookie(name, "", -1, secure))
	}
}

// AccessToken returns the access-token cookie value, or "" when absent
func AccessToken(r *http.Request) string {
	c, err := r.Cookie(AccessTokenCookie)
	if err != nil {
		return ""
	}
	return c.Value
}

func sessionCookie(name, value string, maxAge int, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}
