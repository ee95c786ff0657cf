package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"coursegraph/pkg/auth"
)

// Route guard paths
const (
	AppPath    = "/app"
	LoginPath  = "/login"
	SignupPath = "/signup"
)

// RouteGuard redirects page requests by session cookie presence. Protected
// pages without an access token go to the login page with a redirect
// parameter; login and signup with a token go to the app unless the visitor
// was just sent back from it. The token itself is not validated here.
func RouteGuard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		hasToken := auth.AccessToken(r) != ""

		switch {
		case hasPrefix(path, AppPath) && !hasToken:
			http.Redirect(w, r, LoginPath+"?redirect="+url.QueryEscape(path), http.StatusTemporaryRedirect)
			return

		case (hasPrefix(path, LoginPath) || hasPrefix(path, SignupPath)) && hasToken:
			if !strings.Contains(r.Referer(), AppPath) {
				http.Redirect(w, r, AppPath, http.StatusTemporaryRedirect)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// hasPrefix matches whole path segments, so /application is not /app
func hasPrefix(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}
