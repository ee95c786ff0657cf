package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"coursegraph/domain/identity"
	"coursegraph/infrastructure/cache"
	"coursegraph/pkg/auth"
	pkgerrors "coursegraph/pkg/errors"
)

type mockResolver struct {
	mock.Mock
}

func (m *mockResolver) CurrentUser(ctx context.Context, accessToken string) (*identity.User, error) {
	args := m.Called(ctx, accessToken)
	user, _ := args.Get(0).(*identity.User)
	return user, args.Error(1)
}

func echoUser(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Write([]byte(user.UserID))
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	return body.Error
}

func TestRequireSession(t *testing.T) {
	t.Run("missing cookie", func(t *testing.T) {
		resolver := new(mockResolver)
		h := RequireSession(resolver, nil, time.Minute, zap.NewNop())(http.HandlerFunc(echoUser))
		rec := httptest.NewRecorder()

		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/graph", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Not authenticated", decodeError(t, rec))
		resolver.AssertNotCalled(t, "CurrentUser", mock.Anything, mock.Anything)
	})

	t.Run("resolved user is cached", func(t *testing.T) {
		// Arrange
		resolver := new(mockResolver)
		resolver.On("CurrentUser", mock.Anything, "tok").Return(&identity.User{UserID: "sub-1"}, nil).Once()
		h := RequireSession(resolver, cache.NewMemory(time.Minute, time.Minute), time.Minute, zap.NewNop())(http.HandlerFunc(echoUser))

		// Act
		for i := 0; i < 2; i++ {
			req := httptest.NewRequest(http.MethodGet, "/api/graph", nil)
			req.AddCookie(&http.Cookie{Name: auth.AccessTokenCookie, Value: "tok"})
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			// Assert
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "sub-1", rec.Body.String())
		}
		resolver.AssertNumberOfCalls(t, "CurrentUser", 1)
	})

	t.Run("rejected token", func(t *testing.T) {
		resolver := new(mockResolver)
		resolver.On("CurrentUser", mock.Anything, "old").Return(nil, pkgerrors.NewUnauthorizedError("Token expired or invalid"))
		h := RequireSession(resolver, nil, time.Minute, zap.NewNop())(http.HandlerFunc(echoUser))
		req := httptest.NewRequest(http.MethodGet, "/api/graph", nil)
		req.AddCookie(&http.Cookie{Name: auth.AccessTokenCookie, Value: "old"})
		rec := httptest.NewRecorder()

		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Token expired or invalid", decodeError(t, rec))
	})
}

func TestEndSession_RevokedTokenIsResolvedAgain(t *testing.T) {
	// Arrange
	resolver := new(mockResolver)
	resolver.On("CurrentUser", mock.Anything, "tok").Return(&identity.User{UserID: "sub-1"}, nil).Once()
	resolver.On("CurrentUser", mock.Anything, "tok").Return(nil, pkgerrors.NewUnauthorizedError("Token expired or invalid"))
	sessions := cache.NewMemory(time.Minute, time.Minute)
	protected := RequireSession(resolver, sessions, time.Minute, zap.NewNop())(http.HandlerFunc(echoUser))
	logout := EndSession(sessions)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	send := func(h http.Handler) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/graph", nil)
		req.AddCookie(&http.Cookie{Name: auth.AccessTokenCookie, Value: "tok"})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	// Act
	before := send(protected)
	send(logout)
	after := send(protected)

	// Assert
	assert.Equal(t, http.StatusOK, before.Code)
	assert.Equal(t, http.StatusUnauthorized, after.Code)
	assert.Zero(t, sessions.Len())
	resolver.AssertNumberOfCalls(t, "CurrentUser", 2)
}

func TestRateLimit(t *testing.T) {
	h := RateLimit(auth.NewIPRateLimiter(1, 1), zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	codes := make([]int, 0, 3)
	var limited string
	for _, addr := range []string{"10.0.0.1:1000", "10.0.0.1:2000", "10.0.0.2:1000"} {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
		if rec.Code == http.StatusTooManyRequests {
			limited = decodeError(t, rec)
		}
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests, http.StatusOK}, codes)
	assert.Equal(t, "rate limit exceeded: 1 requests per minute", limited)
}

func TestRouteGuard(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		token    bool
		referer  string
		wantCode int
		wantLoc  string
	}{
		{"app without token", "/app", false, "", http.StatusTemporaryRedirect, "/login?redirect=%2Fapp"},
		{"nested app without token", "/app/settings", false, "", http.StatusTemporaryRedirect, "/login?redirect=%2Fapp%2Fsettings"},
		{"app with token", "/app", true, "", http.StatusOK, ""},
		{"login with token", "/login", true, "", http.StatusTemporaryRedirect, "/app"},
		{"signup with token", "/signup", true, "https://x.test/", http.StatusTemporaryRedirect, "/app"},
		{"login with token coming back from app", "/login", true, "https://x.test/app", http.StatusOK, ""},
		{"login without token", "/login", false, "", http.StatusOK, ""},
		{"unrelated path", "/application", false, "", http.StatusOK, ""},
		{"asset beside app", "/app.js", false, "", http.StatusOK, ""},
		{"asset beside login", "/login.css", true, "", http.StatusOK, ""},
		{"root", "/", false, "", http.StatusOK, ""},
	}

	h := RouteGuard(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.token {
				req.AddCookie(&http.Cookie{Name: auth.AccessTokenCookie, Value: "tok"})
			}
			if tt.referer != "" {
				req.Header.Set("Referer", tt.referer)
			}
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantLoc, rec.Header().Get("Location"))
		})
	}
}

type httpCalls []string

func (c *httpCalls) RecordHTTPRequest(method, route string, status int, _ time.Duration) {
	*c = append(*c, method+" "+route+" "+http.StatusText(status))
}

func TestLogger_RecordsRoutePattern(t *testing.T) {
	calls := &httpCalls{}
	r := chi.NewRouter()
	r.Use(Logger(zap.NewNop(), calls))
	r.Get("/api/documents/{pdfID}/download-url", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/documents/7/download-url", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, []string{
		"GET /api/documents/{pdfID}/download-url Accepted",
		"GET unmatched Not Found",
	}, []string(*calls))
}
