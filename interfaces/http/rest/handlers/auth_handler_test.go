package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appauth "coursegraph/application/auth"
	"coursegraph/domain/identity"
	"coursegraph/pkg/auth"
	pkgerrors "coursegraph/pkg/errors"
)

type mockAuthService struct {
	mock.Mock
}

func (m *mockAuthService) SignUp(ctx context.Context, req appauth.SignUpRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *mockAuthService) Confirm(ctx context.Context, req appauth.ConfirmRequest) error {
	return m.Called(ctx, req).Error(0)
}

func (m *mockAuthService) SignIn(ctx context.Context, req appauth.SignInRequest) (*appauth.SignInResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appauth.SignInResult), args.Error(1)
}

func (m *mockAuthService) SignOut(ctx context.Context, accessToken string) {
	m.Called(ctx, accessToken)
}

func (m *mockAuthService) CurrentUser(ctx context.Context, accessToken string) (*identity.User, error) {
	args := m.Called(ctx, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func cookiesByName(res *http.Response) map[string]*http.Cookie {
	out := make(map[string]*http.Cookie)
	for _, c := range res.Cookies() {
		out[c.Name] = c
	}
	return out
}

func TestAuthHandler_SignUp(t *testing.T) {
	// Arrange
	svc := new(mockAuthService)
	h := NewAuthHandler(svc, false, zap.NewNop())
	req := appauth.SignUpRequest{Email: "a@b.edu", Password: "longenough", Name: "Ada"}
	svc.On("SignUp", mock.Anything, req).Return("sub-123", nil)

	// Act
	rec := httptest.NewRecorder()
	h.SignUp(rec, httptest.NewRequest(http.MethodPost, "/api/auth/signup",
		strings.NewReader(`{"email":"a@b.edu","password":"longenough","name":"Ada"}`)))

	// Assert
	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, true, body["needsConfirmation"])
	assert.Equal(t, "sub-123", body["userId"])
	assert.Equal(t, "Sign up successful. Please check your email for verification code.", body["message"])
	svc.AssertExpectations(t)
}

func TestAuthHandler_SignUpFailure(t *testing.T) {
	svc := new(mockAuthService)
	h := NewAuthHandler(svc, false, zap.NewNop())
	svc.On("SignUp", mock.Anything, mock.Anything).
		Return("", pkgerrors.NewValidationError("An account with this email already exists"))

	rec := httptest.NewRecorder()
	h.SignUp(rec, httptest.NewRequest(http.MethodPost, "/api/auth/signup",
		strings.NewReader(`{"email":"a@b.edu","password":"longenough"}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "An account with this email already exists", body["error"])
}

func TestAuthHandler_InvalidJSON(t *testing.T) {
	svc := new(mockAuthService)
	h := NewAuthHandler(svc, false, zap.NewNop())

	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"signup", h.SignUp},
		{"confirm", h.Confirm},
		{"login", h.Login},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.handler(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{not json")))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "Invalid request body", decodeBody(t, rec)["error"])
		})
	}
	svc.AssertNotCalled(t, "SignUp", mock.Anything, mock.Anything)
	svc.AssertNotCalled(t, "Confirm", mock.Anything, mock.Anything)
	svc.AssertNotCalled(t, "SignIn", mock.Anything, mock.Anything)
}

func TestAuthHandler_Confirm(t *testing.T) {
	svc := new(mockAuthService)
	h := NewAuthHandler(svc, false, zap.NewNop())
	svc.On("Confirm", mock.Anything, appauth.ConfirmRequest{Email: "a@b.edu", Code: "123456"}).Return(nil)

	rec := httptest.NewRecorder()
	h.Confirm(rec, httptest.NewRequest(http.MethodPost, "/api/auth/confirm",
		strings.NewReader(`{"email":"a@b.edu","code":"123456"}`)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Email verified successfully. You can now sign in.", decodeBody(t, rec)["message"])
}

func TestAuthHandler_Login(t *testing.T) {
	t.Run("sets the three session cookies", func(t *testing.T) {
		// Arrange
		svc := new(mockAuthService)
		h := NewAuthHandler(svc, true, zap.NewNop())
		svc.On("SignIn", mock.Anything, appauth.SignInRequest{Email: "a@b.edu", Password: "pw"}).
			Return(&appauth.SignInResult{
				User:   identity.User{Username: "ada", Email: "a@b.edu", UserID: "sub-123"},
				Tokens: identity.Tokens{IDToken: "id", AccessToken: "access", RefreshToken: "refresh"},
			}, nil)

		// Act
		rec := httptest.NewRecorder()
		h.Login(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login",
			strings.NewReader(`{"email":"a@b.edu","password":"pw"}`)))

		// Assert
		assert.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, "Login successful", body["message"])
		user := body["user"].(map[string]any)
		assert.Equal(t, "sub-123", user["userId"])

		cookies := cookiesByName(rec.Result())
		require.Len(t, cookies, 3)
		assert.Equal(t, "access", cookies[auth.AccessTokenCookie].Value)
		assert.Equal(t, "id", cookies[auth.IDTokenCookie].Value)
		assert.Equal(t, "refresh", cookies[auth.RefreshTokenCookie].Value)
		for _, c := range cookies {
			assert.True(t, c.HttpOnly)
			assert.True(t, c.Secure)
		}
	})

	t.Run("wrong password sets no cookies", func(t *testing.T) {
		svc := new(mockAuthService)
		h := NewAuthHandler(svc, false, zap.NewNop())
		svc.On("SignIn", mock.Anything, mock.Anything).
			Return(nil, pkgerrors.NewUnauthorizedError("Incorrect email or password"))

		rec := httptest.NewRecorder()
		h.Login(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login",
			strings.NewReader(`{"email":"a@b.edu","password":"nope"}`)))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Incorrect email or password", decodeBody(t, rec)["error"])
		assert.Empty(t, rec.Result().Cookies())
	})
}

func TestAuthHandler_Logout(t *testing.T) {
	// Arrange
	svc := new(mockAuthService)
	h := NewAuthHandler(svc, false, zap.NewNop())
	svc.On("SignOut", mock.Anything, "access").Return()

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: auth.AccessTokenCookie, Value: "access"})

	// Act
	rec := httptest.NewRecorder()
	h.Logout(rec, req)

	// Assert
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Logged out successfully", decodeBody(t, rec)["message"])
	cookies := cookiesByName(rec.Result())
	require.Len(t, cookies, 3)
	for name, c := range cookies {
		assert.Empty(t, c.Value, name)
		assert.Equal(t, -1, c.MaxAge, name)
	}
	svc.AssertExpectations(t)
}

func TestAuthHandler_User(t *testing.T) {
	t.Run("signed in", func(t *testing.T) {
		svc := new(mockAuthService)
		h := NewAuthHandler(svc, false, zap.NewNop())
		svc.On("CurrentUser", mock.Anything, "access").
			Return(&identity.User{Username: "ada", Email: "a@b.edu", UserID: "sub-123"}, nil)

		req := httptest.NewRequest(http.MethodGet, "/api/auth/user", nil)
		req.AddCookie(&http.Cookie{Name: auth.AccessTokenCookie, Value: "access"})
		rec := httptest.NewRecorder()
		h.User(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, "a@b.edu", body["user"].(map[string]any)["email"])
	})

	t.Run("no cookie", func(t *testing.T) {
		svc := new(mockAuthService)
		h := NewAuthHandler(svc, false, zap.NewNop())
		svc.On("CurrentUser", mock.Anything, "").
			Return(nil, pkgerrors.NewUnauthorizedError("Not authenticated"))

		rec := httptest.NewRecorder()
		h.User(rec, httptest.NewRequest(http.MethodGet, "/api/auth/user", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Not authenticated", decodeBody(t, rec)["error"])
	})
}
