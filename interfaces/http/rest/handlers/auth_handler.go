package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	appauth "coursegraph/application/auth"
	"coursegraph/domain/identity"
	"coursegraph/pkg/auth"
)

// AuthService is the auth proxy used by AuthHandler
type AuthService interface {
	SignUp(ctx context.Context, req appauth.SignUpRequest) (string, error)
	Confirm(ctx context.Context, req appauth.ConfirmRequest) error
	SignIn(ctx context.Context, req appauth.SignInRequest) (*appauth.SignInResult, error)
	SignOut(ctx context.Context, accessToken string)
	CurrentUser(ctx context.Context, accessToken string) (*identity.User, error)
}

// AuthHandler serves /api/auth
type AuthHandler struct {
	service      AuthService
	secureCookie bool
	logger       *zap.Logger
}

// NewAuthHandler creates a new auth handler. secureCookie marks session
// cookies HTTPS-only.
func NewAuthHandler(service AuthService, secureCookie bool, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		service:      service,
		secureCookie: secureCookie,
		logger:       logger,
	}
}

type signUpResponse struct {
	Success           bool   `json:"success"`
	NeedsConfirmation bool   `json:"needsConfirmation"`
	UserID            string `json:"userId"`
	Message           string `json:"message"`
}

type userResponse struct {
	Success bool           `json:"success"`
	User    *identity.User `json:"user"`
	Message string         `json:"message,omitempty"`
}

// SignUp handles POST /api/auth/signup
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req appauth.SignUpRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, h.logger, err, "Failed to sign up")
		return
	}

	userID, err := h.service.SignUp(r.Context(), req)
	if err != nil {
		respondError(w, h.logger, err, "Failed to sign up")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, signUpResponse{
		Success:           true,
		NeedsConfirmation: true,
		UserID:            userID,
		Message:           "Sign up successful. Please check your email for verification code.",
	})
}

// Confirm handles POST /api/auth/confirm
func (h *AuthHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	var req appauth.ConfirmRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, h.logger, err, "Failed to confirm sign up")
		return
	}

	if err := h.service.Confirm(r.Context(), req); err != nil {
		respondError(w, h.logger, err, "Failed to confirm sign up")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, messageResponse{
		Success: true,
		Message: "Email verified successfully. You can now sign in.",
	})
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req appauth.SignInRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, h.logger, err, "Failed to sign in")
		return
	}

	result, err := h.service.SignIn(r.Context(), req)
	if err != nil {
		respondError(w, h.logger, err, "Failed to sign in")
		return
	}

	auth.SetSessionCookies(w, result.Tokens, h.secureCookie)
	respondJSON(w, h.logger, http.StatusOK, userResponse{
		Success: true,
		User:    &result.User,
		Message: "Login successful",
	})
}

// Logout handles POST /api/auth/logout. Cookies are cleared whatever the
// identity provider says.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSessionCookies(w, h.secureCookie)
	h.service.SignOut(r.Context(), auth.AccessToken(r))

	respondJSON(w, h.logger, http.StatusOK, messageResponse{
		Success: true,
		Message: "Logged out successfully",
	})
}

// User handles GET /api/auth/user
func (h *AuthHandler) User(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.CurrentUser(r.Context(), auth.AccessToken(r))
	if err != nil {
		respondError(w, h.logger, err, "Failed to get user")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, userResponse{Success: true, User: user})
}
