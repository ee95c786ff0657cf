// Package auth implements the credential operations proxied to the identity
// provider and maps provider failures to client-facing messages.
package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"coursegraph/application/ports"
	"coursegraph/domain/events"
	"coursegraph/domain/identity"
	pkgerrors "coursegraph/pkg/errors"
)

// SignUpRequest is the sign-up form
type SignUpRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name"`
}

// ConfirmRequest is the email verification form
type ConfirmRequest struct {
	Email string `json:"email" validate:"required"`
	Code  string `json:"code" validate:"required"`
}

// SignInRequest is the login form
type SignInRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// SignInResult carries the verified profile and the tokens to store as cookies
type SignInResult struct {
	User   identity.User
	Tokens identity.Tokens
}

// Service implements the auth proxy operations
type Service struct {
	idp      ports.IdentityProvider
	verifier ports.TokenVerifier
	events   ports.EventPublisher
	validate *validator.Validate
	logger   *zap.Logger
}

// NewService creates the auth service
func NewService(idp ports.IdentityProvider, verifier ports.TokenVerifier, publisher ports.EventPublisher, logger *zap.Logger) *Service {
	return &Service{
		idp:      idp,
		verifier: verifier,
		events:   publisher,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}
}

// SignUp registers a new account and returns the provider's user id
func (s *Service) SignUp(ctx context.Context, req SignUpRequest) (string, error) {
	if err := s.check(req, "Email and password are required", "Password must be at least 8 characters"); err != nil {
		return "", err
	}

	userID, err := s.idp.SignUp(ctx, req.Email, req.Password, req.Name)
	if err != nil {
		s.logger.Error("Sign up error", zap.Error(err))
		return "", mapError(err, signUpMessages, "Failed to sign up")
	}

	s.publish(ctx, events.New(events.TypeUserSignedUp, userID, nil))
	return userID, nil
}

// Confirm verifies the emailed code
func (s *Service) Confirm(ctx context.Context, req ConfirmRequest) error {
	if err := s.check(req, "Email and confirmation code are required", ""); err != nil {
		return err
	}

	if err := s.idp.ConfirmSignUp(ctx, req.Email, req.Code); err != nil {
		s.logger.Error("Confirmation error", zap.Error(err))
		return mapError(err, confirmMessages, "Failed to confirm sign up")
	}

	s.publish(ctx, events.New(events.TypeUserConfirmed, "", map[string]any{"email": req.Email}))
	return nil
}

// SignIn authenticates with email and password. The ID token's signature is
// verified before its claims are trusted.
func (s *Service) SignIn(ctx context.Context, req SignInRequest) (*SignInResult, error) {
	if err := s.check(req, "Email and password are required", ""); err != nil {
		return nil, err
	}

	tokens, err := s.idp.SignIn(ctx, req.Email, req.Password)
	if errors.Is(err, identity.ErrNoAuthenticationResult) {
		return nil, pkgerrors.NewUnauthorizedError("Authentication failed")
	}
	if err != nil {
		s.logger.Error("Login error", zap.Error(err))
		return nil, mapError(err, signInMessages, "Failed to sign in")
	}
	if !tokens.Complete() {
		return nil, pkgerrors.NewInternalError("Missing authentication tokens")
	}

	user, err := s.verifier.VerifyIDToken(ctx, tokens.IDToken)
	if err != nil {
		s.logger.Error("ID token verification failed", zap.Error(err))
		return nil, pkgerrors.NewInternalError("Failed to verify identity token").WithCause(err)
	}

	s.publish(ctx, events.New(events.TypeUserSignedIn, user.UserID, nil))
	return &SignInResult{User: *user, Tokens: tokens}, nil
}

// SignOut revokes the session upstream. It never fails: the caller clears
// cookies regardless and upstream errors are only logged.
func (s *Service) SignOut(ctx context.Context, accessToken string) {
	if accessToken == "" {
		return
	}
	if err := s.idp.SignOut(ctx, accessToken); err != nil {
		s.logger.Warn("Global sign out error", zap.Error(err))
	}
}

// CurrentUser resolves the profile behind an access token
func (s *Service) CurrentUser(ctx context.Context, accessToken string) (*identity.User, error) {
	if accessToken == "" {
		return nil, pkgerrors.NewUnauthorizedError("Not authenticated")
	}

	user, err := s.idp.GetUser(ctx, accessToken)
	if err != nil {
		// An expired or revoked token is the normal signed-out case
		if identity.KindOf(err) != identity.KindNotAuthorized {
			s.logger.Error("Get user error", zap.Error(err))
		}
		return nil, mapError(err, getUserMessages, "Failed to get user")
	}
	return user, nil
}

// check validates req. missing is returned for any absent required field and
// tooShort for a failed length rule.
func (s *Service) check(req any, missing, tooShort string) error {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			if fe.Tag() == "required" {
				return pkgerrors.NewValidationError(missing)
			}
		}
		if tooShort != "" {
			return pkgerrors.NewValidationError(tooShort)
		}
	}
	return pkgerrors.NewValidationError(missing)
}

func (s *Service) publish(ctx context.Context, e events.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, e); err != nil {
		s.logger.Warn("Failed to publish event", zap.String("eventType", e.Type), zap.Error(err))
	}
}

type outcome struct {
	status  int
	message string
}

var (
	signUpMessages = map[identity.ErrorKind]outcome{
		identity.KindUsernameExists:   {http.StatusBadRequest, "An account with this email already exists"},
		identity.KindInvalidPassword:  {http.StatusBadRequest, "Password does not meet requirements"},
		identity.KindInvalidParameter: {http.StatusBadRequest, "Invalid email or password format"},
	}
	confirmMessages = map[identity.ErrorKind]outcome{
		identity.KindCodeMismatch:  {http.StatusBadRequest, "Invalid verification code. Please try again."},
		identity.KindExpiredCode:   {http.StatusBadRequest, "Verification code has expired. Please request a new one."},
		identity.KindNotAuthorized: {http.StatusBadRequest, "User is already confirmed or not found."},
	}
	signInMessages = map[identity.ErrorKind]outcome{
		identity.KindNotAuthorized:    {http.StatusUnauthorized, "Incorrect email or password"},
		identity.KindUserNotConfirmed: {http.StatusUnauthorized, "Please verify your email before logging in"},
		identity.KindUserNotFound:     {http.StatusNotFound, "User not found"},
		identity.KindInvalidParameter: {http.StatusBadRequest, "Invalid email or password format"},
	}
	getUserMessages = map[identity.ErrorKind]outcome{
		identity.KindNotAuthorized: {http.StatusUnauthorized, "Token expired or invalid"},
		identity.KindUserNotFound:  {http.StatusNotFound, "User not found"},
	}
)

// mapError turns an identity failure into the operation's client error.
// Unrecognized failures are 500 with the provider's message, or fallback.
func mapError(err error, table map[identity.ErrorKind]outcome, fallback string) error {
	if o, ok := table[identity.KindOf(err)]; ok {
		return newStatusError(o.status, o.message).WithCode(string(identity.KindOf(err))).WithCause(err)
	}

	message := identity.ProviderMessage(err)
	if message == "" {
		message = fallback
	}
	return pkgerrors.NewInternalError(message).WithCause(err)
}

func newStatusError(status int, message string) *pkgerrors.AppError {
	switch status {
	case http.StatusUnauthorized:
		return pkgerrors.NewUnauthorizedError(message)
	case http.StatusNotFound:
		return pkgerrors.NewNotFoundError(message)
	case http.StatusBadRequest:
		return pkgerrors.NewValidationError(message)
	}
	return pkgerrors.NewInternalError(message).WithStatus(status)
}
