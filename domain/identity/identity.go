// Package identity holds the user and credential types exchanged with the
// identity provider.
package identity

import (
	"errors"
	"fmt"
)

// User is the profile returned to the browser after sign-in or on /user
type User struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	UserID   string `json:"userId"`
	Name     string `json:"name,omitempty"`
}

// Tokens is the credential bundle issued on a successful sign-in
type Tokens struct {
	IDToken      string
	AccessToken  string
	RefreshToken string
}

// Complete reports whether all three tokens were issued
func (t Tokens) Complete() bool {
	return t.IDToken != "" && t.AccessToken != "" && t.RefreshToken != ""
}

// ErrorKind is the provider-independent category of an identity failure
type ErrorKind string

const (
	KindUsernameExists   ErrorKind = "username_exists"
	KindInvalidPassword  ErrorKind = "invalid_password"
	KindInvalidParameter ErrorKind = "invalid_parameter"
	KindCodeMismatch     ErrorKind = "code_mismatch"
	KindExpiredCode      ErrorKind = "expired_code"
	KindNotAuthorized    ErrorKind = "not_authorized"
	KindUserNotConfirmed ErrorKind = "user_not_confirmed"
	KindUserNotFound     ErrorKind = "user_not_found"
	KindUnknown          ErrorKind = "unknown"
)

// ErrNoAuthenticationResult is returned when the provider answered a sign-in
// without issuing tokens (for example because a challenge is pending).
var ErrNoAuthenticationResult = errors.New("identity: no authentication result")

// Error is an identity provider failure with its classified kind. Message is
// the provider's own text.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("identity %s (%s): %s", e.Kind, e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of an identity error anywhere in err's chain
func KindOf(err error) ErrorKind {
	var idErr *Error
	if errors.As(err, &idErr) {
		return idErr.Kind
	}
	return KindUnknown
}

// ProviderMessage returns the provider's message for err, or "" if err is not
// an identity error.
func ProviderMessage(err error) string {
	var idErr *Error
	if errors.As(err, &idErr) {
		return idErr.Message
	}
	return ""
}
