// Package auth carries the signed-in user through request contexts and owns
// the session cookie format.
package auth

import (
	"context"
	"errors"

	"coursegraph/domain/identity"
)

type contextKey string

// UserContextKey is the context key of the authenticated user
const UserContextKey contextKey = "user"

// ErrNoUser is returned when a context carries no authenticated user
var ErrNoUser = errors.New("user not found in context")

// GetUserFromContext extracts the user from context
func GetUserFromContext(ctx context.Context) (*identity.User, error) {
	user, ok := ctx.Value(UserContextKey).(*identity.User)
	if !ok || user == nil {
		return nil, ErrNoUser
	}
	return user, nil
}

// SetUserInContext adds user to context
func SetUserInContext(ctx context.Context, user *identity.User) context.Context {
	return context.WithValue(ctx, UserContextKey, user)
}
