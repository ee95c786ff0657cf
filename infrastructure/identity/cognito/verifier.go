package cognito

import (
	"context"
	"fmt"
	"sync"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"coursegraph/domain/identity"
)

// IssuerURL returns the token issuer of a user pool
func IssuerURL(region, userPoolID string) string {
	return fmt.Sprintf("https://cognito-idp.%s.amazonaws.com/%s", region, userPoolID)
}

// VerifierConfig configures ID token verification
type VerifierConfig struct {
	Issuer   string
	Audience string
	// JWKSURL defaults to the issuer's well-known key set
	JWKSURL string
}

// Verifier validates Cognito ID tokens against the pool's published key set.
// The key set is loaded on first use and refreshed in the background, and
// again when a token names an unknown key id.
type Verifier struct {
	config VerifierConfig
	// refreshCtx bounds the background key refresh
	refreshCtx context.Context
	logger     *zap.Logger

	mu   sync.Mutex
	keys keyfunc.Keyfunc
}

// NewVerifier creates an ID token verifier. Key refreshing stops when ctx ends.
func NewVerifier(ctx context.Context, config VerifierConfig, logger *zap.Logger) *Verifier {
	if config.JWKSURL == "" {
		config.JWKSURL = config.Issuer + "/.well-known/jwks.json"
	}
	return &Verifier{
		config:     config,
		refreshCtx: ctx,
		logger:     logger,
	}
}

type idClaims struct {
	jwt.RegisteredClaims
	TokenUse string `json:"token_use"`
	Username string `json:"cognito:username"`
	Email    string `json:"email"`
	Name     string `json:"name"`
}

// VerifyIDToken checks signature, issuer, audience, expiry and token_use
func (v *Verifier) VerifyIDToken(ctx context.Context, idToken string) (*identity.User, error) {
	keys, err := v.keySet()
	if err != nil {
		return nil, fmt.Errorf("verify id token: %w", err)
	}

	claims := &idClaims{}
	_, err = jwt.ParseWithClaims(idToken, claims, keys.KeyfuncCtx(ctx),
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer(v.config.Issuer),
		jwt.WithAudience(v.config.Audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("verify id token: %w", err)
	}
	if claims.TokenUse != "id" {
		return nil, fmt.Errorf("verify id token: unexpected token_use %q", claims.TokenUse)
	}

	return &identity.User{
		Username: claims.Username,
		Email:    claims.Email,
		UserID:   claims.Subject,
		Name:     claims.Name,
	}, nil
}

// keySet loads the JWKS on first use. A failed load is retried by the next call.
func (v *Verifier) keySet() (keyfunc.Keyfunc, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.keys != nil {
		return v.keys, nil
	}

	keys, err := keyfunc.NewDefaultCtx(v.refreshCtx, []string{v.config.JWKSURL})
	if err != nil {
		return nil, fmt.Errorf("load jwks: %w", err)
	}
	v.keys = keys
	v.logger.Debug("JWKS loaded", zap.String("url", v.config.JWKSURL))
	return keys, nil
}
