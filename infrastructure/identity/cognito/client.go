// Package cognito adapts Amazon Cognito user pools to the identity ports.
package cognito

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/aws/smithy-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"coursegraph/domain/identity"
)

// API is the subset of the Cognito Identity Provider client used here
type API interface {
	SignUp(ctx context.Context, in *cip.SignUpInput, optFns ...func(*cip.Options)) (*cip.SignUpOutput, error)
	ConfirmSignUp(ctx context.Context, in *cip.ConfirmSignUpInput, optFns ...func(*cip.Options)) (*cip.ConfirmSignUpOutput, error)
	InitiateAuth(ctx context.Context, in *cip.InitiateAuthInput, optFns ...func(*cip.Options)) (*cip.InitiateAuthOutput, error)
	GlobalSignOut(ctx context.Context, in *cip.GlobalSignOutInput, optFns ...func(*cip.Options)) (*cip.GlobalSignOutOutput, error)
	GetUser(ctx context.Context, in *cip.GetUserInput, optFns ...func(*cip.Options)) (*cip.GetUserOutput, error)
}

// Config identifies the user pool app client
type Config struct {
	Region       string
	UserPoolID   string
	ClientID     string
	ClientSecret string
}

// Client implements ports.IdentityProvider on a Cognito user pool
type Client struct {
	api    API
	config Config
	tracer trace.Tracer
	logger *zap.Logger
}

// NewClient creates a Cognito identity client
func NewClient(api API, config Config, logger *zap.Logger) *Client {
	return &Client{
		api:    api,
		config: config,
		tracer: otel.Tracer("coursegraph/cognito"),
		logger: logger,
	}
}

// SecretHash computes base64(HMAC-SHA256(clientSecret, username+clientID))
func SecretHash(clientSecret, username, clientID string) string {
	mac := hmac.New(sha256.New, []byte(clientSecret))
	mac.Write([]byte(username + clientID))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// secretHash returns nil when the app client has no secret
func (c *Client) secretHash(username string) *string {
	if c.config.ClientSecret == "" {
		return nil
	}
	return aws.String(SecretHash(c.config.ClientSecret, username, c.config.ClientID))
}

func (c *Client) SignUp(ctx context.Context, email, password, name string) (string, error) {
	ctx, span := c.startSpan(ctx, "cognito.SignUp")
	defer span.End()

	attrs := []types.AttributeType{{Name: aws.String("email"), Value: aws.String(email)}}
	if name != "" {
		attrs = append(attrs, types.AttributeType{Name: aws.String("name"), Value: aws.String(name)})
	}

	out, err := c.api.SignUp(ctx, &cip.SignUpInput{
		ClientId:       aws.String(c.config.ClientID),
		SecretHash:     c.secretHash(email),
		Username:       aws.String(email),
		Password:       aws.String(password),
		UserAttributes: attrs,
	})
	if err != nil {
		return "", c.fail(span, err)
	}
	return aws.ToString(out.UserSub), nil
}

func (c *Client) ConfirmSignUp(ctx context.Context, email, code string) error {
	ctx, span := c.startSpan(ctx, "cognito.ConfirmSignUp")
	defer span.End()

	_, err := c.api.ConfirmSignUp(ctx, &cip.ConfirmSignUpInput{
		ClientId:         aws.String(c.config.ClientID),
		SecretHash:       c.secretHash(email),
		Username:         aws.String(email),
		ConfirmationCode: aws.String(code),
	})
	if err != nil {
		return c.fail(span, err)
	}
	return nil
}

func (c *Client) SignIn(ctx context.Context, email, password string) (identity.Tokens, error) {
	ctx, span := c.startSpan(ctx, "cognito.InitiateAuth")
	defer span.End()

	params := map[string]string{
		"USERNAME": email,
		"PASSWORD": password,
	}
	if hash := c.secretHash(email); hash != nil {
		params["SECRET_HASH"] = *hash
	}

	out, err := c.api.InitiateAuth(ctx, &cip.InitiateAuthInput{
		AuthFlow:       types.AuthFlowTypeUserPasswordAuth,
		ClientId:       aws.String(c.config.ClientID),
		AuthParameters: params,
	})
	if err != nil {
		return identity.Tokens{}, c.fail(span, err)
	}
	if out.AuthenticationResult == nil {
		span.SetStatus(codes.Error, "no authentication result")
		return identity.Tokens{}, identity.ErrNoAuthenticationResult
	}

	res := out.AuthenticationResult
	return identity.Tokens{
		IDToken:      aws.ToString(res.IdToken),
		AccessToken:  aws.ToString(res.AccessToken),
		RefreshToken: aws.ToString(res.RefreshToken),
	}, nil
}

func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	ctx, span := c.startSpan(ctx, "cognito.GlobalSignOut")
	defer span.End()

	if _, err := c.api.GlobalSignOut(ctx, &cip.GlobalSignOutInput{AccessToken: aws.String(accessToken)}); err != nil {
		return c.fail(span, err)
	}
	return nil
}

func (c *Client) GetUser(ctx context.Context, accessToken string) (*identity.User, error) {
	ctx, span := c.startSpan(ctx, "cognito.GetUser")
	defer span.End()

	out, err := c.api.GetUser(ctx, &cip.GetUserInput{AccessToken: aws.String(accessToken)})
	if err != nil {
		return nil, c.fail(span, err)
	}

	attrs := make(map[string]string, len(out.UserAttributes))
	for _, a := range out.UserAttributes {
		if a.Name != nil && a.Value != nil {
			attrs[*a.Name] = *a.Value
		}
	}

	return &identity.User{
		Username: aws.ToString(out.Username),
		Email:    attrs["email"],
		UserID:   attrs["sub"],
		Name:     attrs["name"],
	}, nil
}

func (c *Client) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return c.tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("cognito.user_pool", c.config.UserPoolID),
	))
}

func (c *Client) fail(span trace.Span, err error) error {
	mapped := MapError(err)
	span.RecordError(err)
	span.SetStatus(codes.Error, string(identity.KindOf(mapped)))
	return mapped
}

var errorKinds = map[string]identity.ErrorKind{
	"UsernameExistsException":   identity.KindUsernameExists,
	"InvalidPasswordException":  identity.KindInvalidPassword,
	"InvalidParameterException": identity.KindInvalidParameter,
	"CodeMismatchException":     identity.KindCodeMismatch,
	"ExpiredCodeException":      identity.KindExpiredCode,
	"NotAuthorizedException":    identity.KindNotAuthorized,
	"UserNotConfirmedException": identity.KindUserNotConfirmed,
	"UserNotFoundException":     identity.KindUserNotFound,
}

// MapError classifies a Cognito SDK error into an *identity.Error. Errors
// without an API error code keep their own text and map to KindUnknown.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		kind, ok := errorKinds[apiErr.ErrorCode()]
		if !ok {
			kind = identity.KindUnknown
		}
		return &identity.Error{
			Kind:    kind,
			Code:    apiErr.ErrorCode(),
			Message: apiErr.ErrorMessage(),
			Err:     err,
		}
	}

	return &identity.Error{Kind: identity.KindUnknown, Message: err.Error(), Err: err}
}
