package ports

import (
	"context"
	"io"

	"coursegraph/domain/events"
	"coursegraph/domain/graph"
	"coursegraph/domain/identity"
)

// IdentityProvider is the managed user directory the auth proxy forwards to.
// Failures are reported as *identity.Error so callers can map them per operation.
type IdentityProvider interface {
	// SignUp registers a user and returns the provider's user id
	SignUp(ctx context.Context, email, password, name string) (string, error)

	// ConfirmSignUp verifies the emailed confirmation code
	ConfirmSignUp(ctx context.Context, email, code string) error

	// SignIn runs the password flow. identity.ErrNoAuthenticationResult means
	// the provider answered without issuing tokens.
	SignIn(ctx context.Context, email, password string) (identity.Tokens, error)

	// SignOut revokes every token issued to the access token's user
	SignOut(ctx context.Context, accessToken string) error

	// GetUser resolves the profile behind an access token
	GetUser(ctx context.Context, accessToken string) (*identity.User, error)
}

// TokenVerifier checks an ID token's signature and standard claims and
// returns the profile it carries.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*identity.User, error)
}

// DocumentStore is the graph database holding a user's documents and their
// inferred relationships.
type DocumentStore interface {
	DocumentsByUser(ctx context.Context, userID string) ([]graph.Document, error)
	RelatedDocuments(ctx context.Context, pdfID int64) ([]graph.Document, error)
}

// UploadedFile is the storage receipt of an upload
type UploadedFile struct {
	S3Key string
}

// ProcessedDocument is the outcome of running the processing pipeline on an upload
type ProcessedDocument struct {
	PDFID            int64
	Title            string
	ConnectionsFound int
}

// PDFBackend is the service that stores, processes and deletes PDFs
type PDFBackend interface {
	Upload(ctx context.Context, userID, filename string, content io.Reader) (*UploadedFile, error)
	Process(ctx context.Context, userID, s3Key string) (*ProcessedDocument, error)
	Delete(ctx context.Context, userID string, pdfID int64) error
	DownloadURL(ctx context.Context, pdfID int64) (string, error)
}

// EventPublisher publishes domain events
type EventPublisher interface {
	Publish(ctx context.Context, evts ...events.Event) error
}

// SessionNotifier pushes messages to a user's open browser sessions
type SessionNotifier interface {
	NotifyUser(userID string, message any)
}

// GraphCache invalidates cached snapshots
type GraphCache interface {
	InvalidateUser(userID string)
}
