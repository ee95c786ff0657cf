// Package events defines the domain events published to the event bus.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Source is the event bus source of every event emitted here
const Source = "coursegraph.backend"

const (
	TypeUserSignedUp      = "UserSignedUp"
	TypeUserConfirmed     = "UserConfirmed"
	TypeUserSignedIn      = "UserSignedIn"
	TypeDocumentsUploaded = "DocumentsUploaded"
	TypeDocumentDeleted   = "DocumentDeleted"
)

// Event is a domain event
type Event struct {
	ID         string         `json:"event_id"`
	Type       string         `json:"event_type"`
	UserID     string         `json:"user_id"`
	OccurredAt time.Time      `json:"occurred_at"`
	Detail     map[string]any `json:"detail,omitempty"`
}

// New creates an event stamped with a fresh id and the current time
func New(eventType, userID string, detail map[string]any) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		UserID:     userID,
		OccurredAt: time.Now().UTC(),
		Detail:     detail,
	}
}
