package domain

import (
	"context"
)

// Attendee is a registration record linking a user to an event.
// Email is a denormalized copy of the registrant's email at registration time.
// CreatedAt is milliseconds since epoch; note the unit differs from
// Event.CreatedAt (seconds). The stored user_id column is nullable for legacy
// rows, but the apply workflow always sets it.
// swagger:model Attendee
type Attendee struct {
	ID        string  `json:"id"`
	EventID   string  `json:"event_id"`
	UserID    *string `json:"user_id"`
	Email     string  `json:"email"`
	CreatedAt int64   `json:"created_at"`
}

// NewAttendee returns a new Attendee. ID is assigned by the service on create.
func NewAttendee(eventID, userID, email string, createdAt int64) *Attendee {
	return &Attendee{
		EventID:   eventID,
		UserID:    &userID,
		Email:     email,
		CreatedAt: createdAt,
	}
}

// AttendeeRepository defines storage operations for registration records.
// Every write is a single statement; there is no multi-statement transaction.
type AttendeeRepository interface {
	Create(ctx context.Context, a *Attendee) error
	GetByID(ctx context.Context, id string) (*Attendee, error)
	GetByEventAndUser(ctx context.Context, eventID, userID string) (*Attendee, error)
	ListByEventID(ctx context.Context, eventID string) ([]*Attendee, error)
	ListByUserID(ctx context.Context, userID string) ([]*Attendee, error)
	CountByEventID(ctx context.Context, eventID string) (int, error)
	Delete(ctx context.Context, id string) error
}

// AttendeeWithEvent bundles a registration with its related event.
type AttendeeWithEvent struct {
	Registration *Attendee `json:"registration"`
	Event        *Event    `json:"event"`
}

// RegistrationService defines the apply/cancel workflow for event registrations.
type RegistrationService interface {
	// Apply registers the user for the event. It fails with ErrNotFound when
	// the event does not exist, ErrAlreadyRegistered on a duplicate,
	// ErrEventStarted once the event date has passed, and *EventFullError when
	// the event is at capacity.
	Apply(ctx context.Context, eventID, userID, email string) (*Attendee, error)
	// Cancel removes the user's registration and returns the deleted
	// registration ID. It fails with ErrNotFound when the event does not
	// exist, ErrNotRegistered when no registration exists, and
	// ErrEventStarted once the event date has passed.
	Cancel(ctx context.Context, eventID, userID string) (string, error)
	ListMyRegistrations(ctx context.Context, userID string) ([]*AttendeeWithEvent, error)
}
