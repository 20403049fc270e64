package domain

import (
	"context"
)

// Event represents a calendar event.
// Date is the canonical wire and storage representation: a wall-clock string
// in the form "2025年9月6日20:00" with no timezone. CreatedAt is seconds since
// epoch. Attendees is derived per request and never stored.
// swagger:model Event
type Event struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Date        string  `json:"date"`
	Location    string  `json:"location"`
	Description string  `json:"description"`
	ImageURL    string  `json:"image_url,omitempty"`
	Capacity    *int    `json:"capacity,omitempty"`
	CreatorID   *string `json:"creator_id,omitempty"`
	CreatedAt   int64   `json:"created_at"`
	Attendees   int     `json:"attendees"`
}

// NewEvent returns a new Event with the given fields. ID is assigned by the service on create.
func NewEvent(title, date, location, description string, capacity *int, creatorID *string, createdAt int64) *Event {
	return &Event{
		Title:       title,
		Date:        date,
		Location:    location,
		Description: description,
		Capacity:    capacity,
		CreatorID:   creatorID,
		CreatedAt:   createdAt,
	}
}

// EventUpdate carries the optional fields of an event update. Nil means
// "leave unchanged". ClearImage removes the stored image reference and wins
// over ImageURL when both are set.
type EventUpdate struct {
	Title       *string
	Date        *string
	Location    *string
	Description *string
	ImageURL    *string
	Capacity    *int
	ClearImage  bool
}

// EventImage is a resolved event image. Exactly one representation is set:
// URL when the client should be redirected, or Data/ContentType when the
// blob must be streamed directly.
type EventImage struct {
	URL         string
	Data        []byte
	ContentType string
}

// EventRepository defines the interface for event storage.
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	List(ctx context.Context, p PaginationParams) ([]*Event, int, error)
	Update(ctx context.Context, eventID string, upd EventUpdate) (*Event, error)
	Delete(ctx context.Context, id string) error
}

// EventService defines the business logic for event management.
type EventService interface {
	CreateEvent(ctx context.Context, creatorID string, event *Event) (*Event, error)
	GetEvent(ctx context.Context, eventID string) (*Event, error)
	ListEvents(ctx context.Context, p PaginationParams) ([]*Event, int, error)
	UpdateEvent(ctx context.Context, eventID, callerID string, upd EventUpdate) (*Event, error)
	DeleteEvent(ctx context.Context, eventID, callerID string) error
	UploadEventImage(ctx context.Context, eventID, callerID, filename, contentType string, data []byte) (*Event, error)
	GetEventImage(ctx context.Context, eventID string) (*EventImage, error)
	RemoveEventImage(ctx context.Context, eventID, callerID string) (*Event, error)
	ListEventAttendees(ctx context.Context, eventID, callerID string) ([]*Attendee, error)
}
