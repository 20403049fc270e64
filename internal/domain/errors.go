package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller is not allowed to act on the record.
var ErrForbidden = errors.New("forbidden")

// ErrInvalidInput is returned when the request is invalid.
var ErrInvalidInput = errors.New("invalid input")

// ErrAlreadyRegistered is returned when applying twice for the same event.
var ErrAlreadyRegistered = errors.New("already registered for this event")

// ErrNotRegistered is returned when cancelling a registration that does not exist.
var ErrNotRegistered = errors.New("not registered for this event")

// ErrEventStarted is returned when the event's start time is in the past.
// Apply and Cancel both refuse once the event has started.
var ErrEventStarted = errors.New("event already started")

// ErrEventHasAttendees is returned when deleting an event that still has registrations.
var ErrEventHasAttendees = errors.New("event still has registrations")

// EventFullError is returned when an event has reached its capacity.
type EventFullError struct {
	Capacity int
}

func (e *EventFullError) Error() string {
	return fmt.Sprintf("event full, capacity %d", e.Capacity)
}
