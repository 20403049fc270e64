package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"eventcalendar/internal/domain"
	"eventcalendar/internal/eventtime"
)

type registrationService struct {
	eventRepo    domain.EventRepository
	attendeeRepo domain.AttendeeRepository
	emailService domain.EmailService
	logger       *slog.Logger
	now          func() time.Time
}

// NewRegistrationService creates a RegistrationService with the given
// repositories. emailService may be nil; confirmation emails are best effort
// and never fail the registration.
func NewRegistrationService(
	eventRepo domain.EventRepository,
	attendeeRepo domain.AttendeeRepository,
	emailService domain.EmailService,
	logger *slog.Logger,
) domain.RegistrationService {
	return &registrationService{
		eventRepo:    eventRepo,
		attendeeRepo: attendeeRepo,
		emailService: emailService,
		logger:       logger,
		now:          time.Now,
	}
}

// Apply runs the registration checks in order and inserts one attendee row.
// The capacity check and the insert are separate statements, so two
// concurrent applies near the capacity boundary can over-book by a seat;
// the backing store exhibits the same behavior and no invariant claims
// strict enforcement under concurrency.
func (s *registrationService) Apply(ctx context.Context, eventID, userID, email string) (*domain.Attendee, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}

	if _, err := s.attendeeRepo.GetByEventAndUser(ctx, eventID, userID); err == nil {
		return nil, domain.ErrAlreadyRegistered
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("get registration: %w", err)
	}

	if started, err := s.eventStarted(event); err != nil {
		// Unreadable date must not block the registration (fail-open).
		s.logger.WarnContext(ctx, "unparsable event date, allowing registration",
			"event_id", event.ID, "date", event.Date, "err", err)
	} else if started {
		return nil, domain.ErrEventStarted
	}

	if event.Capacity != nil {
		count, err := s.attendeeRepo.CountByEventID(ctx, eventID)
		if err != nil {
			return nil, fmt.Errorf("count attendees: %w", err)
		}
		if count >= *event.Capacity {
			return nil, &domain.EventFullError{Capacity: *event.Capacity}
		}
	}

	reg := domain.NewAttendee(eventID, userID, email, s.now().UnixMilli())
	reg.ID = uuid.NewString()
	if err := s.attendeeRepo.Create(ctx, reg); err != nil {
		return nil, fmt.Errorf("create registration: %w", err)
	}

	// Re-fetch the inserted row; a miss here means the repository is
	// inconsistent and the caller must see an internal error.
	stored, err := s.attendeeRepo.GetByID(ctx, reg.ID)
	if err != nil {
		return nil, fmt.Errorf("verify registration %s after insert: %w", reg.ID, err)
	}

	if s.emailService != nil {
		data := &domain.RegistrationConfirmationEmailData{
			Email:      email,
			EventTitle: event.Title,
			EventDate:  event.Date,
			Location:   event.Location,
		}
		if err := s.emailService.SendRegistrationConfirmation(ctx, data); err != nil {
			s.logger.WarnContext(ctx, "failed to send confirmation email",
				"event_id", event.ID, "err", err)
		}
	}

	return stored, nil
}

// Cancel removes the caller's registration. Same fail-open policy on
// unparsable dates as Apply.
func (s *registrationService) Cancel(ctx context.Context, eventID, userID string) (string, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("get event: %w", err)
	}

	reg, err := s.attendeeRepo.GetByEventAndUser(ctx, eventID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", domain.ErrNotRegistered
		}
		return "", fmt.Errorf("get registration: %w", err)
	}

	if started, err := s.eventStarted(event); err != nil {
		s.logger.WarnContext(ctx, "unparsable event date, allowing cancellation",
			"event_id", event.ID, "date", event.Date, "err", err)
	} else if started {
		return "", domain.ErrEventStarted
	}

	if err := s.attendeeRepo.Delete(ctx, reg.ID); err != nil {
		return "", fmt.Errorf("delete registration: %w", err)
	}
	return reg.ID, nil
}

// eventStarted surfaces the parse error so callers can log it before
// falling open; the comparison itself lives in eventtime.
func (s *registrationService) eventStarted(event *domain.Event) (bool, error) {
	if _, err := eventtime.Parse(event.Date); err != nil {
		return false, err
	}
	return !eventtime.NotYetStarted(event.Date, s.now()), nil
}

func (s *registrationService) ListMyRegistrations(ctx context.Context, userID string) ([]*domain.AttendeeWithEvent, error) {
	regs, err := s.attendeeRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}

	eventsByID := make(map[string]*domain.Event)
	result := make([]*domain.AttendeeWithEvent, 0, len(regs))
	for _, reg := range regs {
		ev, ok := eventsByID[reg.EventID]
		if !ok {
			ev, err = s.eventRepo.GetByID(ctx, reg.EventID)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					// Event deleted but registration remains; skip the entry.
					continue
				}
				return nil, fmt.Errorf("get event for registration: %w", err)
			}
			eventsByID[reg.EventID] = ev
		}
		result = append(result, &domain.AttendeeWithEvent{
			Registration: reg,
			Event:        ev,
		})
	}
	return result, nil
}
