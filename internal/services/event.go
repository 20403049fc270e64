package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"eventcalendar/internal/domain"
	"eventcalendar/internal/eventtime"
)

const (
	maxTitleLen       = 100
	maxLocationLen    = 100
	maxDescriptionLen = 1000
	maxImageBytes     = 5 << 20
)

type eventService struct {
	eventRepo     domain.EventRepository
	attendeeRepo  domain.AttendeeRepository
	imageStore    domain.ImageStore
	publicBaseURL string
	logger        *slog.Logger
	now           func() time.Time
}

// NewEventService creates an EventService with the given repositories and
// image store. publicBaseURL, when non-empty, is the base under which
// uploaded blobs are publicly reachable; stored keys then resolve to
// redirect URLs instead of being streamed.
func NewEventService(
	eventRepo domain.EventRepository,
	attendeeRepo domain.AttendeeRepository,
	imageStore domain.ImageStore,
	publicBaseURL string,
	logger *slog.Logger,
) domain.EventService {
	return &eventService{
		eventRepo:     eventRepo,
		attendeeRepo:  attendeeRepo,
		imageStore:    imageStore,
		publicBaseURL: strings.TrimSuffix(publicBaseURL, "/"),
		logger:        logger,
		now:           time.Now,
	}
}

func (s *eventService) CreateEvent(ctx context.Context, creatorID string, event *domain.Event) (*domain.Event, error) {
	event.Title = strings.TrimSpace(event.Title)
	event.Location = strings.TrimSpace(event.Location)
	if err := validateEventFields(event.Title, event.Location, event.Date, event.Description, event.Capacity); err != nil {
		return nil, err
	}
	if event.ImageURL != "" && !strings.HasPrefix(event.ImageURL, "https://") {
		return nil, fmt.Errorf("%w: image_url must be an https URL", domain.ErrInvalidInput)
	}

	event.ID = uuid.NewString()
	event.CreatorID = &creatorID
	event.CreatedAt = s.now().Unix()
	event.Attendees = 0

	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	return event, nil
}

func (s *eventService) GetEvent(ctx context.Context, eventID string) (*domain.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

func (s *eventService) ListEvents(ctx context.Context, p domain.PaginationParams) ([]*domain.Event, int, error) {
	events, total, err := s.eventRepo.List(ctx, p)
	if err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}
	return events, total, nil
}

func (s *eventService) UpdateEvent(ctx context.Context, eventID, callerID string, upd domain.EventUpdate) (*domain.Event, error) {
	event, err := s.ownedEvent(ctx, eventID, callerID)
	if err != nil {
		return nil, err
	}

	if upd.Title != nil {
		t := strings.TrimSpace(*upd.Title)
		upd.Title = &t
	}
	if upd.Location != nil {
		l := strings.TrimSpace(*upd.Location)
		upd.Location = &l
	}
	if err := validateEventUpdate(upd); err != nil {
		return nil, err
	}
	if upd.ImageURL != nil && !strings.HasPrefix(*upd.ImageURL, "https://") {
		return nil, fmt.Errorf("%w: image_url must be an https URL", domain.ErrInvalidInput)
	}

	// Replacing or clearing the image orphans a previously uploaded blob.
	if (upd.ClearImage || upd.ImageURL != nil) && isStorageKey(event.ImageURL) {
		s.deleteImage(ctx, event.ImageURL)
	}

	updated, err := s.eventRepo.Update(ctx, eventID, upd)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update event: %w", err)
	}
	return updated, nil
}

// DeleteEvent removes an event. Deletion is blocked while registrations
// exist; attendees must cancel (or be cancelled) first.
func (s *eventService) DeleteEvent(ctx context.Context, eventID, callerID string) error {
	event, err := s.ownedEvent(ctx, eventID, callerID)
	if err != nil {
		return err
	}

	count, err := s.attendeeRepo.CountByEventID(ctx, eventID)
	if err != nil {
		return fmt.Errorf("count attendees: %w", err)
	}
	if count > 0 {
		return domain.ErrEventHasAttendees
	}

	if err := s.eventRepo.Delete(ctx, eventID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete event: %w", err)
	}
	if isStorageKey(event.ImageURL) {
		s.deleteImage(ctx, event.ImageURL)
	}
	return nil
}

func (s *eventService) UploadEventImage(ctx context.Context, eventID, callerID, filename, contentType string, data []byte) (*domain.Event, error) {
	event, err := s.ownedEvent(ctx, eventID, callerID)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty image", domain.ErrInvalidInput)
	}
	if len(data) > maxImageBytes {
		return nil, fmt.Errorf("%w: image exceeds %d bytes", domain.ErrInvalidInput, maxImageBytes)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("%w: content type %q is not an image", domain.ErrInvalidInput, contentType)
	}

	key := fmt.Sprintf("events/%s/%s%s", eventID, uuid.NewString(), strings.ToLower(path.Ext(filename)))
	metadata := map[string]string{
		"original-filename": filename,
		"uploaded-by":       callerID,
	}
	if err := s.imageStore.Put(ctx, key, contentType, data, metadata); err != nil {
		return nil, fmt.Errorf("store image: %w", err)
	}

	if isStorageKey(event.ImageURL) {
		s.deleteImage(ctx, event.ImageURL)
	}

	updated, err := s.eventRepo.Update(ctx, eventID, domain.EventUpdate{ImageURL: &key})
	if err != nil {
		return nil, fmt.Errorf("update event image: %w", err)
	}
	return updated, nil
}

// GetEventImage resolves the event's image for serving. External URLs, and
// stored keys when a public base URL is configured, resolve to a redirect;
// otherwise the blob is read from the store.
func (s *eventService) GetEventImage(ctx context.Context, eventID string) (*domain.EventImage, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event.ImageURL == "" {
		return nil, domain.ErrNotFound
	}
	if !isStorageKey(event.ImageURL) {
		return &domain.EventImage{URL: event.ImageURL}, nil
	}
	if s.publicBaseURL != "" {
		return &domain.EventImage{URL: s.publicBaseURL + "/" + event.ImageURL}, nil
	}
	data, contentType, err := s.imageStore.Get(ctx, event.ImageURL)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get image %s: %w", event.ImageURL, err)
	}
	return &domain.EventImage{Data: data, ContentType: contentType}, nil
}

func (s *eventService) RemoveEventImage(ctx context.Context, eventID, callerID string) (*domain.Event, error) {
	event, err := s.ownedEvent(ctx, eventID, callerID)
	if err != nil {
		return nil, err
	}
	if event.ImageURL == "" {
		return event, nil
	}
	if isStorageKey(event.ImageURL) {
		s.deleteImage(ctx, event.ImageURL)
	}
	updated, err := s.eventRepo.Update(ctx, eventID, domain.EventUpdate{ClearImage: true})
	if err != nil {
		return nil, fmt.Errorf("clear event image: %w", err)
	}
	return updated, nil
}

func (s *eventService) ListEventAttendees(ctx context.Context, eventID, callerID string) ([]*domain.Attendee, error) {
	if _, err := s.ownedEvent(ctx, eventID, callerID); err != nil {
		return nil, err
	}
	attendees, err := s.attendeeRepo.ListByEventID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list attendees: %w", err)
	}
	return attendees, nil
}

// ownedEvent fetches the event and enforces that callerID is its creator.
func (s *eventService) ownedEvent(ctx context.Context, eventID, callerID string) (*domain.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event.CreatorID == nil || *event.CreatorID != callerID {
		return nil, domain.ErrForbidden
	}
	return event, nil
}

func (s *eventService) deleteImage(ctx context.Context, key string) {
	if err := s.imageStore.Delete(ctx, key); err != nil {
		s.logger.WarnContext(ctx, "failed to delete stored image", "key", key, "err", err)
	}
}

// isStorageKey reports whether an image_url value refers to an uploaded blob
// rather than an externally hosted URL.
func isStorageKey(imageURL string) bool {
	return imageURL != "" && !strings.HasPrefix(imageURL, "http")
}

func validateEventFields(title, location, date, description string, capacity *int) error {
	if title == "" || len([]rune(title)) > maxTitleLen {
		return fmt.Errorf("%w: title is required and must be at most %d characters", domain.ErrInvalidInput, maxTitleLen)
	}
	if location == "" || len([]rune(location)) > maxLocationLen {
		return fmt.Errorf("%w: location is required and must be at most %d characters", domain.ErrInvalidInput, maxLocationLen)
	}
	if len([]rune(description)) > maxDescriptionLen {
		return fmt.Errorf("%w: description must be at most %d characters", domain.ErrInvalidInput, maxDescriptionLen)
	}
	if !eventtime.Valid(date) {
		return fmt.Errorf("%w: date must match the format 2025年9月6日20:00", domain.ErrInvalidInput)
	}
	if capacity != nil && *capacity < 1 {
		return fmt.Errorf("%w: capacity must be at least 1", domain.ErrInvalidInput)
	}
	return nil
}

func validateEventUpdate(upd domain.EventUpdate) error {
	if upd.Title != nil && (*upd.Title == "" || len([]rune(*upd.Title)) > maxTitleLen) {
		return fmt.Errorf("%w: title must be non-empty and at most %d characters", domain.ErrInvalidInput, maxTitleLen)
	}
	if upd.Location != nil && (*upd.Location == "" || len([]rune(*upd.Location)) > maxLocationLen) {
		return fmt.Errorf("%w: location must be non-empty and at most %d characters", domain.ErrInvalidInput, maxLocationLen)
	}
	if upd.Description != nil && len([]rune(*upd.Description)) > maxDescriptionLen {
		return fmt.Errorf("%w: description must be at most %d characters", domain.ErrInvalidInput, maxDescriptionLen)
	}
	if upd.Date != nil && !eventtime.Valid(*upd.Date) {
		return fmt.Errorf("%w: date must match the format 2025年9月6日20:00", domain.ErrInvalidInput)
	}
	if upd.Capacity != nil && *upd.Capacity < 1 {
		return fmt.Errorf("%w: capacity must be at least 1", domain.ErrInvalidInput)
	}
	return nil
}
