package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"eventcalendar/internal/delivery/http/helpers"
	"eventcalendar/internal/delivery/http/middleware"
	"eventcalendar/internal/domain"
)

type mockEventService struct {
	event     *domain.Event
	events    []*domain.Event
	total     int
	attendees []*domain.Attendee
	image     *domain.EventImage
	err       error

	gotUpdate domain.EventUpdate
	gotUpload struct {
		filename    string
		contentType string
		size        int
	}
}

func (m *mockEventService) CreateEvent(ctx context.Context, creatorID string, event *domain.Event) (*domain.Event, error) {
	if m.err != nil {
		return nil, m.err
	}
	event.ID = "e1"
	event.CreatorID = &creatorID
	return event, nil
}

func (m *mockEventService) GetEvent(ctx context.Context, eventID string) (*domain.Event, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.event, nil
}

func (m *mockEventService) ListEvents(ctx context.Context, p domain.PaginationParams) ([]*domain.Event, int, error) {
	if m.err != nil {
		return nil, 0, m.err
	}
	return m.events, m.total, nil
}

func (m *mockEventService) UpdateEvent(ctx context.Context, eventID, callerID string, upd domain.EventUpdate) (*domain.Event, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.gotUpdate = upd
	return m.event, nil
}

func (m *mockEventService) DeleteEvent(ctx context.Context, eventID, callerID string) error {
	return m.err
}

func (m *mockEventService) UploadEventImage(ctx context.Context, eventID, callerID, filename, contentType string, data []byte) (*domain.Event, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.gotUpload.filename = filename
	m.gotUpload.contentType = contentType
	m.gotUpload.size = len(data)
	return m.event, nil
}

func (m *mockEventService) GetEventImage(ctx context.Context, eventID string) (*domain.EventImage, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.image, nil
}

func (m *mockEventService) RemoveEventImage(ctx context.Context, eventID, callerID string) (*domain.Event, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.event, nil
}

func (m *mockEventService) ListEventAttendees(ctx context.Context, eventID, callerID string) ([]*domain.Attendee, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.attendees, nil
}

func TestEventController_ListEvents(t *testing.T) {
	svc := &mockEventService{
		events: []*domain.Event{{ID: "e1", Title: "夏祭り", Date: "2025年9月6日20:00"}},
		total:  41,
	}
	ctrl := NewEventController(discardLogger, svc)

	req := httptest.NewRequest(http.MethodGet, "/events?page=2&page_size=20", nil)
	w := httptest.NewRecorder()
	ctrl.ListEvents(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	var resp ListEventsSuccessResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if len(resp.Data.Events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(resp.Data.Events))
	}
	meta := resp.Data.Pagination
	if meta.Page != 2 || meta.Total != 41 || meta.TotalPages != 3 {
		t.Fatalf("unexpected pagination meta: %+v", meta)
	}
}

func TestEventController_ListEvents_EmptyIsArray(t *testing.T) {
	ctrl := NewEventController(discardLogger, &mockEventService{})

	w := httptest.NewRecorder()
	ctrl.ListEvents(w, httptest.NewRequest(http.MethodGet, "/events", nil))

	if !strings.Contains(w.Body.String(), `"events":[]`) {
		t.Fatalf("expected empty array, got %s", w.Body.String())
	}
}

func TestEventController_ListEvents_InternalErrorIsGeneric(t *testing.T) {
	ctrl := NewEventController(discardLogger, &mockEventService{err: errors.New("pq: connection refused")})

	w := httptest.NewRecorder()
	ctrl.ListEvents(w, httptest.NewRequest(http.MethodGet, "/events", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
	}
	var resp helpers.APIResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.Error == nil || resp.Error.Message != "internal server error" {
		t.Fatalf("expected generic message, got %+v", resp.Error)
	}
	if strings.Contains(w.Body.String(), "pq:") {
		t.Fatalf("driver detail leaked in response: %s", w.Body.String())
	}
}

func TestEventController_GetEvent_NotFound(t *testing.T) {
	ctrl := NewEventController(discardLogger, &mockEventService{err: domain.ErrNotFound})

	req := httptest.NewRequest(http.MethodGet, "/events/missing", nil)
	req.SetPathValue("eventID", "missing")
	w := httptest.NewRecorder()
	ctrl.GetEvent(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, w.Code)
	}
}

func TestEventController_CreateEvent(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		authed     bool
		wantStatus int
	}{
		{
			name:       "valid",
			body:       `{"title":"夏祭り","date":"2025年9月6日20:00","location":"渋谷","capacity":30}`,
			authed:     true,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "missing required fields",
			body:       `{"description":"x"}`,
			authed:     true,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown field rejected",
			body:       `{"title":"t","date":"2025年9月6日20:00","location":"l","bogus":1}`,
			authed:     true,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unauthenticated",
			body:       `{"title":"t","date":"2025年9月6日20:00","location":"l"}`,
			authed:     false,
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := NewEventController(discardLogger, &mockEventService{})

			req := httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(tt.body))
			if tt.authed {
				req = req.WithContext(middleware.SetAuthClaims(req.Context(), &domain.AuthClaims{UserID: "u1"}))
			}
			w := httptest.NewRecorder()
			ctrl.CreateEvent(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestEventController_UpdateEvent_EmptyImageURLClears(t *testing.T) {
	svc := &mockEventService{event: &domain.Event{ID: "e1"}}
	ctrl := NewEventController(discardLogger, svc)

	req := httptest.NewRequest(http.MethodPatch, "/events/e1", strings.NewReader(`{"image_url":""}`))
	req.SetPathValue("eventID", "e1")
	req = req.WithContext(middleware.SetAuthClaims(req.Context(), &domain.AuthClaims{UserID: "u1"}))
	w := httptest.NewRecorder()
	ctrl.UpdateEvent(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if !svc.gotUpdate.ClearImage || svc.gotUpdate.ImageURL != nil {
		t.Fatalf("expected ClearImage set, got %+v", svc.gotUpdate)
	}
}

func TestEventController_UpdateEvent_Forbidden(t *testing.T) {
	ctrl := NewEventController(discardLogger, &mockEventService{err: domain.ErrForbidden})

	req := httptest.NewRequest(http.MethodPatch, "/events/e1", strings.NewReader(`{"title":"x"}`))
	req.SetPathValue("eventID", "e1")
	req = req.WithContext(middleware.SetAuthClaims(req.Context(), &domain.AuthClaims{UserID: "intruder"}))
	w := httptest.NewRecorder()
	ctrl.UpdateEvent(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected status %d, got %d", http.StatusForbidden, w.Code)
	}
	var resp helpers.APIResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.Error == nil || resp.Error.Code != helpers.ErrCodeForbidden {
		t.Fatalf("expected forbidden code, got %+v", resp.Error)
	}
}

func TestEventController_DeleteEvent_BlockedWithAttendees(t *testing.T) {
	ctrl := NewEventController(discardLogger, &mockEventService{err: domain.ErrEventHasAttendees})

	req := httptest.NewRequest(http.MethodDelete, "/events/e1", nil)
	req.SetPathValue("eventID", "e1")
	req = req.WithContext(middleware.SetAuthClaims(req.Context(), &domain.AuthClaims{UserID: "u1"}))
	w := httptest.NewRecorder()
	ctrl.DeleteEvent(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestEventController_UploadEventImage(t *testing.T) {
	svc := &mockEventService{event: &domain.Event{ID: "e1", ImageURL: "events/e1/x.png"}}
	ctrl := NewEventController(discardLogger, svc)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image", "poster.png")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte("png-bytes")); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/events/e1/image", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.SetPathValue("eventID", "e1")
	req = req.WithContext(middleware.SetAuthClaims(req.Context(), &domain.AuthClaims{UserID: "u1"}))
	w := httptest.NewRecorder()
	ctrl.UploadEventImage(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}
	if svc.gotUpload.filename != "poster.png" || svc.gotUpload.size != len("png-bytes") {
		t.Fatalf("unexpected upload args: %+v", svc.gotUpload)
	}
}

func TestEventController_UploadEventImage_MissingField(t *testing.T) {
	ctrl := NewEventController(discardLogger, &mockEventService{})

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	_ = mw.WriteField("other", "x")
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/events/e1/image", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.SetPathValue("eventID", "e1")
	req = req.WithContext(middleware.SetAuthClaims(req.Context(), &domain.AuthClaims{UserID: "u1"}))
	w := httptest.NewRecorder()
	ctrl.UploadEventImage(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestEventController_GetEventImage(t *testing.T) {
	t.Run("redirects when a URL resolves", func(t *testing.T) {
		svc := &mockEventService{image: &domain.EventImage{URL: "https://cdn.example.com/a.png"}}
		ctrl := NewEventController(discardLogger, svc)

		req := httptest.NewRequest(http.MethodGet, "/events/e1/image", nil)
		req.SetPathValue("eventID", "e1")
		w := httptest.NewRecorder()
		ctrl.GetEventImage(w, req)

		if w.Code != http.StatusFound {
			t.Fatalf("expected status %d, got %d", http.StatusFound, w.Code)
		}
		if loc := w.Header().Get("Location"); loc != "https://cdn.example.com/a.png" {
			t.Fatalf("unexpected Location %q", loc)
		}
	})

	t.Run("streams the blob", func(t *testing.T) {
		svc := &mockEventService{image: &domain.EventImage{Data: []byte("png-bytes"), ContentType: "image/png"}}
		ctrl := NewEventController(discardLogger, svc)

		req := httptest.NewRequest(http.MethodGet, "/events/e1/image", nil)
		req.SetPathValue("eventID", "e1")
		w := httptest.NewRecorder()
		ctrl.GetEventImage(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
		}
		if ct := w.Header().Get("Content-Type"); ct != "image/png" {
			t.Fatalf("unexpected Content-Type %q", ct)
		}
		if w.Body.String() != "png-bytes" {
			t.Fatalf("unexpected body %q", w.Body.String())
		}
	})

	t.Run("404 when the event has no image", func(t *testing.T) {
		ctrl := NewEventController(discardLogger, &mockEventService{err: domain.ErrNotFound})

		req := httptest.NewRequest(http.MethodGet, "/events/e1/image", nil)
		req.SetPathValue("eventID", "e1")
		w := httptest.NewRecorder()
		ctrl.GetEventImage(w, req)

		if w.Code != http.StatusNotFound {
			t.Fatalf("expected status %d, got %d", http.StatusNotFound, w.Code)
		}
	})
}

func TestEventController_ListEventAttendees(t *testing.T) {
	userID := "a"
	svc := &mockEventService{
		attendees: []*domain.Attendee{{ID: "r1", EventID: "e1", UserID: &userID, Email: "a@example.com"}},
	}
	ctrl := NewEventController(discardLogger, svc)

	req := httptest.NewRequest(http.MethodGet, "/events/e1/attendees", nil)
	req.SetPathValue("eventID", "e1")
	req = req.WithContext(middleware.SetAuthClaims(req.Context(), &domain.AuthClaims{UserID: "u1"}))
	w := httptest.NewRecorder()
	ctrl.ListEventAttendees(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	var resp AttendeesSuccessResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if len(resp.Data) != 1 || resp.Data[0].Email != "a@example.com" {
		t.Fatalf("unexpected payload: %+v", resp.Data)
	}
}
