package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"eventcalendar/internal/delivery/http/helpers"
	"eventcalendar/internal/delivery/http/middleware"
	"eventcalendar/internal/domain"
)

type RegistrationController struct {
	Logger  *slog.Logger
	Service domain.RegistrationService
}

func NewRegistrationController(logger *slog.Logger, svc domain.RegistrationService) *RegistrationController {
	return &RegistrationController{
		Logger:  logger,
		Service: svc,
	}
}

// ApplyRequest is the request body for POST /events/{eventID}/apply. The
// schema is intentionally empty: a body is optional, but a present one must
// be valid JSON with no unknown fields.
type ApplyRequest struct{}

// CancelRequest is the request body for DELETE /events/{eventID}/cancel.
// Same contract as ApplyRequest: optional, but validated when present.
type CancelRequest struct{}

// ApplyResult is the data payload for a successful POST /events/{eventID}/apply.
type ApplyResult struct {
	Success      bool             `json:"success"`
	Message      string           `json:"message"`
	Registration *domain.Attendee `json:"registration"`
}

// ApplySuccessResponse is the success response envelope for POST /events/{eventID}/apply (201).
type ApplySuccessResponse struct {
	Data  ApplyResult       `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// Apply godoc
// @Summary Register the current user for an event
// @Description Registers the authenticated user as an attendee. Fails with 400 when already registered, when the event has started, or when the event is at capacity.
// @Tags registrations
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Success 201 {object} controllers.ApplySuccessResponse "data contains the created registration"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/apply [post]
func (c *RegistrationController) Apply(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	if r.ContentLength != 0 {
		var req ApplyRequest
		if !helpers.DecodeAndValidate(w, r, &req) {
			return
		}
	}

	reg, err := c.Service.Apply(r.Context(), eventID, claims.UserID, claims.Email)
	if err != nil {
		var full *domain.EventFullError
		switch {
		case errors.Is(err, domain.ErrNotFound):
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "event not found")
		case errors.Is(err, domain.ErrAlreadyRegistered):
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "already registered")
		case errors.Is(err, domain.ErrEventStarted):
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "registration closed, event already started")
		case errors.As(err, &full):
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, full.Error())
		default:
			c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
			helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, internalErrorMessage)
		}
		return
	}

	helpers.WriteJSONSuccess(w, http.StatusCreated, ApplyResult{
		Success:      true,
		Message:      "registration complete",
		Registration: reg,
	})
}

// CancelResult is the data payload for a successful DELETE /events/{eventID}/cancel.
type CancelResult struct {
	Success                 bool   `json:"success"`
	Message                 string `json:"message"`
	CancelledRegistrationID string `json:"cancelled_registration_id"`
}

// CancelSuccessResponse is the success response envelope for DELETE /events/{eventID}/cancel (200).
type CancelSuccessResponse struct {
	Data  CancelResult      `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// Cancel godoc
// @Summary Cancel the current user's registration for an event
// @Description Deletes the authenticated user's registration. Fails with 400 when not registered or when the event has started.
// @Tags registrations
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Success 200 {object} controllers.CancelSuccessResponse "data contains the cancelled registration ID"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/cancel [delete]
func (c *RegistrationController) Cancel(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	if r.ContentLength != 0 {
		var req CancelRequest
		if !helpers.DecodeAndValidate(w, r, &req) {
			return
		}
	}

	cancelledID, err := c.Service.Cancel(r.Context(), eventID, claims.UserID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "event not found")
		case errors.Is(err, domain.ErrNotRegistered):
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "not registered for this event")
		case errors.Is(err, domain.ErrEventStarted):
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "cannot cancel after event start")
		default:
			c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
			helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, internalErrorMessage)
		}
		return
	}

	helpers.WriteJSONSuccess(w, http.StatusOK, CancelResult{
		Success:                 true,
		Message:                 "registration cancelled",
		CancelledRegistrationID: cancelledID,
	})
}

// MyRegistrationsSuccessResponse is the success response envelope for GET /me/registrations (200).
type MyRegistrationsSuccessResponse struct {
	Data  []*domain.AttendeeWithEvent `json:"data"`
	Error *helpers.APIError           `json:"error"`
}

// ListMyRegistrations godoc
// @Summary List the current user's registrations
// @Description Returns the authenticated user's registrations with their events, newest first.
// @Tags registrations
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.MyRegistrationsSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /me/registrations [get]
func (c *RegistrationController) ListMyRegistrations(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}

	items, err := c.Service.ListMyRegistrations(r.Context(), claims.UserID)
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, internalErrorMessage)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, items)
}
