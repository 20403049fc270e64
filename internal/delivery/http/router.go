package http

import (
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"eventcalendar/internal/delivery/http/controllers"
	"eventcalendar/internal/delivery/http/helpers"
	"eventcalendar/internal/delivery/http/middleware"
	"eventcalendar/internal/domain"
)

// NewRouter initializes the HTTP router with all application routes.
// Event reads are public; everything that writes requires a bearer token.
func NewRouter(
	logger *slog.Logger,
	verifier domain.TokenVerifier,
	eventController *controllers.EventController,
	registrationController *controllers.RegistrationController,
	authController *controllers.AuthController,
) *http.ServeMux {
	mux := http.NewServeMux()
	requireAuth := middleware.RequireAuth(verifier, logger)

	// Events
	mux.HandleFunc("GET /events", eventController.ListEvents)
	mux.HandleFunc("GET /events/{eventID}", eventController.GetEvent)
	mux.HandleFunc("POST /events", requireAuth(eventController.CreateEvent))
	mux.HandleFunc("PATCH /events/{eventID}", requireAuth(eventController.UpdateEvent))
	mux.HandleFunc("DELETE /events/{eventID}", requireAuth(eventController.DeleteEvent))
	mux.HandleFunc("GET /events/{eventID}/image", eventController.GetEventImage)
	mux.HandleFunc("POST /events/{eventID}/image", requireAuth(eventController.UploadEventImage))
	mux.HandleFunc("DELETE /events/{eventID}/image", requireAuth(eventController.RemoveEventImage))
	mux.HandleFunc("GET /events/{eventID}/attendees", requireAuth(eventController.ListEventAttendees))

	// Registrations
	mux.HandleFunc("POST /events/{eventID}/apply", requireAuth(registrationController.Apply))
	mux.HandleFunc("DELETE /events/{eventID}/cancel", requireAuth(registrationController.Cancel))
	mux.HandleFunc("GET /me/registrations", requireAuth(registrationController.ListMyRegistrations))

	// Auth
	mux.HandleFunc("POST /auth/signup", authController.SignUp)
	mux.HandleFunc("POST /auth/login", authController.Login)
	mux.HandleFunc("GET /me", requireAuth(authController.Me))

	// Health
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
