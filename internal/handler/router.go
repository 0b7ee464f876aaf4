package handler

import (
	"log/slog"
	"net/http"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/storage"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter builds the HTTP surface: the /api routes, uploaded images
// under /static/uploads/ and /health.
func NewRouter(h *Handler, uploadDir string, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware stack
	r.Use(chimiddleware.Recoverer) // recover from panics, return 500
	r.Use(chimiddleware.RequestID) // attach request IDs
	r.Use(chimiddleware.RealIP)    // trust X-Forwarded-For
	r.Use(Logger(logger))          // structured access log
	r.Use(CORS)                    // origin echo + preflight

	r.Get("/health", HealthCheck)

	r.Handle(storage.URLPrefix+"*",
		http.StripPrefix(storage.URLPrefix, http.FileServer(http.Dir(uploadDir))))

	adminOnly := RequireRole("Forbidden: Only Admins can manage events", model.RoleAdmin)

	r.Route("/api", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Post("/forgot-password", h.ForgotPassword)
		r.Post("/reset-password", h.ResetPassword)

		r.Get("/events", h.ListEvents)
		r.Get("/events/{id}", h.GetEvent)

		r.Group(func(r chi.Router) {
			r.Use(h.Authenticate)

			r.Get("/profile", h.Profile)
			r.Get("/my-bookings", h.MyBookings)
			r.With(RequireRole("Forbidden: Only User (Attendee) can book tickets", model.RoleUser)).
				Post("/bookings", h.CreateBooking)
			r.With(RequireRole("Access Denied: Only Admins can view user list", model.RoleAdmin)).
				Get("/users", h.ListUsers)

			r.With(adminOnly).Post("/events", h.CreateEvent)
			r.With(adminOnly).Put("/events/{id}", h.UpdateEvent)
			r.With(adminOnly).Delete("/events/{id}", h.DeleteEvent)
		})
	})

	return r
}
