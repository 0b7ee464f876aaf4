// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/service"
)

const msgInternal = "Internal server error"

// Options tune request handling.
type Options struct {
	// MaxUploadBytes caps multipart request bodies.
	MaxUploadBytes int64
	// ExposeInternalErrors puts the raw error text in 500 responses.
	ExposeInternalErrors bool
}

// Handler holds all HTTP handlers for the ticketing API.
type Handler struct {
	auth     *service.AuthService
	events   *service.EventService
	bookings *service.BookingService
	tokens   TokenVerifier
	opts     Options
	logger   *slog.Logger
}

// New constructs a Handler.
func New(
	auth *service.AuthService,
	events *service.EventService,
	bookings *service.BookingService,
	tokens TokenVerifier,
	opts Options,
	logger *slog.Logger,
) *Handler {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 << 20
	}
	return &Handler{
		auth:     auth,
		events:   events,
		bookings: bookings,
		tokens:   tokens,
		opts:     opts,
		logger:   logger,
	}
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.MessageResponse{Message: msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	return json.NewDecoder(r.Body).Decode(dst)
}

// statusFor maps a service error kind to its HTTP status. Conflicts
// answer 400, which is what existing clients expect for duplicates and
// sold-out events.
func statusFor(kind service.Kind) int {
	switch kind {
	case service.KindValidation, service.KindConflict:
		return http.StatusBadRequest
	case service.KindUnauthorized:
		return http.StatusUnauthorized
	case service.KindForbidden:
		return http.StatusForbidden
	case service.KindNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// fail converts err into a JSON error response.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var fe *formError
	if errors.As(err, &fe) {
		writeError(w, http.StatusBadRequest, fe.msg)
		return
	}
	status := statusFor(service.KindOf(err))
	msg := err.Error()
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed",
			"method", r.Method, "path", r.URL.Path, "request_id", requestID(r), "err", err)
		if !h.opts.ExposeInternalErrors {
			msg = msgInternal
		}
	}
	writeError(w, status, msg)
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
