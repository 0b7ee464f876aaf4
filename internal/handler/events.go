package handler

import (
	"io"
	"net/http"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
	"github.com/go-chi/chi/v5"
)

// ListEvents handles GET /api/events
// Returns a JSON array of all events.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.List(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	// Return an empty array rather than null for better client compatibility.
	out := make([]model.EventView, 0, len(events))
	for _, e := range events {
		out = append(out, h.events.View(e))
	}
	writeJSON(w, http.StatusOK, out)
}

// GetEvent handles GET /api/events/{id}
func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	e, err := h.events.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.events.View(*e))
}

// eventInput reads the multipart form of an event write.
func (h *Handler) eventInput(w http.ResponseWriter, r *http.Request) (model.EventInput, func(), error) {
	fields, cleanup, err := readForm(w, r, h.opts.MaxUploadBytes)
	if err != nil {
		return model.EventInput{}, cleanup, err
	}
	in, file, err := eventForm(fields)
	if err != nil {
		cleanup()
		return model.EventInput{}, func() {}, err
	}
	return in, func() {
		closeQuietly(file)
		cleanup()
	}, nil
}

func closeQuietly(c io.Closer) {
	if c != nil {
		_ = c.Close()
	}
}

// CreateEvent handles POST /api/events (admin only).
// Accepts multipart/form-data with an optional image file.
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	in, done, err := h.eventInput(w, r)
	defer done()
	if err != nil {
		h.fail(w, r, err)
		return
	}

	e, err := h.events.Create(r.Context(), caller(r), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, model.EventWriteResponse{
		Message:  "Event created successfully",
		ID:       e.ID,
		ImageURL: h.events.ImageURL(e.ImageFilename),
	})
}

// UpdateEvent handles PUT /api/events/{id} (admin only).
// Only the submitted fields change.
func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	in, done, err := h.eventInput(w, r)
	defer done()
	if err != nil {
		h.fail(w, r, err)
		return
	}

	e, err := h.events.Update(r.Context(), caller(r), chi.URLParam(r, "id"), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model.EventWriteResponse{
		Message:  "Event updated successfully",
		ImageURL: h.events.ImageURL(e.ImageFilename),
	})
}

// DeleteEvent handles DELETE /api/events/{id} (admin only).
func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := h.events.Delete(r.Context(), caller(r), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model.MessageResponse{Message: "Event and image deleted successfully"})
}
