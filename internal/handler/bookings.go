package handler

import (
	"net/http"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/service"
)

// CreateBooking handles POST /api/bookings
// Performs a concurrency-safe booking for the caller. Quantity defaults to 1.
func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req model.CreateBookingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgBadBody)
		return
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	b, err := h.bookings.Create(r.Context(), caller(r), req.EventID, quantity)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, model.BookingResponse{
		Message:     "Booking successful!",
		BookingID:   b.ID,
		BookingCode: b.BookingCode,
		TotalPrice:  b.TotalPrice,
	})
}

// MyBookings handles GET /api/my-bookings
// Returns the caller's bookings, newest first.
func (h *Handler) MyBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.bookings.ListMine(r.Context(), caller(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	out := make([]model.BookingView, 0, len(bookings))
	for _, b := range bookings {
		v := model.BookingView{
			ID:          b.ID,
			BookingCode: b.BookingCode,
			EventTitle:  b.EventTitle,
			Quantity:    b.Quantity,
			TotalPrice:  b.TotalPrice,
			Status:      b.Status,
			BookingDate: b.BookingDate.UTC().Format(service.DateLayout),
		}
		if b.EventDate != nil {
			d := b.EventDate.UTC().Format(service.DateLayout)
			v.EventDate = &d
		}
		out = append(out, v)
	}
	writeJSON(w, http.StatusOK, out)
}
