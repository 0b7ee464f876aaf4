package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/notify"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/repository"
)

// BookingService is the booking engine.
type BookingService struct {
	bookings BookingStore
	pub      notify.Publisher
	logger   *slog.Logger
}

// NewBookingService constructs a BookingService.
func NewBookingService(bookings BookingStore, pub notify.Publisher, logger *slog.Logger) *BookingService {
	return &BookingService{bookings: bookings, pub: pub, logger: logger}
}

// Create books quantity tickets for caller. Only attendees may book.
// The capacity check, booking insert and capacity decrement are one
// atomic step in the store.
func (s *BookingService) Create(ctx context.Context, caller model.Identity, eventID string, quantity int) (*model.Booking, error) {
	if caller.Role != model.RoleUser {
		return nil, newError(KindForbidden, "Forbidden: Only User (Attendee) can book tickets")
	}
	if quantity < 1 {
		return nil, newError(KindValidation, "Quantity must be at least 1")
	}
	if !validID(eventID) {
		return nil, newError(KindNotFound, msgEventNotFound)
	}

	b, err := s.bookings.Book(ctx, model.BookingRequest{
		EventID:    eventID,
		AttendeeID: caller.UserID,
		Quantity:   quantity,
	})
	if err != nil {
		var capErr *repository.InsufficientCapacityError
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, newError(KindNotFound, msgEventNotFound)
		case errors.As(err, &capErr):
			return nil, newError(KindConflict, "Not enough tickets. Only %d left.", capErr.Remaining)
		}
		return nil, fmt.Errorf("book event: %w", err)
	}

	s.logger.Info("booking confirmed",
		"booking_id", b.ID, "event_id", b.EventID, "attendee_id", b.AttendeeID,
		"quantity", b.Quantity, "total_price", b.TotalPrice)

	// Downstream consumers are notified best-effort; the booking stands
	// regardless.
	if err := s.pub.PublishJSON(ctx, notify.RoutingBookingCreated, model.BookingCreatedMessage{
		BookingID:   b.ID,
		BookingCode: b.BookingCode,
		EventID:     b.EventID,
		AttendeeID:  b.AttendeeID,
		Quantity:    b.Quantity,
		TotalPrice:  b.TotalPrice,
		BookedAt:    b.BookingDate,
	}); err != nil {
		s.logger.Warn("publish booking.created failed", "booking_id", b.ID, "err", err)
	}
	return b, nil
}

// ListMine returns the caller's bookings, newest first.
func (s *BookingService) ListMine(ctx context.Context, caller model.Identity) ([]model.BookingSummary, error) {
	out, err := s.bookings.ListByAttendee(ctx, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return out, nil
}
