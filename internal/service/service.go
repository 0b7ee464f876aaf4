// Package service implements business logic, validation, and orchestration
// between HTTP handlers and the storage layer.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
)

// Kind classifies a service failure for the HTTP boundary.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	}
	return "internal"
}

// Error is a classified, user-facing failure. Any error that is not an
// *Error is treated as internal.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of err, or 0 when err is internal.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return 0
}

// UserStore persists users.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByName(ctx context.Context, name string) (*model.User, error)
	GetByEmailOrName(ctx context.Context, identifier string) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	SetResetToken(ctx context.Context, userID, code string, expiresAt time.Time) error
	ResetPassword(ctx context.Context, userID, code, passwordHash string) error
}

// EventStore persists events.
type EventStore interface {
	Create(ctx context.Context, e *model.Event) error
	List(ctx context.Context) ([]model.Event, error)
	GetByID(ctx context.Context, id string) (*model.Event, error)
	Update(ctx context.Context, id string, mutate func(*model.Event) error) (*model.Event, error)
	Delete(ctx context.Context, id string) (*string, error)
}

// BookingStore persists bookings. Book must check and decrement event
// capacity atomically with the booking insert.
type BookingStore interface {
	Book(ctx context.Context, req model.BookingRequest) (*model.Booking, error)
	ListByAttendee(ctx context.Context, attendeeID string) ([]model.BookingSummary, error)
}

// ImageStore stores event image files.
type ImageStore interface {
	Save(originalName string, content io.Reader) (string, error)
	Delete(name string) error
	URL(name *string) *string
}

// TokenIssuer signs bearer tokens.
type TokenIssuer interface {
	Issue(userID string, role model.Role) (string, error)
}
