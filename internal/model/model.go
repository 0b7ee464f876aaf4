// Package model defines the core domain types for the event ticketing system.
package model

import (
	"io"
	"time"
)

// Role is the access level carried by a user and their bearer token.
type Role string

const (
	// RoleAdmin organizes events.
	RoleAdmin Role = "admin"
	// RoleUser is an attendee who books tickets.
	RoleUser Role = "user"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// BookingStatusConfirmed is the only status a booking reaches today.
const BookingStatusConfirmed = "confirmed"

// UnknownEventTitle stands in for the title of a deleted event.
const UnknownEventTitle = "Unknown Event"

// User is a registered account.
type User struct {
	ID               string
	Name             string
	Email            string
	PasswordHash     string
	Role             Role
	ResetToken       *string
	ResetTokenExpiry *time.Time
	CreatedAt        time.Time
}

// Event is a ticketed event owned by an organizer.
type Event struct {
	ID            string
	OrganizerID   string
	Title         string
	Description   string
	Date          time.Time
	Location      string
	Capacity      int
	TicketPrice   int64
	ImageFilename *string
	CreatedAt     time.Time
}

// Booking is a confirmed ticket purchase. TotalPrice is fixed at
// booking time and never recomputed.
type Booking struct {
	ID          string
	EventID     string
	AttendeeID  string
	Quantity    int
	TotalPrice  int64
	BookingCode string
	Status      string
	BookingDate time.Time
}

// BookingRequest is what the booking engine needs to reserve tickets.
type BookingRequest struct {
	EventID    string
	AttendeeID string
	Quantity   int
}

// BookingSummary is a booking joined with its event for listings.
// EventTitle is UnknownEventTitle and EventDate nil when the event
// no longer exists.
type BookingSummary struct {
	ID          string
	BookingCode string
	EventTitle  string
	EventDate   *time.Time
	Quantity    int
	TotalPrice  int64
	Status      string
	BookingDate time.Time
}

// Identity is the verified caller extracted from a bearer token.
type Identity struct {
	UserID string
	Role   Role
}

// ImageUpload is an image file received with an event form.
type ImageUpload struct {
	Filename string
	Content  io.Reader
}

// EventInput carries event fields from a create or update form.
// Nil fields are left unchanged on update and required on create
// where noted by the service.
type EventInput struct {
	Title       *string
	Description *string
	Date        *time.Time
	Location    *string
	Capacity    *int
	TicketPrice *int64
	Image       *ImageUpload
}

// BookingCreatedMessage is published after a booking commits.
type BookingCreatedMessage struct {
	BookingID   string    `json:"booking_id"`
	BookingCode string    `json:"booking_code"`
	EventID     string    `json:"event_id"`
	AttendeeID  string    `json:"attendee_id"`
	Quantity    int       `json:"quantity"`
	TotalPrice  int64     `json:"total_price"`
	BookedAt    time.Time `json:"booked_at"`
}
