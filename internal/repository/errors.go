// Package repository implements all database queries for the ticketing
// system. It uses pgx directly (no ORM).
package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateEmail is returned when a user with the same email exists.
var ErrDuplicateEmail = errors.New("email already exists")

// ErrDuplicateName is returned when a user with the same name exists.
var ErrDuplicateName = errors.New("name already taken")

// ErrResetCodeMismatch is returned when a password reset is applied
// with a code that is no longer pending on the user.
var ErrResetCodeMismatch = errors.New("reset code does not match")

// InsufficientCapacityError is returned when a booking asks for more
// tickets than remain.
type InsufficientCapacityError struct {
	Remaining int
}

func (e *InsufficientCapacityError) Error() string {
	return fmt.Sprintf("not enough tickets: %d left", e.Remaining)
}

// Unique constraint names from schema.sql.
const (
	constraintUserEmail   = "users_email_key"
	constraintUserName    = "users_name_key"
	constraintBookingCode = "bookings_booking_code_key"
)

const pgUniqueViolation = "23505"

// uniqueViolation returns the violated constraint name, or "" when err
// is not a unique violation.
func uniqueViolation(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return pgErr.ConstraintName
	}
	return ""
}
