package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/auth"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// maxCodeAttempts bounds retries when a generated booking code collides
// with an existing one.
const maxCodeAttempts = 5

// BookingRepository handles persistence for bookings.
type BookingRepository struct {
	db      *pgxpool.Pool
	newCode func() (string, error)
}

// NewBookingRepository constructs a BookingRepository.
func NewBookingRepository(db *pgxpool.Pool) *BookingRepository {
	return &BookingRepository{db: db, newCode: auth.NewBookingCode}
}

// Book reserves tickets inside one transaction.
//
// Concurrent bookings for the same event all contend on events.capacity.
// A plain read-then-write lets two requests see the same remaining count
// and both succeed, so the event row is locked with SELECT ... FOR UPDATE
// before the check. Every other booking for that event blocks on the lock
// until this transaction commits or rolls back, which serialises the
// check and the decrement. The CHECK (capacity >= 0) constraint is the
// backstop if that ever regresses.
//
// The insert runs under a savepoint so a booking code collision can be
// retried with a fresh code without aborting the outer transaction.
func (r *BookingRepository) Book(ctx context.Context, req model.BookingRequest) (*model.Booking, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// ── Step 1: lock the event row ────────────────────────────────────────
	var capacity int
	var price int64
	err = tx.QueryRow(ctx,
		`SELECT capacity, ticket_price FROM events WHERE id = $1 FOR UPDATE`,
		req.EventID,
	).Scan(&capacity, &price)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lock event row: %w", err)
	}

	// ── Step 2: guard against overbooking ─────────────────────────────────
	if req.Quantity > capacity {
		return nil, &InsufficientCapacityError{Remaining: capacity}
	}

	booking := &model.Booking{
		ID:          uuid.NewString(),
		EventID:     req.EventID,
		AttendeeID:  req.AttendeeID,
		Quantity:    req.Quantity,
		TotalPrice:  int64(req.Quantity) * price,
		Status:      model.BookingStatusConfirmed,
		BookingDate: time.Now().UTC(),
	}

	// ── Step 3: insert the booking with a unique code ─────────────────────
	if err := r.insertWithCode(ctx, tx, booking); err != nil {
		return nil, err
	}

	// ── Step 4: decrement capacity in the same transaction ────────────────
	_, err = tx.Exec(ctx,
		`UPDATE events SET capacity = capacity - $1 WHERE id = $2`,
		req.Quantity, req.EventID,
	)
	if err != nil {
		return nil, fmt.Errorf("decrement capacity: %w", err)
	}

	// ── Step 5: commit; only now is the booking visible ───────────────────
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return booking, nil
}

func (r *BookingRepository) insertWithCode(ctx context.Context, tx pgx.Tx, b *model.Booking) error {
	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		code, err := r.newCode()
		if err != nil {
			return err
		}

		sp, err := tx.Begin(ctx)
		if err != nil {
			return fmt.Errorf("savepoint: %w", err)
		}
		_, err = sp.Exec(ctx,
			`INSERT INTO bookings (id, event_id, attendee_id, quantity, total_price,
			                       booking_code, status, booking_date)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			b.ID, b.EventID, b.AttendeeID, b.Quantity, b.TotalPrice, code, b.Status, b.BookingDate,
		)
		if err == nil {
			if err := sp.Commit(ctx); err != nil {
				return fmt.Errorf("release savepoint: %w", err)
			}
			b.BookingCode = code
			return nil
		}
		_ = sp.Rollback(ctx)
		if uniqueViolation(err) != constraintBookingCode {
			return fmt.Errorf("insert booking: %w", err)
		}
	}
	return fmt.Errorf("insert booking: no unique code after %d attempts", maxCodeAttempts)
}

// ListByAttendee returns the attendee's bookings, newest first, joined
// with their events.
func (r *BookingRepository) ListByAttendee(ctx context.Context, attendeeID string) ([]model.BookingSummary, error) {
	rows, err := r.db.Query(ctx,
		`SELECT b.id, b.booking_code, e.title, e.event_date, b.quantity,
		        b.total_price, b.status, b.booking_date
		 FROM bookings b
		 LEFT JOIN events e ON e.id = b.event_id
		 WHERE b.attendee_id = $1
		 ORDER BY b.booking_date DESC`,
		attendeeID,
	)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	var out []model.BookingSummary
	for rows.Next() {
		var s model.BookingSummary
		var title *string
		if err := rows.Scan(&s.ID, &s.BookingCode, &title, &s.EventDate, &s.Quantity,
			&s.TotalPrice, &s.Status, &s.BookingDate); err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		s.EventTitle = model.UnknownEventTitle
		if title != nil {
			s.EventTitle = *title
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
