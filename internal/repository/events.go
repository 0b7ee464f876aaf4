package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EventRepository handles persistence for events.
type EventRepository struct {
	db *pgxpool.Pool
}

// NewEventRepository constructs an EventRepository.
func NewEventRepository(db *pgxpool.Pool) *EventRepository {
	return &EventRepository{db: db}
}

const eventColumns = `id, organizer_id, title, description, event_date, location,
	capacity, ticket_price, image_filename, created_at`

func scanEvent(row pgx.Row) (*model.Event, error) {
	var e model.Event
	err := row.Scan(&e.ID, &e.OrganizerID, &e.Title, &e.Description, &e.Date, &e.Location,
		&e.Capacity, &e.TicketPrice, &e.ImageFilename, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

// Create inserts e, filling in ID and CreatedAt.
func (r *EventRepository) Create(ctx context.Context, e *model.Event) error {
	e.ID = uuid.NewString()
	e.CreatedAt = time.Now().UTC()

	_, err := r.db.Exec(ctx,
		`INSERT INTO events (id, organizer_id, title, description, event_date, location,
		                     capacity, ticket_price, image_filename, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		e.ID, e.OrganizerID, e.Title, e.Description, e.Date, e.Location,
		e.Capacity, e.TicketPrice, e.ImageFilename, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// List returns all events ordered by event date.
func (r *EventRepository) List(ctx context.Context) ([]model.Event, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+eventColumns+` FROM events ORDER BY event_date ASC, created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// GetByID returns a single event or ErrNotFound.
func (r *EventRepository) GetByID(ctx context.Context, id string) (*model.Event, error) {
	e, err := scanEvent(r.db.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1`, id))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("get event: %w", err)
	}
	return e, err
}

// Update locks the event row, lets mutate change it, and writes it back
// in the same transaction. Holding the row lock keeps an edit from
// overwriting a capacity decrement made by a concurrent booking.
func (r *EventRepository) Update(ctx context.Context, id string, mutate func(*model.Event) error) (*model.Event, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	e, err := scanEvent(tx.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lock event row: %w", err)
	}

	if err := mutate(e); err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx,
		`UPDATE events
		 SET title = $1, description = $2, event_date = $3, location = $4,
		     capacity = $5, ticket_price = $6, image_filename = $7
		 WHERE id = $8`,
		e.Title, e.Description, e.Date, e.Location, e.Capacity, e.TicketPrice, e.ImageFilename, e.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return e, nil
}

// Delete removes the event and returns its image filename, if any.
// Bookings keep their rows; their event reference becomes NULL.
func (r *EventRepository) Delete(ctx context.Context, id string) (*string, error) {
	var image *string
	err := r.db.QueryRow(ctx,
		`DELETE FROM events WHERE id = $1 RETURNING image_filename`, id,
	).Scan(&image)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("delete event: %w", err)
	}
	return image, nil
}
