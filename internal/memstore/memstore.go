// Package memstore is an in-process implementation of the user, event
// and booking stores. It backs STORE_DRIVER=memory and the test suites.
//
// A single mutex guards all state, so Book's capacity check and
// decrement happen as one step in the same way the Postgres row lock
// serialises them.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/auth"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/repository"
	"github.com/google/uuid"
)

const maxCodeAttempts = 5

// Store holds users, events and bookings in memory.
type Store struct {
	mu       sync.Mutex
	users    map[string]model.User
	events   map[string]model.Event
	bookings map[string]model.Booking
	codes    map[string]bool
	seq      int64

	// NewCode generates booking codes. Tests replace it to force collisions.
	NewCode func() (string, error)
	// Now stamps created records.
	Now func() time.Time
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		users:    map[string]model.User{},
		events:   map[string]model.Event{},
		bookings: map[string]model.Booking{},
		codes:    map[string]bool{},
		NewCode:  auth.NewBookingCode,
		Now:      func() time.Time { return time.Now().UTC() },
	}
}

// Users returns a view of the store satisfying the user store contract.
func (s *Store) Users() *Users { return &Users{s} }

// Events returns a view of the store satisfying the event store contract.
func (s *Store) Events() *Events { return &Events{s} }

// Bookings returns a view of the store satisfying the booking store contract.
func (s *Store) Bookings() *Bookings { return &Bookings{s} }

// stamp returns a strictly increasing timestamp so orderings by time are
// stable even when Now returns the same instant twice.
func (s *Store) stamp() time.Time {
	s.seq++
	return s.Now().Add(time.Duration(s.seq) * time.Microsecond)
}

// ─── Users ────────────────────────────────────────────────────────────────────

// Users is the user store view.
type Users struct{ s *Store }

func (u *Users) Create(_ context.Context, user *model.User) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	for _, existing := range u.s.users {
		if existing.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
		if existing.Name == user.Name {
			return repository.ErrDuplicateName
		}
	}
	user.ID = uuid.NewString()
	user.CreatedAt = u.s.stamp()
	u.s.users[user.ID] = cloneUser(*user)
	return nil
}

func (u *Users) GetByID(_ context.Context, id string) (*model.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	user, ok := u.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := cloneUser(user)
	return &c, nil
}

func (u *Users) GetByEmail(_ context.Context, email string) (*model.User, error) {
	return u.find(func(x model.User) bool { return x.Email == email })
}

func (u *Users) GetByName(_ context.Context, name string) (*model.User, error) {
	return u.find(func(x model.User) bool { return x.Name == name })
}

func (u *Users) GetByEmailOrName(ctx context.Context, identifier string) (*model.User, error) {
	if user, err := u.GetByEmail(ctx, identifier); err == nil {
		return user, nil
	}
	return u.GetByName(ctx, identifier)
}

func (u *Users) find(match func(model.User) bool) (*model.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	for _, user := range u.s.users {
		if match(user) {
			c := cloneUser(user)
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (u *Users) List(_ context.Context) ([]model.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	out := make([]model.User, 0, len(u.s.users))
	for _, user := range u.s.users {
		out = append(out, cloneUser(user))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (u *Users) SetResetToken(_ context.Context, userID, code string, expiresAt time.Time) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	user, ok := u.s.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	user.ResetToken = &code
	user.ResetTokenExpiry = &expiresAt
	u.s.users[userID] = user
	return nil
}

func (u *Users) ResetPassword(_ context.Context, userID, code, passwordHash string) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	user, ok := u.s.users[userID]
	if !ok || user.ResetToken == nil || *user.ResetToken != code {
		return repository.ErrResetCodeMismatch
	}
	user.PasswordHash = passwordHash
	user.ResetToken = nil
	user.ResetTokenExpiry = nil
	u.s.users[userID] = user
	return nil
}

func cloneUser(u model.User) model.User {
	if u.ResetToken != nil {
		t := *u.ResetToken
		u.ResetToken = &t
	}
	if u.ResetTokenExpiry != nil {
		t := *u.ResetTokenExpiry
		u.ResetTokenExpiry = &t
	}
	return u
}

// ─── Events ───────────────────────────────────────────────────────────────────

// Events is the event store view.
type Events struct{ s *Store }

func (e *Events) Create(_ context.Context, ev *model.Event) error {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()
	ev.ID = uuid.NewString()
	ev.CreatedAt = e.s.stamp()
	e.s.events[ev.ID] = cloneEvent(*ev)
	return nil
}

func (e *Events) List(_ context.Context) ([]model.Event, error) {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()
	out := make([]model.Event, 0, len(e.s.events))
	for _, ev := range e.s.events {
		out = append(out, cloneEvent(ev))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (e *Events) GetByID(_ context.Context, id string) (*model.Event, error) {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()
	ev, ok := e.s.events[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := cloneEvent(ev)
	return &c, nil
}

func (e *Events) Update(_ context.Context, id string, mutate func(*model.Event) error) (*model.Event, error) {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()
	ev, ok := e.s.events[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	working := cloneEvent(ev)
	if err := mutate(&working); err != nil {
		return nil, err
	}
	if working.Capacity < 0 {
		return nil, fmt.Errorf("update event: capacity %d violates capacity >= 0", working.Capacity)
	}
	working.ID = id
	e.s.events[id] = cloneEvent(working)
	return &working, nil
}

func (e *Events) Delete(_ context.Context, id string) (*string, error) {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()
	ev, ok := e.s.events[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	delete(e.s.events, id)
	return ev.ImageFilename, nil
}

func cloneEvent(e model.Event) model.Event {
	if e.ImageFilename != nil {
		f := *e.ImageFilename
		e.ImageFilename = &f
	}
	return e
}

// ─── Bookings ─────────────────────────────────────────────────────────────────

// Bookings is the booking store view.
type Bookings struct{ s *Store }

// Book checks capacity, records the booking and decrements capacity
// while holding the store lock.
func (b *Bookings) Book(_ context.Context, req model.BookingRequest) (*model.Booking, error) {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()

	ev, ok := b.s.events[req.EventID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if req.Quantity > ev.Capacity {
		return nil, &repository.InsufficientCapacityError{Remaining: ev.Capacity}
	}

	code, err := b.uniqueCode()
	if err != nil {
		return nil, err
	}

	booking := model.Booking{
		ID:          uuid.NewString(),
		EventID:     req.EventID,
		AttendeeID:  req.AttendeeID,
		Quantity:    req.Quantity,
		TotalPrice:  int64(req.Quantity) * ev.TicketPrice,
		BookingCode: code,
		Status:      model.BookingStatusConfirmed,
		BookingDate: b.s.stamp(),
	}
	ev.Capacity -= req.Quantity
	b.s.events[ev.ID] = ev
	b.s.bookings[booking.ID] = booking
	b.s.codes[code] = true
	return &booking, nil
}

func (b *Bookings) uniqueCode() (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := b.s.NewCode()
		if err != nil {
			return "", err
		}
		if !b.s.codes[code] {
			return code, nil
		}
	}
	return "", fmt.Errorf("insert booking: no unique code after %d attempts", maxCodeAttempts)
}

func (b *Bookings) ListByAttendee(_ context.Context, attendeeID string) ([]model.BookingSummary, error) {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	var out []model.BookingSummary
	for _, bk := range b.s.bookings {
		if bk.AttendeeID != attendeeID {
			continue
		}
		s := model.BookingSummary{
			ID:          bk.ID,
			BookingCode: bk.BookingCode,
			EventTitle:  model.UnknownEventTitle,
			Quantity:    bk.Quantity,
			TotalPrice:  bk.TotalPrice,
			Status:      bk.Status,
			BookingDate: bk.BookingDate,
		}
		if ev, ok := b.s.events[bk.EventID]; ok {
			s.EventTitle = ev.Title
			d := ev.Date
			s.EventDate = &d
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BookingDate.After(out[j].BookingDate) })
	return out, nil
}
