package service

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/auth"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/clock"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/memstore"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/storage"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testStart = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) SendResetCode(ctx context.Context, to, code string) error {
	args := m.Called(ctx, to, code)
	return args.Error(0)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishJSON(ctx context.Context, key string, v any) error {
	args := m.Called(ctx, key, v)
	return args.Error(0)
}

func (m *mockPublisher) Close() error { return nil }

// fixture wires every service over one memstore.
type fixture struct {
	store    *memstore.Store
	clock    *clock.FakeClock
	tokens   *auth.TokenManager
	mailer   *mockMailer
	pub      *mockPublisher
	images   *storage.LocalStorage
	auth     *AuthService
	events   *EventService
	bookings *BookingService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:  memstore.New(),
		clock:  clock.Fake(testStart),
		mailer: new(mockMailer),
		pub:    new(mockPublisher),
	}
	f.tokens = auth.NewTokenManager("test-secret", time.Hour, f.clock)

	images, err := storage.NewLocalStorage(t.TempDir(), "http://localhost:6543")
	require.NoError(t, err)
	f.images = images

	f.auth = NewAuthService(f.store.Users(), f.tokens, f.mailer, f.clock, AuthOptions{
		AllowedEmailDomains: []string{"gmail.com", "student.itera.ac.id"},
		ResetCodeTTL:        15 * time.Minute,
	}, discardLogger())
	f.events = NewEventService(f.store.Events(), f.images, discardLogger())
	f.bookings = NewBookingService(f.store.Bookings(), f.pub, discardLogger())
	return f
}

func (f *fixture) register(t *testing.T, name, email string, role model.Role) model.Identity {
	t.Helper()
	u, err := f.auth.Register(context.Background(), model.RegisterRequest{
		Name: name, Email: email, Password: "password123", Role: string(role),
	})
	require.NoError(t, err)
	return model.Identity{UserID: u.ID, Role: u.Role}
}

func (f *fixture) createEvent(t *testing.T, admin model.Identity, capacity int, price int64) *model.Event {
	t.Helper()
	title, loc := "Concert", "Main Hall"
	date := testStart.Add(30 * 24 * time.Hour)
	e, err := f.events.Create(context.Background(), admin, model.EventInput{
		Title: &title, Location: &loc, Date: &date, Capacity: &capacity, TicketPrice: &price,
	})
	require.NoError(t, err)
	return e
}

func (f *fixture) imageFiles(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(f.images.Dir())
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, filepath.Base(e.Name()))
	}
	return names
}

func ptr[T any](v T) *T { return &v }
