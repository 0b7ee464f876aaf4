package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func (f *fixture) expectPublish(err error) {
	f.pub.On("PublishJSON", mock.Anything, notify.RoutingBookingCreated, mock.AnythingOfType("model.BookingCreatedMessage")).
		Return(err)
}

func TestBookingSellsOutExactly(t *testing.T) {
	f := newFixture(t)
	f.expectPublish(nil)
	ctx := context.Background()
	admin := f.register(t, "root", "root@gmail.com", model.RoleAdmin)
	alice := f.register(t, "alice", "alice@gmail.com", model.RoleUser)
	e := f.createEvent(t, admin, 2, 100)

	b, err := f.bookings.Create(ctx, alice, e.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(200), b.TotalPrice)
	assert.Equal(t, model.BookingStatusConfirmed, b.Status)
	assert.Regexp(t, `^BK-[A-Z0-9]{8}$`, b.BookingCode)

	got, err := f.events.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Capacity)

	_, err = f.bookings.Create(ctx, alice, e.ID, 1)
	assertKind(t, err, KindConflict, "Not enough tickets. Only 0 left.")
}

func TestConcurrentBookingsNeverOversell(t *testing.T) {
	f := newFixture(t)
	f.expectPublish(nil)
	ctx := context.Background()
	admin := f.register(t, "root", "root@gmail.com", model.RoleAdmin)
	alice := f.register(t, "alice", "alice@gmail.com", model.RoleUser)
	e := f.createEvent(t, admin, 10, 5)

	const buyers = 25
	var sold, rejected atomic.Int64
	var wg sync.WaitGroup
	for range buyers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.bookings.Create(ctx, alice, e.ID, 1)
			switch {
			case err == nil:
				sold.Add(1)
			case KindOf(err) == KindConflict:
				rejected.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(10), sold.Load())
	assert.Equal(t, int64(buyers-10), rejected.Load())

	got, err := f.events.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Capacity)
}

func TestBookingSnapshotsPrice(t *testing.T) {
	f := newFixture(t)
	f.expectPublish(nil)
	ctx := context.Background()
	admin := f.register(t, "root", "root@gmail.com", model.RoleAdmin)
	alice := f.register(t, "alice", "alice@gmail.com", model.RoleUser)
	e := f.createEvent(t, admin, 10, 100)

	_, err := f.bookings.Create(ctx, alice, e.ID, 3)
	require.NoError(t, err)

	_, err = f.events.Update(ctx, admin, e.ID, model.EventInput{TicketPrice: ptr[int64](150)})
	require.NoError(t, err)

	_, err = f.bookings.Create(ctx, alice, e.ID, 1)
	require.NoError(t, err)

	mine, err := f.bookings.ListMine(ctx, alice)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, int64(150), mine[0].TotalPrice, "newest first")
	assert.Equal(t, int64(300), mine[1].TotalPrice)
}

func TestBookingRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.register(t, "root", "root@gmail.com", model.RoleAdmin)
	alice := f.register(t, "alice", "alice@gmail.com", model.RoleUser)
	e := f.createEvent(t, admin, 5, 10)

	_, err := f.bookings.Create(ctx, admin, e.ID, 1)
	assertKind(t, err, KindForbidden, "Forbidden: Only User (Attendee) can book tickets")

	_, err = f.bookings.Create(ctx, alice, e.ID, 0)
	assertKind(t, err, KindValidation, "")

	_, err = f.bookings.Create(ctx, alice, "2b0b9e36-7f7c-4d7b-b6a2-0b8f0f1c9e11", 1)
	assertKind(t, err, KindNotFound, "Event not found")

	_, err = f.bookings.Create(ctx, alice, "42", 1)
	assertKind(t, err, KindNotFound, "Event not found")

	_, err = f.bookings.Create(ctx, alice, e.ID, 6)
	assertKind(t, err, KindConflict, "Not enough tickets. Only 5 left.")

	got, err := f.events.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Capacity)
	f.pub.AssertNotCalled(t, "PublishJSON", mock.Anything, mock.Anything, mock.Anything)
}

func TestBookingPublishesEvent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.register(t, "root", "root@gmail.com", model.RoleAdmin)
	alice := f.register(t, "alice", "alice@gmail.com", model.RoleUser)
	e := f.createEvent(t, admin, 5, 10)

	var msg model.BookingCreatedMessage
	f.pub.On("PublishJSON", mock.Anything, notify.RoutingBookingCreated, mock.Anything).
		Run(func(args mock.Arguments) { msg = args.Get(2).(model.BookingCreatedMessage) }).
		Return(nil).Once()

	b, err := f.bookings.Create(ctx, alice, e.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, b.ID, msg.BookingID)
	assert.Equal(t, b.BookingCode, msg.BookingCode)
	assert.Equal(t, alice.UserID, msg.AttendeeID)
	assert.Equal(t, int64(20), msg.TotalPrice)
	f.pub.AssertExpectations(t)
}

func TestBookingSurvivesPublishFailure(t *testing.T) {
	f := newFixture(t)
	f.expectPublish(errors.New("broker unreachable"))
	ctx := context.Background()
	admin := f.register(t, "root", "root@gmail.com", model.RoleAdmin)
	alice := f.register(t, "alice", "alice@gmail.com", model.RoleUser)
	e := f.createEvent(t, admin, 5, 10)

	_, err := f.bookings.Create(ctx, alice, e.ID, 1)
	require.NoError(t, err)

	got, err := f.events.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Capacity)
}

func TestListMineShowsUnknownEventAfterDelete(t *testing.T) {
	f := newFixture(t)
	f.expectPublish(nil)
	ctx := context.Background()
	admin := f.register(t, "root", "root@gmail.com", model.RoleAdmin)
	alice := f.register(t, "alice", "alice@gmail.com", model.RoleUser)
	bob := f.register(t, "bob", "bob@gmail.com", model.RoleUser)
	e := f.createEvent(t, admin, 5, 10)

	_, err := f.bookings.Create(ctx, alice, e.ID, 1)
	require.NoError(t, err)
	require.NoError(t, f.events.Delete(ctx, admin, e.ID))

	mine, err := f.bookings.ListMine(ctx, alice)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, model.UnknownEventTitle, mine[0].EventTitle)
	assert.Nil(t, mine[0].EventDate)

	theirs, err := f.bookings.ListMine(ctx, bob)
	require.NoError(t, err)
	assert.Empty(t, theirs)
}
