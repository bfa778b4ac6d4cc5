package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Anermers95/SWE5006/internal/model"
	"github.com/Anermers95/SWE5006/internal/queue"
	"github.com/Anermers95/SWE5006/internal/repository"
	"github.com/Anermers95/SWE5006/internal/schedule"
)

// fakeBookingStore is an in-memory BookingStore safe for concurrent use.
type fakeBookingStore struct {
	mu     sync.Mutex
	nextID uint64
	rows   map[uint64]model.Booking
}

func newFakeBookingStore() *fakeBookingStore {
	return &fakeBookingStore{nextID: 1, rows: map[uint64]model.Booking{}}
}

func (f *fakeBookingStore) Create(_ context.Context, b *model.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b.ID = f.nextID
	f.nextID++
	f.rows[b.ID] = *b
	return nil
}

func (f *fakeBookingStore) GetByID(_ context.Context, id uint64) (model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.rows[id]
	if !ok {
		return model.Booking{}, repository.ErrBookingNotFound
	}
	return b, nil
}

func (f *fakeBookingStore) Update(_ context.Context, b *model.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[b.ID]; !ok {
		return repository.ErrBookingNotFound
	}
	f.rows[b.ID] = *b
	return nil
}

func (f *fakeBookingStore) Delete(_ context.Context, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[id]; !ok {
		return repository.ErrBookingNotFound
	}
	delete(f.rows, id)
	return nil
}

func (f *fakeBookingStore) all(keep func(model.Booking) bool) []model.Booking {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Booking
	for _, b := range f.rows {
		if keep(b) {
			out = append(out, b)
		}
	}
	return out
}

func (f *fakeBookingStore) ListAll(_ context.Context) ([]model.Booking, error) {
	return f.all(func(model.Booking) bool { return true }), nil
}

func (f *fakeBookingStore) ListByUser(_ context.Context, userID uint64) ([]model.Booking, error) {
	return f.all(func(b model.Booking) bool { return b.UserID == userID }), nil
}

func (f *fakeBookingStore) ListByRoom(_ context.Context, roomID uint64) ([]model.Booking, error) {
	return f.all(func(b model.Booking) bool { return b.RoomID == roomID }), nil
}

func (f *fakeBookingStore) ListActiveByRoom(_ context.Context, roomID uint64) ([]model.Booking, error) {
	return f.all(func(b model.Booking) bool { return b.RoomID == roomID && b.IsActive }), nil
}

func (f *fakeBookingStore) ListActiveByRoomBetween(_ context.Context, roomID uint64, from, to time.Time) ([]model.Booking, error) {
	return f.all(func(b model.Booking) bool {
		return b.RoomID == roomID && b.IsActive && b.StartTime.Before(to) && b.EndTime.After(from)
	}), nil
}

func (f *fakeBookingStore) ListActiveEndedBefore(_ context.Context, cutoff time.Time) ([]model.Booking, error) {
	return f.all(func(b model.Booking) bool { return b.IsActive && !b.EndTime.After(cutoff) }), nil
}

type fakeRoomStore struct{ rooms map[uint64]model.Room }

func (f *fakeRoomStore) GetByID(_ context.Context, id uint64) (model.Room, error) {
	r, ok := f.rooms[id]
	if !ok {
		return model.Room{}, repository.ErrRoomNotFound
	}
	return r, nil
}

type fakeUserStore struct{ users map[uint64]model.User }

func (f *fakeUserStore) GetByID(_ context.Context, id uint64) (model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return model.User{}, repository.ErrUserNotFound
	}
	return u, nil
}

type fakeLogStore struct {
	mu      sync.Mutex
	entries []model.BookingLog
}

func (f *fakeLogStore) Append(_ context.Context, entry *model.BookingLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry.ID = uint64(len(f.entries) + 1)
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeLogStore) List(_ context.Context, bookingID uint64) ([]model.BookingLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.BookingLog
	for _, e := range f.entries {
		if bookingID == 0 || e.BookingID == bookingID {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []queue.BookingEvent
}

func (f *fakePublisher) Publish(_ context.Context, event queue.BookingEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

type fixture struct {
	svc      *BookingService
	bookings *fakeBookingStore
	logs     *fakeLogStore
	events   *fakePublisher
}

// newService builds a service over the given booking store and
// publisher with the standard in-memory rooms, users and log store.
func newService(bookings BookingStore, events EventPublisher) (*BookingService, *fakeLogStore) {
	logs := &fakeLogStore{}
	rooms := &fakeRoomStore{rooms: map[uint64]model.Room{
		1: {ID: 1, Name: "Orchid", SeatingCapacity: 8, RoomType: "Meeting", BuildingName: "Tower A", IsActive: true},
		2: {ID: 2, Name: "Lotus", SeatingCapacity: 4, RoomType: "Meeting", BuildingName: "Tower A", IsActive: true},
	}}
	users := &fakeUserStore{users: map[uint64]model.User{
		7: {ID: 7, Email: "alice@example.com", FullName: "Alice Tan", Role: "MEMBER", IsActive: true},
		8: {ID: 8, Email: "bob@example.com", FullName: "Bob Lim", Role: "MEMBER", IsActive: true},
	}}
	svc := NewBookingService(bookings, rooms, users, logs, events, schedule.DefaultPolicy())
	svc.now = func() time.Time { return time.Date(2025, 4, 20, 7, 0, 0, 0, time.UTC) }
	return svc, logs
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	bookings := newFakeBookingStore()
	events := &fakePublisher{}
	svc, logs := newService(bookings, events)
	return &fixture{svc: svc, bookings: bookings, logs: logs, events: events}
}

func at(hour, min int) time.Time {
	return time.Date(2025, 4, 20, hour, min, 0, 0, time.UTC)
}

func TestCreateBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b, err := f.svc.Create(ctx, 7, 1, at(10, 0), at(12, 0), "sprint planning")
	require.NoError(t, err)
	assert.NotZero(t, b.ID)
	assert.True(t, b.IsActive)
	assert.Equal(t, "Orchid", b.RoomName)

	logs, err := f.svc.Logs(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, model.LogActionCreate, logs[0].Action)

	require.Len(t, f.events.events, 1)
	assert.Equal(t, queue.ActionCreated, f.events.events[0].Action)
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, 7, 1, at(12, 0), at(10, 0), "backwards")
	assert.ErrorIs(t, err, ErrEndBeforeStart)

	_, err = f.svc.Create(ctx, 7, 1, at(10, 0), at(10, 0), "zero length")
	assert.ErrorIs(t, err, ErrEndBeforeStart)

	_, err = f.svc.Create(ctx, 7, 1, at(10, 0), at(11, 0), "   ")
	assert.ErrorIs(t, err, ErrPurposeRequired)

	_, err = f.svc.Create(ctx, 7, 99, at(10, 0), at(11, 0), "no such room")
	assert.ErrorIs(t, err, repository.ErrRoomNotFound)

	_, err = f.svc.Create(ctx, 99, 1, at(10, 0), at(11, 0), "no such user")
	assert.ErrorIs(t, err, repository.ErrUserNotFound)

	// None of the rejected requests left a row behind.
	all, err := f.svc.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCreateConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, 7, 1, at(10, 0), at(12, 0), "standup")
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, 8, 1, at(11, 0), at(13, 0), "overlaps")
	assert.ErrorIs(t, err, repository.ErrConflict)

	// Back to back is fine: intervals are half open.
	_, err = f.svc.Create(ctx, 8, 1, at(12, 0), at(13, 0), "follow-up")
	assert.NoError(t, err)

	// Same slot in a different room is fine.
	_, err = f.svc.Create(ctx, 8, 2, at(10, 0), at(12, 0), "other room")
	assert.NoError(t, err)
}

func TestCreateAfterCancelSucceeds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Create(ctx, 7, 1, at(14, 0), at(16, 0), "workshop")
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, 8, 1, at(14, 0), at(16, 0), "blocked")
	require.ErrorIs(t, err, repository.ErrConflict)

	_, err = f.svc.Cancel(ctx, first.ID)
	require.NoError(t, err)

	second, err := f.svc.Create(ctx, 8, 1, at(14, 0), at(16, 0), "retry")
	require.NoError(t, err)
	assert.True(t, second.IsActive)
}

func TestCancelIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b, err := f.svc.Create(ctx, 7, 1, at(9, 0), at(10, 0), "one-on-one")
	require.NoError(t, err)

	cancelled, err := f.svc.Cancel(ctx, b.ID)
	require.NoError(t, err)
	assert.False(t, cancelled.IsActive)

	again, err := f.svc.Cancel(ctx, b.ID)
	require.NoError(t, err)
	assert.False(t, again.IsActive)

	// Only one CANCEL log row despite the second call.
	logs, err := f.svc.Logs(ctx, b.ID)
	require.NoError(t, err)
	cancels := 0
	for _, e := range logs {
		if e.Action == model.LogActionCancel {
			cancels++
		}
	}
	assert.Equal(t, 1, cancels)

	_, err = f.svc.Cancel(ctx, 404)
	assert.ErrorIs(t, err, repository.ErrBookingNotFound)
}

func TestUpdateBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b, err := f.svc.Create(ctx, 7, 1, at(10, 0), at(11, 0), "standup")
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, 8, 1, at(13, 0), at(14, 0), "review")
	require.NoError(t, err)

	// Extending into a free hour keeps the booking's own slot legal.
	end := at(12, 0)
	got, err := f.svc.Update(ctx, b.ID, UpdatePatch{EndTime: &end})
	require.NoError(t, err)
	assert.Equal(t, at(12, 0), got.EndTime)

	// Extending onto the other booking conflicts.
	end = at(13, 30)
	_, err = f.svc.Update(ctx, b.ID, UpdatePatch{EndTime: &end})
	assert.ErrorIs(t, err, repository.ErrConflict)

	// Purpose-only update never touches the interval.
	purpose := "daily standup"
	got, err = f.svc.Update(ctx, b.ID, UpdatePatch{Purpose: &purpose})
	require.NoError(t, err)
	assert.Equal(t, "daily standup", got.Purpose)
	assert.Equal(t, at(12, 0), got.EndTime)

	start := at(12, 30)
	_, err = f.svc.Update(ctx, b.ID, UpdatePatch{StartTime: &start})
	assert.ErrorIs(t, err, ErrEndBeforeStart)

	_, err = f.svc.Update(ctx, 404, UpdatePatch{})
	assert.ErrorIs(t, err, repository.ErrBookingNotFound)
}

func TestUpdateInactiveSkipsConflictCheck(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b, err := f.svc.Create(ctx, 7, 1, at(10, 0), at(11, 0), "standup")
	require.NoError(t, err)
	_, err = f.svc.Cancel(ctx, b.ID)
	require.NoError(t, err)

	// An inactive booking may be moved onto an occupied slot.
	_, err = f.svc.Create(ctx, 8, 1, at(15, 0), at(16, 0), "review")
	require.NoError(t, err)
	start, end := at(15, 0), at(16, 0)
	_, err = f.svc.Update(ctx, b.ID, UpdatePatch{StartTime: &start, EndTime: &end})
	assert.NoError(t, err)

	// Reactivating it there collides.
	active := true
	_, err = f.svc.Update(ctx, b.ID, UpdatePatch{IsActive: &active})
	assert.ErrorIs(t, err, repository.ErrConflict)
}

func TestDeleteBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b, err := f.svc.Create(ctx, 7, 1, at(10, 0), at(11, 0), "standup")
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, b.ID))
	_, err = f.svc.GetByID(ctx, b.ID)
	assert.ErrorIs(t, err, repository.ErrBookingNotFound)

	assert.ErrorIs(t, f.svc.Delete(ctx, b.ID), repository.ErrBookingNotFound)

	// The slot is free again.
	_, err = f.svc.Create(ctx, 8, 1, at(10, 0), at(11, 0), "reclaimed")
	assert.NoError(t, err)
}

func TestCheckConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, 7, 1, at(10, 0), at(12, 0), "standup")
	require.NoError(t, err)

	conflict, err := f.svc.CheckConflict(ctx, 1, at(11, 0), at(13, 0))
	require.NoError(t, err)
	assert.True(t, conflict)

	conflict, err = f.svc.CheckConflict(ctx, 1, at(12, 0), at(13, 0))
	require.NoError(t, err)
	assert.False(t, conflict)

	conflict, err = f.svc.CheckConflict(ctx, 2, at(10, 0), at(12, 0))
	require.NoError(t, err)
	assert.False(t, conflict)

	_, err = f.svc.CheckConflict(ctx, 1, at(13, 0), at(12, 0))
	assert.ErrorIs(t, err, ErrEndBeforeStart)
}

func TestDayAvailability(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, 7, 1, at(10, 0), at(12, 0), "standup")
	require.NoError(t, err)

	grid, err := f.svc.DayAvailability(ctx, 1, at(0, 0))
	require.NoError(t, err)
	require.Len(t, grid.Slots, f.svc.Policy().SlotCount())
	booked := map[int]bool{}
	for _, slot := range grid.Slots {
		booked[slot.Hour] = slot.Booked
	}
	assert.True(t, booked[10])
	assert.True(t, booked[11])
	assert.False(t, booked[12])
	assert.False(t, grid.FullyBooked)

	_, err = f.svc.DayAvailability(ctx, 99, at(0, 0))
	assert.ErrorIs(t, err, repository.ErrRoomNotFound)
}

func TestExpireOverdue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	past, err := f.svc.Create(ctx, 7, 1, at(8, 0), at(9, 0), "already over")
	require.NoError(t, err)
	future, err := f.svc.Create(ctx, 8, 1, at(18, 0), at(19, 0), "later today")
	require.NoError(t, err)

	// Clock moves past the first booking's end.
	f.svc.now = func() time.Time { return at(9, 30) }

	n, err := f.svc.ExpireOverdue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := f.svc.GetByID(ctx, past.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	got, err = f.svc.GetByID(ctx, future.ID)
	require.NoError(t, err)
	assert.True(t, got.IsActive)

	logs, err := f.svc.Logs(ctx, past.ID)
	require.NoError(t, err)
	var actions []string
	for _, e := range logs {
		actions = append(actions, e.Action)
	}
	assert.Contains(t, actions, model.LogActionExpire)

	// The expired slot is bookable again.
	_, err = f.svc.Create(ctx, 8, 1, at(9, 30), at(10, 0), "reclaimed")
	assert.NoError(t, err)

	// A second sweep finds nothing.
	n, err = f.svc.ExpireOverdue(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestConcurrentCreatesSameSlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const attempts = 16
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Create(ctx, 7, 1, at(10, 0), at(11, 0), "race")
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, repository.ErrConflict):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, wins)
}

// hookedBookingStore wraps fakeBookingStore and runs a one-shot hook
// after a GetByID returns, letting a test interleave another mutation
// between a read and the write that follows it.
type hookedBookingStore struct {
	*fakeBookingStore
	hookMu   sync.Mutex
	afterGet func()
}

func (h *hookedBookingStore) GetByID(ctx context.Context, id uint64) (model.Booking, error) {
	b, err := h.fakeBookingStore.GetByID(ctx, id)
	h.hookMu.Lock()
	hook := h.afterGet
	h.afterGet = nil
	h.hookMu.Unlock()
	if hook != nil {
		hook()
	}
	return b, err
}

func TestUpdateKeepsInterleavedCancel(t *testing.T) {
	bookings := &hookedBookingStore{fakeBookingStore: newFakeBookingStore()}
	svc, logs := newService(bookings, &fakePublisher{})
	ctx := context.Background()

	b, err := svc.Create(ctx, 7, 1, at(10, 0), at(11, 0), "standup")
	require.NoError(t, err)

	// The cancel lands after Update's initial read but before its
	// write.  The merged row must be built from the cancelled state,
	// not the stale active one.
	bookings.afterGet = func() {
		_, err := svc.Cancel(ctx, b.ID)
		require.NoError(t, err)
	}

	purpose := "daily standup"
	got, err := svc.Update(ctx, b.ID, UpdatePatch{Purpose: &purpose})
	require.NoError(t, err)
	assert.Equal(t, "daily standup", got.Purpose)
	assert.False(t, got.IsActive)

	stored, err := svc.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)

	// The slot really is free again.
	_, err = svc.Create(ctx, 8, 1, at(10, 0), at(11, 0), "reclaimed")
	assert.NoError(t, err)

	entries, err := logs.List(ctx, b.ID)
	require.NoError(t, err)
	cancels := 0
	for _, e := range entries {
		if e.Action == model.LogActionCancel {
			cancels++
		}
	}
	assert.Equal(t, 1, cancels)
}

func TestConcurrentCancelsFlipOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b, err := f.svc.Create(ctx, 7, 1, at(10, 0), at(11, 0), "standup")
	require.NoError(t, err)

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Cancel(ctx, b.ID)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	entries, err := f.svc.Logs(ctx, b.ID)
	require.NoError(t, err)
	cancels := 0
	for _, e := range entries {
		if e.Action == model.LogActionCancel {
			cancels++
		}
	}
	assert.Equal(t, 1, cancels)

	published := 0
	for _, e := range f.events.events {
		if e.Action == queue.ActionCancelled {
			published++
		}
	}
	assert.Equal(t, 1, published)
}

// gatedPublisher blocks its first Publish until released, so a test
// can observe what is allowed to proceed while an event is in flight.
type gatedPublisher struct {
	mu      sync.Mutex
	first   bool
	entered chan struct{}
	release chan struct{}
}

func newGatedPublisher() *gatedPublisher {
	return &gatedPublisher{entered: make(chan struct{}), release: make(chan struct{})}
}

func (g *gatedPublisher) Publish(_ context.Context, _ queue.BookingEvent) error {
	g.mu.Lock()
	blocks := !g.first
	g.first = true
	g.mu.Unlock()
	if blocks {
		close(g.entered)
		<-g.release
	}
	return nil
}

func TestPublishDoesNotHoldRoomLock(t *testing.T) {
	events := newGatedPublisher()
	svc, _ := newService(newFakeBookingStore(), events)
	ctx := context.Background()

	go func() {
		_, _ = svc.Create(ctx, 7, 1, at(10, 0), at(11, 0), "slow broker")
	}()
	<-events.entered

	// The first booking is persisted and its event is stuck at the
	// broker.  The room must still accept the next booking.
	done := make(chan error, 1)
	go func() {
		_, err := svc.Create(ctx, 8, 1, at(11, 0), at(12, 0), "next slot")
		done <- err
	}()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("booking blocked behind an in-flight event publish")
	}
	close(events.release)
}
