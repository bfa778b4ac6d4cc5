// Package service contains the booking lifecycle manager.  It owns
// every invariant the booking table must keep: intervals are well
// formed, rooms and users exist, and no two active bookings for the
// same room ever overlap.  Storage is reached through narrow port
// interfaces so that the service carries no ambient database handle
// and tests can run against in-memory fakes.
package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/Anermers95/SWE5006/internal/model"
	"github.com/Anermers95/SWE5006/internal/queue"
	"github.com/Anermers95/SWE5006/internal/repository"
	"github.com/Anermers95/SWE5006/internal/schedule"
)

// Validation errors surfaced before anything is written.  Handlers
// translate these into HTTP 400 responses.
var (
	ErrEndBeforeStart  = errors.New("end time must be after start time")
	ErrPurposeRequired = errors.New("booking purpose is required")
)

// BookingStore is the persistence port for bookings.  It is satisfied
// by *repository.BookingRepo in production.
type BookingStore interface {
	Create(ctx context.Context, b *model.Booking) error
	GetByID(ctx context.Context, id uint64) (model.Booking, error)
	Update(ctx context.Context, b *model.Booking) error
	Delete(ctx context.Context, id uint64) error
	ListAll(ctx context.Context) ([]model.Booking, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.Booking, error)
	ListByRoom(ctx context.Context, roomID uint64) ([]model.Booking, error)
	ListActiveByRoom(ctx context.Context, roomID uint64) ([]model.Booking, error)
	ListActiveByRoomBetween(ctx context.Context, roomID uint64, from, to time.Time) ([]model.Booking, error)
	ListActiveEndedBefore(ctx context.Context, cutoff time.Time) ([]model.Booking, error)
}

// RoomStore is the read-only port used to validate room references.
type RoomStore interface {
	GetByID(ctx context.Context, id uint64) (model.Room, error)
}

// UserStore is the read-only port used to validate user references.
type UserStore interface {
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// LogStore records the audit trail of booking mutations.
type LogStore interface {
	Append(ctx context.Context, entry *model.BookingLog) error
	List(ctx context.Context, bookingID uint64) ([]model.BookingLog, error)
}

// EventPublisher emits booking events to the broker.  Publishing is
// best effort: failures are logged by the publisher and never fail
// the operation that triggered them.
type EventPublisher interface {
	Publish(ctx context.Context, event queue.BookingEvent) error
}

// BookingService orchestrates the booking lifecycle.  Every state
// transition of a room's bookings runs under that room's mutex in
// roomLocks: the current row (or the active set) is read, checked and
// written back without releasing the lock, so a concurrent cancel,
// update or expiry flip can never be clobbered by a stale merge and
// two overlapping candidates can never both pass the conflict check.
// The lock covers only read-check-persist; audit rows and broker
// events are emitted after release so a slow or unreachable broker
// cannot stall a room.
type BookingService struct {
	bookings BookingStore
	rooms    RoomStore
	users    UserStore
	logs     LogStore
	events   EventPublisher // may be nil when no broker is configured
	policy   schedule.Policy

	mu    sync.Mutex
	locks map[uint64]*sync.Mutex

	now func() time.Time // injectable clock for tests
}

// NewBookingService wires the service with its ports.  The events
// publisher may be nil.  The core storage ports must not be nil.
func NewBookingService(bookings BookingStore, rooms RoomStore, users UserStore, logs LogStore, events EventPublisher, policy schedule.Policy) *BookingService {
	if bookings == nil || rooms == nil || users == nil || logs == nil {
		panic("nil store passed to NewBookingService")
	}
	return &BookingService{
		bookings: bookings,
		rooms:    rooms,
		users:    users,
		logs:     logs,
		events:   events,
		policy:   policy,
		locks:    map[uint64]*sync.Mutex{},
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Policy returns the bookable-window policy the service was built with.
func (s *BookingService) Policy() schedule.Policy { return s.policy }

// roomLock returns the mutex guarding read-check-persist for a room,
// creating it on first use.
func (s *BookingService) roomLock(roomID uint64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[roomID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[roomID] = l
	}
	return l
}

// Create validates and persists a new booking.  It fails with
// ErrEndBeforeStart or ErrPurposeRequired on malformed input,
// repository.ErrRoomNotFound / ErrUserNotFound when a reference is
// dangling, and repository.ErrConflict when the interval overlaps an
// existing active booking for the room.  Nothing is written until
// every check has passed.
func (s *BookingService) Create(ctx context.Context, userID, roomID uint64, start, end time.Time, purpose string) (model.Booking, error) {
	candidate := schedule.Interval{Start: start, End: end}
	if !candidate.Valid() {
		return model.Booking{}, ErrEndBeforeStart
	}
	purpose = strings.TrimSpace(purpose)
	if purpose == "" {
		return model.Booking{}, ErrPurposeRequired
	}
	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		return model.Booking{}, err
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return model.Booking{}, err
	}

	lock := s.roomLock(roomID)
	b, err := func() (model.Booking, error) {
		lock.Lock()
		defer lock.Unlock()

		existing, err := s.bookings.ListActiveByRoom(ctx, roomID)
		if err != nil {
			return model.Booking{}, err
		}
		if schedule.HasConflict(existing, candidate, 0) {
			return model.Booking{}, repository.ErrConflict
		}

		now := s.now()
		b := model.Booking{
			RoomID:    roomID,
			UserID:    userID,
			StartTime: start,
			EndTime:   end,
			Purpose:   purpose,
			IsActive:  true,
			CreatedAt: now,
			UpdatedAt: now,
			RoomName:  room.Name,
		}
		if err := s.bookings.Create(ctx, &b); err != nil {
			return model.Booking{}, err
		}
		return b, nil
	}()
	if err != nil {
		return model.Booking{}, err
	}
	s.appendLog(ctx, &b, model.LogActionCreate)
	s.publish(ctx, &b, queue.ActionCreated)
	return b, nil
}

// UpdatePatch carries the optional fields of an update request.  Nil
// fields keep the booking's current value.
type UpdatePatch struct {
	StartTime *time.Time
	EndTime   *time.Time
	Purpose   *string
	IsActive  *bool
}

// Update merges the patch over the stored booking, re-validates the
// resulting interval and, while the booking remains active, re-runs
// the conflict check excluding the booking itself so it may stay in
// or move adjacent to its old slot.  The row is re-read under the
// room lock before merging: a cancel or expiry that lands after the
// first read must not be undone by writing back a stale copy.
func (s *BookingService) Update(ctx context.Context, id uint64, patch UpdatePatch) (model.Booking, error) {
	// The first read only resolves the lock key; RoomID is immutable
	// after creation.
	probe, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return model.Booking{}, err
	}

	lock := s.roomLock(probe.RoomID)
	b, err := func() (model.Booking, error) {
		lock.Lock()
		defer lock.Unlock()

		b, err := s.bookings.GetByID(ctx, id)
		if err != nil {
			return model.Booking{}, err
		}
		if patch.StartTime != nil {
			b.StartTime = *patch.StartTime
		}
		if patch.EndTime != nil {
			b.EndTime = *patch.EndTime
		}
		if patch.Purpose != nil {
			p := strings.TrimSpace(*patch.Purpose)
			if p == "" {
				return model.Booking{}, ErrPurposeRequired
			}
			b.Purpose = p
		}
		if patch.IsActive != nil {
			b.IsActive = *patch.IsActive
		}
		candidate := schedule.Interval{Start: b.StartTime, End: b.EndTime}
		if !candidate.Valid() {
			return model.Booking{}, ErrEndBeforeStart
		}

		if b.IsActive {
			existing, err := s.bookings.ListActiveByRoom(ctx, b.RoomID)
			if err != nil {
				return model.Booking{}, err
			}
			if schedule.HasConflict(existing, candidate, b.ID) {
				return model.Booking{}, repository.ErrConflict
			}
		}

		b.UpdatedAt = s.now()
		if err := s.bookings.Update(ctx, &b); err != nil {
			return model.Booking{}, err
		}
		return b, nil
	}()
	if err != nil {
		return model.Booking{}, err
	}
	s.appendLog(ctx, &b, model.LogActionUpdate)
	s.publish(ctx, &b, queue.ActionUpdated)
	return b, nil
}

// Cancel soft-deletes a booking: the row is kept but no longer
// occupies its room.  Cancelling an already-inactive booking is a
// no-op and returns the booking unchanged.  The active flag is
// re-checked under the room lock so concurrent cancels flip the row
// exactly once, with exactly one audit entry.
func (s *BookingService) Cancel(ctx context.Context, id uint64) (model.Booking, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return model.Booking{}, err
	}
	if !b.IsActive {
		return b, nil
	}

	lock := s.roomLock(b.RoomID)
	cancelled := false
	b, err = func() (model.Booking, error) {
		lock.Lock()
		defer lock.Unlock()

		b, err := s.bookings.GetByID(ctx, id)
		if err != nil {
			return model.Booking{}, err
		}
		if !b.IsActive {
			// Another cancel (or the expiry sweep) got here first.
			return b, nil
		}
		b.IsActive = false
		b.UpdatedAt = s.now()
		if err := s.bookings.Update(ctx, &b); err != nil {
			return model.Booking{}, err
		}
		cancelled = true
		return b, nil
	}()
	if err != nil {
		return model.Booking{}, err
	}
	if cancelled {
		s.appendLog(ctx, &b, model.LogActionCancel)
		s.publish(ctx, &b, queue.ActionCancelled)
	}
	return b, nil
}

// Delete removes the booking row entirely.  No audit row is written
// because t_booking_logs references the booking by foreign key; the
// deletion is still published to the event queue.
func (s *BookingService) Delete(ctx context.Context, id uint64) error {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return err
	}

	lock := s.roomLock(b.RoomID)
	err = func() error {
		lock.Lock()
		defer lock.Unlock()
		return s.bookings.Delete(ctx, id)
	}()
	if err != nil {
		return err
	}
	s.publish(ctx, &b, queue.ActionDeleted)
	return nil
}

// GetByID returns a single booking.
func (s *BookingService) GetByID(ctx context.Context, id uint64) (model.Booking, error) {
	return s.bookings.GetByID(ctx, id)
}

// ListAll returns every booking.
func (s *BookingService) ListAll(ctx context.Context) ([]model.Booking, error) {
	return s.bookings.ListAll(ctx)
}

// ListByUser returns a user's bookings.
func (s *BookingService) ListByUser(ctx context.Context, userID uint64) ([]model.Booking, error) {
	return s.bookings.ListByUser(ctx, userID)
}

// ListByRoom returns a room's bookings.
func (s *BookingService) ListByRoom(ctx context.Context, roomID uint64) ([]model.Booking, error) {
	return s.bookings.ListByRoom(ctx, roomID)
}

// Logs returns the audit trail, optionally restricted to one booking.
func (s *BookingService) Logs(ctx context.Context, bookingID uint64) ([]model.BookingLog, error) {
	return s.logs.List(ctx, bookingID)
}

// CheckConflict reports whether the candidate interval would collide
// with an existing active booking for the room.  It is a pure read:
// deterministic for a snapshot of bookings, no side effects.  Storage
// failures surface as an error distinct from the boolean.
func (s *BookingService) CheckConflict(ctx context.Context, roomID uint64, start, end time.Time) (bool, error) {
	candidate := schedule.Interval{Start: start, End: end}
	if !candidate.Valid() {
		return false, ErrEndBeforeStart
	}
	existing, err := s.bookings.ListActiveByRoom(ctx, roomID)
	if err != nil {
		return false, err
	}
	return schedule.HasConflict(existing, candidate, 0), nil
}

// DayAvailability builds the advisory hourly grid for a room and
// date.  The room must exist; the grid itself never blocks a booking,
// Create re-checks under the room lock.
func (s *BookingService) DayAvailability(ctx context.Context, roomID uint64, date time.Time) (schedule.DayGrid, error) {
	if _, err := s.rooms.GetByID(ctx, roomID); err != nil {
		return schedule.DayGrid{}, err
	}
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	bookings, err := s.bookings.ListActiveByRoomBetween(ctx, roomID, day, day.AddDate(0, 0, 1))
	if err != nil {
		return schedule.DayGrid{}, err
	}
	return schedule.BuildDayGrid(day, bookings, s.policy), nil
}

// FullyBookedDates returns the dates in [from, to] on which the room
// has no usable availability left.
func (s *BookingService) FullyBookedDates(ctx context.Context, roomID uint64, from, to time.Time) ([]string, error) {
	if _, err := s.rooms.GetByID(ctx, roomID); err != nil {
		return nil, err
	}
	start := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	end := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	bookings, err := s.bookings.ListActiveByRoomBetween(ctx, roomID, start, end.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	return schedule.FullyBookedDates(start, end, bookings, s.policy), nil
}

// appendLog records an audit row.  Audit failures do not fail the
// mutation that already happened; the row is best effort like event
// publishing.
func (s *BookingService) appendLog(ctx context.Context, b *model.Booking, action string) {
	_ = s.logs.Append(ctx, &model.BookingLog{
		BookingID: b.ID,
		RoomID:    b.RoomID,
		UserID:    b.UserID,
		Action:    action,
		CreatedAt: s.now(),
	})
}

func (s *BookingService) publish(ctx context.Context, b *model.Booking, action string) {
	if s.events == nil {
		return
	}
	_ = s.events.Publish(ctx, queue.BookingEvent{
		Action:     action,
		BookingID:  b.ID,
		RoomID:     b.RoomID,
		RoomName:   b.RoomName,
		UserID:     b.UserID,
		StartTime:  b.StartTime.Format(time.RFC3339),
		EndTime:    b.EndTime.Format(time.RFC3339),
		Purpose:    b.Purpose,
		OccurredAt: s.now().Format(time.RFC3339),
	})
}
