package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Anermers95/SWE5006/internal/model"
)

// BookingRepo provides CRUD operations over the t_bookings table.
// Listing queries join t_rooms and t_users so responses carry the room
// name and the booker's full name, matching what clients render.  All
// timestamp columns are stored in UTC (the connection uses loc=UTC).
//
// The repository performs no conflict checking itself; overlap
// decisions belong to the schedule package and are made by the
// booking service under its per-room lock before any write reaches
// this layer.
type BookingRepo struct{ DB *sql.DB }

func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{DB: db} }

const bookingSelect = `SELECT b.booking_id, b.room_id, b.user_id, b.start_time, b.end_time,
       b.booking_purpose, b.is_active, b.created_on, b.updated_on,
       r.room_name, u.user_full_name
FROM t_bookings b
JOIN t_rooms r ON r.room_id = b.room_id
JOIN t_users u ON u.user_id = b.user_id`

// Create inserts a booking and populates its generated ID.  The
// caller supplies CreatedAt/UpdatedAt so the stored row matches what
// the service returns without a round trip.
func (r *BookingRepo) Create(ctx context.Context, b *model.Booking) error {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO t_bookings (room_id, user_id, start_time, end_time, booking_purpose, is_active, created_on, updated_on)
		 VALUES (?,?,?,?,?,?,?,?)`,
		b.RoomID, b.UserID, b.StartTime, b.EndTime, b.Purpose, b.IsActive, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return nil
}

// GetByID returns a single booking with joined display fields, or
// ErrBookingNotFound.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (model.Booking, error) {
	row := r.DB.QueryRowContext(ctx, bookingSelect+" WHERE b.booking_id = ?", id)
	var b model.Booking
	err := row.Scan(&b.ID, &b.RoomID, &b.UserID, &b.StartTime, &b.EndTime,
		&b.Purpose, &b.IsActive, &b.CreatedAt, &b.UpdatedAt,
		&b.RoomName, &b.UserFullName)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Booking{}, ErrBookingNotFound
	}
	return b, err
}

// Update overwrites a booking's mutable columns.  ErrBookingNotFound
// is returned when the id has no row.
func (r *BookingRepo) Update(ctx context.Context, b *model.Booking) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE t_bookings
		 SET start_time=?, end_time=?, booking_purpose=?, is_active=?, updated_on=?
		 WHERE booking_id=?`,
		b.StartTime, b.EndTime, b.Purpose, b.IsActive, b.UpdatedAt, b.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// RowsAffected is zero both for a missing row and for a value
		// no-op; only the former is an error.
		var exists int
		err := r.DB.QueryRowContext(ctx,
			"SELECT 1 FROM t_bookings WHERE booking_id=?", b.ID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrBookingNotFound
		}
		return err
	}
	return nil
}

// Delete removes a booking row entirely.  ErrBookingNotFound is
// returned when nothing was deleted.
func (r *BookingRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM t_bookings WHERE booking_id=?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrBookingNotFound
	}
	return nil
}

// ListAll returns every booking, newest first.
func (r *BookingRepo) ListAll(ctx context.Context) ([]model.Booking, error) {
	return r.list(ctx, bookingSelect+" ORDER BY b.start_time DESC")
}

// ListByUser returns all bookings made by a user, newest first.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Booking, error) {
	return r.list(ctx, bookingSelect+" WHERE b.user_id = ? ORDER BY b.start_time DESC", userID)
}

// ListByRoom returns all bookings for a room, newest first.
func (r *BookingRepo) ListByRoom(ctx context.Context, roomID uint64) ([]model.Booking, error) {
	return r.list(ctx, bookingSelect+" WHERE b.room_id = ? ORDER BY b.start_time DESC", roomID)
}

// ListActiveByRoom returns the active bookings for a room ordered by
// start time.  This is the conflict-detection snapshot: the booking
// service scans it with the schedule package's overlap rule.
func (r *BookingRepo) ListActiveByRoom(ctx context.Context, roomID uint64) ([]model.Booking, error) {
	return r.list(ctx,
		bookingSelect+" WHERE b.room_id = ? AND b.is_active = TRUE ORDER BY b.start_time", roomID)
}

// ListActiveByRoomBetween returns active bookings for a room whose
// interval overlaps [from, to), used to build availability grids
// without loading a room's entire history.
func (r *BookingRepo) ListActiveByRoomBetween(ctx context.Context, roomID uint64, from, to time.Time) ([]model.Booking, error) {
	return r.list(ctx,
		bookingSelect+` WHERE b.room_id = ? AND b.is_active = TRUE
		 AND b.start_time < ? AND b.end_time > ?
		 ORDER BY b.start_time`,
		roomID, to, from)
}

// ListActiveEndedBefore returns active bookings whose end time has
// passed, for the expiry sweep to flip inactive.
func (r *BookingRepo) ListActiveEndedBefore(ctx context.Context, cutoff time.Time) ([]model.Booking, error) {
	return r.list(ctx,
		bookingSelect+" WHERE b.is_active = TRUE AND b.end_time < ? ORDER BY b.end_time", cutoff)
}

// CountByRoom returns the number of bookings (active or not) that
// reference a room, used to refuse room deletion.
func (r *BookingRepo) CountByRoom(ctx context.Context, roomID uint64) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM t_bookings WHERE room_id=?", roomID).Scan(&n)
	return n, err
}

func (r *BookingRepo) list(ctx context.Context, query string, args ...interface{}) ([]model.Booking, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	bookings := make([]model.Booking, 0)
	for rows.Next() {
		var b model.Booking
		if err := rows.Scan(&b.ID, &b.RoomID, &b.UserID, &b.StartTime, &b.EndTime,
			&b.Purpose, &b.IsActive, &b.CreatedAt, &b.UpdatedAt,
			&b.RoomName, &b.UserFullName); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}
