package repository

import (
	"context"
	"database/sql"

	"github.com/Anermers95/SWE5006/internal/model"
)

// BookingLogRepo appends and lists booking audit rows in
// t_booking_logs.  Log rows are write-once; nothing updates or
// deletes them.
type BookingLogRepo struct{ DB *sql.DB }

func NewBookingLogRepo(db *sql.DB) *BookingLogRepo { return &BookingLogRepo{DB: db} }

// Append inserts one audit row for a booking mutation.
func (r *BookingLogRepo) Append(ctx context.Context, entry *model.BookingLog) error {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO t_booking_logs (booking_id, room_id, user_id, action, created_on)
		 VALUES (?,?,?,?,?)`,
		entry.BookingID, entry.RoomID, entry.UserID, entry.Action, entry.CreatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	entry.ID = uint64(id)
	return nil
}

const logSelect = `SELECT l.log_id, l.booking_id, l.room_id, l.user_id, l.action, l.created_on,
       b.start_time, b.end_time, b.booking_purpose,
       r.room_name, u.user_full_name
FROM t_booking_logs l
JOIN t_bookings b ON b.booking_id = l.booking_id
JOIN t_rooms r ON r.room_id = l.room_id
JOIN t_users u ON u.user_id = l.user_id`

// List returns audit entries newest first.  When bookingID is
// non-zero only that booking's trail is returned.
func (r *BookingLogRepo) List(ctx context.Context, bookingID uint64) ([]model.BookingLog, error) {
	query := logSelect
	args := []interface{}{}
	if bookingID != 0 {
		query += " WHERE l.booking_id = ?"
		args = append(args, bookingID)
	}
	query += " ORDER BY l.created_on DESC"

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	entries := make([]model.BookingLog, 0)
	for rows.Next() {
		var e model.BookingLog
		var start, end sql.NullTime
		if err := rows.Scan(&e.ID, &e.BookingID, &e.RoomID, &e.UserID, &e.Action, &e.CreatedAt,
			&start, &end, &e.Purpose, &e.RoomName, &e.UserFullName); err != nil {
			return nil, err
		}
		if start.Valid {
			t := start.Time
			e.StartTime = &t
		}
		if end.Valid {
			t := end.Time
			e.EndTime = &t
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
