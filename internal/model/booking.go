package model

import "time"

// Booking records a user's reservation of a room for a time range.
// The interval is half-open: the room is occupied from StartTime up to
// but not including EndTime, so a booking ending at 11:00 and another
// starting at 11:00 do not collide.  All timestamps are UTC wall-clock
// times at minute granularity (in practice on-the-hour boundaries).
//
// Only bookings with IsActive set occupy their room; cancelled and
// expired bookings keep their row but no longer block the slot.
//
// Fields:
//  ID           – primary key identifier, immutable after creation.
//  RoomID       – room being reserved.
//  UserID       – user who made the booking.
//  StartTime    – inclusive start of the reserved interval.
//  EndTime      – exclusive end of the reserved interval; always after StartTime.
//  Purpose      – free-text reason for the booking, required on creation.
//  IsActive     – true while the booking occupies the room.
//  CreatedAt    – set once at creation.
//  UpdatedAt    – bumped on every mutation.
type Booking struct {
	ID        uint64    `json:"id"`         // t_bookings.booking_id
	RoomID    uint64    `json:"room_id"`    // t_bookings.room_id
	UserID    uint64    `json:"user_id"`    // t_bookings.user_id
	StartTime time.Time `json:"start_time"` // t_bookings.start_time
	EndTime   time.Time `json:"end_time"`   // t_bookings.end_time
	Purpose   string    `json:"purpose"`    // t_bookings.booking_purpose
	IsActive  bool      `json:"is_active"`  // t_bookings.is_active
	CreatedAt time.Time `json:"created_at"` // t_bookings.created_on
	UpdatedAt time.Time `json:"updated_at"` // t_bookings.updated_on

	// RoomName and UserFullName are populated by listing queries that
	// join t_rooms and t_users.  They are empty on writes.
	RoomName     string `json:"room_name,omitempty"`
	UserFullName string `json:"user_full_name,omitempty"`
}

// Duration returns the length of the booked interval.
func (b *Booking) Duration() time.Duration {
	return b.EndTime.Sub(b.StartTime)
}
