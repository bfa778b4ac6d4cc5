package model

import "time"

// Booking log actions recorded in t_booking_logs.  One row is appended
// for every successful lifecycle transition of a booking.
const (
	LogActionCreate = "CREATE"
	LogActionUpdate = "UPDATE"
	LogActionCancel = "CANCEL"
	LogActionExpire = "EXPIRE"
)

// BookingLog is a read-only audit record of a booking mutation.
//
// Fields:
//  ID        – primary key identifier.
//  BookingID – booking the entry refers to.
//  RoomID    – room of the booking at the time of the action.
//  UserID    – user of the booking at the time of the action.
//  Action    – one of the LogAction constants above.
//  CreatedAt – when the action happened.
type BookingLog struct {
	ID        uint64    `json:"id"`         // t_booking_logs.log_id
	BookingID uint64    `json:"booking_id"` // t_booking_logs.booking_id
	RoomID    uint64    `json:"room_id"`    // t_booking_logs.room_id
	UserID    uint64    `json:"user_id"`    // t_booking_logs.user_id
	Action    string    `json:"action"`     // t_booking_logs.action
	CreatedAt time.Time `json:"created_at"` // t_booking_logs.created_on

	// Joined display fields, populated by log listing queries.
	StartTime    *time.Time `json:"start_time,omitempty"`
	EndTime      *time.Time `json:"end_time,omitempty"`
	Purpose      string     `json:"purpose,omitempty"`
	RoomName     string     `json:"room_name,omitempty"`
	UserFullName string     `json:"user_full_name,omitempty"`
}
