// Package queue defines the booking event payloads exchanged over the
// message broker, the publisher that emits them and the background
// consumer that writes them to the booking event log.
package queue

// Actions carried by BookingEvent, mirroring the booking lifecycle.
const (
	ActionCreated   = "CREATED"
	ActionUpdated   = "UPDATED"
	ActionCancelled = "CANCELLED"
	ActionDeleted   = "DELETED"
	ActionExpired   = "EXPIRED"
)

// BookingEvent is published after every successful booking mutation.
// It carries enough information for downstream consumers to log or
// notify without querying the primary database.
type BookingEvent struct {
	Action     string `json:"action"`
	BookingID  uint64 `json:"booking_id"`
	RoomID     uint64 `json:"room_id"`
	RoomName   string `json:"room_name,omitempty"`
	UserID     uint64 `json:"user_id"`
	StartTime  string `json:"start_time"` // RFC3339
	EndTime    string `json:"end_time"`   // RFC3339
	Purpose    string `json:"purpose,omitempty"`
	OccurredAt string `json:"occurred_at"` // RFC3339
}
