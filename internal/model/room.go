package model

import "time"

// Room represents a bookable meeting room.  Rooms are managed by
// administrators and referenced by bookings; the booking layer only
// ever reads them.
//
// Fields:
//  ID              – primary key identifier.
//  Name            – room name, unique within its building.
//  SeatingCapacity – number of seats in the room.
//  RoomType        – free-form classification (e.g. "Meeting", "Lab").
//  BuildingName    – building the room belongs to.
//  IsActive        – whether the room is open for booking.
//  CreatedAt       – creation timestamp.
//  UpdatedAt       – last update timestamp.
type Room struct {
	ID              uint64    `json:"id"`               // t_rooms.room_id
	Name            string    `json:"room_name"`        // t_rooms.room_name
	SeatingCapacity uint32    `json:"seating_capacity"` // t_rooms.room_seating_capacity
	RoomType        string    `json:"room_type"`        // t_rooms.room_type
	BuildingName    string    `json:"building_name"`    // t_rooms.building_name
	IsActive        bool      `json:"is_active"`        // t_rooms.is_active
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
