// Package repository implements the storage layer over MySQL.  It
// defines sentinel error values reused across repositories so that
// higher layers (the booking service and HTTP handlers) can
// distinguish failure scenarios without inspecting SQL errors.
package repository

import "errors"

// ErrRoomNotFound is returned when a referenced room does not exist.
// Handlers translate this into an HTTP 404 response.
var ErrRoomNotFound = errors.New("room not found")

// ErrUserNotFound is returned when a referenced user does not exist.
// Handlers translate this into an HTTP 404 response.
var ErrUserNotFound = errors.New("user not found")

// ErrBookingNotFound is returned when a booking lookup, update or
// delete targets an id with no row.  Handlers translate this into an
// HTTP 404 response.
var ErrBookingNotFound = errors.New("booking not found")

// ErrConflict is returned when an operation cannot proceed because of
// conflicting state: a candidate booking interval overlapping an
// existing active booking, or deleting a room that still has
// bookings.  Handlers translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrRoomExists is returned when creating a room whose name is
// already taken within the same building.
var ErrRoomExists = errors.New("room already exists in building")
