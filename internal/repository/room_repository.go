package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/Anermers95/SWE5006/internal/model"
)

// RoomRepo provides CRUD operations over the t_rooms table.  Rooms
// are inventory managed by administrators; the booking layer only
// reads them to validate that a booking targets a real room.
type RoomRepo struct{ DB *sql.DB }

func NewRoomRepo(db *sql.DB) *RoomRepo { return &RoomRepo{DB: db} }

const roomColumns = "room_id, room_name, room_seating_capacity, room_type, building_name, is_active, created_on, updated_on"

// GetAll returns every room ordered by building then name.
func (r *RoomRepo) GetAll(ctx context.Context) ([]model.Room, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+roomColumns+" FROM t_rooms ORDER BY building_name, room_name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	rooms := make([]model.Room, 0)
	for rows.Next() {
		var rm model.Room
		if err := scanRoom(rows, &rm); err != nil {
			return nil, err
		}
		rooms = append(rooms, rm)
	}
	return rooms, rows.Err()
}

// GetByID returns a single room or ErrRoomNotFound.
func (r *RoomRepo) GetByID(ctx context.Context, id uint64) (model.Room, error) {
	var rm model.Room
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+roomColumns+" FROM t_rooms WHERE room_id=? LIMIT 1", id).
		Scan(&rm.ID, &rm.Name, &rm.SeatingCapacity, &rm.RoomType, &rm.BuildingName,
			&rm.IsActive, &rm.CreatedAt, &rm.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Room{}, ErrRoomNotFound
	}
	return rm, err
}

// ExistsInBuilding reports whether a room with the given name already
// exists in the building, used to guard against duplicate inventory.
func (r *RoomRepo) ExistsInBuilding(ctx context.Context, name, building string) (bool, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM t_rooms WHERE room_name=? AND building_name=?",
		strings.TrimSpace(name), strings.TrimSpace(building)).Scan(&n)
	return n > 0, err
}

// Create inserts a room and populates its generated ID and timestamps.
func (r *RoomRepo) Create(ctx context.Context, rm *model.Room) error {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO t_rooms (room_name, room_seating_capacity, room_type, building_name, is_active, created_on, updated_on)
		 VALUES (?,?,?,?,?,NOW(),NOW())`,
		rm.Name, rm.SeatingCapacity, rm.RoomType, rm.BuildingName, rm.IsActive)
	if err != nil {
		// 1062 is MySQL's duplicate-key error; (room_name, building_name) is unique.
		if strings.Contains(err.Error(), "1062") {
			return ErrRoomExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rm.ID = uint64(id)
	// Read the row back so timestamps reflect what was stored.
	stored, err := r.GetByID(ctx, rm.ID)
	if err != nil {
		return err
	}
	*rm = stored
	return nil
}

// Update overwrites a room's mutable fields.  ErrRoomNotFound is
// returned when the id has no row.
func (r *RoomRepo) Update(ctx context.Context, rm *model.Room) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE t_rooms
		 SET room_name=?, room_seating_capacity=?, room_type=?, building_name=?, is_active=?, updated_on=NOW()
		 WHERE room_id=?`,
		rm.Name, rm.SeatingCapacity, rm.RoomType, rm.BuildingName, rm.IsActive, rm.ID)
	if err != nil {
		if strings.Contains(err.Error(), "1062") {
			return ErrRoomExists
		}
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Could also mean the update was a no-op; verify existence.
		if _, err := r.GetByID(ctx, rm.ID); err != nil {
			return err
		}
	}
	stored, err := r.GetByID(ctx, rm.ID)
	if err != nil {
		return err
	}
	*rm = stored
	return nil
}

// Delete removes a room.  ErrRoomNotFound is returned when nothing was
// deleted.  The caller is responsible for refusing deletion of rooms
// that still have bookings.
func (r *RoomRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM t_rooms WHERE room_id=?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrRoomNotFound
	}
	return nil
}

func scanRoom(rows *sql.Rows, rm *model.Room) error {
	return rows.Scan(&rm.ID, &rm.Name, &rm.SeatingCapacity, &rm.RoomType,
		&rm.BuildingName, &rm.IsActive, &rm.CreatedAt, &rm.UpdatedAt)
}
