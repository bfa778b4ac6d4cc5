package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Anermers95/SWE5006/internal/model"
	"github.com/Anermers95/SWE5006/internal/repository"
)

// RoomHandler serves the room inventory endpoints.  Listing is open to
// every authenticated user; mutations are restricted to admins by the
// route-level role middleware.
type RoomHandler struct {
	Rooms    *repository.RoomRepo
	Bookings *repository.BookingRepo
}

func NewRoomHandler(r *repository.RoomRepo, b *repository.BookingRepo) *RoomHandler {
	return &RoomHandler{Rooms: r, Bookings: b}
}

type roomReq struct {
	Name            string `json:"room_name"`
	SeatingCapacity uint32 `json:"seating_capacity"`
	RoomType        string `json:"room_type"`
	BuildingName    string `json:"building_name"`
	IsActive        *bool  `json:"is_active"`
}

// List returns all rooms.
func (h *RoomHandler) List(c echo.Context) error {
	rooms, err := h.Rooms.GetAll(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": rooms})
}

// Get returns a single room by id.
func (h *RoomHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	room, err := h.Rooms.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, room)
}

// Create adds a room.  A room name must be unique within its building.
func (h *RoomHandler) Create(c echo.Context) error {
	var req roomReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	name := strings.TrimSpace(req.Name)
	building := strings.TrimSpace(req.BuildingName)
	if name == "" || building == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "room_name and building_name are required"})
	}
	if req.SeatingCapacity == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seating_capacity must be positive"})
	}

	ctx := c.Request().Context()
	taken, err := h.Rooms.ExistsInBuilding(ctx, name, building)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if taken {
		return c.JSON(http.StatusConflict, echo.Map{"error": "room already exists in building"})
	}

	room := &model.Room{
		Name:            name,
		SeatingCapacity: req.SeatingCapacity,
		RoomType:        strings.TrimSpace(req.RoomType),
		BuildingName:    building,
		IsActive:        true,
	}
	if err := h.Rooms.Create(ctx, room); err != nil {
		if errors.Is(err, repository.ErrRoomExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "room already exists in building"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create room"})
	}
	return c.JSON(http.StatusCreated, room)
}

// Update replaces a room's mutable fields.
func (h *RoomHandler) Update(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req roomReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	ctx := c.Request().Context()
	room, err := h.Rooms.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		room.Name = name
	}
	if building := strings.TrimSpace(req.BuildingName); building != "" {
		room.BuildingName = building
	}
	if rt := strings.TrimSpace(req.RoomType); rt != "" {
		room.RoomType = rt
	}
	if req.SeatingCapacity != 0 {
		room.SeatingCapacity = req.SeatingCapacity
	}
	if req.IsActive != nil {
		room.IsActive = *req.IsActive
	}

	if err := h.Rooms.Update(ctx, &room); err != nil {
		switch {
		case errors.Is(err, repository.ErrRoomNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		case errors.Is(err, repository.ErrRoomExists):
			return c.JSON(http.StatusConflict, echo.Map{"error": "room already exists in building"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, room)
}

// Delete removes a room.  Rooms that have bookings, active or not,
// cannot be removed; cancel or delete the bookings first.
func (h *RoomHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx := c.Request().Context()
	n, err := h.Bookings.CountByRoom(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if n > 0 {
		return c.JSON(http.StatusConflict, echo.Map{"error": "room has bookings"})
	}

	if err := h.Rooms.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
