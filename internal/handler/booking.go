package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Anermers95/SWE5006/internal/middleware"
	"github.com/Anermers95/SWE5006/internal/repository"
	"github.com/Anermers95/SWE5006/internal/service"
)

// BookingHandler serves the booking lifecycle endpoints.  All business
// rules live in the service; the handler binds requests, parses
// timestamps and maps errors to HTTP statuses.
type BookingHandler struct {
	Svc *service.BookingService
}

func NewBookingHandler(svc *service.BookingService) *BookingHandler {
	return &BookingHandler{Svc: svc}
}

type bookingCreateReq struct {
	RoomID    uint64 `json:"room_id"`
	UserID    uint64 `json:"user_id"` // optional; defaults to the caller
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Purpose   string `json:"purpose"`
}

type bookingUpdateReq struct {
	StartTime *string `json:"start_time"`
	EndTime   *string `json:"end_time"`
	Purpose   *string `json:"purpose"`
	IsActive  *bool   `json:"is_active"`
}

// bookingError maps service and repository errors onto HTTP responses.
func bookingError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrEndBeforeStart),
		errors.Is(err, service.ErrPurposeRequired):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "room is already booked for this time"})
	case errors.Is(err, repository.ErrBookingNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
	case errors.Is(err, repository.ErrRoomNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
	case errors.Is(err, repository.ErrUserNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}
	c.Logger().Errorf("booking: %v", err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

func parseRFC3339(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// List returns every booking with room and user names joined.
func (h *BookingHandler) List(c echo.Context) error {
	items, err := h.Svc.ListAll(c.Request().Context())
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Get returns a single booking by id.
func (h *BookingHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	b, err := h.Svc.GetByID(c.Request().Context(), id)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

// ListByUser returns the bookings of one user.
func (h *BookingHandler) ListByUser(c echo.Context) error {
	userID, err := strconv.ParseUint(c.Param("userId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	items, err := h.Svc.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// ListByRoom returns the bookings of one room.
func (h *BookingHandler) ListByRoom(c echo.Context) error {
	roomID, err := strconv.ParseUint(c.Param("roomId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}
	items, err := h.Svc.ListByRoom(c.Request().Context(), roomID)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Create books a room.  Members always book for themselves; an admin
// may pass user_id to book on another user's behalf.
func (h *BookingHandler) Create(c echo.Context) error {
	var req bookingCreateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	start, err := parseRFC3339(req.StartTime)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid start_time"})
	}
	end, err := parseRFC3339(req.EndTime)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid end_time"})
	}

	userID := middleware.UserID(c)
	if req.UserID != 0 && req.UserID != userID {
		if middleware.Role(c) != "ADMIN" {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "cannot book for another user"})
		}
		userID = req.UserID
	}

	b, err := h.Svc.Create(c.Request().Context(), userID, req.RoomID, start, end, req.Purpose)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusCreated, b)
}

// Update edits a booking's time range, purpose or active flag.
func (h *BookingHandler) Update(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req bookingUpdateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	var patch service.UpdatePatch
	if req.StartTime != nil {
		t, err := parseRFC3339(*req.StartTime)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid start_time"})
		}
		patch.StartTime = &t
	}
	if req.EndTime != nil {
		t, err := parseRFC3339(*req.EndTime)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid end_time"})
		}
		patch.EndTime = &t
	}
	patch.Purpose = req.Purpose
	patch.IsActive = req.IsActive

	current, err := h.Svc.GetByID(c.Request().Context(), id)
	if err != nil {
		return bookingError(c, err)
	}
	if !mayModify(c, current.UserID) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your booking"})
	}

	b, err := h.Svc.Update(c.Request().Context(), id, patch)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

// Cancel deactivates a booking, freeing its slot.  Cancelling an
// already-cancelled booking succeeds without effect.
func (h *BookingHandler) Cancel(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	current, err := h.Svc.GetByID(c.Request().Context(), id)
	if err != nil {
		return bookingError(c, err)
	}
	if !mayModify(c, current.UserID) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your booking"})
	}
	b, err := h.Svc.Cancel(c.Request().Context(), id)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

// Delete removes a booking row entirely (admin only, enforced by the
// route).
func (h *BookingHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Svc.Delete(c.Request().Context(), id); err != nil {
		return bookingError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// CheckConflict reports whether a candidate interval is free without
// reserving anything: GET /v1/bookings/check-conflict?room_id=&start=&end=.
func (h *BookingHandler) CheckConflict(c echo.Context) error {
	roomID, err := strconv.ParseUint(c.QueryParam("room_id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room_id"})
	}
	start, err := parseRFC3339(c.QueryParam("start"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid start"})
	}
	end, err := parseRFC3339(c.QueryParam("end"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid end"})
	}
	conflict, err := h.Svc.CheckConflict(c.Request().Context(), roomID, start, end)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"conflict": conflict})
}

// Logs returns the audit trail, for all bookings or one booking.
func (h *BookingHandler) Logs(c echo.Context) error {
	var bookingID uint64
	if p := c.Param("id"); p != "" {
		id, err := strconv.ParseUint(p, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
		}
		bookingID = id
	}
	items, err := h.Svc.Logs(c.Request().Context(), bookingID)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// mayModify lets a booking be modified only by its owner or an admin.
func mayModify(c echo.Context, ownerID uint64) bool {
	return middleware.Role(c) == "ADMIN" || ownerID == middleware.UserID(c)
}
