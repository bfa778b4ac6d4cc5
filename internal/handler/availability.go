package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Anermers95/SWE5006/internal/service"
)

// AvailabilityHandler serves the read-side availability grid.  The
// grid is advisory for booking forms; Create re-checks conflicts
// authoritatively.
type AvailabilityHandler struct {
	Svc *service.BookingService
}

func NewAvailabilityHandler(svc *service.BookingService) *AvailabilityHandler {
	return &AvailabilityHandler{Svc: svc}
}

const dateLayout = "2006-01-02"

// Day returns the hourly grid for a room and date:
// GET /v1/rooms/:id/availability?date=YYYY-MM-DD[&start_hour=H].
// With start_hour set, the response also lists the end hours a booking
// starting there could choose.
func (h *AvailabilityHandler) Day(c echo.Context) error {
	roomID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}
	date, err := time.Parse(dateLayout, c.QueryParam("date"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
	}

	grid, err := h.Svc.DayAvailability(c.Request().Context(), roomID, date)
	if err != nil {
		return bookingError(c, err)
	}

	resp := echo.Map{
		"room_id":      roomID,
		"date":         grid.Date,
		"slots":        grid.Slots,
		"fully_booked": grid.FullyBooked,
	}
	if sh := c.QueryParam("start_hour"); sh != "" {
		startHour, err := strconv.Atoi(sh)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid start_hour"})
		}
		resp["end_options"] = h.Svc.Policy().EndOptions(grid, startHour)
	}
	return c.JSON(http.StatusOK, resp)
}

// FullyBooked lists the dates in a range with no availability left:
// GET /v1/rooms/:id/availability/fully-booked?from=YYYY-MM-DD&to=YYYY-MM-DD.
func (h *AvailabilityHandler) FullyBooked(c echo.Context) error {
	roomID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}
	from, err := time.Parse(dateLayout, c.QueryParam("from"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "from must be YYYY-MM-DD"})
	}
	to, err := time.Parse(dateLayout, c.QueryParam("to"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "to must be YYYY-MM-DD"})
	}
	if to.Before(from) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "to must not precede from"})
	}

	dates, err := h.Svc.FullyBookedDates(c.Request().Context(), roomID, from, to)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"room_id": roomID, "dates": dates})
}
