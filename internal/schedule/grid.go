package schedule

import (
	"fmt"
	"time"

	"github.com/Anermers95/SWE5006/internal/model"
)

// Policy holds the bookable-window parameters shared by the grid and
// its consumers.  The window is half-open in hours: with OpenHour 8
// and CloseHour 22 the bookable start hours are 08:00 through 21:00
// and the latest end hour is 22:00, for fourteen one-hour slots.
type Policy struct {
	OpenHour         int // first bookable hour of the day
	CloseHour        int // hour the window closes; last slot ends here
	MaxDurationHours int // longest allowed booking
	FullyBookedSlack int // a date counts as fully booked when free slots <= this
}

// DefaultPolicy returns the production window: 08:00-22:00, four-hour
// maximum duration, one slot of slack for fully-booked detection.
func DefaultPolicy() Policy {
	return Policy{OpenHour: 8, CloseHour: 22, MaxDurationHours: 4, FullyBookedSlack: 1}
}

// SlotCount returns the number of hourly slots in the window.
func (p Policy) SlotCount() int {
	return p.CloseHour - p.OpenHour
}

// Slot is one hour of a day's availability grid.  Hour is the slot's
// start hour; a slot covers [Hour:00, Hour+1:00).
type Slot struct {
	Hour   int    `json:"hour"`
	Label  string `json:"label"` // "08:00"
	Booked bool   `json:"booked"`
}

// DayGrid is the availability view of one room for one calendar date.
// It is advisory: it lets a client avoid proposing doomed intervals,
// but the booking service re-checks conflicts under its own lock
// before persisting anything.
type DayGrid struct {
	Date        string `json:"date"` // "2006-01-02"
	Slots       []Slot `json:"slots"`
	FullyBooked bool   `json:"fully_booked"`
}

// BookedCount returns the number of booked slots in the grid.
func (g DayGrid) BookedCount() int {
	n := 0
	for _, s := range g.Slots {
		if s.Booked {
			n++
		}
	}
	return n
}

// HourLabel formats an hour as a slot label like "08:00".
func HourLabel(hour int) string {
	return fmt.Sprintf("%02d:00", hour)
}

// BuildDayGrid derives the hourly grid for one date from a room's
// bookings.  Only active bookings mark slots; a booking marks every
// whole hour its interval overlaps within the window, under the same
// half-open rule as conflict detection, so a booking ending at 11:00
// leaves the 11:00 slot free.  Bookings on other dates or entirely
// outside the window contribute nothing.
func BuildDayGrid(date time.Time, bookings []model.Booking, p Policy) DayGrid {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	grid := DayGrid{
		Date:  day.Format("2006-01-02"),
		Slots: make([]Slot, 0, p.SlotCount()),
	}
	for hour := p.OpenHour; hour < p.CloseHour; hour++ {
		slot := Interval{
			Start: day.Add(time.Duration(hour) * time.Hour),
			End:   day.Add(time.Duration(hour+1) * time.Hour),
		}
		grid.Slots = append(grid.Slots, Slot{
			Hour:   hour,
			Label:  HourLabel(hour),
			Booked: HasConflict(bookings, slot, 0),
		})
	}
	grid.FullyBooked = grid.BookedCount() >= p.SlotCount()-p.FullyBookedSlack
	return grid
}

// EndOptions returns the valid end hours for a booking starting at
// startHour on the given grid.  An end hour is valid when it is
// strictly later than the start, within the maximum duration and the
// window, and every slot between start and end is free.  The list
// stops at the first booked slot: once an hour is taken, no later end
// time can be reached without crossing it.
func (p Policy) EndOptions(grid DayGrid, startHour int) []int {
	if startHour < p.OpenHour || startHour >= p.CloseHour {
		return nil
	}
	maxEnd := startHour + p.MaxDurationHours
	if maxEnd > p.CloseHour {
		maxEnd = p.CloseHour
	}
	var ends []int
	for end := startHour + 1; end <= maxEnd; end++ {
		// The slot [end-1, end) must be free for the booking to reach this end.
		if slotBooked(grid, end-1) {
			break
		}
		ends = append(ends, end)
	}
	return ends
}

func slotBooked(grid DayGrid, hour int) bool {
	for _, s := range grid.Slots {
		if s.Hour == hour {
			return s.Booked
		}
	}
	return true // outside the grid counts as unavailable
}

// FullyBookedDates scans the dates in [from, to] (inclusive, civil
// days) and returns the ones whose grid is fully booked.  Bookings
// outside the range are ignored via the per-day grid build.
func FullyBookedDates(from, to time.Time, bookings []model.Booking, p Policy) []string {
	start := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	end := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	var dates []string
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		if BuildDayGrid(day, bookings, p).FullyBooked {
			dates = append(dates, day.Format("2006-01-02"))
		}
	}
	return dates
}
