package config

import (
	"log"

	"github.com/Anermers95/SWE5006/internal/schedule"
)

// LoadBookingPolicy builds the bookable-window policy from the
// environment, falling back to the defaults (08:00-22:00, four hours
// maximum) when a variable is unset.  A window that does not leave at
// least one bookable hour is a configuration error.
func LoadBookingPolicy() schedule.Policy {
	p := schedule.DefaultPolicy()
	p.OpenHour = envInt("BOOKING_OPEN_HOUR", p.OpenHour)
	p.CloseHour = envInt("BOOKING_CLOSE_HOUR", p.CloseHour)
	p.MaxDurationHours = envInt("BOOKING_MAX_DURATION_HOURS", p.MaxDurationHours)
	p.FullyBookedSlack = envInt("BOOKING_FULLY_BOOKED_SLACK", p.FullyBookedSlack)
	if p.OpenHour < 0 || p.CloseHour > 24 || p.OpenHour >= p.CloseHour {
		log.Fatalf("invalid booking window: open=%d close=%d", p.OpenHour, p.CloseHour)
	}
	if p.MaxDurationHours < 1 {
		log.Fatalf("invalid booking max duration: %d", p.MaxDurationHours)
	}
	return p
}
