// Package schedule holds the scheduling core of the booking service:
// the interval overlap rule used for conflict detection and the hourly
// availability grid derived from a room's bookings.  Both sides of the
// application (the authoritative booking service and the read-only
// availability endpoints) go through this package, so the boundary
// semantics cannot drift between them.
//
// All intervals are half-open [start, end): the start instant is
// occupied, the end instant is not.  Two bookings touching at a
// boundary therefore never conflict.
package schedule

import (
	"time"

	"github.com/Anermers95/SWE5006/internal/model"
)

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Valid reports whether the interval is well formed (Start strictly
// before End).
func (iv Interval) Valid() bool {
	return iv.Start.Before(iv.End)
}

// Duration returns End - Start.
func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// Overlaps reports whether two half-open intervals share any instant:
// [s1,e1) and [s2,e2) overlap iff s1 < e2 AND s2 < e1.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && other.Start.Before(iv.End)
}

// Contains reports whether t falls inside the interval.  The start
// instant is inside, the end instant is not.
func (iv Interval) Contains(t time.Time) bool {
	return !t.Before(iv.Start) && t.Before(iv.End)
}

// Span returns the interval claimed by a booking.
func Span(b *model.Booking) Interval {
	return Interval{Start: b.StartTime, End: b.EndTime}
}

// HasConflict reports whether the candidate interval overlaps any
// active booking in the given set, skipping the booking identified by
// excludeID (pass 0 to exclude nothing).  The exclusion is what lets
// an edit move a booking within, or adjacent to, its own previous
// slot.  The check is pure: it never touches storage and is
// deterministic for a given snapshot of bookings.
func HasConflict(existing []model.Booking, candidate Interval, excludeID uint64) bool {
	return FindConflict(existing, candidate, excludeID) != nil
}

// FindConflict returns the first active booking whose interval
// overlaps the candidate, or nil when the slot is free.  Inactive
// (cancelled or expired) bookings never count.
func FindConflict(existing []model.Booking, candidate Interval, excludeID uint64) *model.Booking {
	for i := range existing {
		b := &existing[i]
		if !b.IsActive {
			continue
		}
		if excludeID != 0 && b.ID == excludeID {
			continue
		}
		if candidate.Overlaps(Span(b)) {
			return b
		}
	}
	return nil
}
