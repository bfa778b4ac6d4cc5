package service

import (
	"context"
	"log"
	"time"

	"github.com/Anermers95/SWE5006/internal/model"
	"github.com/Anermers95/SWE5006/internal/queue"
)

// ExpireOverdue deactivates every active booking whose end time has
// passed, freeing its room slots.  Each booking is re-read under its
// room lock before the write so a concurrent cancel or update is
// never clobbered.  It returns the number of bookings expired.
func (s *BookingService) ExpireOverdue(ctx context.Context) (int, error) {
	cutoff := s.now()
	overdue, err := s.bookings.ListActiveEndedBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	expired := 0
	for _, stale := range overdue {
		lock := s.roomLock(stale.RoomID)
		b, flipped := func() (model.Booking, bool) {
			lock.Lock()
			defer lock.Unlock()
			b, err := s.bookings.GetByID(ctx, stale.ID)
			if err != nil {
				return model.Booking{}, false
			}
			if !b.IsActive || b.EndTime.After(cutoff) {
				return model.Booking{}, false
			}
			b.IsActive = false
			b.UpdatedAt = s.now()
			if err := s.bookings.Update(ctx, &b); err != nil {
				log.Printf("expiry sweep: booking %d: %v", b.ID, err)
				return model.Booking{}, false
			}
			return b, true
		}()
		if !flipped {
			continue
		}
		s.appendLog(ctx, &b, model.LogActionExpire)
		s.publish(ctx, &b, queue.ActionExpired)
		expired++
	}
	return expired, nil
}

// StartExpirySweep runs ExpireOverdue on a fixed interval until the
// context is cancelled.  Meant to be launched as a goroutine from
// main.
func (s *BookingService) StartExpirySweep(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := s.ExpireOverdue(ctx); err != nil {
				log.Printf("expiry sweep: %v", err)
			} else if n > 0 {
				log.Printf("expiry sweep: deactivated %d overdue booking(s)", n)
			}
		}
	}
}
