package services

import (
	"time"

	"github.com/tbourn/go-reminder-bot/internal/domain"
)

// NextBoundary rounds now up to the next wall-clock time whose minute is a
// multiple of intervalMinutes, in now's location.
//
// Seconds are dropped before rounding and the result always lies strictly
// after now, so a time already on a boundary moves to the following one
// (10:05:00 → 10:10). Rounding works on the absolute instant, so a repeated
// wall-clock hour at a DST fall-back still yields a later time. Non-positive
// intervals are treated as 1.
func NextBoundary(now time.Time, intervalMinutes int) domain.Boundary {
	if intervalMinutes <= 0 {
		intervalMinutes = 1
	}
	base := now.Truncate(time.Minute)
	step := intervalMinutes - now.Minute()%intervalMinutes
	return domain.NewBoundary(base.Add(time.Duration(step) * time.Minute))
}
