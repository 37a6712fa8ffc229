package lifecycle

import (
	"time"

	"playcafe/internal/models"
	"playcafe/internal/timefmt"
)

// ShouldComplete reports whether the expiry sweep must force b to completed.
//
// Bookings dated before today always complete. Today's bookings complete once
// the minutes since midnight pass start+duration; a session whose end falls
// after midnight therefore waits for the next day's rule 1.
func ShouldComplete(b *models.Booking, now time.Time) bool {
	if b.Status != models.StatusInProgress && b.Status != models.StatusConfirmed {
		return false
	}

	today := now.Format(models.DateLayout)
	switch {
	case b.BookingDate == "":
		return false
	case b.BookingDate < today:
		return true
	case b.BookingDate > today:
		return false
	}

	start, ok := timefmt.ParseMinutes(b.StartTime)
	if !ok {
		return false
	}
	nowMinutes := now.Hour()*60 + now.Minute()
	return nowMinutes > start+b.Duration
}

// Sweep returns completed copies of every booking in list that has expired.
func Sweep(list []models.Booking, now time.Time) []models.Booking {
	var expired []models.Booking
	for i := range list {
		if !ShouldComplete(&list[i], now) {
			continue
		}
		done := list[i].Clone()
		done.Status = models.StatusCompleted
		expired = append(expired, done)
	}
	return expired
}
