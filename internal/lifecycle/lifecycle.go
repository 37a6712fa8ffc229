// Package lifecycle holds the booking state machine, the expiry rules and the
// reconciliation used by every in-memory booking list.
package lifecycle

import (
	"errors"
	"time"

	"playcafe/internal/models"
	"playcafe/internal/timefmt"
)

// Action is an owner-triggered operation on a booking.
type Action string

const (
	ActionConfirm Action = "confirm"
	ActionStart   Action = "start"
	ActionEdit    Action = "edit"
)

var ErrTransitionNotAllowed = errors.New("transition not allowed")

// CanConfirm reports whether pending -> confirmed is permitted.
func CanConfirm(b *models.Booking) bool {
	return b.Status == models.StatusPending && b.Source == models.SourceOnline
}

// CanStart reports whether confirmed -> in-progress is permitted.
func CanStart(b *models.Booking) bool {
	return b.Status == models.StatusConfirmed && b.Source == models.SourceOnline
}

// AllowedActions lists the actions the dashboard should enable for b.
// Edit is always available.
func AllowedActions(b *models.Booking) []Action {
	actions := make([]Action, 0, 3)
	if CanConfirm(b) {
		actions = append(actions, ActionConfirm)
	}
	if CanStart(b) {
		actions = append(actions, ActionStart)
	}
	return append(actions, ActionEdit)
}

// Confirm returns a confirmed copy of b.
func Confirm(b models.Booking) (models.Booking, error) {
	if !CanConfirm(&b) {
		return b, ErrTransitionNotAllowed
	}
	next := b.Clone()
	next.Status = models.StatusConfirmed
	return next, nil
}

// Start returns an in-progress copy of b whose start time is restamped with
// the clock's current time.
func Start(b models.Booking, clock timefmt.Clock) (models.Booking, error) {
	if !CanStart(&b) {
		return b, ErrTransitionNotAllowed
	}
	next := b.Clone()
	next.Status = models.StatusInProgress
	next.StartTime = timefmt.Now12Hour(clock)
	return next, nil
}

// Edit is the unguarded escape hatch: it applies patch fields on top of b
// from any state.
func Edit(b models.Booking, patch Patch) models.Booking {
	next := b.Clone()
	if patch.BookingDate != nil {
		next.BookingDate = *patch.BookingDate
	}
	if patch.StartTime != nil {
		next.StartTime = *patch.StartTime
	}
	if patch.Duration != nil {
		next.Duration = *patch.Duration
	}
	if patch.Items != nil {
		next.Items = append([]models.BookingItem(nil), patch.Items...)
	}
	if patch.TotalAmount != nil {
		amount := *patch.TotalAmount
		next.TotalAmount = &amount
	}
	if patch.Status != nil {
		next.Status = *patch.Status
	}
	if patch.PaymentMode != nil {
		next.PaymentMode = *patch.PaymentMode
	}
	if patch.CustomerName != nil {
		next.CustomerName = *patch.CustomerName
	}
	if patch.CustomerPhone != nil {
		next.CustomerPhone = *patch.CustomerPhone
	}
	return next
}

// Patch is a partial booking rewrite. Nil fields are left untouched.
type Patch struct {
	BookingDate   *string
	StartTime     *string
	Duration      *int
	Items         []models.BookingItem
	TotalAmount   *int64
	Status        *models.BookingStatus
	PaymentMode   *models.PaymentMode
	CustomerName  *string
	CustomerPhone *string
}

// EndsAt returns the absolute end of the session in loc.
func EndsAt(b *models.Booking, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.Local
	}
	day, err := time.ParseInLocation(models.DateLayout, b.BookingDate, loc)
	if err != nil {
		return time.Time{}, false
	}
	start, ok := timefmt.ParseMinutes(b.StartTime)
	if !ok {
		return time.Time{}, false
	}
	return day.Add(time.Duration(start+b.Duration) * time.Minute), true
}

// MinutesRemaining returns whole minutes left in an in-progress session, or
// models.UnknownMinutesRemaining when it cannot be computed.
func MinutesRemaining(b *models.Booking, now time.Time) int {
	if b.Status != models.StatusInProgress {
		return models.UnknownMinutesRemaining
	}
	end, ok := EndsAt(b, now.Location())
	if !ok {
		return models.UnknownMinutesRemaining
	}
	left := end.Sub(now)
	if left <= 0 {
		return 0
	}
	return int((left + time.Minute - 1) / time.Minute)
}
