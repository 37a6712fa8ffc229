package lifecycle

import (
	"playcafe/internal/models"
)

// ApplyDelta reconciles one change into list and returns the new list. Inserts
// and updates upsert by id so replaying the same row is a no-op; deletes drop
// the row. The input slice is never modified.
func ApplyDelta(list []models.Booking, change models.BookingChange) []models.Booking {
	id := change.BookingID()
	if id == "" {
		return list
	}

	out := make([]models.Booking, 0, len(list)+1)
	replaced := false
	for _, b := range list {
		if b.ID != id {
			out = append(out, b)
			continue
		}
		if change.Type == models.ChangeDelete || change.New == nil {
			continue
		}
		if !replaced {
			out = append(out, change.New.Clone())
			replaced = true
		}
	}

	if !replaced && change.Type != models.ChangeDelete && change.New != nil {
		out = append([]models.Booking{change.New.Clone()}, out...)
	}
	return out
}

// ApplyAll folds a sequence of changes into list.
func ApplyAll(list []models.Booking, changes ...models.BookingChange) []models.Booking {
	for _, c := range changes {
		list = ApplyDelta(list, c)
	}
	return list
}
