package pricing

import (
	"fmt"

	"playcafe/internal/models"
)

// Stations synthesizes "{Label}-{NN}" identities from inventory counts in
// models.ConsoleTypes order.
func Stations(inventory map[models.ConsoleType]int) []models.Station {
	var out []models.Station
	for _, ct := range models.ConsoleTypes {
		count := inventory[ct]
		for i := 1; i <= count; i++ {
			out = append(out, models.Station{
				Name:        StationName(ct, i),
				ConsoleType: ct,
				Index:       i,
			})
		}
	}
	return out
}

// StationName formats a single station identity.
func StationName(ct models.ConsoleType, index int) string {
	return fmt.Sprintf("%s-%02d", ct.Label(), index)
}

// StationRate prices a station override for a duration that is a whole
// number of half hours. Gaming consoles are priced by controller count.
func StationRate(sp *models.StationPricing, controllers, durationMinutes int) (int64, bool) {
	if sp == nil || durationMinutes <= 0 || durationMinutes%30 != 0 {
		return 0, false
	}

	var half, full *int64
	if sp.ConsoleType.IsGaming() {
		if controllers < 1 || controllers > len(sp.Controllers) {
			return 0, false
		}
		rate := sp.Controllers[controllers-1]
		if rate == nil {
			return 0, false
		}
		half, full = &rate.HalfHour, &rate.FullHour
	} else {
		half, full = sp.HalfHourRate, sp.HourRate
	}

	hours, rest := durationMinutes/60, durationMinutes%60
	var total int64
	if hours > 0 {
		if full == nil {
			return 0, false
		}
		total += *full * int64(hours)
	}
	if rest == 30 {
		if half == nil {
			return 0, false
		}
		total += *half
	}
	return total, true
}

// ValidateStationPricing checks the shape rules for a station override.
func ValidateStationPricing(sp *models.StationPricing) error {
	if sp.StationName == "" {
		return fmt.Errorf("station name is required")
	}
	if !sp.ConsoleType.Valid() {
		return fmt.Errorf("unknown console type %q", sp.ConsoleType)
	}
	if sp.ConsoleType.IsGaming() {
		if sp.Controllers[0] == nil {
			return fmt.Errorf("single controller rate is required for %s", sp.ConsoleType.Label())
		}
		return nil
	}
	if sp.HalfHourRate == nil && sp.HourRate == nil {
		return fmt.Errorf("half hour or hour rate is required")
	}
	return nil
}
