// Package pricing resolves booking prices from café tier tables and station
// pricing records, and synthesizes station identities from inventory.
package pricing

import (
	"math"

	"playcafe/internal/models"
)

type tierKey struct {
	cafeID   string
	console  models.ConsoleType
	quantity int
	duration int
}

// TierTable indexes pricing tiers by (café, console, quantity, duration).
type TierTable struct {
	prices map[tierKey]int64
}

// NewTierTable builds a table. A later tier with the same key replaces an
// earlier one.
func NewTierTable(tiers []models.PricingTier) *TierTable {
	t := &TierTable{prices: make(map[tierKey]int64, len(tiers))}
	for _, tier := range tiers {
		t.Set(tier)
	}
	return t
}

// Set stores one tier, ignoring durations outside the tier buckets.
func (t *TierTable) Set(tier models.PricingTier) {
	if tier.Duration != 30 && tier.Duration != 60 {
		return
	}
	t.prices[tierKey{tier.CafeID, tier.ConsoleType, tier.Quantity, tier.Duration}] = tier.Price
}

// Lookup returns the tier price for the key.
func (t *TierTable) Lookup(cafeID string, console models.ConsoleType, quantity, duration int) (int64, bool) {
	if t == nil {
		return 0, false
	}
	price, ok := t.prices[tierKey{cafeID, console, quantity, duration}]
	return price, ok
}

// Len returns the number of stored tiers.
func (t *TierTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.prices)
}

// ResolvePrice prices one console claim.
//
//  1. 30 or 60 minutes with a matching tier: the tier price.
//  2. 90 minutes with both the 60 and 30 minute tiers: their sum.
//  3. Anything else: round(fallbackHourlyRate * quantity * minutes / 60).
func ResolvePrice(
	cafeID string,
	console models.ConsoleType,
	quantity, durationMinutes int,
	tiers *TierTable,
	fallbackHourlyRate int64,
) int64 {
	switch durationMinutes {
	case 30, 60:
		if price, ok := tiers.Lookup(cafeID, console, quantity, durationMinutes); ok {
			return price
		}
	case 90:
		hour, okHour := tiers.Lookup(cafeID, console, quantity, 60)
		half, okHalf := tiers.Lookup(cafeID, console, quantity, 30)
		if okHour && okHalf {
			return hour + half
		}
	}
	return Fallback(fallbackHourlyRate, quantity, durationMinutes)
}

// Fallback is the linear formula used when no tier applies.
func Fallback(hourlyRate int64, quantity, durationMinutes int) int64 {
	return int64(math.Round(float64(hourlyRate) * float64(quantity) * float64(durationMinutes) / 60))
}

// Quote sums ResolvePrice over every item of a booking.
func Quote(cafeID string, items []models.BookingItem, durationMinutes int, tiers *TierTable, fallbackHourlyRate int64) int64 {
	var total int64
	for _, item := range items {
		total += ResolvePrice(cafeID, item.ConsoleType, item.Quantity, durationMinutes, tiers, fallbackHourlyRate)
	}
	return total
}
