package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"playcafe/internal/domain"
	"playcafe/internal/models"
	"playcafe/internal/timefmt"
)

// ownedCafe loads cafeID and checks that ownerID runs it.
func ownedCafe(ctx context.Context, store domain.Store, ownerID, cafeID string) (*models.Cafe, error) {
	cafe, err := store.GetCafe(ctx, cafeID)
	if err != nil {
		return nil, err
	}
	if cafe.OwnerID != ownerID {
		return nil, ErrForbidden
	}
	return cafe, nil
}

func validDate(value string) error {
	if _, err := time.Parse(models.DateLayout, value); err != nil {
		return invalidf("booking_date must be YYYY-MM-DD")
	}
	return nil
}

// normalizeStartTime accepts "6:30 pm" or "18:30" and returns the canonical
// 12-hour form.
func normalizeStartTime(value string) (string, error) {
	if v := timefmt.Normalize(value); v != "" {
		return v, nil
	}
	if v := timefmt.To12Hour(value); v != "" {
		return v, nil
	}
	return "", invalidf("start_time %q is not a valid time", value)
}

func validDuration(minutes int) error {
	if minutes <= 0 || minutes > 24*60 {
		return invalidf("duration must be between 1 and 1440 minutes")
	}
	return nil
}

func validItems(items []models.BookingItem) error {
	if len(items) == 0 {
		return invalidf("at least one console is required")
	}
	seen := make(map[models.ConsoleType]bool, len(items))
	for _, it := range items {
		if !it.ConsoleType.Valid() {
			return invalidf("unknown console type %q", it.ConsoleType)
		}
		if it.Quantity <= 0 {
			return invalidf("quantity for %s must be positive", it.ConsoleType)
		}
		if seen[it.ConsoleType] {
			return invalidf("console type %s listed twice", it.ConsoleType)
		}
		seen[it.ConsoleType] = true
	}
	return nil
}

// checkCapacity rejects items that ask for more non-gaming units than the café
// owns. Gaming quantities count controllers and are not bounded by inventory.
func checkCapacity(cafe *models.Cafe, items []models.BookingItem) error {
	for _, it := range items {
		if it.ConsoleType.IsGaming() {
			if cafe.Inventory[it.ConsoleType] == 0 {
				return invalidf("%s does not offer %s", cafe.Name, it.ConsoleType.Label())
			}
			continue
		}
		if it.Quantity > cafe.Inventory[it.ConsoleType] {
			return invalidf("%s has only %d %s", cafe.Name, cafe.Inventory[it.ConsoleType], it.ConsoleType.Label())
		}
	}
	return nil
}

func parseConsoleTypes(items []models.BookingItem) []models.BookingItem {
	out := make([]models.BookingItem, len(items))
	for i, it := range items {
		if ct, ok := models.ParseConsoleType(string(it.ConsoleType)); ok {
			it.ConsoleType = ct
		}
		out[i] = it
	}
	return out
}

func paymentOrDefault(p models.PaymentMode, def models.PaymentMode) (models.PaymentMode, error) {
	if p == "" {
		return def, nil
	}
	p = models.PaymentMode(strings.ToLower(string(p)))
	if !p.Valid() {
		return "", invalidf("unknown payment mode %q", p)
	}
	return p, nil
}

// isNotFound reports whether err means the row is missing.
func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
