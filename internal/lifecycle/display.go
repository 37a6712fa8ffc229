package lifecycle

import (
	"strings"

	"playcafe/internal/models"
	"playcafe/internal/timefmt"
)

const (
	unknownName = "Unknown"
	unknownText = "-"
)

// DisplayName resolves who a booking is for. Walk-ins prefer their own name
// fields, linked bookings prefer the profile, and both fall back to a
// synthesized "User xxxxxxxx" and finally "Unknown".
func DisplayName(b *models.Booking, profile *models.UserProfile) string {
	walkIn := strings.TrimSpace(b.CustomerName)
	var profileName string
	if profile != nil {
		profileName = strings.TrimSpace(profile.FullName)
	}

	if b.IsWalkIn() && walkIn != "" {
		return walkIn
	}
	if profileName != "" {
		return profileName
	}
	if walkIn != "" {
		return walkIn
	}
	if !b.IsWalkIn() {
		id := *b.UserID
		if len(id) > 8 {
			id = id[:8]
		}
		return "User " + id
	}
	return unknownName
}

// DisplayPhone mirrors DisplayName for the contact number and yields "-" when
// nothing is known.
func DisplayPhone(b *models.Booking, profile *models.UserProfile) string {
	walkIn := strings.TrimSpace(b.CustomerPhone)
	var profilePhone string
	if profile != nil {
		profilePhone = strings.TrimSpace(profile.Phone)
	}
	if b.IsWalkIn() && walkIn != "" {
		return walkIn
	}
	if profilePhone != "" {
		return profilePhone
	}
	if walkIn != "" {
		return walkIn
	}
	return unknownText
}

// DisplayEndTime renders the session end or "-" when the start is malformed.
func DisplayEndTime(b *models.Booking) string {
	start, ok := timefmt.ParseMinutes(b.StartTime)
	if !ok {
		return unknownText
	}
	return timefmt.FormatMinutes(start + b.Duration)
}

// IsUnknown reports whether a rendered value is one of the "unknown" markers.
func IsUnknown(v string) bool {
	return v == "" || v == unknownText
}
