package stats

import (
	"sort"
	"strings"

	"playcafe/internal/lifecycle"
	"playcafe/internal/models"
)

// Customers rolls bookings up per customer. Linked bookings group by user id,
// walk-ins by normalized phone or, without one, by name. Cancelled bookings
// count as visits but not as spend.
func Customers(bookings []models.Booking, profiles map[string]*models.UserProfile) []models.CustomerSummary {
	byKey := make(map[string]*models.CustomerSummary)
	order := make([]string, 0)

	for i := range bookings {
		b := &bookings[i]
		var profile *models.UserProfile
		if !b.IsWalkIn() {
			profile = profiles[*b.UserID]
		}

		key := customerKey(b)
		c, ok := byKey[key]
		if !ok {
			c = &models.CustomerSummary{
				Key:   key,
				Name:  lifecycle.DisplayName(b, profile),
				Phone: lifecycle.DisplayPhone(b, profile),
			}
			if !b.IsWalkIn() {
				id := *b.UserID
				c.UserID = &id
			}
			byKey[key] = c
			order = append(order, key)
		}

		c.Visits++
		if b.Status != models.StatusCancelled {
			c.TotalSpent += b.Amount()
		}
		if b.BookingDate > c.LastVisit {
			c.LastVisit = b.BookingDate
		}
	}

	out := make([]models.CustomerSummary, 0, len(order))
	for _, key := range order {
		out = append(out, *byKey[key])
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TotalSpent != out[j].TotalSpent {
			return out[i].TotalSpent > out[j].TotalSpent
		}
		return out[i].LastVisit > out[j].LastVisit
	})
	return out
}

func customerKey(b *models.Booking) string {
	if !b.IsWalkIn() {
		return "user:" + *b.UserID
	}
	if phone := digits(b.CustomerPhone); phone != "" {
		return "phone:" + phone
	}
	return "name:" + strings.ToLower(strings.TrimSpace(b.CustomerName))
}

func digits(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
