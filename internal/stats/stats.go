// Package stats folds booking lists into dashboard figures. Every function is
// a pure fold over its input so results can be recomputed after any local
// change.
package stats

import (
	"sort"
	"time"

	"playcafe/internal/models"
)

// Summary holds the owner dashboard figures.
type Summary struct {
	TodayCount     int              `json:"today_count"`
	PendingCount   int              `json:"pending_count"`
	TotalCount     int              `json:"total_count"`
	RevenueToday   int64            `json:"revenue_today"`
	RevenueWeek    int64            `json:"revenue_week"`
	RevenueMonth   int64            `json:"revenue_month"`
	RevenueQuarter int64            `json:"revenue_quarter"`
	RevenueTotal   int64            `json:"revenue_total"`
	Recent         []models.Booking `json:"recent"`
	RecentRevenue  int64            `json:"recent_revenue"`
}

// Periods are the calendar boundaries used for revenue buckets. Each bucket
// covers [Start, End); End is the first day of the next period.
type Periods struct {
	Today        string
	WeekStart    string
	WeekEnd      string
	MonthStart   string
	MonthEnd     string
	QuarterStart string
	QuarterEnd   string
}

func (p Periods) inWeek(date string) bool    { return date >= p.WeekStart && date < p.WeekEnd }
func (p Periods) inMonth(date string) bool   { return date >= p.MonthStart && date < p.MonthEnd }
func (p Periods) inQuarter(date string) bool { return date >= p.QuarterStart && date < p.QuarterEnd }

// PeriodsAt computes the boundaries for now. The week starts on Sunday and the
// quarter starts at month floor(m/3)*3 (zero-based months).
func PeriodsAt(now time.Time) Periods {
	y, m, d := now.Date()
	loc := now.Location()
	day := time.Date(y, m, d, 0, 0, 0, 0, loc)

	weekStart := day.AddDate(0, 0, -int(day.Weekday()))
	monthStart := time.Date(y, m, 1, 0, 0, 0, 0, loc)
	quarterMonth := (int(m)-1)/3*3 + 1
	quarterStart := time.Date(y, time.Month(quarterMonth), 1, 0, 0, 0, 0, loc)

	return Periods{
		Today:        day.Format(models.DateLayout),
		WeekStart:    weekStart.Format(models.DateLayout),
		WeekEnd:      weekStart.AddDate(0, 0, 7).Format(models.DateLayout),
		MonthStart:   monthStart.Format(models.DateLayout),
		MonthEnd:     monthStart.AddDate(0, 1, 0).Format(models.DateLayout),
		QuarterStart: quarterStart.Format(models.DateLayout),
		QuarterEnd:   quarterStart.AddDate(0, 3, 0).Format(models.DateLayout),
	}
}

// Aggregate computes the dashboard summary for bookings at now.
func Aggregate(bookings []models.Booking, now time.Time) Summary {
	p := PeriodsAt(now)
	var s Summary

	for i := range bookings {
		b := &bookings[i]
		amount := b.Amount()

		s.TotalCount++
		s.RevenueTotal += amount
		if b.Status == models.StatusPending {
			s.PendingCount++
		}
		if b.BookingDate == "" {
			continue
		}
		if b.BookingDate == p.Today {
			s.TodayCount++
			s.RevenueToday += amount
		}
		if p.inWeek(b.BookingDate) {
			s.RevenueWeek += amount
		}
		if p.inMonth(b.BookingDate) {
			s.RevenueMonth += amount
		}
		if p.inQuarter(b.BookingDate) {
			s.RevenueQuarter += amount
		}
	}

	s.Recent = Recent(bookings, models.RecentBookingsWindow)
	for i := range s.Recent {
		s.RecentRevenue += s.Recent[i].Amount()
	}
	return s
}

// Recent returns up to limit bookings ordered by created_at, newest first.
func Recent(bookings []models.Booking, limit int) []models.Booking {
	sorted := make([]models.Booking, len(bookings))
	copy(sorted, bookings)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	if limit >= 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}
