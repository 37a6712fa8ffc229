package stats

import (
	"fmt"
	"testing"
	"time"

	"playcafe/internal/lifecycle"
	"playcafe/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func amount(v int64) *int64 { return &v }

// Wednesday 2025-05-14 15:00.
var now = time.Date(2025, 5, 14, 15, 0, 0, 0, time.UTC)

func TestPeriodsAt(t *testing.T) {
	p := PeriodsAt(now)
	assert.Equal(t, "2025-05-14", p.Today)
	assert.Equal(t, "2025-05-11", p.WeekStart, "week starts on Sunday")
	assert.Equal(t, "2025-05-01", p.MonthStart)
	assert.Equal(t, "2025-04-01", p.QuarterStart)
	assert.Equal(t, "2025-05-18", p.WeekEnd)
	assert.Equal(t, "2025-06-01", p.MonthEnd)
	assert.Equal(t, "2025-07-01", p.QuarterEnd)

	sunday := PeriodsAt(time.Date(2025, 5, 11, 8, 0, 0, 0, time.UTC))
	assert.Equal(t, "2025-05-11", sunday.WeekStart)

	jan := PeriodsAt(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "2024-12-29", jan.WeekStart)
	assert.Equal(t, "2025-01-01", jan.QuarterStart)

	dec := PeriodsAt(time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "2025-10-01", dec.QuarterStart)
	assert.Equal(t, "2026-01-01", dec.QuarterEnd)
	assert.Equal(t, "2026-01-04", dec.WeekEnd)
}

func TestAggregateFutureBookingsStayInTheirPeriod(t *testing.T) {
	bookings := []models.Booking{
		{ID: "saturday", BookingDate: "2025-05-17", Status: models.StatusConfirmed, TotalAmount: amount(10)},
		{ID: "next-week", BookingDate: "2025-05-18", Status: models.StatusConfirmed, TotalAmount: amount(20)},
		{ID: "next-month", BookingDate: "2025-06-02", Status: models.StatusConfirmed, TotalAmount: amount(40)},
		{ID: "next-quarter", BookingDate: "2025-07-01", Status: models.StatusPending, TotalAmount: amount(80)},
	}

	s := Aggregate(bookings, now)
	assert.Equal(t, int64(10), s.RevenueWeek)
	assert.Equal(t, int64(30), s.RevenueMonth)
	assert.Equal(t, int64(70), s.RevenueQuarter)
	assert.Equal(t, int64(150), s.RevenueTotal)
	assert.Equal(t, int64(0), s.RevenueToday)
}

func TestAggregate(t *testing.T) {
	created := func(h int) time.Time { return now.Add(-time.Duration(h) * time.Hour) }
	bookings := []models.Booking{
		{ID: "today", BookingDate: "2025-05-14", Status: models.StatusPending, TotalAmount: amount(100), CreatedAt: created(1)},
		{ID: "week", BookingDate: "2025-05-12", Status: models.StatusCompleted, TotalAmount: amount(200), CreatedAt: created(2)},
		{ID: "month", BookingDate: "2025-05-02", Status: models.StatusCompleted, TotalAmount: amount(400), CreatedAt: created(3)},
		{ID: "quarter", BookingDate: "2025-04-20", Status: models.StatusCompleted, TotalAmount: amount(800), CreatedAt: created(4)},
		{ID: "old", BookingDate: "2025-01-03", Status: models.StatusCompleted, TotalAmount: amount(1600), CreatedAt: created(5)},
		{ID: "null", BookingDate: "2025-05-14", Status: models.StatusConfirmed, TotalAmount: nil, CreatedAt: created(6)},
	}

	s := Aggregate(bookings, now)
	assert.Equal(t, 2, s.TodayCount)
	assert.Equal(t, 1, s.PendingCount)
	assert.Equal(t, 6, s.TotalCount)
	assert.Equal(t, int64(100), s.RevenueToday)
	assert.Equal(t, int64(300), s.RevenueWeek)
	assert.Equal(t, int64(700), s.RevenueMonth)
	assert.Equal(t, int64(1500), s.RevenueQuarter)
	assert.Equal(t, int64(3100), s.RevenueTotal)
	require.Len(t, s.Recent, 6)
	assert.Equal(t, "today", s.Recent[0].ID)
	assert.Equal(t, int64(3100), s.RecentRevenue)
}

func TestAggregateNullAmountContributesZero(t *testing.T) {
	s := Aggregate([]models.Booking{{ID: "x", BookingDate: "2025-05-14", Status: models.StatusCompleted}}, now)
	assert.Equal(t, 1, s.TodayCount)
	assert.Equal(t, int64(0), s.RevenueToday)
	assert.Equal(t, int64(0), s.RevenueWeek)
	assert.Equal(t, int64(0), s.RevenueMonth)
	assert.Equal(t, int64(0), s.RevenueQuarter)
	assert.Equal(t, int64(0), s.RevenueTotal)
	assert.Equal(t, int64(0), s.RecentRevenue)
}

func TestRecentWindowCapped(t *testing.T) {
	var bookings []models.Booking
	for i := 0; i < 30; i++ {
		bookings = append(bookings, models.Booking{
			ID:          fmt.Sprintf("b%02d", i),
			BookingDate: "2025-05-14",
			TotalAmount: amount(10),
			CreatedAt:   now.Add(time.Duration(i) * time.Minute),
		})
	}

	s := Aggregate(bookings, now)
	require.Len(t, s.Recent, models.RecentBookingsWindow)
	assert.Equal(t, "b29", s.Recent[0].ID)
	assert.Equal(t, int64(200), s.RecentRevenue)
	assert.Equal(t, int64(300), s.RevenueTotal)
	assert.Equal(t, "b00", bookings[0].ID, "input order preserved")
}

func TestAggregateIdempotentUnderReplay(t *testing.T) {
	list := []models.Booking{
		{ID: "a", BookingDate: "2025-05-14", Status: models.StatusPending, TotalAmount: amount(100), CreatedAt: now},
		{ID: "b", BookingDate: "2025-05-13", Status: models.StatusConfirmed, TotalAmount: amount(50), CreatedAt: now},
	}

	updated := list[0]
	updated.Status = models.StatusConfirmed
	updated.TotalAmount = amount(120)
	change := models.BookingChange{Type: models.ChangeUpdate, New: &updated}

	once := Aggregate(lifecycle.ApplyDelta(list, change), now)
	twice := Aggregate(lifecycle.ApplyAll(list, change, change), now)
	assert.Equal(t, once, twice)
	assert.Equal(t, 2, twice.TotalCount)
	assert.Equal(t, int64(170), twice.RevenueTotal)
}

func TestCustomers(t *testing.T) {
	u1 := "user-1"
	profiles := map[string]*models.UserProfile{u1: {ID: u1, FullName: "Asha", Phone: "+91 900"}}
	bookings := []models.Booking{
		{ID: "1", UserID: &u1, BookingDate: "2025-05-01", Status: models.StatusCompleted, TotalAmount: amount(100)},
		{ID: "2", UserID: &u1, BookingDate: "2025-05-10", Status: models.StatusCancelled, TotalAmount: amount(999)},
		{ID: "3", CustomerName: "Ravi", CustomerPhone: "98-765", BookingDate: "2025-05-12", Status: models.StatusCompleted, TotalAmount: amount(300)},
		{ID: "4", CustomerName: "ravi k", CustomerPhone: "98765", BookingDate: "2025-05-13", Status: models.StatusCompleted},
		{ID: "5", CustomerName: "Meera", BookingDate: "2025-05-02", Status: models.StatusCompleted, TotalAmount: amount(50)},
	}

	out := Customers(bookings, profiles)
	require.Len(t, out, 3)

	assert.Equal(t, "Ravi", out[0].Name)
	assert.Equal(t, 2, out[0].Visits)
	assert.Equal(t, int64(300), out[0].TotalSpent)
	assert.Equal(t, "2025-05-13", out[0].LastVisit)
	assert.Nil(t, out[0].UserID)

	assert.Equal(t, "Asha", out[1].Name)
	assert.Equal(t, "+91 900", out[1].Phone)
	assert.Equal(t, 2, out[1].Visits)
	assert.Equal(t, int64(100), out[1].TotalSpent)
	require.NotNil(t, out[1].UserID)
	assert.Equal(t, u1, *out[1].UserID)

	assert.Equal(t, "Meera", out[2].Name)
	assert.Equal(t, "-", out[2].Phone)
}
