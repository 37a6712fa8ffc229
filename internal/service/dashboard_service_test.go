package service

import (
	"context"
	"testing"
	"time"

	"playcafe/internal/database"
	"playcafe/internal/events"
	"playcafe/internal/live"
	"playcafe/internal/models"
	"playcafe/internal/worker"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type dashboardFixture struct {
	svc   *DashboardService
	db    *database.DB
	owner *models.Owner
	cafe  *models.Cafe
	user  *models.UserProfile
	ids   map[string]string
}

func newDashboardFixture(t *testing.T) *dashboardFixture {
	t.Helper()
	db := newTestDB(t)
	owner := seedOwner(t, db, "owner")
	cafe := seedCafe(t, db, owner.ID)
	user := seedProfile(t, db, "Kiran")

	ctx, cancel := context.WithCancel(context.Background())
	hub := events.NewHub(nil, nil)
	views := live.NewRegistry(ctx, db, hub, live.Options{RefreshInterval: time.Hour, Clock: fixedClock}, nil)
	t.Cleanup(func() {
		cancel()
		views.Wait()
	})
	sweeper := worker.NewSweeper(db, hub, time.Minute, fixedClock, nil)

	f := &dashboardFixture{
		svc:   NewDashboardService(db, views, sweeper, fixedClock, nil),
		db:    db,
		owner: owner,
		cafe:  cafe,
		user:  user,
		ids:   make(map[string]string),
	}

	ps5 := []models.BookingItem{{ConsoleType: models.ConsolePS5, Quantity: 1}}
	f.add(t, "past", &models.Booking{
		BookingDate: "2026-10-14", StartTime: "6:00 pm", Duration: 60, TotalAmount: int64p(200),
		Status: models.StatusConfirmed, Source: models.SourceWalkIn, PaymentMode: models.PaymentCash,
		CustomerName: "Asha", CustomerPhone: "+91 98765 43210", Items: ps5,
	})
	f.add(t, "live", &models.Booking{
		UserID: strp(user.ID), BookingDate: "2026-10-15", StartTime: "6:30 pm", Duration: 60, TotalAmount: int64p(300),
		Status: models.StatusInProgress, Source: models.SourceOnline, PaymentMode: models.PaymentOnline, Items: ps5,
	})
	f.add(t, "pending", &models.Booking{
		UserID: strp(user.ID), BookingDate: "2026-10-20", StartTime: "5:00 pm", Duration: 30, TotalAmount: int64p(150),
		Status: models.StatusPending, Source: models.SourceOnline, PaymentMode: models.PaymentOnline, Items: ps5,
	})
	f.add(t, "cancelled", &models.Booking{
		UserID: strp(user.ID), BookingDate: "2026-10-15", StartTime: "2:00 pm", Duration: 60, TotalAmount: int64p(100),
		Status: models.StatusCancelled, Source: models.SourceOnline, PaymentMode: models.PaymentOnline, Items: ps5,
	})
	return f
}

func (f *dashboardFixture) add(t *testing.T, name string, b *models.Booking) {
	t.Helper()
	b.CafeID = f.cafe.ID
	require.NoError(t, f.db.CreateBooking(context.Background(), b))
	f.ids[name] = b.ID
}

func TestDashboard(t *testing.T) {
	f := newDashboardFixture(t)
	ctx := context.Background()

	d, err := f.svc.Dashboard(ctx, f.owner.ID, f.cafe.ID)
	require.NoError(t, err)

	assert.Equal(t, f.cafe.ID, d.Cafe.ID)
	assert.Equal(t, 4, d.Summary.TotalCount)
	assert.Equal(t, 1, d.Summary.PendingCount)
	assert.Equal(t, 2, d.Summary.TodayCount)
	assert.EqualValues(t, 750, d.Summary.RevenueTotal)
	assert.EqualValues(t, 400, d.Summary.RevenueToday)
	assert.Len(t, d.Recent, 4)

	require.Len(t, d.Active, 1)
	assert.Equal(t, f.ids["live"], d.Active[0].Booking.ID)
	assert.Equal(t, "Kiran", d.Active[0].Customer)
	assert.Equal(t, "7:30 pm", d.Active[0].EndTime)
	assert.Equal(t, 25, d.Active[0].MinutesRemaining)

	past, err := f.db.GetBooking(ctx, f.ids["past"])
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, past.Status, "yesterday's booking is swept")

	for _, row := range d.Recent {
		if row.ID == f.ids["past"] {
			assert.Equal(t, models.StatusCompleted, row.Status)
			assert.Equal(t, "Asha", row.Customer)
		}
	}

	_, err = f.svc.Dashboard(ctx, "someone-else", f.cafe.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestDashboardBookings(t *testing.T) {
	f := newDashboardFixture(t)
	ctx := context.Background()

	all, err := f.svc.Bookings(ctx, f.owner.ID, f.cafe.ID, BookingQuery{})
	require.NoError(t, err)
	assert.Len(t, all, 4)

	pending, err := f.svc.Bookings(ctx, f.owner.ID, f.cafe.ID, BookingQuery{Statuses: []models.BookingStatus{models.StatusPending}})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, f.ids["pending"], pending[0].ID)
	assert.Equal(t, "Kiran", pending[0].Customer)
	assert.NotEmpty(t, pending[0].Actions)

	tests := []struct {
		name string
		q    BookingQuery
	}{
		{"bad date", BookingQuery{From: "15/10/2026"}},
		{"bad status", BookingQuery{Statuses: []models.BookingStatus{"lost"}}},
		{"negative limit", BookingQuery{Limit: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Bookings(ctx, f.owner.ID, f.cafe.ID, tt.q)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestDashboardCustomers(t *testing.T) {
	f := newDashboardFixture(t)

	customers, err := f.svc.Customers(context.Background(), f.owner.ID, f.cafe.ID)
	require.NoError(t, err)
	require.Len(t, customers, 2)

	assert.Equal(t, "Kiran", customers[0].Name)
	assert.Equal(t, 3, customers[0].Visits)
	assert.EqualValues(t, 450, customers[0].TotalSpent, "cancelled bookings do not count as spend")
	assert.Equal(t, "2026-10-20", customers[0].LastVisit)

	assert.Equal(t, "Asha", customers[1].Name)
	assert.Nil(t, customers[1].UserID)
	assert.EqualValues(t, 200, customers[1].TotalSpent)
}

func TestExportReport(t *testing.T) {
	f := newDashboardFixture(t)
	ctx := context.Background()

	r, err := f.svc.ExportReport(ctx, f.owner.ID, f.cafe.ID, "", "")
	require.NoError(t, err)
	assert.Equal(t, "2026-09-15", r.From)
	assert.Equal(t, "2026-10-15", r.To)
	assert.Len(t, r.Bookings, 3, "the future booking is outside the default range")
	assert.Contains(t, r.Profiles, f.user.ID)

	_, err = f.svc.ExportReport(ctx, f.owner.ID, f.cafe.ID, "2026-10-20", "2026-10-01")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.svc.ExportReport(ctx, "someone-else", f.cafe.ID, "", "")
	assert.ErrorIs(t, err, ErrForbidden)
}
