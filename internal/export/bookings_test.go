package export

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"playcafe/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleReport() Report {
	amount := int64(300)
	user := "user-1"
	base := time.Date(2026, 10, 1, 10, 0, 0, 0, time.UTC)
	return Report{
		Cafe: &models.Cafe{ID: "cafe-0123456789", Name: "Pixel Den"},
		From: "2026-10-01",
		To:   "2026-10-31",
		Bookings: []models.Booking{
			{
				ID: "b-2", CafeID: "cafe-1", BookingDate: "2026-10-03", StartTime: "6:00 pm", Duration: 60,
				Status: models.StatusCompleted, Source: models.SourceWalkIn, PaymentMode: models.PaymentCash,
				CustomerName: "Asha", CustomerPhone: "+911", TotalAmount: &amount, CreatedAt: base.Add(time.Hour),
				Items: []models.BookingItem{{ConsoleType: models.ConsolePS5, Quantity: 2}},
			},
			{
				ID: "b-1", CafeID: "cafe-1", UserID: &user, BookingDate: "2026-10-02", StartTime: "11:30 pm", Duration: 90,
				Status: models.StatusPending, Source: models.SourceOnline, PaymentMode: models.PaymentOnline, CreatedAt: base,
			},
		},
		Profiles: map[string]*models.UserProfile{"user-1": {ID: "user-1", FullName: "Kiran"}},
	}
}

func TestBookingsXLSX(t *testing.T) {
	f, err := BookingsXLSX(sampleReport())
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{bookingsSheet, summarySheet}, f.GetSheetList())

	rows, err := f.GetRows(bookingsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, bookingHeaders, rows[0])

	// Sorted by date: the online booking comes first.
	assert.Equal(t, "2026-10-02", rows[1][0])
	assert.Equal(t, "1:00 am", rows[1][2])
	assert.Equal(t, "Kiran", rows[1][5])
	assert.Equal(t, "pending", rows[1][7])

	assert.Equal(t, "PS5 x2", rows[2][4])
	assert.Equal(t, "Asha", rows[2][5])
	assert.Equal(t, "300", rows[2][10])

	total, err := f.GetCellValue(summarySheet, "C9")
	require.NoError(t, err)
	assert.Equal(t, "300", total)
}

func TestWriteBookings(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteBookings(&buf, sampleReport()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	title, err := f.GetCellValue(summarySheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Pixel Den: 2026-10-01 - 2026-10-31", title)
}

func TestSaveBookings(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	path, err := SaveBookings(dir, sampleReport())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "bookings_cafe-012_2026-10-01_to_2026-10-31.xlsx"), path)
	assert.FileExists(t, path)
}
