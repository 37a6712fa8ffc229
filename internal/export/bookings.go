// Package export renders booking reports as Excel workbooks.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"playcafe/internal/lifecycle"
	"playcafe/internal/models"

	"github.com/xuri/excelize/v2"
)

const (
	bookingsSheet = "Bookings"
	summarySheet  = "Summary"
)

var bookingHeaders = []string{
	"Date", "Start", "End", "Minutes", "Stations", "Customer", "Phone",
	"Status", "Source", "Payment", "Amount",
}

// Report is the input of a bookings export for one café and date range.
type Report struct {
	Cafe     *models.Cafe
	From     string
	To       string
	Bookings []models.Booking
	Profiles map[string]*models.UserProfile
}

// BookingsXLSX builds the workbook. The caller owns the returned file and must Close it.
func BookingsXLSX(r Report) (*excelize.File, error) {
	f := excelize.NewFile()

	for _, name := range []string{bookingsSheet, summarySheet} {
		if _, err := f.NewSheet(name); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("create sheet %s: %w", name, err)
		}
	}
	_ = f.DeleteSheet("Sheet1")
	if index, err := f.GetSheetIndex(bookingsSheet); err == nil {
		f.SetActiveSheet(index)
	}

	if err := writeBookings(f, r); err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := writeSummary(f, r); err != nil {
		_ = f.Close()
		return nil, err
	}
	return f, nil
}

// WriteBookings streams the workbook to w.
func WriteBookings(w io.Writer, r Report) error {
	f, err := BookingsXLSX(r)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteTo(w)
	return err
}

// SaveBookings writes the workbook under dir and returns its path.
func SaveBookings(dir string, r Report) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}
	f, err := BookingsXLSX(r)
	if err != nil {
		return "", err
	}
	defer f.Close()

	path := filepath.Join(dir, FileName(r))
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save workbook: %w", err)
	}
	return path, nil
}

// FileName is the suggested download name for r.
func FileName(r Report) string {
	id := "cafe"
	if r.Cafe != nil && r.Cafe.ID != "" {
		id = r.Cafe.ID
		if len(id) > 8 {
			id = id[:8]
		}
	}
	return fmt.Sprintf("bookings_%s_%s_to_%s.xlsx", id, r.From, r.To)
}

func writeBookings(f *excelize.File, r Report) error {
	headerStyle, err := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	for i, h := range bookingHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(bookingsSheet, cell, h)
	}
	last, _ := excelize.CoordinatesToCellName(len(bookingHeaders), 1)
	_ = f.SetCellStyle(bookingsSheet, "A1", last, headerStyle)

	rows := sortedBookings(r.Bookings)
	for i := range rows {
		b := &rows[i]
		var profile *models.UserProfile
		if b.UserID != nil {
			profile = r.Profiles[*b.UserID]
		}
		var amount any = ""
		if b.TotalAmount != nil {
			amount = *b.TotalAmount
		}
		values := []any{
			b.BookingDate,
			b.StartTime,
			lifecycle.DisplayEndTime(b),
			b.Duration,
			itemsLabel(b.Items),
			lifecycle.DisplayName(b, profile),
			lifecycle.DisplayPhone(b, profile),
			string(b.Status),
			string(b.Source),
			string(b.PaymentMode),
			amount,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(bookingsSheet, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	_ = f.SetColWidth(bookingsSheet, "A", "D", 12)
	_ = f.SetColWidth(bookingsSheet, "E", "G", 22)
	_ = f.SetColWidth(bookingsSheet, "H", "K", 14)
	return nil
}

func writeSummary(f *excelize.File, r Report) error {
	title := "Bookings"
	if r.Cafe != nil && r.Cafe.Name != "" {
		title = r.Cafe.Name
	}
	_ = f.SetCellValue(summarySheet, "A1", fmt.Sprintf("%s: %s - %s", title, r.From, r.To))
	_ = f.MergeCell(summarySheet, "A1", "C1")
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 14},
	})
	if err != nil {
		return fmt.Errorf("create title style: %w", err)
	}
	_ = f.SetCellStyle(summarySheet, "A1", "A1", style)

	_ = f.SetSheetRow(summarySheet, "A3", &[]any{"Status", "Bookings", "Revenue"})

	counts := make(map[models.BookingStatus]int)
	revenue := make(map[models.BookingStatus]int64)
	var total int64
	for i := range r.Bookings {
		b := &r.Bookings[i]
		counts[b.Status]++
		revenue[b.Status] += b.Amount()
		total += b.Amount()
	}

	row := 4
	for _, s := range []models.BookingStatus{
		models.StatusPending, models.StatusConfirmed, models.StatusInProgress,
		models.StatusCompleted, models.StatusCancelled,
	} {
		cell, _ := excelize.CoordinatesToCellName(1, row)
		_ = f.SetSheetRow(summarySheet, cell, &[]any{string(s), counts[s], revenue[s]})
		row++
	}
	cell, _ := excelize.CoordinatesToCellName(1, row)
	_ = f.SetSheetRow(summarySheet, cell, &[]any{"total", len(r.Bookings), total})
	_ = f.SetColWidth(summarySheet, "A", "C", 16)
	return nil
}

func sortedBookings(in []models.Booking) []models.Booking {
	out := append([]models.Booking(nil), in...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].BookingDate != out[j].BookingDate {
			return out[i].BookingDate < out[j].BookingDate
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func itemsLabel(items []models.BookingItem) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		parts = append(parts, fmt.Sprintf("%s x%d", it.ConsoleType.Label(), it.Quantity))
	}
	return strings.Join(parts, ", ")
}
