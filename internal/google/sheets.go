package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"playcafe/internal/models"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const (
	bookingsSheet   = "Bookings"
	bookingsColumns = "A:N"
	timestampLayout = "2006-01-02 15:04:05"
)

var ErrRowNotFound = errors.New("booking row not found")

var bookingHeaders = []interface{}{
	"ID", "Cafe", "Date", "Start", "Duration", "Items", "Status", "Source",
	"Customer", "Phone", "Amount", "Payment", "Created At", "Updated At",
}

// SheetsService mirrors bookings into one spreadsheet tab, keeping an
// in-memory index from booking id to sheet row.
type SheetsService struct {
	service         *sheets.Service
	bookingsSheetID string
	logger          *zerolog.Logger
	rowCache        map[string]int
	cacheMu         sync.RWMutex
}

func NewSheetsService(ctx context.Context, credentialsFile, bookingsSheetID string, logger *zerolog.Logger) (*SheetsService, error) {
	credentialsJSON, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %w", err)
	}

	config, err := google.JWTConfigFromJSON(credentialsJSON, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %w", err)
	}

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(config.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("unable to create Sheets service: %w", err)
	}
	return newSheetsService(srv, bookingsSheetID, logger), nil
}

func newSheetsService(srv *sheets.Service, bookingsSheetID string, logger *zerolog.Logger) *SheetsService {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &SheetsService{
		service:         srv,
		bookingsSheetID: bookingsSheetID,
		logger:          logger,
		rowCache:        make(map[string]int),
	}
}

// RunCacheRefresh rebuilds the row index now and then every interval until
// ctx ends.
func (s *SheetsService) RunCacheRefresh(ctx context.Context, interval time.Duration) {
	refresh := func() {
		rctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := s.WarmUpCache(rctx); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to warm up sheet row cache")
		}
	}

	refresh()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			refresh()
		}
	}
}

func (s *SheetsService) TestConnection(ctx context.Context) error {
	_, err := s.service.Spreadsheets.Values.Get(s.bookingsSheetID, bookingsSheet+"!A1").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("connection test failed: %w", err)
	}
	return nil
}

func (s *SheetsService) WarmUpCache(ctx context.Context) error {
	resp, err := s.service.Spreadsheets.Values.Get(s.bookingsSheetID, bookingsSheet+"!A:A").Context(ctx).Do()
	if err != nil {
		return err
	}

	cache := make(map[string]int, len(resp.Values))
	for i, row := range resp.Values {
		if id := cellID(row); id != "" && i > 0 {
			cache[id] = i + 1
		}
	}

	s.cacheMu.Lock()
	s.rowCache = cache
	s.cacheMu.Unlock()
	return nil
}

// AppendBooking adds a row and remembers where the sheet put it.
func (s *SheetsService) AppendBooking(ctx context.Context, booking *models.Booking) error {
	resp, err := s.service.Spreadsheets.Values.Append(s.bookingsSheetID, bookingsSheet+"!A:A", &sheets.ValueRange{
		Values: [][]interface{}{bookingRowValues(booking)},
	}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return err
	}
	if resp.Updates != nil {
		if row, ok := firstRow(resp.Updates.UpdatedRange); ok {
			s.setCachedRow(booking.ID, row)
		}
	}
	return nil
}

// UpsertBooking updates an existing booking row or appends a new one if not found.
func (s *SheetsService) UpsertBooking(ctx context.Context, booking *models.Booking) error {
	if booking == nil {
		return fmt.Errorf("booking is nil")
	}

	rowIdx, err := s.FindBookingRow(ctx, booking.ID)
	if errors.Is(err, ErrRowNotFound) {
		return s.AppendBooking(ctx, booking)
	}
	if err != nil {
		return err
	}

	_, err = s.service.Spreadsheets.Values.Update(s.bookingsSheetID, rowRange(rowIdx), &sheets.ValueRange{
		Values: [][]interface{}{bookingRowValues(booking)},
	}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	return err
}

// DeleteBooking blanks the booking's row. A booking that was never mirrored
// is not an error.
func (s *SheetsService) DeleteBooking(ctx context.Context, bookingID string) error {
	rowIdx, err := s.FindBookingRow(ctx, bookingID)
	if errors.Is(err, ErrRowNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	_, err = s.service.Spreadsheets.Values.Clear(s.bookingsSheetID, rowRange(rowIdx), &sheets.ClearValuesRequest{}).
		Context(ctx).
		Do()
	if err == nil {
		s.deleteCachedRow(bookingID)
	}
	return err
}

// ReplaceBookingsSheet rewrites the whole tab from bookings.
func (s *SheetsService) ReplaceBookingsSheet(ctx context.Context, bookings []*models.Booking) error {
	_, err := s.service.Spreadsheets.Values.Clear(s.bookingsSheetID, bookingsSheet+"!"+bookingsColumns, &sheets.ClearValuesRequest{}).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("clear bookings sheet: %w", err)
	}

	values := make([][]interface{}, 0, len(bookings)+1)
	values = append(values, bookingHeaders)
	cache := make(map[string]int, len(bookings))
	for i, b := range bookings {
		values = append(values, bookingRowValues(b))
		cache[b.ID] = i + 2
	}

	_, err = s.service.Spreadsheets.Values.Update(s.bookingsSheetID, bookingsSheet+"!A1", &sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("write bookings sheet: %w", err)
	}

	s.cacheMu.Lock()
	s.rowCache = cache
	s.cacheMu.Unlock()
	return nil
}

// FindBookingRow locates the 1-based row for bookingID, scanning column A on
// a cache miss.
func (s *SheetsService) FindBookingRow(ctx context.Context, bookingID string) (int, error) {
	if bookingID == "" {
		return 0, fmt.Errorf("booking id is required")
	}
	if row, ok := s.getCachedRow(bookingID); ok {
		return row, nil
	}

	resp, err := s.service.Spreadsheets.Values.Get(s.bookingsSheetID, bookingsSheet+"!A:A").Context(ctx).Do()
	if err != nil {
		return 0, err
	}
	for i, row := range resp.Values {
		if cellID(row) == bookingID {
			s.setCachedRow(bookingID, i+1)
			return i + 1, nil
		}
	}
	return 0, ErrRowNotFound
}

func (s *SheetsService) getCachedRow(id string) (int, bool) {
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()
	row, ok := s.rowCache[id]
	return row, ok
}

func (s *SheetsService) setCachedRow(id string, row int) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.rowCache[id] = row
}

func (s *SheetsService) deleteCachedRow(id string) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	delete(s.rowCache, id)
}

func cellID(row []interface{}) string {
	if len(row) == 0 {
		return ""
	}
	switch v := row[0].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

func rowRange(row int) string {
	return fmt.Sprintf("%s!A%d:N%d", bookingsSheet, row, row)
}

var rangeRowPattern = regexp.MustCompile(`![A-Z]+(\d+)`)

// firstRow extracts the starting row from an A1 range like "Bookings!A10:N10".
func firstRow(a1 string) (int, bool) {
	m := rangeRowPattern.FindStringSubmatch(a1)
	if m == nil {
		return 0, false
	}
	row, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return row, true
}

func bookingRowValues(b *models.Booking) []interface{} {
	items := make([]string, 0, len(b.Items))
	for _, item := range b.Items {
		items = append(items, fmt.Sprintf("%s x%d", item.ConsoleType.Label(), item.Quantity))
	}
	var amount interface{} = ""
	if b.TotalAmount != nil {
		amount = *b.TotalAmount
	}
	customer := b.CustomerName
	if customer == "" && b.UserID != nil {
		customer = *b.UserID
	}
	return []interface{}{
		b.ID,
		b.CafeID,
		b.BookingDate,
		b.StartTime,
		b.Duration,
		strings.Join(items, ", "),
		string(b.Status),
		string(b.Source),
		customer,
		b.CustomerPhone,
		amount,
		string(b.PaymentMode),
		b.CreatedAt.Format(timestampLayout),
		b.UpdatedAt.Format(timestampLayout),
	}
}
