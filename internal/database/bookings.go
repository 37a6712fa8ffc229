package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"playcafe/internal/models"

	"github.com/google/uuid"
)

const bookingColumns = `id, cafe_id, user_id, booking_date, start_time, duration, total_amount, status, source,
        payment_mode, customer_name, customer_phone, created_at, updated_at, version`

// BookingFilter narrows ListBookings. Zero values mean "no constraint".
type BookingFilter struct {
	CafeIDs  []string
	UserID   string
	From     string
	To       string
	Statuses []models.BookingStatus
	Limit    int
}

func (db *DB) CreateBooking(ctx context.Context, booking *models.Booking) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if booking.ID == "" {
		booking.ID = uuid.NewString()
	}
	now := time.Now().UTC()

	query := `INSERT INTO bookings (` + bookingColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = tx.ExecContext(ctx, query,
		booking.ID,
		booking.CafeID,
		nullString(booking.UserID),
		booking.BookingDate,
		booking.StartTime,
		booking.Duration,
		nullInt64(booking.TotalAmount),
		booking.Status,
		booking.Source,
		booking.PaymentMode,
		booking.CustomerName,
		booking.CustomerPhone,
		formatTime(now),
		formatTime(now),
		1,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to insert booking in tx: %w", err)
	}

	if err := insertBookingItems(ctx, tx, booking.ID, booking.Items); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit booking: %w", err)
	}

	booking.CreatedAt = parseTime(formatTime(now))
	booking.UpdatedAt = booking.CreatedAt
	booking.Version = 1
	return nil
}

func insertBookingItems(ctx context.Context, tx *sql.Tx, bookingID string, items []models.BookingItem) error {
	for _, item := range items {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO booking_items (booking_id, console_type, quantity) VALUES (?, ?, ?)`,
			bookingID, item.ConsoleType, item.Quantity)
		if err != nil {
			return fmt.Errorf("failed to insert booking item: %w", err)
		}
	}
	return nil
}

func (db *DB) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	row := db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id)
	booking, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}

	items, err := db.bookingItems(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	booking.Items = items[id]
	return booking, nil
}

// UpdateBooking writes every mutable field and replaces the item list. When
// booking.Version is set the write only lands if the stored row still has
// that version.
func (db *DB) UpdateBooking(ctx context.Context, booking *models.Booking) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now().UTC()
	query := `UPDATE bookings SET booking_date = ?, start_time = ?, duration = ?, total_amount = ?, status = ?,
              payment_mode = ?, customer_name = ?, customer_phone = ?, updated_at = ?, version = version + 1
              WHERE id = ?`
	args := []any{
		booking.BookingDate,
		booking.StartTime,
		booking.Duration,
		nullInt64(booking.TotalAmount),
		booking.Status,
		booking.PaymentMode,
		booking.CustomerName,
		booking.CustomerPhone,
		formatTime(now),
		booking.ID,
	}
	if booking.Version > 0 {
		query += ` AND version = ?`
		args = append(args, booking.Version)
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM bookings WHERE id = ?`, booking.ID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to check booking: %w", err)
		}
		return ErrConcurrentModification
	}

	if booking.Items != nil {
		if _, err := tx.ExecContext(ctx, `DELETE FROM booking_items WHERE booking_id = ?`, booking.ID); err != nil {
			return fmt.Errorf("failed to clear booking items: %w", err)
		}
		if err := insertBookingItems(ctx, tx, booking.ID, booking.Items); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit booking update: %w", err)
	}
	booking.UpdatedAt = parseTime(formatTime(now))
	booking.Version++
	return nil
}

// CompleteBooking marks a booking completed if it is still confirmed or in
// progress. It reports whether the row changed.
func (db *DB) CompleteBooking(ctx context.Context, id string) (bool, error) {
	query := `UPDATE bookings SET status = ?, updated_at = ?, version = version + 1
              WHERE id = ? AND status IN (?, ?)`
	res, err := db.ExecContext(ctx, query,
		models.StatusCompleted, formatTime(time.Now()), id, models.StatusConfirmed, models.StatusInProgress)
	if err != nil {
		return false, fmt.Errorf("failed to complete booking: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return affected > 0, nil
}

func (db *DB) DeleteBooking(ctx context.Context, id string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	res, err := tx.ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM booking_items WHERE booking_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete booking items: %w", err)
	}
	return tx.Commit()
}

func (db *DB) ListBookings(ctx context.Context, filter BookingFilter) ([]*models.Booking, error) {
	var (
		where []string
		args  []any
	)
	if filter.CafeIDs != nil {
		if len(filter.CafeIDs) == 0 {
			return []*models.Booking{}, nil
		}
		where = append(where, "cafe_id IN ("+placeholders(len(filter.CafeIDs))+")")
		for _, id := range filter.CafeIDs {
			args = append(args, id)
		}
	}
	if filter.UserID != "" {
		where = append(where, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.From != "" {
		where = append(where, "booking_date >= ?")
		args = append(args, filter.From)
	}
	if filter.To != "" {
		where = append(where, "booking_date <= ?")
		args = append(args, filter.To)
	}
	if len(filter.Statuses) > 0 {
		where = append(where, "status IN ("+placeholders(len(filter.Statuses))+")")
		for _, s := range filter.Statuses {
			args = append(args, s)
		}
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	bookings := []*models.Booking{}
	var ids []string
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
		ids = append(ids, b.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bookings: %w", err)
	}
	rows.Close()

	items, err := db.bookingItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, b := range bookings {
		b.Items = items[b.ID]
	}
	return bookings, nil
}

// ListActiveBookings returns confirmed and in-progress bookings for the cafés.
func (db *DB) ListActiveBookings(ctx context.Context, cafeIDs []string) ([]*models.Booking, error) {
	return db.ListBookings(ctx, BookingFilter{
		CafeIDs:  cafeIDs,
		Statuses: []models.BookingStatus{models.StatusConfirmed, models.StatusInProgress},
	})
}

func (db *DB) bookingItems(ctx context.Context, bookingIDs []string) (map[string][]models.BookingItem, error) {
	result := make(map[string][]models.BookingItem, len(bookingIDs))
	for _, args := range inBatches(bookingIDs) {
		query := `SELECT booking_id, console_type, quantity FROM booking_items
              WHERE booking_id IN (` + placeholders(len(args)) + `) ORDER BY id`
		if err := db.scanBookingItems(ctx, result, query, args); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (db *DB) scanBookingItems(ctx context.Context, into map[string][]models.BookingItem, query string, args []any) error {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to load booking items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			bookingID string
			item      models.BookingItem
		)
		if err := rows.Scan(&bookingID, &item.ConsoleType, &item.Quantity); err != nil {
			return fmt.Errorf("failed to scan booking item: %w", err)
		}
		into[bookingID] = append(into[bookingID], item)
	}
	return rows.Err()
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	var (
		b                    models.Booking
		userID               sql.NullString
		amount               sql.NullInt64
		createdAt, updatedAt string
	)
	err := row.Scan(
		&b.ID, &b.CafeID, &userID, &b.BookingDate, &b.StartTime, &b.Duration, &amount, &b.Status, &b.Source,
		&b.PaymentMode, &b.CustomerName, &b.CustomerPhone, &createdAt, &updatedAt, &b.Version,
	)
	if err != nil {
		return nil, err
	}
	if userID.Valid {
		b.UserID = &userID.String
	}
	if amount.Valid {
		b.TotalAmount = &amount.Int64
	}
	b.CreatedAt = parseTime(createdAt)
	b.UpdatedAt = parseTime(updatedAt)
	return &b, nil
}

func nullString(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
