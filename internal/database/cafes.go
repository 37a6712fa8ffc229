package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"playcafe/internal/models"

	"github.com/google/uuid"
)

const cafeColumns = `id, owner_id, name, address, phone, email, opening_hours, description, hourly_rate,
        cover_image_url, tech_specs, telegram_chat_id, created_at, updated_at`

func (db *DB) CreateCafe(ctx context.Context, cafe *models.Cafe) error {
	if cafe.ID == "" {
		cafe.ID = uuid.NewString()
	}
	specs, err := json.Marshal(cafe.TechSpecs)
	if err != nil {
		return fmt.Errorf("failed to encode tech specs: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := formatTime(time.Now())
	_, err = tx.ExecContext(ctx, `INSERT INTO cafes (`+cafeColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		cafe.ID, cafe.OwnerID, cafe.Name, cafe.Address, cafe.Phone, cafe.Email, cafe.OpeningHours,
		cafe.Description, cafe.HourlyRate, cafe.CoverImageURL, string(specs), cafe.TelegramChatID, now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create cafe: %w", err)
	}
	if err := replaceInventory(ctx, tx, cafe.ID, cafe.Inventory); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit cafe: %w", err)
	}

	cafe.CreatedAt = parseTime(now)
	cafe.UpdatedAt = cafe.CreatedAt
	return nil
}

// UpdateCafe rewrites the café row and its inventory. Cover image and owner
// are left untouched.
func (db *DB) UpdateCafe(ctx context.Context, cafe *models.Cafe) error {
	specs, err := json.Marshal(cafe.TechSpecs)
	if err != nil {
		return fmt.Errorf("failed to encode tech specs: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := formatTime(time.Now())
	res, err := tx.ExecContext(ctx, `UPDATE cafes SET name = ?, address = ?, phone = ?, email = ?, opening_hours = ?,
              description = ?, hourly_rate = ?, tech_specs = ?, telegram_chat_id = ?, updated_at = ? WHERE id = ?`,
		cafe.Name, cafe.Address, cafe.Phone, cafe.Email, cafe.OpeningHours, cafe.Description,
		cafe.HourlyRate, string(specs), cafe.TelegramChatID, now, cafe.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update cafe: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	if err := replaceInventory(ctx, tx, cafe.ID, cafe.Inventory); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit cafe update: %w", err)
	}
	cafe.UpdatedAt = parseTime(now)
	return nil
}

func (db *DB) SetCafeCover(ctx context.Context, cafeID, url string) error {
	res, err := db.ExecContext(ctx, `UPDATE cafes SET cover_image_url = ?, updated_at = ? WHERE id = ?`,
		url, formatTime(time.Now()), cafeID)
	if err != nil {
		return fmt.Errorf("failed to set cover image: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteCafe removes the café together with everything keyed on it.
func (db *DB) DeleteCafe(ctx context.Context, id string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	res, err := tx.ExecContext(ctx, `DELETE FROM cafes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete cafe: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	cascade := []string{
		`DELETE FROM booking_items WHERE booking_id IN (SELECT id FROM bookings WHERE cafe_id = ?)`,
		`DELETE FROM bookings WHERE cafe_id = ?`,
		`DELETE FROM cafe_inventory WHERE cafe_id = ?`,
		`DELETE FROM pricing_tiers WHERE cafe_id = ?`,
		`DELETE FROM station_pricing WHERE cafe_id = ?`,
		`DELETE FROM membership_plans WHERE cafe_id = ?`,
		`DELETE FROM gallery_images WHERE cafe_id = ?`,
	}
	for _, q := range cascade {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return fmt.Errorf("failed to delete cafe data: %w", err)
		}
	}
	return tx.Commit()
}

func (db *DB) GetCafe(ctx context.Context, id string) (*models.Cafe, error) {
	cafe, err := scanCafe(db.QueryRowContext(ctx, `SELECT `+cafeColumns+` FROM cafes WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cafe: %w", err)
	}
	inv, err := db.inventory(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	cafe.Inventory = inv[id]
	return cafe, nil
}

// ListCafes returns every café, or only the owner's when ownerID is set.
func (db *DB) ListCafes(ctx context.Context, ownerID string) ([]*models.Cafe, error) {
	query := `SELECT ` + cafeColumns + ` FROM cafes`
	var args []any
	if ownerID != "" {
		query += ` WHERE owner_id = ?`
		args = append(args, ownerID)
	}
	query += ` ORDER BY name`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list cafes: %w", err)
	}
	defer rows.Close()

	cafes := []*models.Cafe{}
	var ids []string
	for rows.Next() {
		cafe, err := scanCafe(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cafe: %w", err)
		}
		cafes = append(cafes, cafe)
		ids = append(ids, cafe.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cafes: %w", err)
	}
	rows.Close()

	inv, err := db.inventory(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, cafe := range cafes {
		cafe.Inventory = inv[cafe.ID]
	}
	return cafes, nil
}

// OwnerCafeIDs lists the ids of cafés owned by ownerID.
func (db *DB) OwnerCafeIDs(ctx context.Context, ownerID string) ([]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT id FROM cafes WHERE owner_id = ? ORDER BY name`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list owner cafes: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan cafe id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func replaceInventory(ctx context.Context, tx *sql.Tx, cafeID string, inventory map[models.ConsoleType]int) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM cafe_inventory WHERE cafe_id = ?`, cafeID); err != nil {
		return fmt.Errorf("failed to clear inventory: %w", err)
	}
	for _, ct := range models.ConsoleTypes {
		count := inventory[ct]
		if count <= 0 {
			continue
		}
		_, err := tx.ExecContext(ctx, `INSERT INTO cafe_inventory (cafe_id, console_type, count) VALUES (?, ?, ?)`,
			cafeID, ct, count)
		if err != nil {
			return fmt.Errorf("failed to insert inventory: %w", err)
		}
	}
	return nil
}

func (db *DB) inventory(ctx context.Context, cafeIDs []string) (map[string]map[models.ConsoleType]int, error) {
	result := make(map[string]map[models.ConsoleType]int, len(cafeIDs))
	if len(cafeIDs) == 0 {
		return result, nil
	}
	args := make([]any, len(cafeIDs))
	for i, id := range cafeIDs {
		args[i] = id
		result[id] = map[models.ConsoleType]int{}
	}

	rows, err := db.QueryContext(ctx, `SELECT cafe_id, console_type, count FROM cafe_inventory
              WHERE cafe_id IN (`+placeholders(len(cafeIDs))+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load inventory: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cafeID string
			ct     models.ConsoleType
			count  int
		)
		if err := rows.Scan(&cafeID, &ct, &count); err != nil {
			return nil, fmt.Errorf("failed to scan inventory: %w", err)
		}
		result[cafeID][ct] = count
	}
	return result, rows.Err()
}

func scanCafe(row rowScanner) (*models.Cafe, error) {
	var (
		c                    models.Cafe
		specs                string
		createdAt, updatedAt string
	)
	err := row.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Address, &c.Phone, &c.Email, &c.OpeningHours, &c.Description,
		&c.HourlyRate, &c.CoverImageURL, &specs, &c.TelegramChatID, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	if specs != "" && specs != "null" {
		if err := json.Unmarshal([]byte(specs), &c.TechSpecs); err != nil {
			return nil, fmt.Errorf("failed to decode tech specs: %w", err)
		}
	}
	c.CreatedAt = parseTime(createdAt)
	c.UpdatedAt = parseTime(updatedAt)
	return &c, nil
}
