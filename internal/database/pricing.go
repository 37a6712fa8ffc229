package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"playcafe/internal/models"
)

func (db *DB) ListPricingTiers(ctx context.Context, cafeID string) ([]models.PricingTier, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, cafe_id, console_type, quantity, duration, price
              FROM pricing_tiers WHERE cafe_id = ? ORDER BY console_type, quantity, duration`, cafeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pricing tiers: %w", err)
	}
	defer rows.Close()

	tiers := []models.PricingTier{}
	for rows.Next() {
		var t models.PricingTier
		if err := rows.Scan(&t.ID, &t.CafeID, &t.ConsoleType, &t.Quantity, &t.Duration, &t.Price); err != nil {
			return nil, fmt.Errorf("failed to scan pricing tier: %w", err)
		}
		tiers = append(tiers, t)
	}
	return tiers, rows.Err()
}

// UpsertPricingTiers writes every tier, replacing the price of any row that
// already exists for the same (console, quantity, duration).
func (db *DB) UpsertPricingTiers(ctx context.Context, cafeID string, tiers []models.PricingTier) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `INSERT INTO pricing_tiers (cafe_id, console_type, quantity, duration, price) VALUES (?, ?, ?, ?, ?)
              ON CONFLICT (cafe_id, console_type, quantity, duration) DO UPDATE SET price = excluded.price`
	for _, t := range tiers {
		if _, err := tx.ExecContext(ctx, query, cafeID, t.ConsoleType, t.Quantity, t.Duration, t.Price); err != nil {
			return fmt.Errorf("failed to upsert pricing tier: %w", err)
		}
	}
	return tx.Commit()
}

func (db *DB) DeletePricingTier(ctx context.Context, cafeID string, id int64) error {
	res, err := db.ExecContext(ctx, `DELETE FROM pricing_tiers WHERE id = ? AND cafe_id = ?`, id, cafeID)
	if err != nil {
		return fmt.Errorf("failed to delete pricing tier: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) ListStationPricing(ctx context.Context, cafeID string) ([]models.StationPricing, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, cafe_id, station_name, console_type, half_hour_rate, hour_rate, controller_rates
              FROM station_pricing WHERE cafe_id = ? ORDER BY station_name`, cafeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list station pricing: %w", err)
	}
	defer rows.Close()

	result := []models.StationPricing{}
	for rows.Next() {
		var (
			sp          models.StationPricing
			half, hour  sql.NullInt64
			controllers string
		)
		if err := rows.Scan(&sp.ID, &sp.CafeID, &sp.StationName, &sp.ConsoleType, &half, &hour, &controllers); err != nil {
			return nil, fmt.Errorf("failed to scan station pricing: %w", err)
		}
		if half.Valid {
			sp.HalfHourRate = &half.Int64
		}
		if hour.Valid {
			sp.HourRate = &hour.Int64
		}
		if controllers != "" {
			if err := json.Unmarshal([]byte(controllers), &sp.Controllers); err != nil {
				return nil, fmt.Errorf("failed to decode controller rates for %s: %w", sp.StationName, err)
			}
		}
		result = append(result, sp)
	}
	return result, rows.Err()
}

func (db *DB) UpsertStationPricing(ctx context.Context, sp *models.StationPricing) error {
	controllers, err := json.Marshal(sp.Controllers)
	if err != nil {
		return fmt.Errorf("failed to encode controller rates: %w", err)
	}
	query := `INSERT INTO station_pricing (cafe_id, station_name, console_type, half_hour_rate, hour_rate, controller_rates)
              VALUES (?, ?, ?, ?, ?, ?)
              ON CONFLICT (cafe_id, station_name) DO UPDATE SET console_type = excluded.console_type,
                half_hour_rate = excluded.half_hour_rate, hour_rate = excluded.hour_rate,
                controller_rates = excluded.controller_rates`
	_, err = db.ExecContext(ctx, query, sp.CafeID, sp.StationName, sp.ConsoleType,
		nullInt64(sp.HalfHourRate), nullInt64(sp.HourRate), string(controllers))
	if err != nil {
		return fmt.Errorf("failed to upsert station pricing: %w", err)
	}
	return nil
}
