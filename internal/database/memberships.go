package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"playcafe/internal/models"

	"github.com/google/uuid"
)

const planColumns = `id, cafe_id, name, plan_type, console_type, player_count, price, hours, validity_days,
        is_active, created_at, updated_at`

func (db *DB) CreateMembershipPlan(ctx context.Context, plan *models.MembershipPlan) error {
	if plan.ID == "" {
		plan.ID = uuid.NewString()
	}
	now := formatTime(time.Now())
	_, err := db.ExecContext(ctx, `INSERT INTO membership_plans (`+planColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		plan.ID, plan.CafeID, plan.Name, plan.Type, plan.ConsoleType, plan.PlayerCount, plan.Price,
		nullInt(plan.Hours), plan.ValidityDays, plan.IsActive, now, now)
	if err != nil {
		return fmt.Errorf("failed to create membership plan: %w", err)
	}
	plan.CreatedAt = parseTime(now)
	plan.UpdatedAt = plan.CreatedAt
	return nil
}

func (db *DB) UpdateMembershipPlan(ctx context.Context, plan *models.MembershipPlan) error {
	now := formatTime(time.Now())
	res, err := db.ExecContext(ctx, `UPDATE membership_plans SET name = ?, plan_type = ?, console_type = ?, player_count = ?,
              price = ?, hours = ?, validity_days = ?, is_active = ?, updated_at = ? WHERE id = ? AND cafe_id = ?`,
		plan.Name, plan.Type, plan.ConsoleType, plan.PlayerCount, plan.Price, nullInt(plan.Hours),
		plan.ValidityDays, plan.IsActive, now, plan.ID, plan.CafeID)
	if err != nil {
		return fmt.Errorf("failed to update membership plan: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	plan.UpdatedAt = parseTime(now)
	return nil
}

// DeactivateMembershipPlan soft-deletes a plan; it stays readable by id.
func (db *DB) DeactivateMembershipPlan(ctx context.Context, cafeID, id string) error {
	res, err := db.ExecContext(ctx, `UPDATE membership_plans SET is_active = 0, updated_at = ? WHERE id = ? AND cafe_id = ?`,
		formatTime(time.Now()), id, cafeID)
	if err != nil {
		return fmt.Errorf("failed to deactivate membership plan: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) GetMembershipPlan(ctx context.Context, id string) (*models.MembershipPlan, error) {
	plan, err := scanPlan(db.QueryRowContext(ctx, `SELECT `+planColumns+` FROM membership_plans WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get membership plan: %w", err)
	}
	return plan, nil
}

func (db *DB) ListMembershipPlans(ctx context.Context, cafeID string, activeOnly bool) ([]*models.MembershipPlan, error) {
	query := `SELECT ` + planColumns + ` FROM membership_plans WHERE cafe_id = ?`
	if activeOnly {
		query += ` AND is_active = 1`
	}
	query += ` ORDER BY price, name`

	rows, err := db.QueryContext(ctx, query, cafeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list membership plans: %w", err)
	}
	defer rows.Close()

	plans := []*models.MembershipPlan{}
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan membership plan: %w", err)
		}
		plans = append(plans, plan)
	}
	return plans, rows.Err()
}

func scanPlan(row rowScanner) (*models.MembershipPlan, error) {
	var (
		p                    models.MembershipPlan
		hours                sql.NullInt64
		createdAt, updatedAt string
	)
	err := row.Scan(&p.ID, &p.CafeID, &p.Name, &p.Type, &p.ConsoleType, &p.PlayerCount, &p.Price, &hours,
		&p.ValidityDays, &p.IsActive, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	if hours.Valid {
		h := int(hours.Int64)
		p.Hours = &h
	}
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)
	return &p, nil
}
