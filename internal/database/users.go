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

func (db *DB) CreateOwner(ctx context.Context, owner *models.Owner) error {
	if owner.ID == "" {
		owner.ID = uuid.NewString()
	}
	now := formatTime(time.Now())
	_, err := db.ExecContext(ctx, `INSERT INTO owners (id, username, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		owner.ID, owner.Username, owner.PasswordHash, now)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create owner: %w", err)
	}
	owner.CreatedAt = parseTime(now)
	return nil
}

// UpsertOwner creates the owner or replaces the password hash of an existing
// username. The stored id is written back into owner.
func (db *DB) UpsertOwner(ctx context.Context, owner *models.Owner) error {
	existing, err := db.GetOwnerByUsername(ctx, owner.Username)
	if errors.Is(err, ErrNotFound) {
		return db.CreateOwner(ctx, owner)
	}
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, `UPDATE owners SET password_hash = ? WHERE id = ?`,
		owner.PasswordHash, existing.ID); err != nil {
		return fmt.Errorf("failed to update owner: %w", err)
	}
	owner.ID = existing.ID
	owner.CreatedAt = existing.CreatedAt
	return nil
}

func (db *DB) GetOwnerByUsername(ctx context.Context, username string) (*models.Owner, error) {
	var (
		o         models.Owner
		createdAt string
	)
	err := db.QueryRowContext(ctx, `SELECT id, username, password_hash, created_at FROM owners WHERE username = ?`,
		username).Scan(&o.ID, &o.Username, &o.PasswordHash, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get owner: %w", err)
	}
	o.CreatedAt = parseTime(createdAt)
	return &o, nil
}

func (db *DB) CreateProfile(ctx context.Context, p *models.UserProfile) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := formatTime(time.Now())
	_, err := db.ExecContext(ctx, `INSERT INTO user_profiles (id, full_name, phone, email, created_at) VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.FullName, p.Phone, p.Email, now)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create profile: %w", err)
	}
	p.CreatedAt = parseTime(now)
	return nil
}

func (db *DB) GetProfile(ctx context.Context, id string) (*models.UserProfile, error) {
	var (
		p         models.UserProfile
		createdAt string
	)
	err := db.QueryRowContext(ctx, `SELECT id, full_name, phone, email, created_at FROM user_profiles WHERE id = ?`,
		id).Scan(&p.ID, &p.FullName, &p.Phone, &p.Email, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	p.CreatedAt = parseTime(createdAt)
	return &p, nil
}

// GetProfiles loads the given profiles keyed by id. Unknown ids are skipped.
func (db *DB) GetProfiles(ctx context.Context, ids []string) (map[string]*models.UserProfile, error) {
	result := make(map[string]*models.UserProfile, len(ids))
	for _, args := range inBatches(ids) {
		if err := db.scanProfiles(ctx, result, args); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (db *DB) scanProfiles(ctx context.Context, into map[string]*models.UserProfile, args []any) error {
	rows, err := db.QueryContext(ctx, `SELECT id, full_name, phone, email, created_at FROM user_profiles
              WHERE id IN (`+placeholders(len(args))+`)`, args...)
	if err != nil {
		return fmt.Errorf("failed to get profiles: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			p         models.UserProfile
			createdAt string
		)
		if err := rows.Scan(&p.ID, &p.FullName, &p.Phone, &p.Email, &createdAt); err != nil {
			return fmt.Errorf("failed to scan profile: %w", err)
		}
		p.CreatedAt = parseTime(createdAt)
		into[p.ID] = &p
	}
	return rows.Err()
}
