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

func (db *DB) AddGalleryImage(ctx context.Context, img *models.GalleryImage) error {
	if img.ID == "" {
		img.ID = uuid.NewString()
	}
	now := formatTime(time.Now())
	_, err := db.ExecContext(ctx, `INSERT INTO gallery_images (id, cafe_id, url, object_key, caption, created_at)
              VALUES (?, ?, ?, ?, ?, ?)`, img.ID, img.CafeID, img.URL, img.ObjectKey, img.Caption, now)
	if err != nil {
		return fmt.Errorf("failed to add gallery image: %w", err)
	}
	img.CreatedAt = parseTime(now)
	return nil
}

func (db *DB) ListGalleryImages(ctx context.Context, cafeID string) ([]*models.GalleryImage, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, cafe_id, url, object_key, caption, created_at
              FROM gallery_images WHERE cafe_id = ? ORDER BY created_at DESC`, cafeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list gallery images: %w", err)
	}
	defer rows.Close()

	images := []*models.GalleryImage{}
	for rows.Next() {
		img, err := scanGalleryImage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan gallery image: %w", err)
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

// DeleteGalleryImage removes the row and returns it so the caller can drop
// the stored object.
func (db *DB) DeleteGalleryImage(ctx context.Context, cafeID, id string) (*models.GalleryImage, error) {
	img, err := scanGalleryImage(db.QueryRowContext(ctx, `SELECT id, cafe_id, url, object_key, caption, created_at
              FROM gallery_images WHERE id = ? AND cafe_id = ?`, id, cafeID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get gallery image: %w", err)
	}
	if _, err := db.ExecContext(ctx, `DELETE FROM gallery_images WHERE id = ?`, id); err != nil {
		return nil, fmt.Errorf("failed to delete gallery image: %w", err)
	}
	return img, nil
}

func scanGalleryImage(row rowScanner) (*models.GalleryImage, error) {
	var (
		img       models.GalleryImage
		createdAt string
	)
	if err := row.Scan(&img.ID, &img.CafeID, &img.URL, &img.ObjectKey, &img.Caption, &createdAt); err != nil {
		return nil, err
	}
	img.CreatedAt = parseTime(createdAt)
	return &img, nil
}
