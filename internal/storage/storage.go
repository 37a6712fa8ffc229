// Package storage keeps uploaded café images on local disk or in Google
// Cloud Storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"playcafe/internal/config"
	"playcafe/internal/domain"
)

var ErrInvalidKey = errors.New("invalid object key")

// New builds the object store selected by cfg.Driver.
func New(ctx context.Context, cfg config.StorageConfig) (domain.ObjectStore, error) {
	switch cfg.Driver {
	case "local", "":
		return NewLocalStore(cfg.Local.Dir, cfg.Local.BaseURL)
	case "gcs":
		return NewGCSStore(ctx, cfg.GCS)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// cleanKey normalizes a slash-separated key and rejects anything that would
// escape the store root.
func cleanKey(key string) (string, error) {
	if key == "" || strings.Contains(key, "\\") {
		return "", ErrInvalidKey
	}
	cleaned := path.Clean("/" + key)[1:]
	if cleaned == "" || cleaned != strings.TrimPrefix(key, "/") || strings.HasPrefix(cleaned, "..") {
		return "", ErrInvalidKey
	}
	return cleaned, nil
}

func joinURL(base, key string) string {
	return strings.TrimSuffix(base, "/") + "/" + key
}
