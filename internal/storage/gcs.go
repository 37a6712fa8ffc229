package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"playcafe/internal/config"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	gcs "google.golang.org/api/storage/v1"
)

const gcsPublicBase = "https://storage.googleapis.com/"

type GCSStore struct {
	service    *gcs.Service
	bucket     string
	publicBase string
}

func NewGCSStore(ctx context.Context, cfg config.GCSConfig) (*GCSStore, error) {
	credentialsJSON, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %w", err)
	}
	jwtConfig, err := google.JWTConfigFromJSON(credentialsJSON, gcs.DevstorageReadWriteScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %w", err)
	}

	srv, err := gcs.NewService(ctx, option.WithHTTPClient(jwtConfig.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("unable to create storage service: %w", err)
	}
	return newGCSStore(srv, cfg.Bucket, cfg.PublicBaseURL), nil
}

func newGCSStore(srv *gcs.Service, bucket, publicBase string) *GCSStore {
	if publicBase == "" {
		publicBase = gcsPublicBase + bucket
	}
	return &GCSStore{service: srv, bucket: bucket, publicBase: publicBase}
}

func (s *GCSStore) Put(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	key, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	obj := &gcs.Object{Name: key, ContentType: contentType, CacheControl: "public, max-age=86400"}
	_, err = s.service.Objects.Insert(s.bucket, obj).
		Media(body, googleapi.ContentType(contentType)).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return joinURL(s.publicBase, key), nil
}

// Delete treats a missing object as already deleted.
func (s *GCSStore) Delete(ctx context.Context, key string) error {
	key, err := cleanKey(key)
	if err != nil {
		return err
	}
	err = s.service.Objects.Delete(s.bucket, key).Context(ctx).Do()
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound {
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}
