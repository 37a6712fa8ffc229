package service

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"

	"playcafe/internal/domain"
	"playcafe/internal/models"
	"playcafe/internal/pricing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// CafeInput is the editable part of a café.
type CafeInput struct {
	Name           string
	Address        string
	Phone          string
	Email          string
	OpeningHours   string
	Description    string
	Inventory      map[models.ConsoleType]int
	HourlyRate     int64
	TechSpecs      map[string]string
	TelegramChatID int64
}

// StationView is a synthesized station with its pricing override, if any.
type StationView struct {
	models.Station
	Pricing *models.StationPricing `json:"pricing,omitempty"`
}

type CafeService struct {
	store   domain.Store
	objects domain.ObjectStore
	logger  *zerolog.Logger
}

func NewCafeService(store domain.Store, objects domain.ObjectStore, logger *zerolog.Logger) *CafeService {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &CafeService{store: store, objects: objects, logger: logger}
}

func (in CafeInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return invalidf("name is required")
	}
	if in.HourlyRate < 0 {
		return invalidf("hourly_rate must not be negative")
	}
	for ct, n := range in.Inventory {
		if !ct.Valid() {
			return invalidf("unknown console type %q", ct)
		}
		if n < 0 {
			return invalidf("inventory for %s must not be negative", ct)
		}
	}
	return nil
}

func normalizeInventory(in map[models.ConsoleType]int) map[models.ConsoleType]int {
	out := make(map[models.ConsoleType]int, len(in))
	for ct, n := range in {
		if parsed, ok := models.ParseConsoleType(string(ct)); ok {
			ct = parsed
		}
		out[ct] += n
	}
	return out
}

func (s *CafeService) Create(ctx context.Context, ownerID string, in CafeInput) (*models.Cafe, error) {
	in.Inventory = normalizeInventory(in.Inventory)
	if err := in.validate(); err != nil {
		return nil, err
	}
	cafe := &models.Cafe{OwnerID: ownerID}
	apply(cafe, in)
	if err := s.store.CreateCafe(ctx, cafe); err != nil {
		return nil, err
	}
	s.logger.Info().Str("cafe_id", cafe.ID).Str("owner_id", ownerID).Msg("Cafe created")
	return cafe, nil
}

func (s *CafeService) Update(ctx context.Context, ownerID, cafeID string, in CafeInput) (*models.Cafe, error) {
	cafe, err := ownedCafe(ctx, s.store, ownerID, cafeID)
	if err != nil {
		return nil, err
	}
	in.Inventory = normalizeInventory(in.Inventory)
	if err := in.validate(); err != nil {
		return nil, err
	}
	apply(cafe, in)
	if err := s.store.UpdateCafe(ctx, cafe); err != nil {
		return nil, err
	}
	return s.store.GetCafe(ctx, cafeID)
}

func apply(cafe *models.Cafe, in CafeInput) {
	cafe.Name = strings.TrimSpace(in.Name)
	cafe.Address = in.Address
	cafe.Phone = in.Phone
	cafe.Email = in.Email
	cafe.OpeningHours = in.OpeningHours
	cafe.Description = in.Description
	cafe.Inventory = in.Inventory
	cafe.HourlyRate = in.HourlyRate
	cafe.TechSpecs = in.TechSpecs
	cafe.TelegramChatID = in.TelegramChatID
}

// Delete removes the café together with its bookings, pricing, plans and
// gallery rows. Stored images are removed best-effort.
func (s *CafeService) Delete(ctx context.Context, ownerID, cafeID string) error {
	if _, err := ownedCafe(ctx, s.store, ownerID, cafeID); err != nil {
		return err
	}
	images, err := s.store.ListGalleryImages(ctx, cafeID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteCafe(ctx, cafeID); err != nil {
		return err
	}
	for _, img := range images {
		s.deleteObject(ctx, img.ObjectKey)
	}
	s.logger.Info().Str("cafe_id", cafeID).Str("owner_id", ownerID).Msg("Cafe deleted")
	return nil
}

func (s *CafeService) Get(ctx context.Context, cafeID string) (*models.Cafe, error) {
	return s.store.GetCafe(ctx, cafeID)
}

func (s *CafeService) List(ctx context.Context) ([]*models.Cafe, error) {
	return s.store.ListCafes(ctx, "")
}

func (s *CafeService) ListOwned(ctx context.Context, ownerID string) ([]*models.Cafe, error) {
	return s.store.ListCafes(ctx, ownerID)
}

// Stations synthesizes the café's stations and attaches their overrides.
func (s *CafeService) Stations(ctx context.Context, cafeID string) ([]StationView, error) {
	cafe, err := s.store.GetCafe(ctx, cafeID)
	if err != nil {
		return nil, err
	}
	overrides, err := s.store.ListStationPricing(ctx, cafeID)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]*models.StationPricing, len(overrides))
	for i := range overrides {
		byName[overrides[i].StationName] = &overrides[i]
	}

	stations := pricing.Stations(cafe.Inventory)
	views := make([]StationView, len(stations))
	for i, st := range stations {
		views[i] = StationView{Station: st, Pricing: byName[st.Name]}
	}
	return views, nil
}

// UploadCover stores a new cover image and points the café at it.
func (s *CafeService) UploadCover(ctx context.Context, ownerID, cafeID, filename, contentType string, body io.Reader) (string, error) {
	if _, err := ownedCafe(ctx, s.store, ownerID, cafeID); err != nil {
		return "", err
	}
	key, err := objectKey(path.Join("cafes", cafeID, "cover"), filename, contentType)
	if err != nil {
		return "", err
	}
	url, err := s.putObject(ctx, key, contentType, body)
	if err != nil {
		return "", err
	}
	if err := s.store.SetCafeCover(ctx, cafeID, url); err != nil {
		s.deleteObject(ctx, key)
		return "", err
	}
	return url, nil
}

func (s *CafeService) AddGalleryImage(ctx context.Context, ownerID, cafeID, filename, contentType, caption string, body io.Reader) (*models.GalleryImage, error) {
	if _, err := ownedCafe(ctx, s.store, ownerID, cafeID); err != nil {
		return nil, err
	}
	key, err := objectKey(path.Join("cafes", cafeID, "gallery"), filename, contentType)
	if err != nil {
		return nil, err
	}
	url, err := s.putObject(ctx, key, contentType, body)
	if err != nil {
		return nil, err
	}
	img := &models.GalleryImage{CafeID: cafeID, URL: url, ObjectKey: key, Caption: caption}
	if err := s.store.AddGalleryImage(ctx, img); err != nil {
		s.deleteObject(ctx, key)
		return nil, err
	}
	return img, nil
}

func (s *CafeService) Gallery(ctx context.Context, cafeID string) ([]*models.GalleryImage, error) {
	if _, err := s.store.GetCafe(ctx, cafeID); err != nil {
		return nil, err
	}
	return s.store.ListGalleryImages(ctx, cafeID)
}

func (s *CafeService) DeleteGalleryImage(ctx context.Context, ownerID, cafeID, imageID string) error {
	if _, err := ownedCafe(ctx, s.store, ownerID, cafeID); err != nil {
		return err
	}
	img, err := s.store.DeleteGalleryImage(ctx, cafeID, imageID)
	if err != nil {
		return err
	}
	s.deleteObject(ctx, img.ObjectKey)
	return nil
}

func (s *CafeService) putObject(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	if s.objects == nil {
		return "", fmt.Errorf("object storage is not configured")
	}
	url, err := s.objects.Put(ctx, key, contentType, body)
	if err != nil {
		return "", fmt.Errorf("store image: %w", err)
	}
	return url, nil
}

func (s *CafeService) deleteObject(ctx context.Context, key string) {
	if s.objects == nil || key == "" {
		return
	}
	if err := s.objects.Delete(ctx, key); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("Failed to delete stored image")
	}
}

// objectKey builds a unique key under prefix, keeping a sane extension.
func objectKey(prefix, filename, contentType string) (string, error) {
	if !strings.HasPrefix(contentType, "image/") {
		return "", invalidf("only images can be uploaded, got %q", contentType)
	}
	ext := strings.ToLower(path.Ext(filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp", ".gif":
	default:
		ext = ""
		if exts, _ := mime.ExtensionsByType(contentType); len(exts) > 0 {
			ext = exts[0]
		}
	}
	return path.Join(prefix, uuid.NewString()+ext), nil
}
