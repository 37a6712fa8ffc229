package domain

import (
	"context"
	"io"
	"time"

	"playcafe/internal/database"
	"playcafe/internal/models"
)

// Store is the persistence surface the services depend on.
type Store interface {
	CreateOwner(ctx context.Context, owner *models.Owner) error
	UpsertOwner(ctx context.Context, owner *models.Owner) error
	GetOwnerByUsername(ctx context.Context, username string) (*models.Owner, error)

	CreateProfile(ctx context.Context, p *models.UserProfile) error
	GetProfile(ctx context.Context, id string) (*models.UserProfile, error)
	GetProfiles(ctx context.Context, ids []string) (map[string]*models.UserProfile, error)

	CreateCafe(ctx context.Context, cafe *models.Cafe) error
	UpdateCafe(ctx context.Context, cafe *models.Cafe) error
	DeleteCafe(ctx context.Context, id string) error
	GetCafe(ctx context.Context, id string) (*models.Cafe, error)
	ListCafes(ctx context.Context, ownerID string) ([]*models.Cafe, error)
	OwnerCafeIDs(ctx context.Context, ownerID string) ([]string, error)
	SetCafeCover(ctx context.Context, cafeID, url string) error

	CreateBooking(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	UpdateBooking(ctx context.Context, booking *models.Booking) error
	CompleteBooking(ctx context.Context, id string) (bool, error)
	DeleteBooking(ctx context.Context, id string) error
	ListBookings(ctx context.Context, filter database.BookingFilter) ([]*models.Booking, error)
	ListActiveBookings(ctx context.Context, cafeIDs []string) ([]*models.Booking, error)

	ListPricingTiers(ctx context.Context, cafeID string) ([]models.PricingTier, error)
	UpsertPricingTiers(ctx context.Context, cafeID string, tiers []models.PricingTier) error
	DeletePricingTier(ctx context.Context, cafeID string, id int64) error
	ListStationPricing(ctx context.Context, cafeID string) ([]models.StationPricing, error)
	UpsertStationPricing(ctx context.Context, sp *models.StationPricing) error

	CreateMembershipPlan(ctx context.Context, plan *models.MembershipPlan) error
	UpdateMembershipPlan(ctx context.Context, plan *models.MembershipPlan) error
	DeactivateMembershipPlan(ctx context.Context, cafeID, id string) error
	GetMembershipPlan(ctx context.Context, id string) (*models.MembershipPlan, error)
	ListMembershipPlans(ctx context.Context, cafeID string, activeOnly bool) ([]*models.MembershipPlan, error)

	AddGalleryImage(ctx context.Context, img *models.GalleryImage) error
	ListGalleryImages(ctx context.Context, cafeID string) ([]*models.GalleryImage, error)
	DeleteGalleryImage(ctx context.Context, cafeID, id string) (*models.GalleryImage, error)
}

// SyncQueue is the durable outbox behind the Sheets mirror.
type SyncQueue interface {
	CreateSyncTask(ctx context.Context, task *models.SyncTask) error
	GetPendingSyncTasks(ctx context.Context, limit int) ([]models.SyncTask, error)
	UpdateSyncTaskStatus(ctx context.Context, id int64, status, errMsg string, nextRetryAt *time.Time) error
	GetFailedSyncTasks(ctx context.Context) ([]models.SyncTask, error)
}

// SessionRepository keeps owner sessions keyed by token.
type SessionRepository interface {
	GetSession(ctx context.Context, token string) (*models.Session, error)
	SetSession(ctx context.Context, session *models.Session) error
	DeleteSession(ctx context.Context, token string) error
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// ChangePublisher fans booking changes out to live subscribers.
type ChangePublisher interface {
	PublishChange(change models.BookingChange)
}

// SheetsWriter mirrors bookings into a spreadsheet.
type SheetsWriter interface {
	UpsertBooking(ctx context.Context, booking *models.Booking) error
	DeleteBooking(ctx context.Context, bookingID string) error
}

// Notifier tells café owners about new bookings.
type Notifier interface {
	NotifyNewBooking(ctx context.Context, cafe *models.Cafe, booking *models.Booking) error
}

// ObjectStore keeps uploaded images and returns their public URL.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader) (string, error)
	Delete(ctx context.Context, key string) error
}
