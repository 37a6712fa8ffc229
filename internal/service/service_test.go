package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"playcafe/internal/database"
	"playcafe/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// fixedNow is Thursday 2026-10-15 19:05 UTC.
var fixedNow = time.Date(2026, 10, 15, 19, 5, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	logger := zerolog.Nop()
	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func seedOwner(t *testing.T, db *database.DB, username string) *models.Owner {
	t.Helper()
	owner := &models.Owner{Username: username, PasswordHash: "x"}
	require.NoError(t, db.CreateOwner(context.Background(), owner))
	return owner
}

func seedCafe(t *testing.T, db *database.DB, ownerID string) *models.Cafe {
	t.Helper()
	cafe := &models.Cafe{
		OwnerID:    ownerID,
		Name:       "Pixel Den",
		HourlyRate: 100,
		Inventory: map[models.ConsoleType]int{
			models.ConsolePS5:    2,
			models.ConsolePC:     4,
			models.ConsoleArcade: 3,
		},
	}
	require.NoError(t, db.CreateCafe(context.Background(), cafe))
	return cafe
}

func seedProfile(t *testing.T, db *database.DB, name string) *models.UserProfile {
	t.Helper()
	p := &models.UserProfile{FullName: name, Phone: "+91 90000 00000"}
	require.NoError(t, db.CreateProfile(context.Background(), p))
	return p
}

type recordingPublisher struct {
	mu      sync.Mutex
	changes []models.BookingChange
}

func (p *recordingPublisher) PublishChange(c models.BookingChange) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changes = append(p.changes, c)
}

func (p *recordingPublisher) last() models.BookingChange {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.changes[len(p.changes)-1]
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.changes)
}

type fakeNotifier struct {
	sent chan string
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{sent: make(chan string, 4)}
}

func (n *fakeNotifier) NotifyNewBooking(_ context.Context, cafe *models.Cafe, b *models.Booking) error {
	n.sent <- cafe.ID + "/" + b.ID
	return nil
}

func int64p(v int64) *int64 { return &v }
func intp(v int) *int       { return &v }
func strp(v string) *string { return &v }
