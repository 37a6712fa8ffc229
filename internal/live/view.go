// Package live keeps per-café booking lists current from two sources: a
// periodic reload from storage and the booking change stream.
package live

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"playcafe/internal/database"
	"playcafe/internal/events"
	"playcafe/internal/lifecycle"
	"playcafe/internal/models"
	"playcafe/internal/stats"
	"playcafe/internal/timefmt"

	"github.com/rs/zerolog"
)

// Loader reads bookings from storage.
type Loader interface {
	ListBookings(ctx context.Context, filter database.BookingFilter) ([]*models.Booking, error)
}

type Options struct {
	RefreshInterval time.Duration
	LookbackDays    int
	IdleTimeout     time.Duration
	Clock           timefmt.Clock
}

// View is the booking list of one café.
type View struct {
	cafeID string
	loader Loader
	hub    *events.Hub
	opts   Options
	logger *zerolog.Logger

	mu       sync.RWMutex
	bookings []models.Booking
	loadedAt time.Time

	lastUsed atomic.Int64
	ready    chan struct{}
	once     sync.Once
}

func NewView(cafeID string, loader Loader, hub *events.Hub, opts Options, logger *zerolog.Logger) *View {
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = models.SweepIntervalSeconds * time.Second
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	v := &View{
		cafeID: cafeID,
		loader: loader,
		hub:    hub,
		opts:   opts,
		logger: logger,
		ready:  make(chan struct{}),
	}
	v.touch()
	return v
}

func (v *View) CafeID() string { return v.cafeID }

// Refresh reloads the list from storage. On failure the previous list stays.
func (v *View) Refresh(ctx context.Context) error {
	filter := database.BookingFilter{CafeIDs: []string{v.cafeID}}
	if v.opts.LookbackDays > 0 {
		filter.From = v.opts.Clock().AddDate(0, 0, -v.opts.LookbackDays).Format(models.DateLayout)
	}
	rows, err := v.loader.ListBookings(ctx, filter)
	if err != nil {
		return err
	}
	list := make([]models.Booking, len(rows))
	for i, b := range rows {
		list[i] = *b
	}

	v.mu.Lock()
	v.bookings = list
	v.loadedAt = v.opts.Clock()
	v.mu.Unlock()
	v.once.Do(func() { close(v.ready) })
	return nil
}

// Apply reconciles one change. Changes for other cafés are ignored.
func (v *View) Apply(change models.BookingChange) {
	if change.CafeID != "" && change.CafeID != v.cafeID {
		return
	}
	v.mu.Lock()
	v.bookings = lifecycle.ApplyDelta(v.bookings, change)
	v.mu.Unlock()
}

// Snapshot returns a copy of the current list, newest first.
func (v *View) Snapshot() []models.Booking {
	v.touch()
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]models.Booking, len(v.bookings))
	for i := range v.bookings {
		out[i] = v.bookings[i].Clone()
	}
	return out
}

// Summary folds the current list into dashboard figures.
func (v *View) Summary(now time.Time) stats.Summary {
	return stats.Aggregate(v.Snapshot(), now)
}

// LoadedAt is the time of the last successful refresh.
func (v *View) LoadedAt() time.Time {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.loadedAt
}

// Ready is closed once the first refresh has succeeded.
func (v *View) Ready() <-chan struct{} {
	return v.ready
}

func (v *View) touch() {
	v.lastUsed.Store(time.Now().UnixNano())
}

func (v *View) idle() bool {
	if v.opts.IdleTimeout <= 0 {
		return false
	}
	return time.Since(time.Unix(0, v.lastUsed.Load())) > v.opts.IdleTimeout
}

// Run keeps the view current until ctx ends or the view goes unused for
// longer than the idle timeout. The subscription and ticker are released on
// return.
func (v *View) Run(ctx context.Context) {
	var changes <-chan models.BookingChange
	if v.hub != nil {
		sub := v.hub.Subscribe([]string{v.cafeID}, 0)
		defer sub.Close()
		changes = sub.C
	}

	if err := v.Refresh(ctx); err != nil && ctx.Err() == nil {
		v.logger.Error().Err(err).Str("cafe_id", v.cafeID).Msg("Initial live view load failed")
	}

	ticker := time.NewTicker(v.opts.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case change, ok := <-changes:
			if !ok {
				changes = nil
				continue
			}
			v.Apply(change)
		case <-ticker.C:
			if v.idle() {
				v.logger.Debug().Str("cafe_id", v.cafeID).Msg("Live view idle, stopping")
				return
			}
			if err := v.Refresh(ctx); err != nil && ctx.Err() == nil {
				v.logger.Warn().Err(err).Str("cafe_id", v.cafeID).Msg("Live view refresh failed")
			}
		}
	}
}
