package worker

import (
	"context"
	"time"

	"playcafe/internal/domain"
	"playcafe/internal/lifecycle"
	"playcafe/internal/metrics"
	"playcafe/internal/models"
	"playcafe/internal/timefmt"

	"github.com/rs/zerolog"
)

// SweepStore is the slice of storage the sweeper needs.
type SweepStore interface {
	ListActiveBookings(ctx context.Context, cafeIDs []string) ([]*models.Booking, error)
	CompleteBooking(ctx context.Context, id string) (bool, error)
}

// Sweeper force-completes confirmed and in-progress bookings whose session
// time has elapsed.
type Sweeper struct {
	store     SweepStore
	publisher domain.ChangePublisher
	interval  time.Duration
	clock     timefmt.Clock
	logger    *zerolog.Logger
}

func NewSweeper(store SweepStore, publisher domain.ChangePublisher, interval time.Duration, clock timefmt.Clock, logger *zerolog.Logger) *Sweeper {
	if interval <= 0 {
		interval = models.SweepIntervalSeconds * time.Second
	}
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Sweeper{
		store:     store,
		publisher: publisher,
		interval:  interval,
		clock:     clock,
		logger:    logger,
	}
}

// Run sweeps every café on each tick until ctx ends.
func (s *Sweeper) Run(ctx context.Context) {
	s.logger.Info().Dur("interval", s.interval).Msg("Sweeper started")
	defer s.logger.Info().Msg("Sweeper stopped")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.SweepCafes(ctx, nil); err != nil && ctx.Err() == nil {
				s.logger.Error().Err(err).Msg("Sweep failed")
			}
		}
	}
}

// SweepCafes runs one pass over cafeIDs, or over every café when cafeIDs is
// nil, and returns the completed bookings. A booking that fails to update is
// logged and skipped; it stays eligible for the next pass.
func (s *Sweeper) SweepCafes(ctx context.Context, cafeIDs []string) ([]models.Booking, error) {
	active, err := s.store.ListActiveBookings(ctx, cafeIDs)
	if err != nil {
		return nil, err
	}

	list := make([]models.Booking, len(active))
	byID := make(map[string]models.Booking, len(active))
	for i, b := range active {
		list[i] = *b
		byID[b.ID] = *b
	}

	now := s.clock()
	var completed []models.Booking
	for _, done := range lifecycle.Sweep(list, now) {
		changed, err := s.store.CompleteBooking(ctx, done.ID)
		if err != nil {
			s.logger.Warn().Err(err).Str("booking_id", done.ID).Msg("Failed to complete expired booking")
			continue
		}
		if !changed {
			continue
		}

		old := byID[done.ID]
		done.Version = old.Version + 1
		done.UpdatedAt = now
		completed = append(completed, done)
		metrics.IncTransition(string(models.StatusCompleted), "sweep")

		if s.publisher != nil {
			newRow, oldRow := done, old
			s.publisher.PublishChange(models.BookingChange{
				Type:   models.ChangeUpdate,
				CafeID: done.CafeID,
				New:    &newRow,
				Old:    &oldRow,
				At:     now,
			})
		}
	}

	metrics.ObserveSweep(len(completed))
	if len(completed) > 0 {
		s.logger.Info().Int("completed", len(completed)).Msg("Expired bookings completed")
	}
	return completed, nil
}
