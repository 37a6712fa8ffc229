package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"playcafe/internal/database"
	"playcafe/internal/domain"
	"playcafe/internal/lifecycle"
	"playcafe/internal/metrics"
	"playcafe/internal/models"
	"playcafe/internal/pricing"
	"playcafe/internal/timefmt"

	"github.com/rs/zerolog"
)

// OnlineBookingInput is a customer's booking request.
type OnlineBookingInput struct {
	CafeID      string
	UserID      string
	BookingDate string
	StartTime   string
	Duration    int
	Items       []models.BookingItem
	TotalAmount *int64
	PaymentMode models.PaymentMode
}

// WalkInInput is a booking entered by café staff.
type WalkInInput struct {
	CustomerName  string
	CustomerPhone string
	BookingDate   string
	StartTime     string
	StartNow      bool
	Duration      int
	Items         []models.BookingItem
	TotalAmount   *int64
	PaymentMode   models.PaymentMode
}

// EditInput rewrites a booking. Version, when set, must match the stored row.
type EditInput struct {
	lifecycle.Patch
	Version *int64
}

type BookingService struct {
	store     domain.Store
	publisher domain.ChangePublisher
	notifier  domain.Notifier
	clock     timefmt.Clock
	logger    *zerolog.Logger
}

func NewBookingService(store domain.Store, publisher domain.ChangePublisher, notifier domain.Notifier, clock timefmt.Clock, logger *zerolog.Logger) *BookingService {
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &BookingService{
		store:     store,
		publisher: publisher,
		notifier:  notifier,
		clock:     clock,
		logger:    logger,
	}
}

// CreateOnline books stations for a customer. The booking starts pending and
// is priced from the café's tiers unless an amount is given.
func (s *BookingService) CreateOnline(ctx context.Context, in OnlineBookingInput) (*models.Booking, error) {
	if in.UserID == "" {
		return nil, invalidf("user_id is required")
	}
	cafe, err := s.store.GetCafe(ctx, in.CafeID)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.GetProfile(ctx, in.UserID); err != nil {
		if isNotFound(err) {
			return nil, invalidf("unknown user %s", in.UserID)
		}
		return nil, err
	}

	booking, err := s.draft(ctx, cafe, in.BookingDate, in.StartTime, in.Duration, in.Items, in.TotalAmount)
	if err != nil {
		return nil, err
	}
	if booking.PaymentMode, err = paymentOrDefault(in.PaymentMode, models.PaymentOnline); err != nil {
		return nil, err
	}
	userID := in.UserID
	booking.UserID = &userID
	booking.Status = models.StatusPending
	booking.Source = models.SourceOnline

	if err := s.store.CreateBooking(ctx, booking); err != nil {
		return nil, err
	}
	s.logger.Info().Str("booking_id", booking.ID).Str("cafe_id", cafe.ID).Str("user_id", userID).Msg("Online booking created")
	s.publish(models.ChangeInsert, booking, nil)
	s.notify(ctx, cafe, booking)
	return booking, nil
}

// CreateWalkIn records a booking for a customer without an account. It is
// created confirmed, or in progress from the current time when StartNow is set.
func (s *BookingService) CreateWalkIn(ctx context.Context, ownerID, cafeID string, in WalkInInput) (*models.Booking, error) {
	cafe, err := ownedCafe(ctx, s.store, ownerID, cafeID)
	if err != nil {
		return nil, err
	}
	if in.CustomerName == "" {
		return nil, invalidf("customer_name is required for walk-in bookings")
	}

	now := s.clock()
	date, start := in.BookingDate, in.StartTime
	if date == "" {
		date = now.Format(models.DateLayout)
	}
	if in.StartNow {
		date = now.Format(models.DateLayout)
		start = timefmt.From(now)
	}

	booking, err := s.draft(ctx, cafe, date, start, in.Duration, in.Items, in.TotalAmount)
	if err != nil {
		return nil, err
	}
	if booking.PaymentMode, err = paymentOrDefault(in.PaymentMode, models.PaymentCash); err != nil {
		return nil, err
	}
	booking.CustomerName = in.CustomerName
	booking.CustomerPhone = in.CustomerPhone
	booking.Source = models.SourceWalkIn
	booking.Status = models.StatusConfirmed
	if in.StartNow {
		booking.Status = models.StatusInProgress
	}

	if err := s.store.CreateBooking(ctx, booking); err != nil {
		return nil, err
	}
	s.logger.Info().Str("booking_id", booking.ID).Str("cafe_id", cafe.ID).Str("status", string(booking.Status)).Msg("Walk-in booking created")
	s.publish(models.ChangeInsert, booking, nil)
	return booking, nil
}

func (s *BookingService) draft(ctx context.Context, cafe *models.Cafe, date, start string, duration int, items []models.BookingItem, amount *int64) (*models.Booking, error) {
	if err := validDate(date); err != nil {
		return nil, err
	}
	startTime, err := normalizeStartTime(start)
	if err != nil {
		return nil, err
	}
	if err := validDuration(duration); err != nil {
		return nil, err
	}
	items = parseConsoleTypes(items)
	if err := validItems(items); err != nil {
		return nil, err
	}
	if err := checkCapacity(cafe, items); err != nil {
		return nil, err
	}
	if amount != nil && *amount < 0 {
		return nil, invalidf("total_amount must not be negative")
	}
	if amount == nil {
		tiers, err := s.store.ListPricingTiers(ctx, cafe.ID)
		if err != nil {
			return nil, fmt.Errorf("load pricing tiers: %w", err)
		}
		quote := pricing.Quote(cafe.ID, items, duration, pricing.NewTierTable(tiers), cafe.HourlyRate)
		amount = &quote
	}

	return &models.Booking{
		CafeID:      cafe.ID,
		BookingDate: date,
		StartTime:   startTime,
		Duration:    duration,
		TotalAmount: amount,
		Items:       items,
	}, nil
}

// Confirm moves an online booking from pending to confirmed.
func (s *BookingService) Confirm(ctx context.Context, ownerID, bookingID string) (*models.Booking, error) {
	return s.transition(ctx, ownerID, bookingID, "confirmed", func(b models.Booking) (models.Booking, error) {
		return lifecycle.Confirm(b)
	})
}

// Start moves a confirmed online booking into progress, restamping its start
// time with the current time.
func (s *BookingService) Start(ctx context.Context, ownerID, bookingID string) (*models.Booking, error) {
	return s.transition(ctx, ownerID, bookingID, "started", func(b models.Booking) (models.Booking, error) {
		return lifecycle.Start(b, s.clock)
	})
}

func (s *BookingService) transition(ctx context.Context, ownerID, bookingID, verb string, apply func(models.Booking) (models.Booking, error)) (*models.Booking, error) {
	current, err := s.ownedBooking(ctx, ownerID, bookingID)
	if err != nil {
		return nil, err
	}
	next, err := apply(*current)
	if err != nil {
		return nil, fmt.Errorf("%w: booking is %s (%s)", err, current.Status, current.Source)
	}
	// Items are unchanged; nil keeps them out of the update.
	next.Items = nil
	if err := s.store.UpdateBooking(ctx, &next); err != nil {
		return nil, err
	}
	next.Items = current.Items

	metrics.IncTransition(string(next.Status), "owner")
	s.logger.Info().Str("booking_id", bookingID).Str("owner_id", ownerID).Msgf("Booking %s", verb)
	s.publish(models.ChangeUpdate, &next, current)
	return &next, nil
}

// Edit applies an unguarded rewrite. Without a version the last write wins.
func (s *BookingService) Edit(ctx context.Context, ownerID, bookingID string, in EditInput) (*models.Booking, error) {
	current, cafe, err := s.ownedBookingCafe(ctx, ownerID, bookingID)
	if err != nil {
		return nil, err
	}

	patch := in.Patch
	if patch.BookingDate != nil {
		if err := validDate(*patch.BookingDate); err != nil {
			return nil, err
		}
	}
	if patch.StartTime != nil {
		v, err := normalizeStartTime(*patch.StartTime)
		if err != nil {
			return nil, err
		}
		patch.StartTime = &v
	}
	if patch.Duration != nil {
		if err := validDuration(*patch.Duration); err != nil {
			return nil, err
		}
	}
	if patch.Items != nil {
		patch.Items = parseConsoleTypes(patch.Items)
		if err := validItems(patch.Items); err != nil {
			return nil, err
		}
		if err := checkCapacity(cafe, patch.Items); err != nil {
			return nil, err
		}
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, invalidf("unknown status %q", *patch.Status)
	}
	if patch.PaymentMode != nil {
		p, err := paymentOrDefault(*patch.PaymentMode, "")
		if err != nil {
			return nil, err
		}
		patch.PaymentMode = &p
	}
	if patch.TotalAmount != nil && *patch.TotalAmount < 0 {
		return nil, invalidf("total_amount must not be negative")
	}

	next := lifecycle.Edit(*current, patch)
	next.Version = 0
	if in.Version != nil {
		next.Version = *in.Version
	}
	if patch.Items == nil {
		next.Items = nil
	}
	if err := s.store.UpdateBooking(ctx, &next); err != nil {
		return nil, err
	}

	updated, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if patch.Status != nil && *patch.Status != current.Status {
		metrics.IncTransition(string(updated.Status), "edit")
	}
	s.logger.Info().Str("booking_id", bookingID).Str("owner_id", ownerID).Str("status", string(updated.Status)).Msg("Booking edited")
	s.publish(models.ChangeUpdate, updated, current)
	return updated, nil
}

// Delete removes a booking outright. Normal flow cancels instead.
func (s *BookingService) Delete(ctx context.Context, ownerID, bookingID string) error {
	current, err := s.ownedBooking(ctx, ownerID, bookingID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteBooking(ctx, bookingID); err != nil {
		return err
	}
	s.logger.Info().Str("booking_id", bookingID).Str("owner_id", ownerID).Msg("Booking deleted")
	s.publish(models.ChangeDelete, nil, current)
	return nil
}

// Get returns a booking the owner can see.
func (s *BookingService) Get(ctx context.Context, ownerID, bookingID string) (*models.Booking, error) {
	return s.ownedBooking(ctx, ownerID, bookingID)
}

// ListForUser returns a customer's own bookings.
func (s *BookingService) ListForUser(ctx context.Context, userID string) ([]*models.Booking, error) {
	if _, err := s.store.GetProfile(ctx, userID); err != nil {
		return nil, err
	}
	return s.store.ListBookings(ctx, database.BookingFilter{UserID: userID})
}

func (s *BookingService) ownedBooking(ctx context.Context, ownerID, bookingID string) (*models.Booking, error) {
	booking, _, err := s.ownedBookingCafe(ctx, ownerID, bookingID)
	return booking, err
}

func (s *BookingService) ownedBookingCafe(ctx context.Context, ownerID, bookingID string) (*models.Booking, *models.Cafe, error) {
	booking, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, nil, err
	}
	cafe, err := ownedCafe(ctx, s.store, ownerID, booking.CafeID)
	if err != nil {
		if isNotFound(err) {
			return nil, nil, ErrForbidden
		}
		return nil, nil, err
	}
	return booking, cafe, nil
}

func (s *BookingService) publish(kind models.ChangeType, next, prev *models.Booking) {
	if s.publisher == nil {
		return
	}
	change := models.BookingChange{Type: kind, At: s.clock()}
	if next != nil {
		n := next.Clone()
		change.New = &n
		change.CafeID = n.CafeID
	}
	if prev != nil {
		p := prev.Clone()
		change.Old = &p
		change.CafeID = p.CafeID
	}
	s.publisher.PublishChange(change)
}

// notify sends the new-booking message in the background; delivery failures
// never fail the booking.
func (s *BookingService) notify(ctx context.Context, cafe *models.Cafe, booking *models.Booking) {
	if s.notifier == nil {
		return
	}
	b := booking.Clone()
	go func() {
		nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
		defer cancel()
		if err := s.notifier.NotifyNewBooking(nctx, cafe, &b); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Warn().Err(err).Str("booking_id", b.ID).Msg("New booking notification failed")
		}
	}()
}
