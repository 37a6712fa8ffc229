package service

import (
	"context"
	"time"

	"playcafe/internal/database"
	"playcafe/internal/domain"
	"playcafe/internal/export"
	"playcafe/internal/lifecycle"
	"playcafe/internal/live"
	"playcafe/internal/models"
	"playcafe/internal/stats"
	"playcafe/internal/timefmt"

	"github.com/rs/zerolog"
)

// Sweeper completes expired bookings on demand.
type Sweeper interface {
	SweepCafes(ctx context.Context, cafeIDs []string) ([]models.Booking, error)
}

// ViewSource hands out live café views.
type ViewSource interface {
	View(ctx context.Context, cafeID string) (*live.View, error)
}

// ActiveSession is an in-progress booking with its remaining time.
type ActiveSession struct {
	Booking          models.Booking `json:"booking"`
	Customer         string         `json:"customer"`
	EndTime          string         `json:"end_time"`
	MinutesRemaining int            `json:"minutes_remaining"`
}

// BookingRow is a booking as listed on the dashboard.
type BookingRow struct {
	models.Booking
	Customer string             `json:"customer"`
	Phone    string             `json:"phone"`
	EndTime  string             `json:"end_time"`
	Actions  []lifecycle.Action `json:"actions"`
}

type Dashboard struct {
	Cafe     *models.Cafe    `json:"cafe"`
	Summary  stats.Summary   `json:"summary"`
	Active   []ActiveSession `json:"active"`
	Recent   []BookingRow    `json:"recent"`
	LoadedAt time.Time       `json:"loaded_at"`
}

type DashboardService struct {
	store   domain.Store
	views   ViewSource
	sweeper Sweeper
	clock   timefmt.Clock
	logger  *zerolog.Logger
}

func NewDashboardService(store domain.Store, views ViewSource, sweeper Sweeper, clock timefmt.Clock, logger *zerolog.Logger) *DashboardService {
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &DashboardService{store: store, views: views, sweeper: sweeper, clock: clock, logger: logger}
}

// Dashboard sweeps the café, then folds its live view into the summary.
func (s *DashboardService) Dashboard(ctx context.Context, ownerID, cafeID string) (*Dashboard, error) {
	cafe, err := ownedCafe(ctx, s.store, ownerID, cafeID)
	if err != nil {
		return nil, err
	}
	view, err := s.views.View(ctx, cafeID)
	if err != nil {
		return nil, err
	}
	s.sweep(ctx, view)

	now := s.clock()
	bookings := view.Snapshot()
	profiles := s.profiles(ctx, bookings)

	d := &Dashboard{
		Cafe:     cafe,
		Summary:  stats.Aggregate(bookings, now),
		Active:   make([]ActiveSession, 0),
		LoadedAt: view.LoadedAt(),
	}
	for i := range bookings {
		b := &bookings[i]
		if b.Status != models.StatusInProgress {
			continue
		}
		d.Active = append(d.Active, ActiveSession{
			Booking:          *b,
			Customer:         lifecycle.DisplayName(b, profileOf(b, profiles)),
			EndTime:          lifecycle.DisplayEndTime(b),
			MinutesRemaining: lifecycle.MinutesRemaining(b, now),
		})
	}
	d.Recent = rows(d.Summary.Recent, profiles)
	return d, nil
}

// BookingQuery narrows an owner's booking list.
type BookingQuery struct {
	From     string
	To       string
	Statuses []models.BookingStatus
	Limit    int
}

func (q BookingQuery) validate() error {
	for _, d := range []string{q.From, q.To} {
		if d == "" {
			continue
		}
		if err := validDate(d); err != nil {
			return err
		}
	}
	for _, st := range q.Statuses {
		if !st.Valid() {
			return invalidf("unknown status %q", st)
		}
	}
	if q.Limit < 0 {
		return invalidf("limit must not be negative")
	}
	return nil
}

// Bookings lists the café's bookings with display fields resolved.
func (s *DashboardService) Bookings(ctx context.Context, ownerID, cafeID string, q BookingQuery) ([]BookingRow, error) {
	if _, err := ownedCafe(ctx, s.store, ownerID, cafeID); err != nil {
		return nil, err
	}
	if err := q.validate(); err != nil {
		return nil, err
	}
	list, err := s.store.ListBookings(ctx, database.BookingFilter{
		CafeIDs:  []string{cafeID},
		From:     q.From,
		To:       q.To,
		Statuses: q.Statuses,
		Limit:    q.Limit,
	})
	if err != nil {
		return nil, err
	}
	bookings := derefAll(list)
	return rows(bookings, s.profiles(ctx, bookings)), nil
}

// Customers rolls the café's bookings up per customer.
func (s *DashboardService) Customers(ctx context.Context, ownerID, cafeID string) ([]models.CustomerSummary, error) {
	if _, err := ownedCafe(ctx, s.store, ownerID, cafeID); err != nil {
		return nil, err
	}
	view, err := s.views.View(ctx, cafeID)
	if err != nil {
		return nil, err
	}
	bookings := view.Snapshot()
	return stats.Customers(bookings, s.profiles(ctx, bookings)), nil
}

// ExportReport collects the bookings of a date range for the XLSX export.
func (s *DashboardService) ExportReport(ctx context.Context, ownerID, cafeID, from, to string) (export.Report, error) {
	cafe, err := ownedCafe(ctx, s.store, ownerID, cafeID)
	if err != nil {
		return export.Report{}, err
	}
	now := s.clock()
	if from == "" {
		from = now.AddDate(0, -1, 0).Format(models.DateLayout)
	}
	if to == "" {
		to = now.Format(models.DateLayout)
	}
	if err := validDate(from); err != nil {
		return export.Report{}, err
	}
	if err := validDate(to); err != nil {
		return export.Report{}, err
	}
	if from > to {
		return export.Report{}, invalidf("from must not be after to")
	}

	list, err := s.store.ListBookings(ctx, database.BookingFilter{CafeIDs: []string{cafeID}, From: from, To: to})
	if err != nil {
		return export.Report{}, err
	}
	bookings := derefAll(list)
	return export.Report{
		Cafe:     cafe,
		From:     from,
		To:       to,
		Bookings: bookings,
		Profiles: s.profiles(ctx, bookings),
	}, nil
}

// sweep completes expired bookings and folds the result into view right
// away; the change stream delivers the same rows again, which is harmless.
func (s *DashboardService) sweep(ctx context.Context, view *live.View) {
	if s.sweeper == nil {
		return
	}
	done, err := s.sweeper.SweepCafes(ctx, []string{view.CafeID()})
	if err != nil {
		s.logger.Warn().Err(err).Str("cafe_id", view.CafeID()).Msg("Dashboard sweep failed")
		return
	}
	for i := range done {
		view.Apply(models.BookingChange{Type: models.ChangeUpdate, CafeID: done[i].CafeID, New: &done[i]})
	}
}

// profiles loads linked profiles. Failures degrade to the display fallbacks.
func (s *DashboardService) profiles(ctx context.Context, bookings []models.Booking) map[string]*models.UserProfile {
	seen := make(map[string]bool)
	var ids []string
	for i := range bookings {
		if b := &bookings[i]; !b.IsWalkIn() && !seen[*b.UserID] {
			seen[*b.UserID] = true
			ids = append(ids, *b.UserID)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	profiles, err := s.store.GetProfiles(ctx, ids)
	if err != nil {
		s.logger.Warn().Err(err).Int("ids", len(ids)).Msg("Failed to load profiles")
		return nil
	}
	return profiles
}

func profileOf(b *models.Booking, profiles map[string]*models.UserProfile) *models.UserProfile {
	if b.IsWalkIn() {
		return nil
	}
	return profiles[*b.UserID]
}

func rows(bookings []models.Booking, profiles map[string]*models.UserProfile) []BookingRow {
	out := make([]BookingRow, len(bookings))
	for i := range bookings {
		b := &bookings[i]
		p := profileOf(b, profiles)
		out[i] = BookingRow{
			Booking:  *b,
			Customer: lifecycle.DisplayName(b, p),
			Phone:    lifecycle.DisplayPhone(b, p),
			EndTime:  lifecycle.DisplayEndTime(b),
			Actions:  lifecycle.AllowedActions(b),
		}
	}
	return out
}

func derefAll(list []*models.Booking) []models.Booking {
	out := make([]models.Booking, len(list))
	for i, b := range list {
		out[i] = *b
	}
	return out
}
