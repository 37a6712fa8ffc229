package service

import (
	"context"
	"slices"

	"playcafe/internal/domain"
	"playcafe/internal/models"
	"playcafe/internal/pricing"

	"github.com/rs/zerolog"
)

// QuoteLine is the price of one console item.
type QuoteLine struct {
	ConsoleType models.ConsoleType `json:"console_type"`
	Quantity    int                `json:"quantity"`
	Price       int64              `json:"price"`
}

type Quote struct {
	Duration int         `json:"duration"`
	Lines    []QuoteLine `json:"lines"`
	Total    int64       `json:"total"`
}

type PricingService struct {
	store  domain.Store
	logger *zerolog.Logger
}

func NewPricingService(store domain.Store, logger *zerolog.Logger) *PricingService {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &PricingService{store: store, logger: logger}
}

func (s *PricingService) Tiers(ctx context.Context, ownerID, cafeID string) ([]models.PricingTier, error) {
	if _, err := ownedCafe(ctx, s.store, ownerID, cafeID); err != nil {
		return nil, err
	}
	return s.store.ListPricingTiers(ctx, cafeID)
}

// PutTiers upserts tiers; a tier with an existing key replaces its price.
func (s *PricingService) PutTiers(ctx context.Context, ownerID, cafeID string, tiers []models.PricingTier) ([]models.PricingTier, error) {
	if _, err := ownedCafe(ctx, s.store, ownerID, cafeID); err != nil {
		return nil, err
	}
	if len(tiers) == 0 {
		return nil, invalidf("at least one tier is required")
	}
	for i := range tiers {
		t := &tiers[i]
		if ct, ok := models.ParseConsoleType(string(t.ConsoleType)); ok {
			t.ConsoleType = ct
		}
		if !t.ConsoleType.Valid() {
			return nil, invalidf("unknown console type %q", t.ConsoleType)
		}
		if t.Quantity <= 0 {
			return nil, invalidf("tier quantity must be positive")
		}
		if !slices.Contains(models.TierDurations, t.Duration) {
			return nil, invalidf("tier duration must be 30 or 60 minutes, got %d", t.Duration)
		}
		if t.Price < 0 {
			return nil, invalidf("tier price must not be negative")
		}
		t.CafeID = cafeID
	}
	if err := s.store.UpsertPricingTiers(ctx, cafeID, tiers); err != nil {
		return nil, err
	}
	s.logger.Info().Str("cafe_id", cafeID).Int("tiers", len(tiers)).Msg("Pricing tiers updated")
	return s.store.ListPricingTiers(ctx, cafeID)
}

func (s *PricingService) DeleteTier(ctx context.Context, ownerID, cafeID string, tierID int64) error {
	if _, err := ownedCafe(ctx, s.store, ownerID, cafeID); err != nil {
		return err
	}
	return s.store.DeletePricingTier(ctx, cafeID, tierID)
}

func (s *PricingService) StationPricing(ctx context.Context, ownerID, cafeID string) ([]models.StationPricing, error) {
	if _, err := ownedCafe(ctx, s.store, ownerID, cafeID); err != nil {
		return nil, err
	}
	return s.store.ListStationPricing(ctx, cafeID)
}

// PutStationPricing upserts overrides for stations the café actually has.
func (s *PricingService) PutStationPricing(ctx context.Context, ownerID, cafeID string, records []models.StationPricing) ([]models.StationPricing, error) {
	cafe, err := ownedCafe(ctx, s.store, ownerID, cafeID)
	if err != nil {
		return nil, err
	}
	stations := make(map[string]models.ConsoleType)
	for _, st := range pricing.Stations(cafe.Inventory) {
		stations[st.Name] = st.ConsoleType
	}

	for i := range records {
		sp := &records[i]
		ct, ok := stations[sp.StationName]
		if !ok {
			return nil, invalidf("unknown station %q", sp.StationName)
		}
		sp.CafeID = cafeID
		sp.ConsoleType = ct
		if err := pricing.ValidateStationPricing(sp); err != nil {
			return nil, invalidf("%s: %v", sp.StationName, err)
		}
	}
	for i := range records {
		if err := s.store.UpsertStationPricing(ctx, &records[i]); err != nil {
			return nil, err
		}
	}
	return s.store.ListStationPricing(ctx, cafeID)
}

// Quote prices items for duration minutes using the café's tiers and its
// default hourly rate as the fallback.
func (s *PricingService) Quote(ctx context.Context, cafeID string, items []models.BookingItem, duration int) (*Quote, error) {
	cafe, err := s.store.GetCafe(ctx, cafeID)
	if err != nil {
		return nil, err
	}
	items = parseConsoleTypes(items)
	if err := validItems(items); err != nil {
		return nil, err
	}
	if err := validDuration(duration); err != nil {
		return nil, err
	}
	tiers, err := s.store.ListPricingTiers(ctx, cafeID)
	if err != nil {
		return nil, err
	}
	table := pricing.NewTierTable(tiers)

	q := &Quote{Duration: duration, Lines: make([]QuoteLine, 0, len(items))}
	for _, it := range items {
		price := pricing.ResolvePrice(cafeID, it.ConsoleType, it.Quantity, duration, table, cafe.HourlyRate)
		q.Lines = append(q.Lines, QuoteLine{ConsoleType: it.ConsoleType, Quantity: it.Quantity, Price: price})
		q.Total += price
	}
	return q, nil
}

// QuoteStation prices one named station. A station override wins; otherwise
// the tier resolver prices it with the controller count as quantity.
func (s *PricingService) QuoteStation(ctx context.Context, cafeID, stationName string, controllers, duration int) (int64, error) {
	cafe, err := s.store.GetCafe(ctx, cafeID)
	if err != nil {
		return 0, err
	}
	if err := validDuration(duration); err != nil {
		return 0, err
	}
	var station *models.Station
	for _, st := range pricing.Stations(cafe.Inventory) {
		if st.Name == stationName {
			station = &st
			break
		}
	}
	if station == nil {
		return 0, invalidf("unknown station %q", stationName)
	}
	if controllers <= 0 || !station.ConsoleType.IsGaming() {
		controllers = 1
	}

	overrides, err := s.store.ListStationPricing(ctx, cafeID)
	if err != nil {
		return 0, err
	}
	for i := range overrides {
		if overrides[i].StationName != stationName {
			continue
		}
		if price, ok := pricing.StationRate(&overrides[i], controllers, duration); ok {
			return price, nil
		}
	}

	tiers, err := s.store.ListPricingTiers(ctx, cafeID)
	if err != nil {
		return 0, err
	}
	return pricing.ResolvePrice(cafeID, station.ConsoleType, controllers, duration, pricing.NewTierTable(tiers), cafe.HourlyRate), nil
}
