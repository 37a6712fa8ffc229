package service

import (
	"context"
	"testing"

	"playcafe/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutTiers(t *testing.T) {
	db := newTestDB(t)
	owner := seedOwner(t, db, "owner")
	cafe := seedCafe(t, db, owner.ID)
	svc := NewPricingService(db, nil)
	ctx := context.Background()

	tiers, err := svc.PutTiers(ctx, owner.ID, cafe.ID, []models.PricingTier{
		{ConsoleType: "PS5", Quantity: 1, Duration: 30, Price: 75},
		{ConsoleType: models.ConsolePS5, Quantity: 1, Duration: 60, Price: 150},
	})
	require.NoError(t, err)
	require.Len(t, tiers, 2)

	// Same key replaces the price instead of adding a row.
	tiers, err = svc.PutTiers(ctx, owner.ID, cafe.ID, []models.PricingTier{
		{ConsoleType: models.ConsolePS5, Quantity: 1, Duration: 60, Price: 160},
	})
	require.NoError(t, err)
	require.Len(t, tiers, 2)

	invalid := []models.PricingTier{
		{ConsoleType: models.ConsolePS5, Quantity: 1, Duration: 45, Price: 10},
		{ConsoleType: models.ConsolePS5, Quantity: 0, Duration: 30, Price: 10},
		{ConsoleType: "gamecube", Quantity: 1, Duration: 30, Price: 10},
		{ConsoleType: models.ConsolePS5, Quantity: 1, Duration: 30, Price: -1},
	}
	for _, tier := range invalid {
		_, err := svc.PutTiers(ctx, owner.ID, cafe.ID, []models.PricingTier{tier})
		assert.ErrorIs(t, err, ErrValidation, "%+v", tier)
	}

	_, err = svc.PutTiers(ctx, "other", cafe.ID, tiers)
	assert.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, svc.DeleteTier(ctx, owner.ID, cafe.ID, tiers[0].ID))
	left, err := svc.Tiers(ctx, owner.ID, cafe.ID)
	require.NoError(t, err)
	assert.Len(t, left, 1)
	assert.ErrorIs(t, svc.DeleteTier(ctx, owner.ID, cafe.ID, tiers[0].ID), ErrNotFound)
}

func TestQuote(t *testing.T) {
	db := newTestDB(t)
	owner := seedOwner(t, db, "owner")
	cafe := seedCafe(t, db, owner.ID)
	require.NoError(t, db.UpsertPricingTiers(context.Background(), cafe.ID, []models.PricingTier{
		{ConsoleType: models.ConsolePS5, Quantity: 1, Duration: 30, Price: 75},
		{ConsoleType: models.ConsolePS5, Quantity: 1, Duration: 60, Price: 150},
	}))
	svc := NewPricingService(db, nil)

	tests := []struct {
		name     string
		items    []models.BookingItem
		duration int
		want     int64
	}{
		{"half hour tier", []models.BookingItem{{ConsoleType: models.ConsolePS5, Quantity: 1}}, 30, 75},
		{"ninety is hour plus half", []models.BookingItem{{ConsoleType: models.ConsolePS5, Quantity: 1}}, 90, 225},
		{"fallback", []models.BookingItem{{ConsoleType: models.ConsoleArcade, Quantity: 3}}, 30, 150},
		{"mixed", []models.BookingItem{
			{ConsoleType: models.ConsolePS5, Quantity: 1},
			{ConsoleType: models.ConsolePC, Quantity: 2},
		}, 60, 150 + 200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := svc.Quote(context.Background(), cafe.ID, tt.items, tt.duration)
			require.NoError(t, err)
			assert.Equal(t, tt.want, q.Total)
			assert.Len(t, q.Lines, len(tt.items))
		})
	}

	_, err := svc.Quote(context.Background(), cafe.ID, nil, 60)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.Quote(context.Background(), "missing", []models.BookingItem{{ConsoleType: models.ConsolePC, Quantity: 1}}, 60)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStationPricing(t *testing.T) {
	db := newTestDB(t)
	owner := seedOwner(t, db, "owner")
	cafe := seedCafe(t, db, owner.ID)
	svc := NewPricingService(db, nil)
	ctx := context.Background()

	one := &models.ControllerRate{HalfHour: 60, FullHour: 100}
	two := &models.ControllerRate{HalfHour: 90, FullHour: 160}
	records, err := svc.PutStationPricing(ctx, owner.ID, cafe.ID, []models.StationPricing{
		{StationName: "PS5-01", Controllers: [4]*models.ControllerRate{one, two}},
		{StationName: "PC-01", HourRate: int64p(70), HalfHourRate: int64p(40)},
	})
	require.NoError(t, err)
	require.Len(t, records, 2)

	_, err = svc.PutStationPricing(ctx, owner.ID, cafe.ID, []models.StationPricing{{StationName: "VR-01", HourRate: int64p(1)}})
	assert.ErrorIs(t, err, ErrValidation, "station does not exist")
	_, err = svc.PutStationPricing(ctx, owner.ID, cafe.ID, []models.StationPricing{{StationName: "PS5-02"}})
	assert.ErrorIs(t, err, ErrValidation, "gaming station needs a single-controller rate")

	price, err := svc.QuoteStation(ctx, cafe.ID, "PS5-01", 2, 90)
	require.NoError(t, err)
	assert.EqualValues(t, 160+90, price)

	price, err = svc.QuoteStation(ctx, cafe.ID, "PC-01", 0, 30)
	require.NoError(t, err)
	assert.EqualValues(t, 40, price)

	// No override: tier resolver with the default hourly rate.
	price, err = svc.QuoteStation(ctx, cafe.ID, "PC-03", 0, 60)
	require.NoError(t, err)
	assert.EqualValues(t, 100, price)

	_, err = svc.QuoteStation(ctx, cafe.ID, "Xbox-01", 1, 60)
	assert.ErrorIs(t, err, ErrValidation)
}
