package database

import (
	"context"
	"testing"

	"playcafe/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCafe(ownerID, name string) *models.Cafe {
	return &models.Cafe{
		OwnerID:    ownerID,
		Name:       name,
		Address:    "MG Road",
		HourlyRate: 150,
		Inventory: map[models.ConsoleType]int{
			models.ConsolePS5:  2,
			models.ConsolePool: 1,
		},
		TechSpecs: map[string]string{"gpu": "RTX 4070"},
	}
}

func TestCafeCRUD(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	cafe := newCafe("owner-1", "Level Up")
	require.NoError(t, db.CreateCafe(ctx, cafe))
	require.NotEmpty(t, cafe.ID)

	got, err := db.GetCafe(ctx, cafe.ID)
	require.NoError(t, err)
	assert.Equal(t, "Level Up", got.Name)
	assert.Equal(t, 2, got.Inventory[models.ConsolePS5])
	assert.Equal(t, "RTX 4070", got.TechSpecs["gpu"])

	got.Name = "Level Up Arena"
	got.Inventory = map[models.ConsoleType]int{models.ConsolePC: 4}
	got.TelegramChatID = 42
	require.NoError(t, db.UpdateCafe(ctx, got))

	got, err = db.GetCafe(ctx, cafe.ID)
	require.NoError(t, err)
	assert.Equal(t, "Level Up Arena", got.Name)
	assert.Equal(t, map[models.ConsoleType]int{models.ConsolePC: 4}, got.Inventory)
	assert.Equal(t, int64(42), got.TelegramChatID)

	require.NoError(t, db.SetCafeCover(ctx, cafe.ID, "http://img/cover.jpg"))
	got, err = db.GetCafe(ctx, cafe.ID)
	require.NoError(t, err)
	assert.Equal(t, "http://img/cover.jpg", got.CoverImageURL)

	require.NoError(t, db.DeleteCafe(ctx, cafe.ID))
	_, err = db.GetCafe(ctx, cafe.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, db.DeleteCafe(ctx, cafe.ID), ErrNotFound)
	assert.ErrorIs(t, db.SetCafeCover(ctx, cafe.ID, "x"), ErrNotFound)
}

func TestListCafesAndOwnerIDs(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.CreateCafe(ctx, newCafe("owner-1", "B Cafe")))
	require.NoError(t, db.CreateCafe(ctx, newCafe("owner-1", "A Cafe")))
	require.NoError(t, db.CreateCafe(ctx, newCafe("owner-2", "C Cafe")))

	all, err := db.ListCafes(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	mine, err := db.ListCafes(ctx, "owner-1")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "A Cafe", mine[0].Name)
	assert.Equal(t, 1, mine[0].Inventory[models.ConsolePool])

	ids, err := db.OwnerCafeIDs(ctx, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, []string{mine[0].ID, mine[1].ID}, ids)

	none, err := db.OwnerCafeIDs(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestDeleteCafeCascades(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	cafe := newCafe("owner-1", "Level Up")
	require.NoError(t, db.CreateCafe(ctx, cafe))
	require.NoError(t, db.CreateBooking(ctx, newOnlineBooking(cafe.ID, "user-1", "2025-05-14")))
	require.NoError(t, db.UpsertPricingTiers(ctx, cafe.ID, []models.PricingTier{
		{ConsoleType: models.ConsolePS5, Quantity: 1, Duration: 60, Price: 100},
	}))

	require.NoError(t, db.DeleteCafe(ctx, cafe.ID))

	bookings, err := db.ListBookings(ctx, BookingFilter{CafeIDs: []string{cafe.ID}})
	require.NoError(t, err)
	assert.Empty(t, bookings)
	tiers, err := db.ListPricingTiers(ctx, cafe.ID)
	require.NoError(t, err)
	assert.Empty(t, tiers)
}
