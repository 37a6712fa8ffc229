package service

import (
	"context"
	"testing"

	"playcafe/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMembershipPlans(t *testing.T) {
	db := newTestDB(t)
	owner := seedOwner(t, db, "owner")
	cafe := seedCafe(t, db, owner.ID)
	svc := NewMembershipService(db, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, owner.ID, cafe.ID, PlanInput{
		Name: "10 hours", Type: models.PlanHourlyPackage, ConsoleType: models.ConsolePS5, Price: 900, ValidityDays: 30,
	})
	assert.ErrorIs(t, err, ErrValidation, "hourly packages need hours")

	pack, err := svc.Create(ctx, owner.ID, cafe.ID, PlanInput{
		Name: "10 hours", Type: models.PlanHourlyPackage, ConsoleType: "PS5", Hours: intp(10), Price: 900, ValidityDays: 30,
	})
	require.NoError(t, err)
	assert.True(t, pack.IsActive)
	assert.Equal(t, models.PlayersSingle, pack.PlayerCount)
	assert.Equal(t, models.ConsolePS5, pack.ConsoleType)

	day, err := svc.Create(ctx, owner.ID, cafe.ID, PlanInput{
		Name: "Day pass", Type: models.PlanDayPass, ConsoleType: models.ConsolePC, PlayerCount: models.PlayersDouble,
		Hours: intp(5), Price: 400, ValidityDays: 1,
	})
	require.NoError(t, err)
	assert.Nil(t, day.Hours, "day passes carry no hour allotment")

	_, err = svc.Create(ctx, "other", cafe.ID, PlanInput{Name: "x", Type: models.PlanDayPass, ConsoleType: models.ConsolePC, ValidityDays: 1})
	assert.ErrorIs(t, err, ErrForbidden)

	updated, err := svc.Update(ctx, owner.ID, pack.ID, PlanInput{
		Name: "12 hours", Type: models.PlanHourlyPackage, ConsoleType: models.ConsolePS5, Hours: intp(12), Price: 1000, ValidityDays: 45,
	})
	require.NoError(t, err)
	assert.Equal(t, "12 hours", updated.Name)
	assert.Equal(t, 12, *updated.Hours)

	require.NoError(t, svc.Deactivate(ctx, owner.ID, day.ID))

	active, err := svc.List(ctx, cafe.ID, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, pack.ID, active[0].ID)

	all, err := svc.List(ctx, cafe.ID, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	assert.ErrorIs(t, svc.Deactivate(ctx, "other", pack.ID), ErrForbidden)
	assert.ErrorIs(t, svc.Deactivate(ctx, owner.ID, "missing"), ErrNotFound)
}

func TestMembershipListOwned(t *testing.T) {
	db := newTestDB(t)
	owner := seedOwner(t, db, "owner")
	cafe := seedCafe(t, db, owner.ID)
	svc := NewMembershipService(db, nil)
	ctx := context.Background()

	plan, err := svc.Create(ctx, owner.ID, cafe.ID, PlanInput{
		Name: "Day pass", Type: models.PlanDayPass, ConsoleType: models.ConsolePC, Price: 400, ValidityDays: 1,
	})
	require.NoError(t, err)
	require.NoError(t, svc.Deactivate(ctx, owner.ID, plan.ID))

	plans, err := svc.ListOwned(ctx, owner.ID, cafe.ID)
	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.False(t, plans[0].IsActive)

	_, err = svc.ListOwned(ctx, "other", cafe.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}
