package database

import (
	"context"
	"fmt"
	"testing"

	"playcafe/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOwners(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	owner := &models.Owner{Username: "alice", PasswordHash: "hash-1"}
	require.NoError(t, db.CreateOwner(ctx, owner))
	assert.ErrorIs(t, db.CreateOwner(ctx, &models.Owner{Username: "alice", PasswordHash: "x"}), ErrDuplicate)

	got, err := db.GetOwnerByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, owner.ID, got.ID)
	assert.Equal(t, "hash-1", got.PasswordHash)

	updated := &models.Owner{Username: "alice", PasswordHash: "hash-2"}
	require.NoError(t, db.UpsertOwner(ctx, updated))
	assert.Equal(t, owner.ID, updated.ID)

	got, err = db.GetOwnerByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "hash-2", got.PasswordHash)

	created := &models.Owner{Username: "bob", PasswordHash: "hash-3"}
	require.NoError(t, db.UpsertOwner(ctx, created))
	assert.NotEmpty(t, created.ID)

	_, err = db.GetOwnerByUsername(ctx, "carol")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProfiles(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	p1 := &models.UserProfile{FullName: "Asha Rao", Phone: "98765"}
	p2 := &models.UserProfile{ID: "fixed-id", FullName: "Vik"}
	require.NoError(t, db.CreateProfile(ctx, p1))
	require.NoError(t, db.CreateProfile(ctx, p2))
	assert.ErrorIs(t, db.CreateProfile(ctx, &models.UserProfile{ID: "fixed-id", FullName: "dup"}), ErrDuplicate)

	got, err := db.GetProfile(ctx, p1.ID)
	require.NoError(t, err)
	assert.Equal(t, "Asha Rao", got.FullName)

	_, err = db.GetProfile(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	profiles, err := db.GetProfiles(ctx, []string{p1.ID, "fixed-id", "missing"})
	require.NoError(t, err)
	assert.Len(t, profiles, 2)
	assert.Equal(t, "Vik", profiles["fixed-id"].FullName)

	empty, err := db.GetProfiles(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)

	many := make([]string, 0, 3*inBatchSize)
	for i := 0; i < 3*inBatchSize-1; i++ {
		many = append(many, fmt.Sprintf("missing-%d", i))
	}
	many = append(many, "fixed-id")
	profiles, err = db.GetProfiles(ctx, many)
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, "Vik", profiles["fixed-id"].FullName)
}
