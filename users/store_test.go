package users

import (
	"context"
	"testing"

	"roadtrip/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestMemoryStoreCreateAndFind(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	u := &models.User{Username: "alice", Password: "hash"}
	require.NoError(t, store.Create(ctx, u))
	assert.False(t, u.ID.IsZero())

	found, err := store.FindByUsername(ctx, "  ALICE ")
	require.NoError(t, err)
	assert.Equal(t, u.ID, found.ID)
	assert.NotNil(t, found.SavedTrips)

	found, err = store.FindByID(ctx, u.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "alice", found.Username)

	err = store.Create(ctx, &models.User{Username: "alice", Password: "other"})
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestMemoryStoreMissingUsers(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.FindByID(ctx, "not-an-object-id")
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = store.FindByID(ctx, primitive.NewObjectID().Hex())
	assert.ErrorIs(t, err, ErrUserNotFound)

	err = store.SetTrips(ctx, primitive.NewObjectID(), nil)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestMemoryStoreSetTripsIsolated(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	u := &models.User{Username: "bob"}
	require.NoError(t, store.Create(ctx, u))

	trips := []models.SavedTrip{{ID: primitive.NewObjectID(), Name: "Trip to Lyon"}}
	require.NoError(t, store.SetTrips(ctx, u.ID, trips))
	trips[0].Name = "mutated"

	found, err := store.FindByID(ctx, u.ID.Hex())
	require.NoError(t, err)
	require.Len(t, found.SavedTrips, 1)
	assert.Equal(t, "Trip to Lyon", found.SavedTrips[0].Name)
}
