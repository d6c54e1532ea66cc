package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"token-launchpad/internal/domain"
	"token-launchpad/internal/storage"
)

func TestTokenStore_InsertAndGetByMint(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTokenStore(pool)

	token := &domain.Token{
		Mint:      "mint-1",
		Name:      "Test Coin",
		Symbol:    "TEST",
		Creator:   "creator-1",
		QuoteMint: "So11111111111111111111111111111111111111112",
		Pool:      ptr("pool-1"),
		CreatedAt: 1700000000000,
	}

	err := store.Insert(ctx, token)
	require.NoError(t, err)

	got, err := store.GetByMint(ctx, "mint-1")
	require.NoError(t, err)
	assert.Equal(t, "Test Coin", got.Name)
	assert.Equal(t, "creator-1", got.Creator)
	require.NotNil(t, got.Pool)
	assert.Equal(t, "pool-1", *got.Pool)
	assert.False(t, got.Migrated)
	assert.Nil(t, got.MigratedAt)
}

func TestTokenStore_InsertDuplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTokenStore(pool)

	token := &domain.Token{Mint: "mint-1", CreatedAt: 1700000000000}
	require.NoError(t, store.Insert(ctx, token))

	err := store.Insert(ctx, token)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestTokenStore_GetByMintNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTokenStore(pool)
	_, err := store.GetByMint(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestTokenStore_GetUnmigratedAndSetMigrated(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTokenStore(pool)

	require.NoError(t, store.Insert(ctx, &domain.Token{Mint: "mint-1", CreatedAt: 1}))
	require.NoError(t, store.Insert(ctx, &domain.Token{Mint: "mint-2", CreatedAt: 2}))

	unmigrated, err := store.GetUnmigrated(ctx)
	require.NoError(t, err)
	require.Len(t, unmigrated, 2)
	assert.Equal(t, "mint-1", unmigrated[0].Mint, "ordered by created_at ASC")

	flipped, err := store.SetMigrated(ctx, "mint-1", 1700000000000)
	require.NoError(t, err)
	assert.True(t, flipped)

	// Second flip is a no-op
	flipped, err = store.SetMigrated(ctx, "mint-1", 1700000099999)
	require.NoError(t, err)
	assert.False(t, flipped)

	got, err := store.GetByMint(ctx, "mint-1")
	require.NoError(t, err)
	assert.True(t, got.Migrated)
	require.NotNil(t, got.MigratedAt)
	assert.Equal(t, int64(1700000000000), *got.MigratedAt, "timestamp from first flip wins")

	unmigrated, err = store.GetUnmigrated(ctx)
	require.NoError(t, err)
	require.Len(t, unmigrated, 1)
	assert.Equal(t, "mint-2", unmigrated[0].Mint)
}
