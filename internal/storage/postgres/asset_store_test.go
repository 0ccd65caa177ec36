package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"custody-ledger/internal/domain"
	"custody-ledger/internal/storage"
)

func TestAssetStore_PutAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewAssetStore(pool)
	ctx := context.Background()

	info := &domain.AssetInfo{
		Asset:     "tok1",
		PriceFeed: "feed/tok1-usd",
		Decimals:  9,
		Supported: true,
		AddedAt:   1704067200000,
	}

	require.NoError(t, store.Put(ctx, info))

	result, err := store.Get(ctx, "tok1")
	require.NoError(t, err)
	require.Equal(t, "feed/tok1-usd", result.PriceFeed)
	require.Equal(t, uint8(9), result.Decimals)
	require.True(t, result.Supported)
}

func TestAssetStore_PutReplaces(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewAssetStore(pool)
	ctx := context.Background()

	info := &domain.AssetInfo{Asset: "tok1", PriceFeed: "feed/a", Decimals: 6, Supported: true}
	require.NoError(t, store.Put(ctx, info))

	info.PriceFeed = "feed/b"
	require.NoError(t, store.Put(ctx, info))

	result, err := store.Get(ctx, "tok1")
	require.NoError(t, err)
	require.Equal(t, "feed/b", result.PriceFeed)
}

func TestAssetStore_SetSupported(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewAssetStore(pool)
	ctx := context.Background()

	info := &domain.AssetInfo{Asset: "tok1", PriceFeed: "feed/a", Decimals: 6, Supported: true}
	require.NoError(t, store.Put(ctx, info))

	require.NoError(t, store.SetSupported(ctx, "tok1", false))

	result, err := store.Get(ctx, "tok1")
	require.NoError(t, err)
	require.False(t, result.Supported)

	// Delisted entry must survive, balances in it stay frozen
	require.Equal(t, uint8(6), result.Decimals)
}

func TestAssetStore_SetSupported_NotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewAssetStore(pool)
	ctx := context.Background()

	err := store.SetSupported(ctx, "unknown", false)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestAssetStore_List(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewAssetStore(pool)
	ctx := context.Background()

	for _, id := range []domain.AssetID{"tokC", "tokA", "tokB"} {
		require.NoError(t, store.Put(ctx, &domain.AssetInfo{Asset: id, PriceFeed: "feed", Supported: true}))
	}

	result, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, result, 3)
	require.Equal(t, domain.AssetID("tokA"), result[0].Asset)
	require.Equal(t, domain.AssetID("tokC"), result[2].Asset)
}

func TestAssetStore_NotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewAssetStore(pool)
	ctx := context.Background()

	_, err := store.Get(ctx, "unknown")
	require.ErrorIs(t, err, storage.ErrNotFound)
}
