package clickhouse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"custody-ledger/internal/domain"
	"custody-ledger/internal/storage"
)

func TestLedgerEventStore_InsertAndQuery(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewLedgerEventStore(conn)
	ctx := context.Background()

	events := []*domain.LedgerEvent{
		{
			EventID:      "e1",
			Kind:         domain.EventDeposit,
			Principal:    "alice",
			Asset:        domain.NativeAsset,
			NativeAmount: 1_000_000_000,
			USDValue:     domain.USD(150),
			BalanceAfter: 1_000_000_000,
			Timestamp:    1000,
		},
		{
			EventID:      "e2",
			Kind:         domain.EventWithdrawal,
			Principal:    "alice",
			Asset:        domain.NativeAsset,
			NativeAmount: 400_000_000,
			USDValue:     domain.USD(60),
			BalanceAfter: 600_000_000,
			Timestamp:    2000,
		},
		{
			EventID:   "e3",
			Kind:      domain.EventAssetAdded,
			Principal: "admin",
			Asset:     "tok1",
			Timestamp: 1500,
		},
	}

	for _, e := range events {
		require.NoError(t, store.Insert(ctx, e))
	}

	byPrincipal, err := store.GetByPrincipal(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, byPrincipal, 2)
	require.Equal(t, "e1", byPrincipal[0].EventID)
	require.Equal(t, "e2", byPrincipal[1].EventID)
	require.Equal(t, domain.USD(150), byPrincipal[0].USDValue)

	byRange, err := store.GetByTimeRange(ctx, 1000, 1500)
	require.NoError(t, err)
	require.Len(t, byRange, 2)
	require.Equal(t, "e1", byRange[0].EventID)
	require.Equal(t, "e3", byRange[1].EventID)
}

func TestLedgerEventStore_DuplicateEventID(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewLedgerEventStore(conn)
	ctx := context.Background()

	e := &domain.LedgerEvent{
		EventID:   "e1",
		Kind:      domain.EventDeposit,
		Principal: "alice",
		Asset:     domain.NativeAsset,
		Timestamp: 1000,
	}

	require.NoError(t, store.Insert(ctx, e))

	err := store.Insert(ctx, e)
	require.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestLedgerEventStore_InvalidInput(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewLedgerEventStore(conn)
	ctx := context.Background()

	require.ErrorIs(t, store.Insert(ctx, nil), storage.ErrInvalidInput)
	require.ErrorIs(t, store.Insert(ctx, &domain.LedgerEvent{}), storage.ErrInvalidInput)
}
