package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"custody-ledger/internal/domain"
	"custody-ledger/internal/storage"
)

func TestBankStateStore_FreshStoreReturnsZeroState(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewBankStateStore(pool)
	ctx := context.Background()

	state, err := store.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, &domain.BankState{}, state)
}

func TestBankStateStore_SaveAndLoad(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewBankStateStore(pool)
	ctx := context.Background()

	state := &domain.BankState{
		DepositsCount:     3,
		WithdrawalsCount:  1,
		TotalDepositedUSD: domain.USD(36_000),
	}

	require.NoError(t, store.Save(ctx, state))

	result, err := store.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, state, result)

	// Save again to exercise the upsert path
	state.DepositsCount = 4
	require.NoError(t, store.Save(ctx, state))

	result, err = store.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(4), result.DepositsCount)
}

func TestBankStateStore_NilState(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewBankStateStore(pool)
	ctx := context.Background()

	require.ErrorIs(t, store.Save(ctx, nil), storage.ErrInvalidInput)
}
