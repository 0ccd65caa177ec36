package storage

import (
	"context"

	"custody-ledger/internal/domain"
)

// BalanceStore provides access to per-(principal, asset) balance records.
// Records are never deleted; zero balances remain in place.
type BalanceStore interface {
	// Get retrieves the balance record for (principal, asset).
	// Returns ErrNotFound if no record exists (balance is zero).
	Get(ctx context.Context, principal domain.Principal, asset domain.AssetID) (*domain.BalanceRecord, error)

	// Upsert creates or replaces the balance record for (principal, asset).
	Upsert(ctx context.Context, rec *domain.BalanceRecord) error

	// ListByPrincipal retrieves all balance records for a principal,
	// ordered by asset ID ASC.
	ListByPrincipal(ctx context.Context, principal domain.Principal) ([]*domain.BalanceRecord, error)
}

// AssetStore provides access to the asset registry table. Registry
// mutation is the only write path; all other components read through it.
type AssetStore interface {
	// Put creates or replaces the registry entry for info.Asset.
	Put(ctx context.Context, info *domain.AssetInfo) error

	// Get retrieves the registry entry for an asset, supported or not.
	// Returns ErrNotFound if the asset was never registered.
	Get(ctx context.Context, asset domain.AssetID) (*domain.AssetInfo, error)

	// SetSupported flips the supported flag on an existing entry.
	// Returns ErrNotFound if the asset was never registered.
	SetSupported(ctx context.Context, asset domain.AssetID, supported bool) error

	// List retrieves all registry entries, ordered by asset ID ASC.
	List(ctx context.Context) ([]*domain.AssetInfo, error)
}

// BankStateStore persists the bank-wide accumulators (deposit/withdrawal
// counters and the canonical running total) across restarts.
type BankStateStore interface {
	// Load retrieves the current bank state. A fresh store returns the
	// zero state, not ErrNotFound.
	Load(ctx context.Context) (*domain.BankState, error)

	// Save replaces the bank state.
	Save(ctx context.Context, state *domain.BankState) error
}

// LedgerEventStore provides access to the append-only ledger event log.
type LedgerEventStore interface {
	// Insert adds a new event. Returns ErrDuplicateKey if event_id exists.
	Insert(ctx context.Context, e *domain.LedgerEvent) error

	// GetByPrincipal retrieves all events for a principal, ordered by
	// timestamp ASC.
	GetByPrincipal(ctx context.Context, principal domain.Principal) ([]*domain.LedgerEvent, error)

	// GetByTimeRange retrieves events within [start, end] (inclusive),
	// ordered by timestamp ASC.
	GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.LedgerEvent, error)
}
