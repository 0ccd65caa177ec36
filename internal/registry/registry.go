// Package registry manages the set of assets the bank accepts.
// Asset listing and delisting are admin operations; the rest of the
// system consults the registry before touching balances or prices.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"custody-ledger/internal/access"
	"custody-ledger/internal/domain"
	"custody-ledger/internal/idhash"
	"custody-ledger/internal/storage"
)

// PriceProber checks that a feed reference produces a usable reading
// before an asset is admitted.
type PriceProber interface {
	CurrentPrice(ctx context.Context, feedRef string) (*domain.PriceReading, error)
}

// FeedSubscriber opens a streaming subscription for a feed reference.
// Sources that poll on demand do not need one.
type FeedSubscriber interface {
	Subscribe(ctx context.Context, feedRef string) error
}

// Registry implements the admin-gated asset registry.
type Registry struct {
	assets storage.AssetStore
	events storage.LedgerEventStore
	prices PriceProber
	feeds  FeedSubscriber
	access *access.Controller
	logger *log.Logger

	// seq makes every audit event ID unique even when two registry
	// changes land in the same millisecond. Seeded from the wall clock
	// so restarts do not replay earlier sequence numbers.
	seq atomic.Uint64
}

// Options contains configuration for creating a Registry.
type Options struct {
	AssetStore storage.AssetStore
	EventStore storage.LedgerEventStore
	Prices     PriceProber
	// Feeds, when set, receives a subscription for every listed feed:
	// stored feeds at construction and new feeds at listing time.
	Feeds  FeedSubscriber
	Access *access.Controller
	// NativeFeed is the price feed reference installed for the native asset.
	NativeFeed string
	Logger     *log.Logger
}

// New creates a registry and installs the native asset entry if it is
// not already present. The native asset is always supported and can
// never be removed.
func New(ctx context.Context, opts Options) (*Registry, error) {
	r := &Registry{
		assets: opts.AssetStore,
		events: opts.EventStore,
		prices: opts.Prices,
		feeds:  opts.Feeds,
		access: opts.Access,
		logger: opts.Logger,
	}
	if r.logger == nil {
		r.logger = log.Default()
	}
	r.seq.Store(uint64(time.Now().UnixNano()))

	if err := r.ensureNative(ctx, opts.NativeFeed); err != nil {
		return nil, err
	}
	if err := r.subscribeStored(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

// subscribeStored opens streaming subscriptions for every supported
// asset already in the store, so prices flow again after a restart.
func (r *Registry) subscribeStored(ctx context.Context) error {
	if r.feeds == nil {
		return nil
	}
	all, err := r.assets.List(ctx)
	if err != nil {
		return fmt.Errorf("list assets: %w", err)
	}
	for _, info := range all {
		if !info.Supported {
			continue
		}
		if err := r.feeds.Subscribe(ctx, info.PriceFeed); err != nil {
			return fmt.Errorf("subscribe feed %s for %s: %w", info.PriceFeed, info.Asset, err)
		}
	}
	return nil
}

// ensureNative installs the native asset entry when the store is fresh.
func (r *Registry) ensureNative(ctx context.Context, nativeFeed string) error {
	_, err := r.assets.Get(ctx, domain.NativeAsset)
	if err == nil {
		return nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("check native asset: %w", err)
	}

	info := domain.AssetInfo{
		Asset:     domain.NativeAsset,
		PriceFeed: nativeFeed,
		Decimals:  domain.NativeDecimals,
		Supported: true,
		AddedAt:   time.Now().UnixMilli(),
	}
	if err := r.assets.Put(ctx, &info); err != nil {
		return fmt.Errorf("install native asset: %w", err)
	}
	return nil
}

// Add lists an asset for deposits and withdrawals. Admin only.
// The feed is probed before the asset is admitted so a misconfigured
// feed reference is caught at listing time, not at first deposit.
func (r *Registry) Add(ctx context.Context, caller domain.Principal, asset domain.AssetID, priceFeed string, decimals uint8) error {
	if err := r.access.Require(caller); err != nil {
		return err
	}
	if err := asset.Validate(); err != nil {
		return err
	}

	existing, err := r.assets.Get(ctx, asset)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("check asset %s: %w", asset, err)
	}
	if existing != nil && existing.Supported {
		return domain.ErrAlreadySupported
	}

	// Subscribe before probing so streaming sources have a reading in
	// their cache by the time the probe runs.
	if r.feeds != nil {
		if err := r.feeds.Subscribe(ctx, priceFeed); err != nil {
			return fmt.Errorf("subscribe feed %s: %w", priceFeed, err)
		}
	}
	if _, err := r.prices.CurrentPrice(ctx, priceFeed); err != nil {
		return fmt.Errorf("probe feed %s: %w", priceFeed, err)
	}

	info := domain.AssetInfo{
		Asset:     asset,
		PriceFeed: priceFeed,
		Decimals:  decimals,
		Supported: true,
		AddedAt:   time.Now().UnixMilli(),
	}
	if err := r.assets.Put(ctx, &info); err != nil {
		return fmt.Errorf("store asset %s: %w", asset, err)
	}

	r.recordEvent(ctx, domain.EventAssetAdded, caller, asset, info.AddedAt)
	r.logger.Printf("[registry] asset added: %s feed=%s decimals=%d", asset, priceFeed, decimals)
	return nil
}

// Remove delists an asset. Admin only. Balances in the asset survive
// delisting but cannot move until the asset is listed again.
func (r *Registry) Remove(ctx context.Context, caller domain.Principal, asset domain.AssetID) error {
	if err := r.access.Require(caller); err != nil {
		return err
	}
	if asset.IsNative() {
		return domain.ErrCannotRemoveNative
	}

	existing, err := r.assets.Get(ctx, asset)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.ErrNotSupported
		}
		return fmt.Errorf("check asset %s: %w", asset, err)
	}
	if !existing.Supported {
		return domain.ErrNotSupported
	}

	if err := r.assets.SetSupported(ctx, asset, false); err != nil {
		return fmt.Errorf("delist asset %s: %w", asset, err)
	}

	r.recordEvent(ctx, domain.EventAssetRemoved, caller, asset, time.Now().UnixMilli())
	r.logger.Printf("[registry] asset removed: %s", asset)
	return nil
}

// IsSupported reports whether the asset is currently accepted.
func (r *Registry) IsSupported(ctx context.Context, asset domain.AssetID) (bool, error) {
	info, err := r.assets.Get(ctx, asset)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return info.Supported, nil
}

// Info returns registry metadata for a supported asset.
// Returns ErrNotSupported for unknown or delisted assets.
func (r *Registry) Info(ctx context.Context, asset domain.AssetID) (*domain.AssetInfo, error) {
	info, err := r.assets.Get(ctx, asset)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, domain.ErrNotSupported
		}
		return nil, err
	}
	if !info.Supported {
		return nil, domain.ErrNotSupported
	}
	return info, nil
}

// List returns all assets ever listed, supported or not.
func (r *Registry) List(ctx context.Context) ([]*domain.AssetInfo, error) {
	return r.assets.List(ctx)
}

// Supported returns currently accepted assets.
func (r *Registry) Supported(ctx context.Context) ([]*domain.AssetInfo, error) {
	all, err := r.assets.List(ctx)
	if err != nil {
		return nil, err
	}
	supported := make([]*domain.AssetInfo, 0, len(all))
	for _, info := range all {
		if info.Supported {
			supported = append(supported, info)
		}
	}
	return supported, nil
}

// recordEvent writes a registry audit event. Event failures are logged,
// not returned: the registry change itself has already committed.
func (r *Registry) recordEvent(ctx context.Context, kind string, caller domain.Principal, asset domain.AssetID, ts int64) {
	if r.events == nil {
		return
	}
	event := domain.LedgerEvent{
		EventID:   idhash.ComputeEventID(kind, caller, asset, 0, r.seq.Add(1)),
		Kind:      kind,
		Principal: caller,
		Asset:     asset,
		Timestamp: ts,
	}
	if err := r.events.Insert(ctx, &event); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
		r.logger.Printf("[registry] record %s event for %s: %v", kind, asset, err)
	}
}
