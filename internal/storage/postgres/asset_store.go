package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"custody-ledger/internal/domain"
	"custody-ledger/internal/storage"
)

// AssetStore implements storage.AssetStore using PostgreSQL.
type AssetStore struct {
	pool *Pool
}

// NewAssetStore creates a new AssetStore.
func NewAssetStore(pool *Pool) *AssetStore {
	return &AssetStore{pool: pool}
}

// Compile-time interface check.
var _ storage.AssetStore = (*AssetStore)(nil)

// Put creates or replaces the registry entry for info.Asset.
func (s *AssetStore) Put(ctx context.Context, info *domain.AssetInfo) error {
	if info == nil || info.Asset == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO assets (asset, price_feed, decimals, supported, added_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (asset)
		DO UPDATE SET
			price_feed = EXCLUDED.price_feed,
			decimals = EXCLUDED.decimals,
			supported = EXCLUDED.supported,
			added_at = EXCLUDED.added_at
	`

	_, err := s.pool.Exec(ctx, query,
		string(info.Asset),
		info.PriceFeed,
		int16(info.Decimals),
		info.Supported,
		info.AddedAt,
	)
	if err != nil {
		return fmt.Errorf("put asset: %w", err)
	}
	return nil
}

// Get retrieves the registry entry for an asset, supported or not.
// Returns ErrNotFound if the asset was never registered.
func (s *AssetStore) Get(ctx context.Context, asset domain.AssetID) (*domain.AssetInfo, error) {
	query := `
		SELECT asset, price_feed, decimals, supported, added_at
		FROM assets
		WHERE asset = $1
	`

	row := s.pool.QueryRow(ctx, query, string(asset))
	info, err := scanAsset(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get asset: %w", err)
	}
	return info, nil
}

// SetSupported flips the supported flag on an existing entry.
// Returns ErrNotFound if the asset was never registered.
func (s *AssetStore) SetSupported(ctx context.Context, asset domain.AssetID, supported bool) error {
	tag, err := s.pool.Exec(ctx,
		"UPDATE assets SET supported = $2 WHERE asset = $1",
		string(asset), supported)
	if err != nil {
		return fmt.Errorf("set supported: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// List retrieves all registry entries, ordered by asset ID ASC.
func (s *AssetStore) List(ctx context.Context) ([]*domain.AssetInfo, error) {
	query := `
		SELECT asset, price_feed, decimals, supported, added_at
		FROM assets
		ORDER BY asset ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	defer rows.Close()

	var result []*domain.AssetInfo
	for rows.Next() {
		info, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("scan asset: %w", err)
		}
		result = append(result, info)
	}
	return result, rows.Err()
}

// scanAsset scans a single row into an AssetInfo.
func scanAsset(row pgx.Row) (*domain.AssetInfo, error) {
	var info domain.AssetInfo
	var decimals int16

	err := row.Scan(&info.Asset, &info.PriceFeed, &decimals, &info.Supported, &info.AddedAt)
	if err != nil {
		return nil, err
	}

	info.Decimals = uint8(decimals)
	return &info, nil
}
