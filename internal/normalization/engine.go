// Package normalization converts native asset amounts into canonical
// USD values using registry metadata and oracle prices.
package normalization

import (
	"context"

	"custody-ledger/internal/domain"
)

// Engine defines the main normalization interface.
type Engine interface {
	// USDValue converts a native amount of an asset into canonical USD.
	USDValue(ctx context.Context, asset domain.AssetID, amount uint64) (domain.USDAmount, error)
}

// InfoSource resolves registry metadata for an asset.
type InfoSource interface {
	Info(ctx context.Context, asset domain.AssetID) (*domain.AssetInfo, error)
}

// PriceSource returns a validated price reading for a feed reference.
type PriceSource interface {
	CurrentPrice(ctx context.Context, feedRef string) (*domain.PriceReading, error)
}
