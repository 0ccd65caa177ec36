package normalization

import (
	"context"
	"fmt"
	"math/big"

	"custody-ledger/internal/domain"
)

// Converter implements Engine over a registry and a price source.
type Converter struct {
	assets InfoSource
	prices PriceSource
}

var _ Engine = (*Converter)(nil)

// NewConverter creates a new converter.
func NewConverter(assets InfoSource, prices PriceSource) *Converter {
	return &Converter{
		assets: assets,
		prices: prices,
	}
}

// USDValue converts a native amount into canonical USD.
//
//	usd = floor(amount * price * 10^CanonicalDecimals / 10^(assetDecimals + priceDecimals))
//
// Intermediate math runs on big.Int so no asset/price decimal combination
// can overflow before the final floor.
func (c *Converter) USDValue(ctx context.Context, asset domain.AssetID, amount uint64) (domain.USDAmount, error) {
	info, err := c.assets.Info(ctx, asset)
	if err != nil {
		return 0, err
	}

	reading, err := c.prices.CurrentPrice(ctx, info.PriceFeed)
	if err != nil {
		return 0, err
	}

	value := convert(amount, info.Decimals, reading)
	if !value.IsUint64() {
		return 0, fmt.Errorf("%w: %s exceeds representable USD", domain.ErrValueOverflow, value.String())
	}
	return domain.USDAmount(value.Uint64()), nil
}

// convert computes the floored canonical USD value as a big integer.
func convert(amount uint64, assetDecimals uint8, reading *domain.PriceReading) *big.Int {
	numerator := new(big.Int).SetUint64(amount)
	numerator.Mul(numerator, big.NewInt(reading.Price))
	numerator.Mul(numerator, pow10(int(domain.CanonicalDecimals)))

	denominator := pow10(int(assetDecimals) + int(reading.Decimals))

	return numerator.Quo(numerator, denominator)
}

func pow10(exp int) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(exp)), nil)
}
