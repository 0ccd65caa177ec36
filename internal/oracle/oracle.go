// Package oracle fetches current prices for registered assets and
// validates them before the ledger normalizes against them.
package oracle

import (
	"context"
	"fmt"
	"time"

	"custody-ledger/internal/domain"
)

// MaxPriceAge is the freshness window for price readings. It is a policy
// constant, not per-call configuration: every asset lives under the same
// staleness rule.
const MaxPriceAge = time.Hour

// Source fetches the most recent reading for a price feed reference.
// Implementations must be side-effect free and callable any number of
// times per ledger transition.
type Source interface {
	LatestReading(ctx context.Context, feedRef string) (*domain.PriceReading, error)
}

// Adapter validates raw source readings for ledger use.
type Adapter struct {
	source Source
	now    func() time.Time
}

// NewAdapter creates an adapter over the given source.
func NewAdapter(source Source) *Adapter {
	return &Adapter{
		source: source,
		now:    time.Now,
	}
}

// NewAdapterWithClock creates an adapter with an injected clock, for tests.
func NewAdapterWithClock(source Source, now func() time.Time) *Adapter {
	return &Adapter{source: source, now: now}
}

// CurrentPrice returns a validated reading for the feed.
// Returns ErrInvalidPrice for non-positive or malformed readings and
// ErrStalePrice for readings older than MaxPriceAge.
func (a *Adapter) CurrentPrice(ctx context.Context, feedRef string) (*domain.PriceReading, error) {
	reading, err := a.source.LatestReading(ctx, feedRef)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidPrice, err)
	}
	if reading == nil || reading.Price <= 0 {
		return nil, domain.ErrInvalidPrice
	}

	age := a.now().Sub(time.UnixMilli(reading.ObservedAt))
	if age > MaxPriceAge {
		return nil, &domain.StalePriceError{Age: age, Window: MaxPriceAge}
	}

	copy := *reading
	return &copy, nil
}
