package oracle

import (
	"context"
	"errors"
	"testing"
	"time"

	"custody-ledger/internal/domain"
)

const testFeed = "feed/sol-usd"

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestAdapterCurrentPrice(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)

	source := NewStaticSource()
	source.Set(testFeed, domain.PriceReading{
		Price:      150_00000000,
		Decimals:   8,
		ObservedAt: now.Add(-5 * time.Minute).UnixMilli(),
	})

	adapter := NewAdapterWithClock(source, fixedClock(now))

	reading, err := adapter.CurrentPrice(context.Background(), testFeed)
	if err != nil {
		t.Fatalf("CurrentPrice failed: %v", err)
	}
	if reading.Price != 150_00000000 {
		t.Errorf("expected price 15000000000, got %d", reading.Price)
	}
	if reading.Decimals != 8 {
		t.Errorf("expected decimals 8, got %d", reading.Decimals)
	}
}

func TestAdapterRejectsNonPositivePrice(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)

	tests := []struct {
		name  string
		price int64
	}{
		{"zero", 0},
		{"negative", -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := NewStaticSource()
			source.Set(testFeed, domain.PriceReading{
				Price:      tt.price,
				Decimals:   8,
				ObservedAt: now.UnixMilli(),
			})

			adapter := NewAdapterWithClock(source, fixedClock(now))

			_, err := adapter.CurrentPrice(context.Background(), testFeed)
			if !errors.Is(err, domain.ErrInvalidPrice) {
				t.Errorf("expected ErrInvalidPrice, got %v", err)
			}
		})
	}
}

func TestAdapterRejectsStaleReading(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)

	source := NewStaticSource()
	source.Set(testFeed, domain.PriceReading{
		Price:      150_00000000,
		Decimals:   8,
		ObservedAt: now.Add(-MaxPriceAge - time.Minute).UnixMilli(),
	})

	adapter := NewAdapterWithClock(source, fixedClock(now))

	_, err := adapter.CurrentPrice(context.Background(), testFeed)
	if !errors.Is(err, domain.ErrStalePrice) {
		t.Fatalf("expected ErrStalePrice, got %v", err)
	}

	var stale *domain.StalePriceError
	if !errors.As(err, &stale) {
		t.Fatalf("expected StalePriceError, got %T", err)
	}
	if stale.Window != MaxPriceAge {
		t.Errorf("expected window %v, got %v", MaxPriceAge, stale.Window)
	}
}

func TestAdapterAcceptsReadingAtWindowBoundary(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)

	source := NewStaticSource()
	source.Set(testFeed, domain.PriceReading{
		Price:      1_00000000,
		Decimals:   8,
		ObservedAt: now.Add(-MaxPriceAge).UnixMilli(),
	})

	adapter := NewAdapterWithClock(source, fixedClock(now))

	if _, err := adapter.CurrentPrice(context.Background(), testFeed); err != nil {
		t.Fatalf("reading exactly at max age should be accepted, got %v", err)
	}
}

func TestAdapterUnknownFeed(t *testing.T) {
	adapter := NewAdapterWithClock(NewStaticSource(), fixedClock(time.Now()))

	_, err := adapter.CurrentPrice(context.Background(), "feed/unknown")
	if !errors.Is(err, domain.ErrInvalidPrice) {
		t.Errorf("expected ErrInvalidPrice for unknown feed, got %v", err)
	}
}

func TestStaticSourceReturnsCopy(t *testing.T) {
	source := NewStaticSource()
	source.Set(testFeed, domain.PriceReading{Price: 100, Decimals: 8, ObservedAt: 1})

	first, err := source.LatestReading(context.Background(), testFeed)
	if err != nil {
		t.Fatalf("LatestReading failed: %v", err)
	}
	first.Price = 999

	second, err := source.LatestReading(context.Background(), testFeed)
	if err != nil {
		t.Fatalf("LatestReading failed: %v", err)
	}
	if second.Price != 100 {
		t.Errorf("stored reading mutated through returned pointer: %d", second.Price)
	}
}
