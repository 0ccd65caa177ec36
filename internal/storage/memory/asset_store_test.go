package memory

import (
	"context"
	"errors"
	"testing"

	"custody-ledger/internal/domain"
	"custody-ledger/internal/storage"
)

func TestAssetStore_PutAndGet(t *testing.T) {
	store := NewAssetStore()
	ctx := context.Background()

	info := &domain.AssetInfo{
		Asset:     "tok1",
		PriceFeed: "feed/tok1-usd",
		Decimals:  9,
		Supported: true,
		AddedAt:   1704067200000,
	}

	if err := store.Put(ctx, info); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	result, err := store.Get(ctx, "tok1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if result.PriceFeed != "feed/tok1-usd" {
		t.Errorf("PriceFeed mismatch: got %s, want feed/tok1-usd", result.PriceFeed)
	}
	if result.Decimals != 9 {
		t.Errorf("Decimals mismatch: got %d, want 9", result.Decimals)
	}
}

func TestAssetStore_SetSupported(t *testing.T) {
	store := NewAssetStore()
	ctx := context.Background()

	info := &domain.AssetInfo{Asset: "tok1", Decimals: 6, Supported: true}
	if err := store.Put(ctx, info); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	if err := store.SetSupported(ctx, "tok1", false); err != nil {
		t.Fatalf("SetSupported failed: %v", err)
	}

	result, err := store.Get(ctx, "tok1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if result.Supported {
		t.Error("Supported flag should be cleared")
	}
}

func TestAssetStore_SetSupported_NotFound(t *testing.T) {
	store := NewAssetStore()
	ctx := context.Background()

	err := store.SetSupported(ctx, "unknown", false)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestAssetStore_List(t *testing.T) {
	store := NewAssetStore()
	ctx := context.Background()

	for _, id := range []domain.AssetID{"tokC", "tokA", "tokB"} {
		if err := store.Put(ctx, &domain.AssetInfo{Asset: id, Supported: true}); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}

	result, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	if len(result) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(result))
	}
	if result[0].Asset != "tokA" || result[2].Asset != "tokC" {
		t.Errorf("Expected asset-ordered entries, got %v", result)
	}
}

func TestAssetStore_NotFound(t *testing.T) {
	store := NewAssetStore()
	ctx := context.Background()

	_, err := store.Get(ctx, "unknown")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestAssetStore_ReturnsCopy(t *testing.T) {
	store := NewAssetStore()
	ctx := context.Background()

	info := &domain.AssetInfo{Asset: "tok1", Decimals: 9, Supported: true}
	if err := store.Put(ctx, info); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	info.Decimals = 6

	result, _ := store.Get(ctx, "tok1")
	if result.Decimals != 9 {
		t.Error("Store should return copy, not reference")
	}
}
