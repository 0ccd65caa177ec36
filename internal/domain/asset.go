package domain

import (
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// AssetID is a base58-encoded 32-byte asset identifier.
type AssetID string

// Principal is a base58-encoded 32-byte account address.
type Principal string

// NativeAsset is the placeholder identifier for the chain's native currency
// (the all-zero key). It is installed in the registry at construction and
// can never be removed.
const NativeAsset AssetID = "11111111111111111111111111111111"

// NativeDecimals is the native currency's precision (lamport-style, 1e9).
const NativeDecimals uint8 = 9

// AssetInfo describes a registered asset and how to price it.
type AssetInfo struct {
	Asset     AssetID // asset identifier
	PriceFeed string  // price source reference consumed by the oracle
	Decimals  uint8   // native precision of the asset
	Supported bool    // cleared by registry removal; balances stay frozen
	AddedAt   int64   // Unix timestamp in milliseconds
}

// IsNative reports whether id is the native currency placeholder.
func (id AssetID) IsNative() bool {
	return id == NativeAsset
}

// decode32 decodes a base58 string and requires exactly 32 bytes.
func decode32(s string) ([]byte, error) {
	raw, err := base58.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("decode base58: %w", err)
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("expected 32 bytes, got %d", len(raw))
	}
	return raw, nil
}

// Validate checks that the asset ID is a well-formed 32-byte base58 key.
func (id AssetID) Validate() error {
	if _, err := decode32(string(id)); err != nil {
		return fmt.Errorf("invalid asset id %q: %w", id, err)
	}
	return nil
}

// Validate checks that the principal is a well-formed 32-byte base58 key
// lying on the ed25519 curve. Off-curve keys are program-derived and cannot
// sign, so they are rejected as custodial principals.
func (p Principal) Validate() error {
	raw, err := decode32(string(p))
	if err != nil {
		return fmt.Errorf("invalid principal %q: %w", p, err)
	}
	if _, err := new(edwards25519.Point).SetBytes(raw); err != nil {
		return fmt.Errorf("invalid principal %q: off-curve key", p)
	}
	return nil
}
