package domain

import "fmt"

// CanonicalDecimals is the fixed precision of the canonical accounting unit.
// Six decimals match common stable-asset precision.
const CanonicalDecimals uint8 = 6

// USDAmount is a fixed-point value in the canonical accounting unit
// (6 decimals). It is unsigned by construction: underflow must be rejected
// by the caller, never wrapped.
type USDAmount uint64

// String renders the amount as a decimal dollar value, e.g. "40000.000000".
func (a USDAmount) String() string {
	return fmt.Sprintf("%d.%06d", uint64(a)/1_000_000, uint64(a)%1_000_000)
}

// USD builds a USDAmount from whole dollars.
func USD(dollars uint64) USDAmount {
	return USDAmount(dollars * 1_000_000)
}
