package domain

import (
	"errors"
	"fmt"
	"time"
)

// Failure sentinels for the ledger, registry and oracle. All failures are
// local, synchronous and non-retriable: a rejected request leaves state
// unchanged. Structured variants below carry requested-vs-available data
// and match their sentinel under errors.Is.
var (
	// ErrInvalidAmount is returned for zero-amount requests.
	ErrInvalidAmount = errors.New("amount must be greater than zero")

	// ErrNotSupported is returned when an asset is not in the registry.
	ErrNotSupported = errors.New("asset is not supported")

	// ErrAlreadySupported is returned when adding an asset already present.
	ErrAlreadySupported = errors.New("asset is already supported")

	// ErrCannotRemoveNative is returned for removal attempts against the
	// native currency placeholder, for any caller.
	ErrCannotRemoveNative = errors.New("native asset cannot be removed")

	// ErrInvalidPrice is returned when a price source reports a
	// non-positive or malformed reading.
	ErrInvalidPrice = errors.New("price source returned an invalid reading")

	// ErrStalePrice is returned when a reading is older than the
	// freshness window.
	ErrStalePrice = errors.New("price reading is stale")

	// ErrInsufficientBalance is returned when a withdrawal exceeds the
	// caller's balance.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrExceedsBankCap is returned when a deposit would push the total
	// above the bank-wide capacity cap.
	ErrExceedsBankCap = errors.New("deposit exceeds bank cap")

	// ErrExceedsWithdrawalLimit is returned when a withdrawal's canonical
	// value exceeds the per-transaction limit.
	ErrExceedsWithdrawalLimit = errors.New("withdrawal exceeds per-transaction limit")

	// ErrTransferFailed is returned when the external transfer collaborator
	// reports a fault. The prior balance effect is compensated before this
	// error is surfaced.
	ErrTransferFailed = errors.New("external transfer failed")

	// ErrNotAuthorized is returned when a registry mutation is attempted
	// by anyone other than the administrator.
	ErrNotAuthorized = errors.New("caller is not the administrator")

	// ErrValueOverflow is returned when a canonical value does not fit the
	// accounting unit's width.
	ErrValueOverflow = errors.New("canonical value overflows accounting unit")
)

// StalePriceError reports a reading older than the freshness window.
type StalePriceError struct {
	Age    time.Duration
	Window time.Duration
}

func (e *StalePriceError) Error() string {
	return fmt.Sprintf("price reading is stale: age %v exceeds window %v", e.Age, e.Window)
}

// Is matches ErrStalePrice.
func (e *StalePriceError) Is(target error) bool { return target == ErrStalePrice }

// InsufficientBalanceError reports a withdrawal exceeding the available
// balance, both in the asset's native precision.
type InsufficientBalanceError struct {
	Requested uint64
	Available uint64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: requested %d, available %d", e.Requested, e.Available)
}

// Is matches ErrInsufficientBalance.
func (e *InsufficientBalanceError) Is(target error) bool { return target == ErrInsufficientBalance }

// BankCapError reports a deposit that would exceed the bank cap, in
// canonical units.
type BankCapError struct {
	Requested      USDAmount
	AvailableSpace USDAmount
}

func (e *BankCapError) Error() string {
	return fmt.Sprintf("deposit exceeds bank cap: requested %s, available space %s",
		e.Requested, e.AvailableSpace)
}

// Is matches ErrExceedsBankCap.
func (e *BankCapError) Is(target error) bool { return target == ErrExceedsBankCap }

// WithdrawalLimitError reports a withdrawal above the per-transaction
// limit, in canonical units.
type WithdrawalLimitError struct {
	Requested USDAmount
	Limit     USDAmount
}

func (e *WithdrawalLimitError) Error() string {
	return fmt.Sprintf("withdrawal exceeds limit: requested %s, limit %s", e.Requested, e.Limit)
}

// Is matches ErrExceedsWithdrawalLimit.
func (e *WithdrawalLimitError) Is(target error) bool { return target == ErrExceedsWithdrawalLimit }
