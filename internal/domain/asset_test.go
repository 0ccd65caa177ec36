package domain

import (
	"encoding/hex"
	"errors"
	"testing"

	"github.com/mr-tron/base58"
)

func TestNativeAsset_IsNative(t *testing.T) {
	if !NativeAsset.IsNative() {
		t.Error("NativeAsset should report IsNative")
	}

	if AssetID("So11111111111111111111111111111111111111112").IsNative() {
		t.Error("wrapped-native mint should not report IsNative")
	}
}

func TestAssetID_Validate(t *testing.T) {
	if err := NativeAsset.Validate(); err != nil {
		t.Errorf("native placeholder should validate: %v", err)
	}

	cases := []struct {
		name string
		id   AssetID
	}{
		{"empty", AssetID("")},
		{"bad characters", AssetID("0OIl+/=")},
		{"too short", AssetID("abc")},
	}

	for _, tc := range cases {
		if err := tc.id.Validate(); err == nil {
			t.Errorf("%s: expected validation error for %q", tc.name, tc.id)
		}
	}
}

func TestPrincipal_Validate_OnCurve(t *testing.T) {
	// Canonical encoding of the ed25519 base point, guaranteed on-curve.
	raw, err := hex.DecodeString("5866666666666666666666666666666666666666666666666666666666666666")
	if err != nil {
		t.Fatalf("decode hex: %v", err)
	}

	p := Principal(base58.Encode(raw))
	if err := p.Validate(); err != nil {
		t.Errorf("on-curve principal should validate: %v", err)
	}
}

func TestPrincipal_Validate_Malformed(t *testing.T) {
	if err := Principal("not-base58!").Validate(); err == nil {
		t.Error("expected error for malformed principal")
	}

	if err := Principal("abc").Validate(); err == nil {
		t.Error("expected error for short principal")
	}
}

func TestUSDAmount_String(t *testing.T) {
	cases := []struct {
		amount USDAmount
		want   string
	}{
		{USD(40_000), "40000.000000"},
		{USDAmount(5_000_000000), "5000.000000"},
		{USDAmount(1_500000), "1.500000"},
		{USDAmount(42), "0.000042"},
		{USDAmount(0), "0.000000"},
	}

	for _, tc := range cases {
		if got := tc.amount.String(); got != tc.want {
			t.Errorf("String(%d): got %s, want %s", uint64(tc.amount), got, tc.want)
		}
	}
}

func TestStructuredErrors_MatchSentinels(t *testing.T) {
	cases := []struct {
		err      error
		sentinel error
	}{
		{&InsufficientBalanceError{Requested: 10, Available: 5}, ErrInsufficientBalance},
		{&BankCapError{Requested: USD(15_000), AvailableSpace: USD(10_000)}, ErrExceedsBankCap},
		{&WithdrawalLimitError{Requested: USD(6_000), Limit: USD(5_000)}, ErrExceedsWithdrawalLimit},
		{&StalePriceError{}, ErrStalePrice},
	}

	for _, tc := range cases {
		if !errors.Is(tc.err, tc.sentinel) {
			t.Errorf("%T should match its sentinel", tc.err)
		}
	}
}

func TestBankCapError_ReportsAvailableSpace(t *testing.T) {
	err := &BankCapError{Requested: USD(15_000), AvailableSpace: USD(10_000)}

	want := "deposit exceeds bank cap: requested 15000.000000, available space 10000.000000"
	if err.Error() != want {
		t.Errorf("message mismatch:\n got %s\nwant %s", err.Error(), want)
	}
}
