package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"custody-ledger/internal/domain"
)

// ComputeEventID computes a deterministic event_id using SHA256.
// Formula: SHA256(kind|principal|asset|native_amount|sequence)
// Returns hex-encoded hash (64 characters).
//
// The sequence is the bank-wide operation counter after the transition,
// which makes repeated identical operations produce distinct IDs while a
// replay of the same committed operation produces the same one.
func ComputeEventID(
	kind string,
	principal domain.Principal,
	asset domain.AssetID,
	nativeAmount uint64,
	sequence uint64,
) string {
	data := fmt.Sprintf("%s|%s|%s|%d|%d",
		kind,
		principal,
		asset,
		nativeAmount,
		sequence,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
