package domain

// LedgerEvent is an append-only notification emitted after every committed
// ledger or registry transition.
type LedgerEvent struct {
	EventID      string // deterministic hash, see internal/idhash
	Kind         string // event kind constant
	Principal    Principal
	Asset        AssetID
	NativeAmount uint64    // native precision; zero for registry events
	USDValue     USDAmount // canonical value; zero for registry events
	BalanceAfter uint64    // principal's balance in Asset after the transition
	Timestamp    int64     // Unix timestamp in milliseconds
}

// Event kind constants.
const (
	EventDeposit      = "deposit"
	EventWithdrawal   = "withdrawal"
	EventAssetAdded   = "asset_added"
	EventAssetRemoved = "asset_removed"
)
