package domain

// BalanceRecord holds one account's balance in one asset, in the asset's
// native precision. Absent records imply zero. Records are mutated only by
// ledger deposit/withdraw transitions and are never deleted; they may rest
// at zero.
type BalanceRecord struct {
	Principal Principal
	Asset     AssetID
	Amount    uint64 // native precision of the asset
	UpdatedAt int64  // Unix timestamp in milliseconds
}

// BankStats is the bank-wide counter snapshot returned by the query surface.
type BankStats struct {
	DepositsCount     uint64
	WithdrawalsCount  uint64
	TotalDepositedUSD USDAmount
	RemainingCapacity USDAmount // bank cap minus total deposited
}

// BankState is the durable bank-wide accumulator set. Counters increase
// exactly once per committed operation.
type BankState struct {
	DepositsCount     uint64
	WithdrawalsCount  uint64
	TotalDepositedUSD USDAmount
}
