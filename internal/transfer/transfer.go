// Package transfer moves asset custody between the bank and external
// principals. The ledger calls it only after its own state is written.
package transfer

import (
	"context"

	"custody-ledger/internal/domain"
)

// Executor performs custody movements against the settlement rail.
// Pull draws assets from a principal into bank custody during deposit.
// Send releases assets from bank custody to a principal during withdrawal.
type Executor interface {
	Pull(ctx context.Context, from domain.Principal, asset domain.AssetID, amount uint64) error
	Send(ctx context.Context, to domain.Principal, asset domain.AssetID, amount uint64) error
}
