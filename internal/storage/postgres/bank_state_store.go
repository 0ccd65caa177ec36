package postgres

import (
	"context"
	"fmt"

	"custody-ledger/internal/domain"
	"custody-ledger/internal/storage"
)

// BankStateStore implements storage.BankStateStore using PostgreSQL.
// The state is a single row keyed by a fixed ID.
type BankStateStore struct {
	pool *Pool
}

// NewBankStateStore creates a new BankStateStore.
func NewBankStateStore(pool *Pool) *BankStateStore {
	return &BankStateStore{pool: pool}
}

// Compile-time interface check.
var _ storage.BankStateStore = (*BankStateStore)(nil)

// Load retrieves the current bank state. A fresh store returns the zero state.
func (s *BankStateStore) Load(ctx context.Context) (*domain.BankState, error) {
	query := `
		SELECT deposits_count, withdrawals_count, total_deposited_usd
		FROM bank_state
		WHERE id = 1
	`

	var state domain.BankState
	var deposits, withdrawals, total int64

	err := s.pool.QueryRow(ctx, query).Scan(&deposits, &withdrawals, &total)
	if err != nil {
		if isNotFoundError(err) {
			return &domain.BankState{}, nil
		}
		return nil, fmt.Errorf("load bank state: %w", err)
	}

	state.DepositsCount = uint64(deposits)
	state.WithdrawalsCount = uint64(withdrawals)
	state.TotalDepositedUSD = domain.USDAmount(total)
	return &state, nil
}

// Save replaces the bank state.
func (s *BankStateStore) Save(ctx context.Context, state *domain.BankState) error {
	if state == nil {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO bank_state (id, deposits_count, withdrawals_count, total_deposited_usd)
		VALUES (1, $1, $2, $3)
		ON CONFLICT (id)
		DO UPDATE SET
			deposits_count = EXCLUDED.deposits_count,
			withdrawals_count = EXCLUDED.withdrawals_count,
			total_deposited_usd = EXCLUDED.total_deposited_usd
	`

	_, err := s.pool.Exec(ctx, query,
		int64(state.DepositsCount),
		int64(state.WithdrawalsCount),
		int64(state.TotalDepositedUSD),
	)
	if err != nil {
		return fmt.Errorf("save bank state: %w", err)
	}
	return nil
}
