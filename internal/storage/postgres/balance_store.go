package postgres

import (
	"context"
	"fmt"
	"math"

	"github.com/jackc/pgx/v5"

	"custody-ledger/internal/domain"
	"custody-ledger/internal/storage"
)

// BalanceStore implements storage.BalanceStore using PostgreSQL.
type BalanceStore struct {
	pool *Pool
}

// NewBalanceStore creates a new BalanceStore.
func NewBalanceStore(pool *Pool) *BalanceStore {
	return &BalanceStore{pool: pool}
}

// Compile-time interface check.
var _ storage.BalanceStore = (*BalanceStore)(nil)

// Get retrieves the balance record for (principal, asset).
// Returns ErrNotFound if no record exists.
func (s *BalanceStore) Get(ctx context.Context, principal domain.Principal, asset domain.AssetID) (*domain.BalanceRecord, error) {
	query := `
		SELECT principal, asset, amount, updated_at
		FROM balances
		WHERE principal = $1 AND asset = $2
	`

	row := s.pool.QueryRow(ctx, query, string(principal), string(asset))
	rec, err := scanBalance(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get balance: %w", err)
	}
	return rec, nil
}

// Upsert creates or replaces the balance record for (principal, asset).
func (s *BalanceStore) Upsert(ctx context.Context, rec *domain.BalanceRecord) error {
	if rec == nil || rec.Principal == "" || rec.Asset == "" {
		return storage.ErrInvalidInput
	}
	// amount lives in a BIGINT column; anything past its range would
	// flip sign and trip the non-negative check constraint.
	if rec.Amount > math.MaxInt64 {
		return fmt.Errorf("%w: amount %d exceeds storable range", storage.ErrInvalidInput, rec.Amount)
	}

	query := `
		INSERT INTO balances (principal, asset, amount, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (principal, asset)
		DO UPDATE SET amount = EXCLUDED.amount, updated_at = EXCLUDED.updated_at
	`

	_, err := s.pool.Exec(ctx, query,
		string(rec.Principal),
		string(rec.Asset),
		int64(rec.Amount),
		rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert balance: %w", err)
	}
	return nil
}

// ListByPrincipal retrieves all balance records for a principal,
// ordered by asset ID ASC.
func (s *BalanceStore) ListByPrincipal(ctx context.Context, principal domain.Principal) ([]*domain.BalanceRecord, error) {
	query := `
		SELECT principal, asset, amount, updated_at
		FROM balances
		WHERE principal = $1
		ORDER BY asset ASC
	`

	rows, err := s.pool.Query(ctx, query, string(principal))
	if err != nil {
		return nil, fmt.Errorf("list balances: %w", err)
	}
	defer rows.Close()

	var result []*domain.BalanceRecord
	for rows.Next() {
		rec, err := scanBalance(rows)
		if err != nil {
			return nil, fmt.Errorf("scan balance: %w", err)
		}
		result = append(result, rec)
	}
	return result, rows.Err()
}

// scanBalance scans a single row into a BalanceRecord.
func scanBalance(row pgx.Row) (*domain.BalanceRecord, error) {
	var rec domain.BalanceRecord
	var amount int64

	err := row.Scan(&rec.Principal, &rec.Asset, &amount, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}

	rec.Amount = uint64(amount)
	return &rec, nil
}
