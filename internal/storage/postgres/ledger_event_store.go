package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"custody-ledger/internal/domain"
	"custody-ledger/internal/storage"
)

// LedgerEventStore implements storage.LedgerEventStore using PostgreSQL.
type LedgerEventStore struct {
	pool *Pool
}

// NewLedgerEventStore creates a new LedgerEventStore.
func NewLedgerEventStore(pool *Pool) *LedgerEventStore {
	return &LedgerEventStore{pool: pool}
}

// Compile-time interface check.
var _ storage.LedgerEventStore = (*LedgerEventStore)(nil)

// Insert adds a new event. Returns ErrDuplicateKey if event_id exists.
func (s *LedgerEventStore) Insert(ctx context.Context, e *domain.LedgerEvent) error {
	if e == nil || e.EventID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO ledger_events (
			event_id, kind, principal, asset, native_amount, usd_value,
			balance_after, ts
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := s.pool.Exec(ctx, query,
		e.EventID,
		e.Kind,
		string(e.Principal),
		string(e.Asset),
		int64(e.NativeAmount),
		int64(e.USDValue),
		int64(e.BalanceAfter),
		e.Timestamp,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert ledger event: %w", err)
	}
	return nil
}

// GetByPrincipal retrieves all events for a principal, ordered by timestamp ASC.
func (s *LedgerEventStore) GetByPrincipal(ctx context.Context, principal domain.Principal) ([]*domain.LedgerEvent, error) {
	query := `
		SELECT event_id, kind, principal, asset, native_amount, usd_value,
		       balance_after, ts
		FROM ledger_events
		WHERE principal = $1
		ORDER BY ts ASC, event_id ASC
	`

	rows, err := s.pool.Query(ctx, query, string(principal))
	if err != nil {
		return nil, fmt.Errorf("query events by principal: %w", err)
	}
	defer rows.Close()

	return collectEvents(rows)
}

// GetByTimeRange retrieves events within [start, end] (inclusive),
// ordered by timestamp ASC.
func (s *LedgerEventStore) GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.LedgerEvent, error) {
	query := `
		SELECT event_id, kind, principal, asset, native_amount, usd_value,
		       balance_after, ts
		FROM ledger_events
		WHERE ts >= $1 AND ts <= $2
		ORDER BY ts ASC, event_id ASC
	`

	rows, err := s.pool.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("query events by time range: %w", err)
	}
	defer rows.Close()

	return collectEvents(rows)
}

// collectEvents scans all rows into LedgerEvents.
func collectEvents(rows pgx.Rows) ([]*domain.LedgerEvent, error) {
	var result []*domain.LedgerEvent
	for rows.Next() {
		var e domain.LedgerEvent
		var native, usd, after int64

		err := rows.Scan(&e.EventID, &e.Kind, &e.Principal, &e.Asset,
			&native, &usd, &after, &e.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("scan ledger event: %w", err)
		}

		e.NativeAmount = uint64(native)
		e.USDValue = domain.USDAmount(usd)
		e.BalanceAfter = uint64(after)
		result = append(result, &e)
	}
	return result, rows.Err()
}
