package clickhouse

import (
	"context"
	"fmt"

	"custody-ledger/internal/domain"
	"custody-ledger/internal/storage"
)

// LedgerEventStore implements storage.LedgerEventStore using ClickHouse.
// Events are append-only analytics rows; ReplacingMergeTree on event_id
// keeps replays idempotent without uniqueness enforcement at insert time.
type LedgerEventStore struct {
	conn *Conn
}

// NewLedgerEventStore creates a new LedgerEventStore.
func NewLedgerEventStore(conn *Conn) *LedgerEventStore {
	return &LedgerEventStore{conn: conn}
}

// Compile-time interface check.
var _ storage.LedgerEventStore = (*LedgerEventStore)(nil)

// Insert adds a new event. Returns ErrDuplicateKey if event_id exists.
func (s *LedgerEventStore) Insert(ctx context.Context, e *domain.LedgerEvent) error {
	if e == nil || e.EventID == "" {
		return storage.ErrInvalidInput
	}

	exists, err := s.exists(ctx, e.EventID)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO ledger_events (
			event_id, kind, principal, asset, native_amount, usd_value,
			balance_after, ts
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	err = batch.Append(
		e.EventID, e.Kind, string(e.Principal), string(e.Asset),
		e.NativeAmount, uint64(e.USDValue), e.BalanceAfter, uint64(e.Timestamp),
	)
	if err != nil {
		return fmt.Errorf("append to batch: %w", err)
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByPrincipal retrieves all events for a principal, ordered by timestamp ASC.
func (s *LedgerEventStore) GetByPrincipal(ctx context.Context, principal domain.Principal) ([]*domain.LedgerEvent, error) {
	query := `
		SELECT event_id, kind, principal, asset, native_amount, usd_value,
		       balance_after, ts
		FROM ledger_events FINAL
		WHERE principal = ?
		ORDER BY ts ASC, event_id ASC
	`

	rows, err := s.conn.Query(ctx, query, string(principal))
	if err != nil {
		return nil, fmt.Errorf("query by principal: %w", err)
	}
	defer rows.Close()

	return scanLedgerEvents(rows)
}

// GetByTimeRange retrieves events within [start, end] (inclusive),
// ordered by timestamp ASC.
func (s *LedgerEventStore) GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.LedgerEvent, error) {
	query := `
		SELECT event_id, kind, principal, asset, native_amount, usd_value,
		       balance_after, ts
		FROM ledger_events FINAL
		WHERE ts >= ? AND ts <= ?
		ORDER BY ts ASC, event_id ASC
	`

	rows, err := s.conn.Query(ctx, query, uint64(start), uint64(end))
	if err != nil {
		return nil, fmt.Errorf("query by time range: %w", err)
	}
	defer rows.Close()

	return scanLedgerEvents(rows)
}

// exists checks if an event with the given ID exists.
func (s *LedgerEventStore) exists(ctx context.Context, eventID string) (bool, error) {
	query := `SELECT count(*) FROM ledger_events WHERE event_id = ?`

	var count uint64
	if err := s.conn.QueryRow(ctx, query, eventID).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// rowScanner abstracts clickhouse rows for scanning.
type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

// scanLedgerEvents scans all rows into LedgerEvents.
func scanLedgerEvents(rows rowScanner) ([]*domain.LedgerEvent, error) {
	var result []*domain.LedgerEvent
	for rows.Next() {
		var e domain.LedgerEvent
		var principal, asset string
		var usd, ts uint64

		err := rows.Scan(&e.EventID, &e.Kind, &principal, &asset,
			&e.NativeAmount, &usd, &e.BalanceAfter, &ts)
		if err != nil {
			return nil, fmt.Errorf("scan ledger event: %w", err)
		}

		e.Principal = domain.Principal(principal)
		e.Asset = domain.AssetID(asset)
		e.USDValue = domain.USDAmount(usd)
		e.Timestamp = int64(ts)
		result = append(result, &e)
	}
	return result, rows.Err()
}
