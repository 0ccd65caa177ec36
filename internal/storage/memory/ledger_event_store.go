package memory

import (
	"context"
	"sort"
	"sync"

	"custody-ledger/internal/domain"
	"custody-ledger/internal/storage"
)

// LedgerEventStore is an in-memory implementation of storage.LedgerEventStore.
type LedgerEventStore struct {
	mu   sync.RWMutex
	data map[string]*domain.LedgerEvent // keyed by event ID
}

// NewLedgerEventStore creates a new in-memory ledger event store.
func NewLedgerEventStore() *LedgerEventStore {
	return &LedgerEventStore{
		data: make(map[string]*domain.LedgerEvent),
	}
}

// Insert adds a new event. Returns ErrDuplicateKey if event_id exists.
func (s *LedgerEventStore) Insert(_ context.Context, e *domain.LedgerEvent) error {
	if e == nil || e.EventID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[e.EventID]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *e
	s.data[e.EventID] = &copy
	return nil
}

// GetByPrincipal retrieves all events for a principal, ordered by timestamp ASC.
func (s *LedgerEventStore) GetByPrincipal(_ context.Context, principal domain.Principal) ([]*domain.LedgerEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.LedgerEvent
	for _, e := range s.data {
		if e.Principal == principal {
			copy := *e
			result = append(result, &copy)
		}
	}

	sortEvents(result)
	return result, nil
}

// GetByTimeRange retrieves events within [start, end] (inclusive),
// ordered by timestamp ASC.
func (s *LedgerEventStore) GetByTimeRange(_ context.Context, start, end int64) ([]*domain.LedgerEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.LedgerEvent
	for _, e := range s.data {
		if e.Timestamp >= start && e.Timestamp <= end {
			copy := *e
			result = append(result, &copy)
		}
	}

	sortEvents(result)
	return result, nil
}

// sortEvents orders events by timestamp, then event ID for determinism.
func sortEvents(events []*domain.LedgerEvent) {
	sort.Slice(events, func(i, j int) bool {
		if events[i].Timestamp != events[j].Timestamp {
			return events[i].Timestamp < events[j].Timestamp
		}
		return events[i].EventID < events[j].EventID
	})
}

var _ storage.LedgerEventStore = (*LedgerEventStore)(nil)
