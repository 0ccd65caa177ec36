package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"custody-ledger/internal/domain"
	"custody-ledger/internal/storage"
)

// BalanceStore is an in-memory implementation of storage.BalanceStore.
type BalanceStore struct {
	mu   sync.RWMutex
	data map[string]*domain.BalanceRecord // keyed by composite key
}

// NewBalanceStore creates a new in-memory balance store.
func NewBalanceStore() *BalanceStore {
	return &BalanceStore{
		data: make(map[string]*domain.BalanceRecord),
	}
}

// balanceKey generates a unique key for a (principal, asset) pair.
func balanceKey(principal domain.Principal, asset domain.AssetID) string {
	return fmt.Sprintf("%s|%s", principal, asset)
}

// Get retrieves the balance record for (principal, asset).
// Returns ErrNotFound if no record exists.
func (s *BalanceStore) Get(_ context.Context, principal domain.Principal, asset domain.AssetID) (*domain.BalanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.data[balanceKey(principal, asset)]
	if !ok {
		return nil, storage.ErrNotFound
	}

	copy := *rec
	return &copy, nil
}

// Upsert creates or replaces the balance record for (principal, asset).
func (s *BalanceStore) Upsert(_ context.Context, rec *domain.BalanceRecord) error {
	if rec == nil || rec.Principal == "" || rec.Asset == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copy := *rec
	s.data[balanceKey(rec.Principal, rec.Asset)] = &copy
	return nil
}

// ListByPrincipal retrieves all balance records for a principal,
// ordered by asset ID ASC.
func (s *BalanceStore) ListByPrincipal(_ context.Context, principal domain.Principal) ([]*domain.BalanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.BalanceRecord
	for _, rec := range s.data {
		if rec.Principal == principal {
			copy := *rec
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Asset < result[j].Asset
	})

	return result, nil
}

var _ storage.BalanceStore = (*BalanceStore)(nil)
