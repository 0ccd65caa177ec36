package memory

import (
	"context"
	"sync"

	"custody-ledger/internal/domain"
	"custody-ledger/internal/storage"
)

// BankStateStore is an in-memory implementation of storage.BankStateStore.
type BankStateStore struct {
	mu    sync.RWMutex
	state domain.BankState
}

// NewBankStateStore creates a new in-memory bank state store.
func NewBankStateStore() *BankStateStore {
	return &BankStateStore{}
}

// Load retrieves the current bank state. A fresh store returns the zero state.
func (s *BankStateStore) Load(_ context.Context) (*domain.BankState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	copy := s.state
	return &copy, nil
}

// Save replaces the bank state.
func (s *BankStateStore) Save(_ context.Context, state *domain.BankState) error {
	if state == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = *state
	return nil
}

var _ storage.BankStateStore = (*BankStateStore)(nil)
