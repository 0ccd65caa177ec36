package memory

import (
	"context"
	"sort"
	"sync"

	"custody-ledger/internal/domain"
	"custody-ledger/internal/storage"
)

// AssetStore is an in-memory implementation of storage.AssetStore.
type AssetStore struct {
	mu   sync.RWMutex
	data map[domain.AssetID]*domain.AssetInfo
}

// NewAssetStore creates a new in-memory asset store.
func NewAssetStore() *AssetStore {
	return &AssetStore{
		data: make(map[domain.AssetID]*domain.AssetInfo),
	}
}

// Put creates or replaces the registry entry for info.Asset.
func (s *AssetStore) Put(_ context.Context, info *domain.AssetInfo) error {
	if info == nil || info.Asset == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copy := *info
	s.data[info.Asset] = &copy
	return nil
}

// Get retrieves the registry entry for an asset, supported or not.
// Returns ErrNotFound if the asset was never registered.
func (s *AssetStore) Get(_ context.Context, asset domain.AssetID) (*domain.AssetInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info, ok := s.data[asset]
	if !ok {
		return nil, storage.ErrNotFound
	}

	copy := *info
	return &copy, nil
}

// SetSupported flips the supported flag on an existing entry.
// Returns ErrNotFound if the asset was never registered.
func (s *AssetStore) SetSupported(_ context.Context, asset domain.AssetID, supported bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, ok := s.data[asset]
	if !ok {
		return storage.ErrNotFound
	}

	info.Supported = supported
	return nil
}

// List retrieves all registry entries, ordered by asset ID ASC.
func (s *AssetStore) List(_ context.Context) ([]*domain.AssetInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.AssetInfo, 0, len(s.data))
	for _, info := range s.data {
		copy := *info
		result = append(result, &copy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Asset < result[j].Asset
	})

	return result, nil
}

var _ storage.AssetStore = (*AssetStore)(nil)
