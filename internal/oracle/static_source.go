package oracle

import (
	"context"
	"sync"

	"custody-ledger/internal/domain"
)

// StaticSource serves readings from an in-memory table. Used in tests
// and in single-node deployments where prices are pushed by an
// operator rather than pulled from a feed.
type StaticSource struct {
	mu       sync.RWMutex
	readings map[string]domain.PriceReading
}

var _ Source = (*StaticSource)(nil)

// NewStaticSource creates an empty static source.
func NewStaticSource() *StaticSource {
	return &StaticSource{
		readings: make(map[string]domain.PriceReading),
	}
}

// Set installs or replaces the reading for a feed.
func (s *StaticSource) Set(feedRef string, reading domain.PriceReading) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readings[feedRef] = reading
}

// Remove drops the reading for a feed.
func (s *StaticSource) Remove(feedRef string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.readings, feedRef)
}

// LatestReading returns the stored reading for a feed.
func (s *StaticSource) LatestReading(_ context.Context, feedRef string) (*domain.PriceReading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reading, ok := s.readings[feedRef]
	if !ok {
		return nil, domain.ErrInvalidPrice
	}
	copy := reading
	return &copy, nil
}
