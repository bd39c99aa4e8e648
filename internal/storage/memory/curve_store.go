package memory

import (
	"context"
	"sync"

	"coin-feed/internal/domain"
	"coin-feed/internal/storage"
)

// CurveStore is an in-memory implementation of storage.CurveStore.
type CurveStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Curve
	refs *References
}

// NewCurveStore creates a new in-memory curve store.
func NewCurveStore() *CurveStore {
	return &CurveStore{
		data: make(map[string]*domain.Curve),
	}
}

// WithReferences makes writes reject curves of unknown coins.
func (s *CurveStore) WithReferences(refs *References) *CurveStore {
	s.refs = refs
	return s
}

// Upsert writes the current curve state of a coin.
func (s *CurveStore) Upsert(_ context.Context, c *domain.Curve) error {
	if c == nil || c.CoinID == "" {
		return storage.ErrInvalidInput
	}
	if err := s.refs.coin(c.CoinID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copy := *c
	s.data[c.CoinID] = &copy
	return nil
}

// GetByCoinID retrieves the curve of a coin. Returns ErrNotFound if not exists.
func (s *CurveStore) GetByCoinID(_ context.Context, coinID string) (*domain.Curve, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.data[coinID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copy := *c
	return &copy, nil
}

var _ storage.CurveStore = (*CurveStore)(nil)
