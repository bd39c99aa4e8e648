package memory

import (
	"context"
	"sort"
	"sync"

	"coin-feed/internal/domain"
	"coin-feed/internal/storage"
)

// CoinStore is an in-memory implementation of storage.CoinStore.
type CoinStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Coin
	refs *References
}

// NewCoinStore creates a new in-memory coin store.
func NewCoinStore() *CoinStore {
	return &CoinStore{
		data: make(map[string]*domain.Coin),
	}
}

// WithReferences makes Insert reject coins whose creator does not exist.
func (s *CoinStore) WithReferences(refs *References) *CoinStore {
	s.refs = refs
	return s
}

// Insert adds a new coin. Returns ErrDuplicateKey if id exists and
// ErrMissingReference if the creator is unknown.
func (s *CoinStore) Insert(_ context.Context, c *domain.Coin) error {
	if c == nil || c.ID == "" || c.Creator == "" {
		return storage.ErrInvalidInput
	}
	if err := s.refs.account(c.Creator); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[c.ID]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *c
	s.data[c.ID] = &copy
	return nil
}

// GetByID retrieves a coin. Returns ErrNotFound if not exists.
func (s *CoinStore) GetByID(_ context.Context, id string) (*domain.Coin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.data[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copy := *c
	return &copy, nil
}

func (s *CoinStore) has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.data[id]
	return ok
}

// newestFirst returns copies of all coins ordered by created_at DESC, id DESC,
// matching the Postgres ordering.
func (s *CoinStore) newestFirst() []*domain.Coin {
	s.mu.RLock()
	result := make([]*domain.Coin, 0, len(s.data))
	for _, c := range s.data {
		copy := *c
		result = append(result, &copy)
	}
	s.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt != result[j].CreatedAt {
			return result[i].CreatedAt > result[j].CreatedAt
		}
		return result[i].ID > result[j].ID
	})
	return result
}

var _ storage.CoinStore = (*CoinStore)(nil)
