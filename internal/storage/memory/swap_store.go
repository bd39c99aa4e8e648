package memory

import (
	"context"
	"sort"
	"sync"

	"coin-feed/internal/domain"
	"coin-feed/internal/storage"
)

// SwapStore is an in-memory implementation of storage.SwapStore.
type SwapStore struct {
	mu     sync.RWMutex
	data   []*domain.Swap
	byHash map[string]struct{}
	nextID int64
	refs   *References
}

// NewSwapStore creates a new in-memory swap store.
func NewSwapStore() *SwapStore {
	return &SwapStore{
		byHash: make(map[string]struct{}),
		nextID: 1,
	}
}

// WithReferences makes Insert reject swaps on unknown coins or senders.
func (s *SwapStore) WithReferences(refs *References) *SwapStore {
	s.refs = refs
	return s
}

// Insert adds a new swap and assigns its ID. Returns ErrDuplicateKey if tx_hash
// exists and ErrMissingReference if the coin or sender is unknown.
func (s *SwapStore) Insert(_ context.Context, swap *domain.Swap) error {
	if swap == nil || swap.CoinID == "" || swap.Sender == "" {
		return storage.ErrInvalidInput
	}
	if err := s.refs.coinAndAccount(swap.CoinID, swap.Sender); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if swap.TxHash != "" {
		if _, exists := s.byHash[swap.TxHash]; exists {
			return storage.ErrDuplicateKey
		}
		s.byHash[swap.TxHash] = struct{}{}
	}

	swap.ID = s.nextID
	s.nextID++

	copy := *swap
	s.data = append(s.data, &copy)
	return nil
}

// GetByCoinID retrieves all swaps for a coin, ordered by created_at ASC, id ASC.
func (s *SwapStore) GetByCoinID(_ context.Context, coinID string) ([]*domain.Swap, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Swap
	for _, swap := range s.data {
		if swap.CoinID == coinID {
			copy := *swap
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt != result[j].CreatedAt {
			return result[i].CreatedAt < result[j].CreatedAt
		}
		return result[i].ID < result[j].ID
	})

	return result, nil
}

// newestFirst returns copies of the swaps with the given direction ordered by
// created_at DESC, id DESC, matching the Postgres ordering.
func (s *SwapStore) newestFirst(isBuy bool) []*domain.Swap {
	s.mu.RLock()
	var result []*domain.Swap
	for _, swap := range s.data {
		if swap.IsBuy == isBuy {
			copy := *swap
			result = append(result, &copy)
		}
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

var _ storage.SwapStore = (*SwapStore)(nil)
