package memory

import (
	"context"
	"sort"
	"sync"

	"coin-feed/internal/domain"
	"coin-feed/internal/storage"
)

// BalanceStore is an in-memory implementation of storage.BalanceStore.
type BalanceStore struct {
	mu   sync.RWMutex
	data map[string]map[string]*domain.BalanceWrapper // coin -> account -> balance
	refs *References
}

// NewBalanceStore creates a new in-memory balance store.
func NewBalanceStore() *BalanceStore {
	return &BalanceStore{
		data: make(map[string]map[string]*domain.BalanceWrapper),
	}
}

// WithReferences makes writes reject balances of unknown coins or accounts.
func (s *BalanceStore) WithReferences(refs *References) *BalanceStore {
	s.refs = refs
	return s
}

// Upsert writes the account's current balance of a coin.
func (s *BalanceStore) Upsert(_ context.Context, b *domain.BalanceWrapper) error {
	if b == nil || b.CoinID == "" || b.Balance.Account == "" {
		return storage.ErrInvalidInput
	}
	if b.Balance.Amount.IsNegative() {
		return storage.ErrInvalidInput
	}
	if err := s.refs.coinAndAccount(b.CoinID, b.Balance.Account); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	holders, ok := s.data[b.CoinID]
	if !ok {
		holders = make(map[string]*domain.BalanceWrapper)
		s.data[b.CoinID] = holders
	}
	copy := *b
	holders[b.Balance.Account] = &copy
	return nil
}

// GetByCoinID retrieves all non-zero balances of a coin, ordered by amount DESC.
func (s *BalanceStore) GetByCoinID(_ context.Context, coinID string) ([]*domain.BalanceWrapper, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.BalanceWrapper
	for _, b := range s.data[coinID] {
		if b.Balance.Amount.IsZero() {
			continue
		}
		copy := *b
		result = append(result, &copy)
	}

	sort.Slice(result, func(i, j int) bool {
		if c := result[i].Balance.Amount.Cmp(result[j].Balance.Amount); c != 0 {
			return c > 0
		}
		return result[i].Balance.Account < result[j].Balance.Account
	})

	return result, nil
}

var _ storage.BalanceStore = (*BalanceStore)(nil)
