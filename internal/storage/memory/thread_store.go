package memory

import (
	"context"
	"sort"
	"sync"

	"coin-feed/internal/domain"
	"coin-feed/internal/storage"
)

// ThreadStore is an in-memory implementation of storage.ThreadStore.
type ThreadStore struct {
	mu     sync.RWMutex
	data   []*domain.ThreadWrapper
	nextID int64
	refs   *References
}

// NewThreadStore creates a new in-memory thread store.
func NewThreadStore() *ThreadStore {
	return &ThreadStore{nextID: 1}
}

// WithReferences makes writes reject posts on unknown coins, by unknown authors or replying to unknown posts.
func (s *ThreadStore) WithReferences(refs *References) *ThreadStore {
	s.refs = refs
	return s
}

// Insert adds a new post and assigns its ID.
func (s *ThreadStore) Insert(_ context.Context, t *domain.ThreadWrapper) error {
	if t == nil || t.CoinID == "" || t.Thread.Author == "" {
		return storage.ErrInvalidInput
	}
	if err := s.refs.coinAndAccount(t.CoinID, t.Thread.Author); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.refs != nil && t.Thread.ReplyTo != nil && !s.hasPost(*t.Thread.ReplyTo) {
		return storage.ErrMissingReference
	}

	t.Thread.ID = s.nextID
	s.nextID++

	copy := *t
	s.data = append(s.data, &copy)
	return nil
}

// GetByCoinID retrieves all posts of a coin, ordered by created_at ASC, id ASC.
func (s *ThreadStore) GetByCoinID(_ context.Context, coinID string) ([]*domain.ThreadWrapper, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.ThreadWrapper
	for _, t := range s.data {
		if t.CoinID == coinID {
			copy := *t
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Thread.CreatedAt != result[j].Thread.CreatedAt {
			return result[i].Thread.CreatedAt < result[j].Thread.CreatedAt
		}
		return result[i].Thread.ID < result[j].Thread.ID
	})

	return result, nil
}

// hasPost reports whether a post id exists. Caller holds s.mu.
func (s *ThreadStore) hasPost(id int64) bool {
	for _, t := range s.data {
		if t.Thread.ID == id {
			return true
		}
	}
	return false
}

var _ storage.ThreadStore = (*ThreadStore)(nil)
