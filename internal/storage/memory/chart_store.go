package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"coin-feed/internal/domain"
	"coin-feed/internal/storage"
)

// ChartStore is an in-memory implementation of storage.ChartStore.
type ChartStore struct {
	mu   sync.RWMutex
	data map[string]*domain.ChartWrapper // keyed by composite key
	refs *References
}

// NewChartStore creates a new in-memory chart store.
func NewChartStore() *ChartStore {
	return &ChartStore{
		data: make(map[string]*domain.ChartWrapper),
	}
}

// chartKey generates a unique key for a candle.
func chartKey(coinID, interval string, openTime int64) string {
	return fmt.Sprintf("%s|%s|%d", coinID, interval, openTime)
}

// WithReferences makes writes reject candles of unknown coins.
func (s *ChartStore) WithReferences(refs *References) *ChartStore {
	s.refs = refs
	return s
}

// Upsert writes a candle, replacing any candle with the same key.
func (s *ChartStore) Upsert(_ context.Context, c *domain.ChartWrapper) error {
	if c == nil || c.CoinID == "" || c.Chart.Interval == "" {
		return storage.ErrInvalidInput
	}
	if err := s.refs.coin(c.CoinID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copy := *c
	s.data[chartKey(c.CoinID, c.Chart.Interval, c.Chart.OpenTime)] = &copy
	return nil
}

// GetByCoinID retrieves candles of one interval within [start, end], ordered by open_time ASC.
func (s *ChartStore) GetByCoinID(_ context.Context, coinID, interval string, start, end int64) ([]*domain.ChartWrapper, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.ChartWrapper
	for _, c := range s.data {
		if c.CoinID == coinID && c.Chart.Interval == interval &&
			c.Chart.OpenTime >= start && c.Chart.OpenTime <= end {
			copy := *c
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Chart.OpenTime < result[j].Chart.OpenTime
	})

	return result, nil
}

var _ storage.ChartStore = (*ChartStore)(nil)
