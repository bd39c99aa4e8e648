// Package bootstrap answers the point queries a freshly connected subscriber
// needs before the live feed takes over: the latest buy, the latest sell and
// the latest new coin.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"coin-feed/internal/event"
	"coin-feed/internal/storage"
)

// ErrQueryFailed wraps any store failure. The cause stays reachable via errors.Is.
var ErrQueryFailed = errors.New("bootstrap query failed")

// Service runs bootstrap queries against a content store.
// It is stateless and safe for concurrent use.
type Service struct {
	store storage.ContentStore
}

// NewService creates a new Service.
func NewService(store storage.ContentStore) *Service {
	return &Service{store: store}
}

// LatestBuy returns the newest buy notice, or nil if no buy exists.
func (s *Service) LatestBuy(ctx context.Context) (*event.SwapNotice, error) {
	row, err := s.latestSwap(ctx, true)
	if err != nil || row == nil {
		return nil, err
	}
	n := event.NewSwapNotice(row.Swap, row.Info)
	return &n, nil
}

// LatestSell returns the newest sell notice, or nil if no sell exists.
func (s *Service) LatestSell(ctx context.Context) (*event.SwapNotice, error) {
	row, err := s.latestSwap(ctx, false)
	if err != nil || row == nil {
		return nil, err
	}
	n := event.NewSwapNotice(row.Swap, row.Info)
	return &n, nil
}

// LatestNewToken returns the newest coin notice, or nil if no coin exists.
func (s *Service) LatestNewToken(ctx context.Context) (*event.TokenNotice, error) {
	row, err := s.latestCoin(ctx)
	if err != nil || row == nil {
		return nil, err
	}
	n := event.NewCoinNotice(row.Coin, row.Info)
	return &n, nil
}

// Snapshot runs the three queries concurrently and returns the envelopes the
// matching live events would have produced, in the order new coin, buy, sell.
// Absent results are skipped. Any failure fails the whole snapshot.
func (s *Service) Snapshot(ctx context.Context) ([]event.Envelope, error) {
	var (
		coin      *storage.CoinWithInfo
		buy, sell *storage.SwapWithInfo
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		coin, err = s.latestCoin(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		buy, err = s.latestSwap(gctx, true)
		return err
	})
	g.Go(func() error {
		var err error
		sell, err = s.latestSwap(gctx, false)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	envs := make([]event.Envelope, 0, 3)
	if coin != nil {
		envs = append(envs, event.FromCoin(coin.Coin, coin.Info))
	}
	if buy != nil {
		envs = append(envs, event.FromSwap(buy.Swap, buy.Info))
	}
	if sell != nil {
		envs = append(envs, event.FromSwap(sell.Swap, sell.Info))
	}
	return envs, nil
}

func (s *Service) latestSwap(ctx context.Context, isBuy bool) (*storage.SwapWithInfo, error) {
	row, err := s.store.LatestSwap(ctx, isBuy)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		side := "sell"
		if isBuy {
			side = "buy"
		}
		return nil, fmt.Errorf("%w: latest %s: %w", ErrQueryFailed, side, err)
	}
	return row, nil
}

func (s *Service) latestCoin(ctx context.Context) (*storage.CoinWithInfo, error) {
	row, err := s.store.LatestCoin(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: latest new token: %w", ErrQueryFailed, err)
	}
	return row, nil
}
