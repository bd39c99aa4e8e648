package storage

import (
	"context"

	"coin-feed/internal/domain"
)

// SwapWithInfo is a swap joined with its sender's and coin's display metadata.
type SwapWithInfo struct {
	Swap domain.Swap
	Info domain.CoinAndUserInfo
}

// CoinWithInfo is a coin joined with its creator's and its own display metadata.
type CoinWithInfo struct {
	Coin domain.Coin
	Info domain.CoinAndUserInfo
}

// ContentStore answers the "latest" point queries used to bootstrap new subscribers.
type ContentStore interface {
	// LatestSwap returns the most recently created swap with the given direction,
	// ordered by created_at DESC, id DESC. Returns ErrNotFound if none exists.
	LatestSwap(ctx context.Context, isBuy bool) (*SwapWithInfo, error)

	// LatestCoin returns the most recently created coin, ordered by created_at DESC.
	// Returns ErrNotFound if none exists.
	LatestCoin(ctx context.Context) (*CoinWithInfo, error)
}

// InfoStore resolves display metadata for live events.
type InfoStore interface {
	// CoinAndUserInfo joins account accountID with coin coinID.
	// Returns ErrNotFound if either row is missing.
	CoinAndUserInfo(ctx context.Context, coinID, accountID string) (domain.CoinAndUserInfo, error)
}

// AccountStore provides access to account storage.
type AccountStore interface {
	// Upsert inserts the account or replaces its display metadata.
	Upsert(ctx context.Context, a *domain.Account) error

	// GetByID retrieves an account. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id string) (*domain.Account, error)
}

// CoinStore provides access to coin storage.
type CoinStore interface {
	// Insert adds a new coin. Returns ErrDuplicateKey if id exists.
	Insert(ctx context.Context, c *domain.Coin) error

	// GetByID retrieves a coin. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id string) (*domain.Coin, error)
}

// SwapStore provides access to swap storage.
type SwapStore interface {
	// Insert adds a new swap and assigns its ID. Returns ErrDuplicateKey if tx_hash exists.
	Insert(ctx context.Context, s *domain.Swap) error

	// GetByCoinID retrieves all swaps for a coin, ordered by created_at ASC, id ASC.
	GetByCoinID(ctx context.Context, coinID string) ([]*domain.Swap, error)
}

// ChartStore provides access to candle storage.
type ChartStore interface {
	// Upsert writes a candle, replacing any candle with the same (coin, interval, open_time).
	Upsert(ctx context.Context, c *domain.ChartWrapper) error

	// GetByCoinID retrieves candles of one interval within [start, end], ordered by open_time ASC.
	GetByCoinID(ctx context.Context, coinID, interval string, start, end int64) ([]*domain.ChartWrapper, error)
}

// BalanceStore provides access to balance storage.
type BalanceStore interface {
	// Upsert writes the account's current balance of a coin.
	Upsert(ctx context.Context, b *domain.BalanceWrapper) error

	// GetByCoinID retrieves all non-zero balances of a coin, ordered by amount DESC.
	GetByCoinID(ctx context.Context, coinID string) ([]*domain.BalanceWrapper, error)
}

// CurveStore provides access to curve storage.
type CurveStore interface {
	// Upsert writes the current curve state of a coin.
	Upsert(ctx context.Context, c *domain.Curve) error

	// GetByCoinID retrieves the curve of a coin. Returns ErrNotFound if not exists.
	GetByCoinID(ctx context.Context, coinID string) (*domain.Curve, error)
}

// ThreadStore provides access to thread storage.
type ThreadStore interface {
	// Insert adds a new post and assigns its ID.
	Insert(ctx context.Context, t *domain.ThreadWrapper) error

	// GetByCoinID retrieves all posts of a coin, ordered by created_at ASC, id ASC.
	GetByCoinID(ctx context.Context, coinID string) ([]*domain.ThreadWrapper, error)
}
