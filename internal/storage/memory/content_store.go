package memory

import (
	"context"
	"errors"

	"coin-feed/internal/domain"
	"coin-feed/internal/storage"
)

// ContentStore is an in-memory implementation of storage.ContentStore and
// storage.InfoStore. It joins the account, coin and swap stores it was built on.
type ContentStore struct {
	accounts *AccountStore
	coins    *CoinStore
	swaps    *SwapStore
}

// NewContentStore creates a content store over existing in-memory stores.
func NewContentStore(accounts *AccountStore, coins *CoinStore, swaps *SwapStore) *ContentStore {
	return &ContentStore{
		accounts: accounts,
		coins:    coins,
		swaps:    swaps,
	}
}

// LatestSwap returns the newest swap with the given direction whose sender and
// coin both exist, as the inner join in Postgres does. Returns ErrNotFound if
// none exists.
func (s *ContentStore) LatestSwap(ctx context.Context, isBuy bool) (*storage.SwapWithInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, swap := range s.swaps.newestFirst(isBuy) {
		info, err := s.CoinAndUserInfo(ctx, swap.CoinID, swap.Sender)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return &storage.SwapWithInfo{Swap: *swap, Info: info}, nil
	}
	return nil, storage.ErrNotFound
}

// LatestCoin returns the newest coin whose creator exists.
// Returns ErrNotFound if none exists.
func (s *ContentStore) LatestCoin(ctx context.Context) (*storage.CoinWithInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, coin := range s.coins.newestFirst() {
		info, err := s.CoinAndUserInfo(ctx, coin.ID, coin.Creator)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return &storage.CoinWithInfo{Coin: *coin, Info: info}, nil
	}
	return nil, storage.ErrNotFound
}

// CoinAndUserInfo joins account accountID with coin coinID.
// Returns ErrNotFound if either row is missing.
func (s *ContentStore) CoinAndUserInfo(ctx context.Context, coinID, accountID string) (domain.CoinAndUserInfo, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return domain.CoinAndUserInfo{}, err
	}
	coin, err := s.coins.GetByID(ctx, coinID)
	if err != nil {
		return domain.CoinAndUserInfo{}, err
	}

	return domain.CoinAndUserInfo{
		UserNickname: account.Nickname,
		UserImageURI: account.ImageURI,
		CoinSymbol:   coin.Symbol,
		CoinImageURI: coin.ImageURI,
	}, nil
}

var (
	_ storage.ContentStore = (*ContentStore)(nil)
	_ storage.InfoStore    = (*ContentStore)(nil)
)
