package postgres

import (
	"context"
	"fmt"

	"coin-feed/internal/domain"
	"coin-feed/internal/storage"
)

// ContentStore implements storage.ContentStore and storage.InfoStore using PostgreSQL.
type ContentStore struct {
	q querier
}

// NewContentStore creates a new ContentStore.
func NewContentStore(pool *Pool) *ContentStore {
	return &ContentStore{q: pool}
}

// Compile-time interface checks.
var (
	_ storage.ContentStore = (*ContentStore)(nil)
	_ storage.InfoStore    = (*ContentStore)(nil)
)

// LatestSwap returns the most recently created swap with the given direction,
// joined with its sender and coin. Returns ErrNotFound if none exists.
func (s *ContentStore) LatestSwap(ctx context.Context, isBuy bool) (*storage.SwapWithInfo, error) {
	query := `SELECT ` + swapColumns + `,
			a.nickname, a.image_uri, c.symbol, c.image_uri
		FROM swap s
		JOIN account a ON s.sender = a.id
		JOIN coin c ON s.coin_id = c.id
		WHERE s.is_buy = $1
		ORDER BY s.created_at DESC, s.id DESC
		LIMIT 1
	`

	var result storage.SwapWithInfo
	err := scanSwap(s.q.QueryRow(ctx, query, isBuy), &result.Swap,
		&result.Info.UserNickname,
		&result.Info.UserImageURI,
		&result.Info.CoinSymbol,
		&result.Info.CoinImageURI,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("latest swap (is_buy=%t): %w", isBuy, err)
	}
	return &result, nil
}

// LatestCoin returns the most recently created coin joined with its creator.
// Returns ErrNotFound if none exists.
func (s *ContentStore) LatestCoin(ctx context.Context) (*storage.CoinWithInfo, error) {
	query := `
		SELECT
			c.id, c.creator, c.name, c.symbol, c.image_uri, c.description, c.created_at,
			a.nickname, a.image_uri
		FROM coin c
		JOIN account a ON c.creator = a.id
		ORDER BY c.created_at DESC, c.id DESC
		LIMIT 1
	`

	var result storage.CoinWithInfo
	err := s.q.QueryRow(ctx, query).Scan(
		&result.Coin.ID,
		&result.Coin.Creator,
		&result.Coin.Name,
		&result.Coin.Symbol,
		&result.Coin.ImageURI,
		&result.Coin.Description,
		&result.Coin.CreatedAt,
		&result.Info.UserNickname,
		&result.Info.UserImageURI,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("latest coin: %w", err)
	}

	result.Info.CoinSymbol = result.Coin.Symbol
	result.Info.CoinImageURI = result.Coin.ImageURI
	return &result, nil
}

// CoinAndUserInfo joins account accountID with coin coinID.
// Returns ErrNotFound if either row is missing.
func (s *ContentStore) CoinAndUserInfo(ctx context.Context, coinID, accountID string) (domain.CoinAndUserInfo, error) {
	query := `
		SELECT a.nickname, a.image_uri, c.symbol, c.image_uri
		FROM account a, coin c
		WHERE a.id = $1 AND c.id = $2
	`

	var info domain.CoinAndUserInfo
	err := s.q.QueryRow(ctx, query, accountID, coinID).Scan(
		&info.UserNickname,
		&info.UserImageURI,
		&info.CoinSymbol,
		&info.CoinImageURI,
	)
	if err != nil {
		if isNotFoundError(err) {
			return domain.CoinAndUserInfo{}, storage.ErrNotFound
		}
		return domain.CoinAndUserInfo{}, fmt.Errorf("coin and user info: %w", err)
	}
	return info, nil
}
