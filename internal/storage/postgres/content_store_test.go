package postgres

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coin-feed/internal/domain"
	"coin-feed/internal/storage"
)

func TestContentStore_Empty(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewContentStore(pool)

	_, err := store.LatestSwap(ctx, true)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = store.LatestSwap(ctx, false)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = store.LatestCoin(ctx)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestContentStore_LatestSwap(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	seedAccountAndCoin(t, ctx, pool, "0xalice", "0xcoin1", 1700000000000)
	seedAccountAndCoin(t, ctx, pool, "0xbob", "0xcoin2", 1700000000001)

	swaps := NewSwapStore(pool)
	inputs := []*domain.Swap{
		{CoinID: "0xcoin1", Sender: "0xalice", IsBuy: true, NadAmount: decimal.RequireFromString("1"), TxHash: "0x01", CreatedAt: 1700000001000},
		{CoinID: "0xcoin2", Sender: "0xbob", IsBuy: true, NadAmount: decimal.RequireFromString("0.123456789012345678"), TxHash: "0x02", CreatedAt: 1700000002000},
		{CoinID: "0xcoin1", Sender: "0xbob", IsBuy: false, NadAmount: decimal.RequireFromString("3"), TxHash: "0x03", CreatedAt: 1700000003000},
	}
	for _, s := range inputs {
		require.NoError(t, swaps.Insert(ctx, s))
	}

	store := NewContentStore(pool)

	buy, err := store.LatestSwap(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, int64(1700000002000), buy.Swap.CreatedAt)
	assert.True(t, buy.Swap.IsBuy)
	assert.Equal(t, "0.123456789012345678", buy.Swap.NadAmount.String())
	assert.Equal(t, "nick-0xbob", buy.Info.UserNickname)
	assert.Equal(t, "SYM0xcoin2", buy.Info.CoinSymbol)
	assert.Equal(t, "https://img.example/0xcoin2.png", buy.Info.CoinImageURI)

	sell, err := store.LatestSwap(ctx, false)
	require.NoError(t, err)
	assert.False(t, sell.Swap.IsBuy)
	assert.Equal(t, "0x03", sell.Swap.TxHash)
	assert.Equal(t, "SYM0xcoin1", sell.Info.CoinSymbol)
}

func TestContentStore_LatestSwapTieBreak(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	seedAccountAndCoin(t, ctx, pool, "0xalice", "0xcoin1", 1)

	swaps := NewSwapStore(pool)
	first := &domain.Swap{CoinID: "0xcoin1", Sender: "0xalice", IsBuy: true, NadAmount: decimal.NewFromInt(1), CreatedAt: 100}
	second := &domain.Swap{CoinID: "0xcoin1", Sender: "0xalice", IsBuy: true, NadAmount: decimal.NewFromInt(2), CreatedAt: 100}
	require.NoError(t, swaps.Insert(ctx, first))
	require.NoError(t, swaps.Insert(ctx, second))

	got, err := NewContentStore(pool).LatestSwap(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.Swap.ID)
}

func TestContentStore_LatestCoin(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	seedAccountAndCoin(t, ctx, pool, "0xalice", "0xcoin1", 1000)
	seedAccountAndCoin(t, ctx, pool, "0xbob", "0xcoin2", 2000)

	got, err := NewContentStore(pool).LatestCoin(ctx)
	require.NoError(t, err)
	assert.Equal(t, "0xcoin2", got.Coin.ID)
	assert.Equal(t, int64(2000), got.Coin.CreatedAt)
	assert.Equal(t, "nick-0xbob", got.Info.UserNickname)
	assert.Equal(t, "SYM0xcoin2", got.Info.CoinSymbol)
}

func TestContentStore_CoinAndUserInfo(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	seedAccountAndCoin(t, ctx, pool, "0xalice", "0xcoin1", 1000)
	seedAccountAndCoin(t, ctx, pool, "0xbob", "0xcoin2", 2000)

	store := NewContentStore(pool)

	info, err := store.CoinAndUserInfo(ctx, "0xcoin1", "0xbob")
	require.NoError(t, err)
	assert.Equal(t, "nick-0xbob", info.UserNickname)
	assert.Equal(t, "SYM0xcoin1", info.CoinSymbol)

	_, err = store.CoinAndUserInfo(ctx, "0xmissing", "0xbob")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestContentStore_CanceledContext(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewContentStore(pool).LatestCoin(ctx)
	require.Error(t, err)
	assert.NotErrorIs(t, err, storage.ErrNotFound)
}
