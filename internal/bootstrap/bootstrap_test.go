package bootstrap

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coin-feed/internal/domain"
	"coin-feed/internal/event"
	"coin-feed/internal/storage"
	"coin-feed/internal/storage/memory"
)

// fakeStore returns canned rows or errors.
type fakeStore struct {
	buy, sell *storage.SwapWithInfo
	coin      *storage.CoinWithInfo
	err       error
	calls     int
}

func (f *fakeStore) LatestSwap(ctx context.Context, isBuy bool) (*storage.SwapWithInfo, error) {
	f.calls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	row := f.sell
	if isBuy {
		row = f.buy
	}
	if row == nil {
		return nil, storage.ErrNotFound
	}
	return row, nil
}

func (f *fakeStore) LatestCoin(ctx context.Context) (*storage.CoinWithInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.coin == nil {
		return nil, storage.ErrNotFound
	}
	return f.coin, nil
}

type fixture struct {
	accounts *memory.AccountStore
	coins    *memory.CoinStore
	swaps    *memory.SwapStore
	svc      *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		accounts: memory.NewAccountStore(),
		coins:    memory.NewCoinStore(),
		swaps:    memory.NewSwapStore(),
	}
	f.svc = NewService(memory.NewContentStore(f.accounts, f.coins, f.swaps))

	ctx := context.Background()
	require.NoError(t, f.accounts.Upsert(ctx, &domain.Account{ID: "0xA", Nickname: "alice", ImageURI: "a.png"}))
	require.NoError(t, f.accounts.Upsert(ctx, &domain.Account{ID: "0xB", Nickname: "bob", ImageURI: "b.png"}))
	return f
}

func (f *fixture) coin(t *testing.T, id, creator, symbol string, createdAt int64) {
	t.Helper()
	require.NoError(t, f.coins.Insert(context.Background(), &domain.Coin{
		ID: id, Creator: creator, Symbol: symbol, ImageURI: symbol + ".png", CreatedAt: createdAt,
	}))
}

func (f *fixture) swap(t *testing.T, coinID, sender string, isBuy bool, amount string, createdAt int64) {
	t.Helper()
	require.NoError(t, f.swaps.Insert(context.Background(), &domain.Swap{
		CoinID: coinID, Sender: sender, IsBuy: isBuy,
		NadAmount: decimal.RequireFromString(amount), CreatedAt: createdAt,
	}))
}

func TestService_EmptyStore(t *testing.T) {
	svc := newFixture(t).svc
	ctx := context.Background()

	buy, err := svc.LatestBuy(ctx)
	require.NoError(t, err)
	assert.Nil(t, buy)

	sell, err := svc.LatestSell(ctx)
	require.NoError(t, err)
	assert.Nil(t, sell)

	token, err := svc.LatestNewToken(ctx)
	require.NoError(t, err)
	assert.Nil(t, token)

	envs, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	assert.Empty(t, envs)
}

func TestService_LatestBuyPicksNewest(t *testing.T) {
	f := newFixture(t)
	f.coin(t, "0xC1", "0xA", "AAA", 100)
	f.coin(t, "0xC2", "0xB", "BBB", 200)
	f.swap(t, "0xC1", "0xA", true, "1.5", 1000)
	f.swap(t, "0xC2", "0xB", true, "2.25", 2000)
	f.swap(t, "0xC1", "0xB", false, "9", 3000)

	buy, err := f.svc.LatestBuy(context.Background())
	require.NoError(t, err)
	require.NotNil(t, buy)

	assert.Equal(t, event.SwapNotice{
		UserInfo:  domain.UserInfo{Nickname: "bob", ImageURI: "b.png"},
		IsBuy:     true,
		CoinInfo:  domain.CoinInfo{Symbol: "BBB", ImageURI: "BBB.png"},
		NadAmount: "2.25",
	}, *buy)
}

func TestService_RowsWithoutMetadataAreSkipped(t *testing.T) {
	f := newFixture(t)
	f.coin(t, "0xC1", "0xA", "AAA", 10)
	f.coin(t, "0xGONE", "0xGHOST", "GHO", 20)
	f.swap(t, "0xC1", "0xA", true, "1", 10)
	f.swap(t, "0xC1", "0xGHOST", true, "2", 20)

	buy, err := f.svc.LatestBuy(context.Background())
	require.NoError(t, err)
	require.NotNil(t, buy, "an older joined buy exists")
	assert.Equal(t, "1", buy.NadAmount)
	assert.Equal(t, "alice", buy.UserInfo.Nickname)

	token, err := f.svc.LatestNewToken(context.Background())
	require.NoError(t, err)
	require.NotNil(t, token)
	assert.Equal(t, "AAA", token.Symbol)
}

func TestService_SellIgnoresNewerBuys(t *testing.T) {
	f := newFixture(t)
	f.coin(t, "0xC1", "0xA", "AAA", 100)
	f.swap(t, "0xC1", "0xA", false, "3", 1000)
	f.swap(t, "0xC1", "0xB", true, "4", 5000)

	sell, err := f.svc.LatestSell(context.Background())
	require.NoError(t, err)
	require.NotNil(t, sell)
	assert.False(t, sell.IsBuy)
	assert.Equal(t, "3", sell.NadAmount)
	assert.Equal(t, "alice", sell.UserInfo.Nickname)
}

func TestService_LatestSwapTieBreaksOnID(t *testing.T) {
	f := newFixture(t)
	f.coin(t, "0xC1", "0xA", "AAA", 100)
	f.swap(t, "0xC1", "0xA", true, "1", 1000)
	f.swap(t, "0xC1", "0xB", true, "2", 1000)

	buy, err := f.svc.LatestBuy(context.Background())
	require.NoError(t, err)
	require.NotNil(t, buy)
	assert.Equal(t, "2", buy.NadAmount)
}

func TestService_LatestNewToken(t *testing.T) {
	f := newFixture(t)
	f.coin(t, "0xC1", "0xA", "AAA", 100)
	f.coin(t, "0xC2", "0xB", "BBB", 200)

	token, err := f.svc.LatestNewToken(context.Background())
	require.NoError(t, err)
	require.NotNil(t, token)

	assert.Equal(t, event.TokenNotice{
		UserInfo:  domain.UserInfo{Nickname: "bob", ImageURI: "b.png"},
		Symbol:    "BBB",
		ImageURI:  "BBB.png",
		CreatedAt: 200,
	}, *token)
}

func TestService_AmountPrecision(t *testing.T) {
	f := newFixture(t)
	f.coin(t, "0xC1", "0xA", "AAA", 100)
	f.swap(t, "0xC1", "0xA", true, "123456789.123456789012345678", 1000)

	buy, err := f.svc.LatestBuy(context.Background())
	require.NoError(t, err)
	require.NotNil(t, buy)
	assert.Equal(t, "123456789.123456789012345678", buy.NadAmount)
}

func TestService_Snapshot(t *testing.T) {
	f := newFixture(t)
	f.coin(t, "0xC1", "0xA", "AAA", 100)
	f.swap(t, "0xC1", "0xA", true, "1", 1000)
	f.swap(t, "0xC1", "0xB", false, "2", 2000)

	envs, err := f.svc.Snapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, envs, 3)

	assert.Equal(t, event.KindCoin, envs[0].Kind())
	assert.IsType(t, event.NewTokenNotice{}, envs[0].Notice)
	assert.IsType(t, event.NewBuyNotice{}, envs[1].Notice)
	assert.IsType(t, event.NewSellNotice{}, envs[2].Notice)
	for _, env := range envs {
		assert.Equal(t, event.ScopeAll, env.Scope)
		assert.Equal(t, "0xC1", env.Coin.ID)
	}
}

func TestService_SnapshotSkipsAbsent(t *testing.T) {
	f := newFixture(t)
	f.coin(t, "0xC1", "0xA", "AAA", 100)
	f.swap(t, "0xC1", "0xA", false, "2", 2000)

	envs, err := f.svc.Snapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, envs, 2)
	assert.IsType(t, event.NewTokenNotice{}, envs[0].Notice)
	assert.IsType(t, event.NewSellNotice{}, envs[1].Notice)
}

func TestService_StoreFailureIsWrapped(t *testing.T) {
	cause := errors.New("connection reset")
	svc := NewService(&fakeStore{err: cause})
	ctx := context.Background()

	_, err := svc.LatestBuy(ctx)
	assert.ErrorIs(t, err, ErrQueryFailed)
	assert.ErrorIs(t, err, cause)

	_, err = svc.LatestSell(ctx)
	assert.ErrorIs(t, err, ErrQueryFailed)

	_, err = svc.LatestNewToken(ctx)
	assert.ErrorIs(t, err, ErrQueryFailed)
	assert.ErrorIs(t, err, cause)

	envs, err := svc.Snapshot(ctx)
	assert.ErrorIs(t, err, ErrQueryFailed)
	assert.Nil(t, envs)
}

func TestService_Cancelled(t *testing.T) {
	svc := NewService(&fakeStore{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.LatestBuy(ctx)
	assert.ErrorIs(t, err, ErrQueryFailed)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestService_OneQueryPerCall(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store)

	_, err := svc.LatestSell(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, store.calls)
}
