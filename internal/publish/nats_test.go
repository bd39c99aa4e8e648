package publish

import (
	"context"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coin-feed/internal/domain"
	"coin-feed/internal/event"
)

// startTestNATS starts an embedded NATS server and returns its client URL.
func startTestNATS(t *testing.T) string {
	t.Helper()
	opts := &natsserver.Options{Host: "127.0.0.1", Port: -1}
	srv, err := natsserver.NewServer(opts)
	require.NoError(t, err)
	srv.Start()
	t.Cleanup(srv.Shutdown)
	if !srv.ReadyForConnections(5 * time.Second) {
		t.Fatal("embedded NATS not ready")
	}
	return srv.ClientURL()
}

func receive(t *testing.T, ch <-chan event.Envelope) event.Envelope {
	t.Helper()
	select {
	case env, ok := <-ch:
		require.True(t, ok, "channel closed")
		return env
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for envelope")
	}
	return event.Envelope{}
}

func TestNATS_RoutesByScope(t *testing.T) {
	url := startTestNATS(t)

	sub, err := NewNATSSubscriber(url)
	require.NoError(t, err)
	defer sub.Close()

	all, cancelAll, err := sub.Subscribe(SubjectAll)
	require.NoError(t, err)
	defer cancelAll()

	coin, cancelCoin, err := sub.Subscribe(SubjectCoinPrefix + "0xC1")
	require.NoError(t, err)
	defer cancelCoin()

	pub, err := NewNATSPublisher(url)
	require.NoError(t, err)
	defer pub.Close()

	ctx := context.Background()
	swap := domain.Swap{ID: 7, CoinID: "0xC1", Sender: "0xA", IsBuy: true, NadAmount: decimal.RequireFromString("0.000000000000000001")}
	info := domain.CoinAndUserInfo{UserNickname: "alice", CoinSymbol: "AAA"}
	require.NoError(t, pub.Publish(ctx, event.FromSwap(swap, info)))
	require.NoError(t, pub.Publish(ctx, event.FromCurve(domain.Curve{CoinID: "0xC1"})))
	require.NoError(t, pub.conn.Flush())

	got := receive(t, all)
	assert.Equal(t, event.ScopeAll, got.Scope)
	require.IsType(t, event.NewBuyNotice{}, got.Notice)
	assert.Equal(t, "0.000000000000000001", got.Notice.(event.NewBuyNotice).Swap.NadAmount)
	assert.Equal(t, "0xC1", got.Coin.ID)

	got = receive(t, coin)
	assert.Equal(t, event.ScopeRegular, got.Scope)
	assert.Equal(t, event.KindCurve, got.Kind())

	bad := event.FromCurve(domain.Curve{CoinID: "0xC1"})
	bad.Scope = event.Scope(7)
	assert.ErrorIs(t, pub.Publish(ctx, bad), ErrInvalidScope)
}

func TestNATSSubscriber_Cancel(t *testing.T) {
	url := startTestNATS(t)

	sub, err := NewNATSSubscriber(url)
	require.NoError(t, err)
	defer sub.Close()

	ch, cancel, err := sub.Subscribe(SubjectWildcard)
	require.NoError(t, err)

	cancel()
	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok, "expected closed channel")
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

func TestNATSPublisher_ConnectError(t *testing.T) {
	_, err := NewNATSPublisher("nats://127.0.0.1:1")
	assert.Error(t, err)
}
