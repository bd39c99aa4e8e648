// Package feed turns persisted rows into envelopes and delivers them to
// websocket subscribers.
package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"coin-feed/internal/domain"
	"coin-feed/internal/event"
	"coin-feed/internal/observability"
	"coin-feed/internal/publish"
	"coin-feed/internal/storage"
)

// Stores groups the stores the recorder writes through.
type Stores struct {
	Accounts storage.AccountStore
	Coins    storage.CoinStore
	Swaps    storage.SwapStore
	Charts   storage.ChartStore
	Balances storage.BalanceStore
	Curves   storage.CurveStore
	Threads  storage.ThreadStore
	Info     storage.InfoStore
}

// Recorder persists a row, assembles the matching envelope and publishes it.
// A failed persist or info lookup returns an error and publishes nothing.
// A failed publish is logged and counted but does not fail the call: the row
// is already stored and the next bootstrap snapshot will carry it.
type Recorder struct {
	stores  Stores
	archive storage.ChartStore
	pub     publish.Publisher
	log     *logrus.Logger
	metrics *observability.Metrics
	now     func() time.Time
}

// NewRecorder creates a new Recorder. metrics may be nil.
func NewRecorder(stores Stores, pub publish.Publisher, log *logrus.Logger, metrics *observability.Metrics) *Recorder {
	if pub == nil {
		pub = publish.NoopPublisher{}
	}
	return &Recorder{
		stores:  stores,
		pub:     pub,
		log:     log,
		metrics: metrics,
		now:     time.Now,
	}
}

// WithArchive mirrors every candle into a second chart store, e.g. ClickHouse.
// Archive failures are logged only.
func (r *Recorder) WithArchive(archive storage.ChartStore) *Recorder {
	r.archive = archive
	return r
}

// RecordAccount upserts an account. Accounts produce no envelope.
func (r *Recorder) RecordAccount(ctx context.Context, a *domain.Account) error {
	if err := r.stores.Accounts.Upsert(ctx, a); err != nil {
		r.metrics.RecordError("account", "persist")
		return fmt.Errorf("upsert account: %w", err)
	}
	r.metrics.RecordEvent("account")
	return nil
}

// RecordCoin stores a new coin and broadcasts its new_token notice.
func (r *Recorder) RecordCoin(ctx context.Context, c *domain.Coin) (event.Envelope, error) {
	if err := r.stores.Coins.Insert(ctx, c); err != nil {
		r.metrics.RecordError(event.KindCoin, "persist")
		return event.Envelope{}, fmt.Errorf("insert coin: %w", err)
	}
	r.metrics.RecordEvent(event.KindCoin)

	info, err := r.stores.Info.CoinAndUserInfo(ctx, c.ID, c.Creator)
	if err != nil {
		r.metrics.RecordError(event.KindCoin, "info")
		return event.Envelope{}, fmt.Errorf("load info for coin %s: %w", c.ID, err)
	}

	return r.emit(ctx, event.FromCoin(*c, info)), nil
}

// RecordSwap stores a swap and broadcasts its new_buy or new_sell notice.
func (r *Recorder) RecordSwap(ctx context.Context, s *domain.Swap) (event.Envelope, error) {
	if err := r.stores.Swaps.Insert(ctx, s); err != nil {
		r.metrics.RecordError(event.KindSwap, "persist")
		return event.Envelope{}, fmt.Errorf("insert swap: %w", err)
	}
	r.metrics.RecordEvent(event.KindSwap)

	info, err := r.stores.Info.CoinAndUserInfo(ctx, s.CoinID, s.Sender)
	if err != nil {
		r.metrics.RecordError(event.KindSwap, "info")
		return event.Envelope{}, fmt.Errorf("load info for swap %d: %w", s.ID, err)
	}

	return r.emit(ctx, event.FromSwap(*s, info)), nil
}

// RecordChart upserts a candle and publishes it to the coin's subscribers.
func (r *Recorder) RecordChart(ctx context.Context, c *domain.ChartWrapper) (event.Envelope, error) {
	if err := r.stores.Charts.Upsert(ctx, c); err != nil {
		r.metrics.RecordError(event.KindChart, "persist")
		return event.Envelope{}, fmt.Errorf("upsert chart: %w", err)
	}
	r.metrics.RecordEvent(event.KindChart)

	if r.archive != nil {
		if err := r.archive.Upsert(ctx, c); err != nil {
			r.metrics.RecordError(event.KindChart, "archive")
			r.log.WithError(err).WithField("coin_id", c.CoinID).Warn("archive chart failed")
		}
	}

	return r.emit(ctx, event.FromChart(*c)), nil
}

// RecordBalance upserts a balance and publishes it to the coin's subscribers.
func (r *Recorder) RecordBalance(ctx context.Context, b *domain.BalanceWrapper) (event.Envelope, error) {
	if err := r.stores.Balances.Upsert(ctx, b); err != nil {
		r.metrics.RecordError(event.KindBalance, "persist")
		return event.Envelope{}, fmt.Errorf("upsert balance: %w", err)
	}
	r.metrics.RecordEvent(event.KindBalance)

	return r.emit(ctx, event.FromBalance(*b)), nil
}

// RecordCurve upserts a curve and publishes it to the coin's subscribers.
func (r *Recorder) RecordCurve(ctx context.Context, c *domain.Curve) (event.Envelope, error) {
	if err := r.stores.Curves.Upsert(ctx, c); err != nil {
		r.metrics.RecordError(event.KindCurve, "persist")
		return event.Envelope{}, fmt.Errorf("upsert curve: %w", err)
	}
	r.metrics.RecordEvent(event.KindCurve)

	return r.emit(ctx, event.FromCurve(*c)), nil
}

// RecordThread stores a post and publishes it to the coin's subscribers.
func (r *Recorder) RecordThread(ctx context.Context, t *domain.ThreadWrapper) (event.Envelope, error) {
	if err := r.stores.Threads.Insert(ctx, t); err != nil {
		r.metrics.RecordError(event.KindThread, "persist")
		return event.Envelope{}, fmt.Errorf("insert thread: %w", err)
	}
	r.metrics.RecordEvent(event.KindThread)

	return r.emit(ctx, event.FromThread(*t)), nil
}

func (r *Recorder) emit(ctx context.Context, env event.Envelope) event.Envelope {
	kind := env.Kind()
	r.metrics.RecordEnvelope(kind)

	err := r.pub.Publish(ctx, env)
	r.metrics.RecordPublish(kind, float64(r.now().Unix()), err)
	if err != nil {
		r.log.WithError(err).WithFields(logrus.Fields{
			"kind":    kind,
			"coin_id": env.Coin.ID,
		}).Warn("publish envelope failed")
	}
	return env
}
