package event

import "coin-feed/internal/domain"

// CoinUpdate is incremental state attached to a single coin.
// The set of implementations is closed: SwapsUpdate, ChartsUpdate,
// BalancesUpdate, CurveUpdate and ThreadsUpdate. Pointers to them are read as
// their values, like pointer notices.
type CoinUpdate interface {
	// Key is the JSON field the update is published under.
	Key() string
	isCoinUpdate()
}

// Coin update keys on the wire.
const (
	KeySwaps    = "swaps"
	KeyCharts   = "charts"
	KeyBalances = "balances"
	KeyCurve    = "curve"
	KeyThreads  = "threads"
)

// SwapsUpdate carries appended swaps.
type SwapsUpdate []domain.Swap

// ChartsUpdate carries appended candles.
type ChartsUpdate []domain.ChartWrapper

// BalancesUpdate carries balance changes.
type BalancesUpdate []domain.BalanceWrapper

// ThreadsUpdate carries new posts.
type ThreadsUpdate []domain.ThreadWrapper

// CurveUpdate carries the coin's current curve state. It replaces the previous
// value rather than appending to a history, so it is not a list.
type CurveUpdate struct {
	Curve domain.Curve
}

func (SwapsUpdate) Key() string    { return KeySwaps }
func (ChartsUpdate) Key() string   { return KeyCharts }
func (BalancesUpdate) Key() string { return KeyBalances }
func (ThreadsUpdate) Key() string  { return KeyThreads }
func (CurveUpdate) Key() string    { return KeyCurve }

// updateValue dereferences pointer variants. A nil pointer yields nil.
func updateValue(u CoinUpdate) CoinUpdate {
	switch p := u.(type) {
	case *SwapsUpdate:
		if p == nil {
			return nil
		}
		return *p
	case *ChartsUpdate:
		if p == nil {
			return nil
		}
		return *p
	case *BalancesUpdate:
		if p == nil {
			return nil
		}
		return *p
	case *CurveUpdate:
		if p == nil {
			return nil
		}
		return *p
	case *ThreadsUpdate:
		if p == nil {
			return nil
		}
		return *p
	}
	return u
}

func (SwapsUpdate) isCoinUpdate()    {}
func (ChartsUpdate) isCoinUpdate()   {}
func (BalancesUpdate) isCoinUpdate() {}
func (ThreadsUpdate) isCoinUpdate()  {}
func (CurveUpdate) isCoinUpdate()    {}
