package event

import (
	"encoding/json"
	"fmt"

	"coin-feed/internal/domain"
)

// Envelope is one outbound feed message.
// It holds at most one notice and at most one coin update. Absent parts are
// nil and are omitted from the wire form.
type Envelope struct {
	Scope  Scope
	Notice Notice
	Coin   CoinSection
}

// CoinSection is the per-coin part of an envelope. ID is always set.
type CoinSection struct {
	ID     string
	Update CoinUpdate
}

// Kind names the event an envelope was built from, e.g. "new_token" or "chart".
func (e Envelope) Kind() string {
	notice := noticeValue(e.Notice)
	if _, ok := notice.(NewTokenNotice); ok {
		return KindCoin
	}
	switch updateValue(e.Coin.Update).(type) {
	case SwapsUpdate:
		return KindSwap
	case ChartsUpdate:
		return KindChart
	case BalancesUpdate:
		return KindBalance
	case CurveUpdate:
		return KindCurve
	case ThreadsUpdate:
		return KindThread
	}
	if notice != nil {
		return KindSwap
	}
	return KindUnknown
}

// Envelope kinds
const (
	KindCoin    = "coin"
	KindSwap    = "swap"
	KindChart   = "chart"
	KindBalance = "balance"
	KindCurve   = "curve"
	KindThread  = "thread"
	KindUnknown = "unknown"
)

// wireEnvelope is the JSON layout of an Envelope.
// Scope is a routing hint for the transport and is not serialized.
type wireEnvelope struct {
	NewToken *TokenNotice `json:"new_token,omitempty"`
	NewBuy   *SwapNotice  `json:"new_buy,omitempty"`
	NewSell  *SwapNotice  `json:"new_sell,omitempty"`
	Coin     wireCoin     `json:"coin"`
}

type wireCoin struct {
	ID       string                   `json:"id"`
	Swaps    *[]domain.Swap           `json:"swaps,omitempty"`
	Charts   *[]domain.ChartWrapper   `json:"charts,omitempty"`
	Balances *[]domain.BalanceWrapper `json:"balances,omitempty"`
	Curve    *domain.Curve            `json:"curve,omitempty"`
	Threads  *[]domain.ThreadWrapper  `json:"threads,omitempty"`
}

// MarshalJSON encodes the envelope with absent parts omitted, not null.
func (e Envelope) MarshalJSON() ([]byte, error) {
	w := wireEnvelope{Coin: wireCoin{ID: e.Coin.ID}}

	switch n := noticeValue(e.Notice).(type) {
	case nil:
	case NewTokenNotice:
		w.NewToken = &n.Token
	case NewBuyNotice:
		w.NewBuy = &n.Swap
	case NewSellNotice:
		w.NewSell = &n.Swap
	default:
		return nil, fmt.Errorf("marshal envelope: unknown notice %T", e.Notice)
	}

	switch u := updateValue(e.Coin.Update).(type) {
	case nil:
	case SwapsUpdate:
		s := []domain.Swap(u)
		w.Coin.Swaps = &s
	case ChartsUpdate:
		s := []domain.ChartWrapper(u)
		w.Coin.Charts = &s
	case BalancesUpdate:
		s := []domain.BalanceWrapper(u)
		w.Coin.Balances = &s
	case CurveUpdate:
		w.Coin.Curve = &u.Curve
	case ThreadsUpdate:
		s := []domain.ThreadWrapper(u)
		w.Coin.Threads = &s
	default:
		return nil, fmt.Errorf("marshal envelope: unknown coin update %T", e.Coin.Update)
	}

	return json.Marshal(w)
}

// UnmarshalJSON decodes the wire form. Scope is restored from the payload:
// envelopes carrying a notice are full broadcasts, all others are regular.
// Payloads with more than one notice or coin update are rejected.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	var w wireEnvelope
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	var notices []Notice
	if w.NewToken != nil {
		notices = append(notices, NewTokenNotice{Token: *w.NewToken})
	}
	if w.NewBuy != nil {
		notices = append(notices, NewBuyNotice{Swap: *w.NewBuy})
	}
	if w.NewSell != nil {
		notices = append(notices, NewSellNotice{Swap: *w.NewSell})
	}
	if len(notices) > 1 {
		return fmt.Errorf("unmarshal envelope: %d notices present, want at most 1", len(notices))
	}

	var updates []CoinUpdate
	if w.Coin.Swaps != nil {
		updates = append(updates, SwapsUpdate(*w.Coin.Swaps))
	}
	if w.Coin.Charts != nil {
		updates = append(updates, ChartsUpdate(*w.Coin.Charts))
	}
	if w.Coin.Balances != nil {
		updates = append(updates, BalancesUpdate(*w.Coin.Balances))
	}
	if w.Coin.Curve != nil {
		updates = append(updates, CurveUpdate{Curve: *w.Coin.Curve})
	}
	if w.Coin.Threads != nil {
		updates = append(updates, ThreadsUpdate(*w.Coin.Threads))
	}
	if len(updates) > 1 {
		return fmt.Errorf("unmarshal envelope: %d coin updates present, want at most 1", len(updates))
	}

	*e = Envelope{Scope: ScopeRegular, Coin: CoinSection{ID: w.Coin.ID}}
	if len(notices) == 1 {
		e.Notice = notices[0]
		e.Scope = ScopeAll
	}
	if len(updates) == 1 {
		e.Coin.Update = updates[0]
	}
	return nil
}
