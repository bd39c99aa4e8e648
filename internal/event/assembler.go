package event

import "coin-feed/internal/domain"

// FromCoin builds the full broadcast for a newly created coin.
// The coin section carries only the coin ID.
func FromCoin(coin domain.Coin, info domain.CoinAndUserInfo) Envelope {
	return Envelope{
		Scope:  ScopeAll,
		Notice: NewTokenNotice{Token: NewCoinNotice(coin, info)},
		Coin:   CoinSection{ID: coin.ID},
	}
}

// NewCoinNotice renders a coin and its creator's join record into a notice payload.
func NewCoinNotice(coin domain.Coin, info domain.CoinAndUserInfo) TokenNotice {
	return TokenNotice{
		UserInfo:  info.User(),
		Symbol:    info.CoinSymbol,
		ImageURI:  info.CoinImageURI,
		CreatedAt: coin.CreatedAt,
	}
}

// FromSwap builds the full broadcast for a swap. Buys carry a new_buy notice
// and sells a new_sell notice; the swap itself is attached as a coin update.
func FromSwap(swap domain.Swap, info domain.CoinAndUserInfo) Envelope {
	return Envelope{
		Scope:  ScopeAll,
		Notice: NoticeFromSwap(NewSwapNotice(swap, info)),
		Coin: CoinSection{
			ID:     swap.CoinID,
			Update: SwapsUpdate{swap},
		},
	}
}

// NewSwapNotice renders a swap and its join record into a notice payload.
// The amount is rendered from the decimal value directly and never passes
// through a float.
func NewSwapNotice(swap domain.Swap, info domain.CoinAndUserInfo) SwapNotice {
	return SwapNotice{
		UserInfo:  info.User(),
		IsBuy:     swap.IsBuy,
		CoinInfo:  info.Coin(),
		NadAmount: swap.NadAmount.String(),
	}
}

// FromChart builds the regular update for a candle.
func FromChart(chart domain.ChartWrapper) Envelope {
	return regular(chart.CoinID, ChartsUpdate{chart})
}

// FromBalance builds the regular update for a balance change.
func FromBalance(balance domain.BalanceWrapper) Envelope {
	return regular(balance.CoinID, BalancesUpdate{balance})
}

// FromCurve builds the regular update for a curve state.
func FromCurve(curve domain.Curve) Envelope {
	return regular(curve.CoinID, CurveUpdate{Curve: curve})
}

// FromThread builds the regular update for a thread post.
func FromThread(thread domain.ThreadWrapper) Envelope {
	return regular(thread.CoinID, ThreadsUpdate{thread})
}

func regular(coinID string, update CoinUpdate) Envelope {
	return Envelope{
		Scope: ScopeRegular,
		Coin:  CoinSection{ID: coinID, Update: update},
	}
}
