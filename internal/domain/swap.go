package domain

import "github.com/shopspring/decimal"

// Swap represents a buy or sell of a coin against the bonding curve.
// Corresponds to swap table in PostgreSQL.
type Swap struct {
	ID          int64           `json:"id"`           // BIGSERIAL primary key
	CoinID      string          `json:"coin_id"`      // FK to coin
	Sender      string          `json:"sender"`       // FK to account
	IsBuy       bool            `json:"is_buy"`       // true for buy, false for sell
	NadAmount   decimal.Decimal `json:"nad_amount"`   // native amount traded
	TokenAmount decimal.Decimal `json:"token_amount"` // coin amount traded
	Price       decimal.Decimal `json:"price"`        // execution price in native units
	TxHash      string          `json:"tx_hash"`      // transaction hash
	CreatedAt   int64           `json:"created_at"`   // Unix timestamp in milliseconds
}

// Side returns "buy" or "sell".
func (s *Swap) Side() string {
	if s.IsBuy {
		return SwapSideBuy
	}
	return SwapSideSell
}

// Swap side constants
const (
	SwapSideBuy  = "buy"
	SwapSideSell = "sell"
)
