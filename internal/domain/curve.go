package domain

import "github.com/shopspring/decimal"

// Curve is the current bonding curve state of a coin.
// Corresponds to curve table in PostgreSQL (one row per coin).
type Curve struct {
	CoinID       string          `json:"coin_id"`
	VirtualNad   decimal.Decimal `json:"virtual_nad"`
	VirtualToken decimal.Decimal `json:"virtual_token"`
	ReserveToken decimal.Decimal `json:"reserve_token"`
	Price        decimal.Decimal `json:"price"`
	Listed       bool            `json:"listed"` // graduated to a DEX pool
	UpdatedAt    int64           `json:"updated_at"`
}
