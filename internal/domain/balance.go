package domain

import "github.com/shopspring/decimal"

// Balance is an account's holding of a coin after a change.
type Balance struct {
	Account   string          `json:"account"`
	Amount    decimal.Decimal `json:"amount"`
	UpdatedAt int64           `json:"updated_at"` // ms
}

// BalanceWrapper binds a balance change to its coin.
// Corresponds to balance table in PostgreSQL.
type BalanceWrapper struct {
	CoinID  string  `json:"coin_id"`
	Balance Balance `json:"balance"`
}
