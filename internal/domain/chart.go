package domain

import "github.com/shopspring/decimal"

// Chart is a single OHLCV candle for a coin.
type Chart struct {
	Interval  string          `json:"interval"`  // candle width, e.g. "1m"
	OpenTime  int64           `json:"open_time"` // bucket start (ms)
	Open      decimal.Decimal `json:"open"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Close     decimal.Decimal `json:"close"`
	Volume    decimal.Decimal `json:"volume"`     // native volume in bucket
	UpdatedAt int64           `json:"updated_at"` // last tick applied (ms)
}

// ChartWrapper binds a candle to its coin.
// Corresponds to chart table in PostgreSQL.
type ChartWrapper struct {
	CoinID string `json:"coin_id"`
	Chart  Chart  `json:"chart"`
}

// Chart interval constants
const (
	ChartInterval1m = "1m"
	ChartInterval5m = "5m"
	ChartInterval1h = "1h"
	ChartInterval1d = "1d"
)
