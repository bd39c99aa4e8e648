package postgres

import (
	"context"
	"fmt"

	"coin-feed/internal/domain"
	"coin-feed/internal/storage"
)

// ChartStore implements storage.ChartStore using PostgreSQL.
type ChartStore struct {
	pool *Pool
}

// NewChartStore creates a new ChartStore.
func NewChartStore(pool *Pool) *ChartStore {
	return &ChartStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ChartStore = (*ChartStore)(nil)

// Upsert writes a candle, replacing any candle with the same (coin_id, interval, open_time).
func (s *ChartStore) Upsert(ctx context.Context, c *domain.ChartWrapper) error {
	if c == nil || c.CoinID == "" || c.Chart.Interval == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO chart (
			coin_id, interval, open_time, open, high, low, close, volume, updated_at
		) VALUES ($1, $2, $3, $4::numeric, $5::numeric, $6::numeric, $7::numeric, $8::numeric, $9)
		ON CONFLICT (coin_id, interval, open_time) DO UPDATE SET
			open = EXCLUDED.open,
			high = EXCLUDED.high,
			low = EXCLUDED.low,
			close = EXCLUDED.close,
			volume = EXCLUDED.volume,
			updated_at = EXCLUDED.updated_at
	`

	_, err := s.pool.Exec(ctx, query,
		c.CoinID,
		c.Chart.Interval,
		c.Chart.OpenTime,
		c.Chart.Open.String(),
		c.Chart.High.String(),
		c.Chart.Low.String(),
		c.Chart.Close.String(),
		c.Chart.Volume.String(),
		c.Chart.UpdatedAt,
	)
	if err != nil {
		if isMissingReferenceError(err) {
			return storage.ErrMissingReference
		}
		return fmt.Errorf("upsert chart: %w", err)
	}
	return nil
}

// GetByCoinID retrieves candles of one interval within [start, end], ordered by open_time ASC.
func (s *ChartStore) GetByCoinID(ctx context.Context, coinID, interval string, start, end int64) ([]*domain.ChartWrapper, error) {
	query := `
		SELECT coin_id, interval, open_time,
			open::text, high::text, low::text, close::text, volume::text, updated_at
		FROM chart
		WHERE coin_id = $1 AND interval = $2 AND open_time >= $3 AND open_time <= $4
		ORDER BY open_time ASC
	`

	rows, err := s.pool.Query(ctx, query, coinID, interval, start, end)
	if err != nil {
		return nil, fmt.Errorf("get charts by coin id: %w", err)
	}
	defer rows.Close()

	var charts []*domain.ChartWrapper
	for rows.Next() {
		var (
			c                domain.ChartWrapper
			o, h, l, cl, vol string
		)
		err := rows.Scan(
			&c.CoinID,
			&c.Chart.Interval,
			&c.Chart.OpenTime,
			&o, &h, &l, &cl, &vol,
			&c.Chart.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan chart row: %w", err)
		}

		if c.Chart.Open, err = parseDecimal(o, "open"); err != nil {
			return nil, err
		}
		if c.Chart.High, err = parseDecimal(h, "high"); err != nil {
			return nil, err
		}
		if c.Chart.Low, err = parseDecimal(l, "low"); err != nil {
			return nil, err
		}
		if c.Chart.Close, err = parseDecimal(cl, "close"); err != nil {
			return nil, err
		}
		if c.Chart.Volume, err = parseDecimal(vol, "volume"); err != nil {
			return nil, err
		}

		charts = append(charts, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chart rows: %w", err)
	}

	return charts, nil
}
