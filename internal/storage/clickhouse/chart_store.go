package clickhouse

import (
	"context"
	"fmt"

	"coin-feed/internal/domain"
	"coin-feed/internal/storage"
)

// ChartStore implements storage.ChartStore on the chart_archive table.
// Rewrites of a candle are appended and collapsed by ReplacingMergeTree;
// reads use FINAL so callers always see the newest version.
type ChartStore struct {
	conn *Conn
}

// NewChartStore creates a new ChartStore.
func NewChartStore(conn *Conn) *ChartStore {
	return &ChartStore{conn: conn}
}

// Compile-time interface check.
var _ storage.ChartStore = (*ChartStore)(nil)

// Upsert appends a candle version. The version with the highest updated_at wins.
func (s *ChartStore) Upsert(ctx context.Context, c *domain.ChartWrapper) error {
	if c == nil || c.CoinID == "" || c.Chart.Interval == "" || c.Chart.OpenTime < 0 {
		return storage.ErrInvalidInput
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO chart_archive (
			coin_id, interval, open_time, open, high, low, close, volume, updated_at
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	err = batch.Append(
		c.CoinID, c.Chart.Interval, uint64(c.Chart.OpenTime),
		c.Chart.Open, c.Chart.High, c.Chart.Low, c.Chart.Close, c.Chart.Volume,
		uint64(c.Chart.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("append to batch: %w", err)
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByCoinID retrieves candles of one interval within [start, end], ordered by open_time ASC.
func (s *ChartStore) GetByCoinID(ctx context.Context, coinID, interval string, start, end int64) ([]*domain.ChartWrapper, error) {
	if start < 0 {
		start = 0
	}
	if end < start {
		return nil, nil
	}

	query := `
		SELECT coin_id, interval, open_time, open, high, low, close, volume, updated_at
		FROM chart_archive FINAL
		WHERE coin_id = ? AND interval = ? AND open_time >= ? AND open_time <= ?
		ORDER BY open_time ASC
	`

	rows, err := s.conn.Query(ctx, query, coinID, interval, uint64(start), uint64(end))
	if err != nil {
		return nil, fmt.Errorf("query charts by coin id: %w", err)
	}
	defer rows.Close()

	var charts []*domain.ChartWrapper
	for rows.Next() {
		var (
			c                   domain.ChartWrapper
			openTime, updatedAt uint64
		)
		err := rows.Scan(
			&c.CoinID, &c.Chart.Interval, &openTime,
			&c.Chart.Open, &c.Chart.High, &c.Chart.Low, &c.Chart.Close, &c.Chart.Volume,
			&updatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan chart row: %w", err)
		}
		c.Chart.OpenTime = int64(openTime)
		c.Chart.UpdatedAt = int64(updatedAt)
		charts = append(charts, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chart rows: %w", err)
	}

	return charts, nil
}
