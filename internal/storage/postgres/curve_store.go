package postgres

import (
	"context"
	"fmt"

	"coin-feed/internal/domain"
	"coin-feed/internal/storage"
)

// CurveStore implements storage.CurveStore using PostgreSQL.
type CurveStore struct {
	pool *Pool
}

// NewCurveStore creates a new CurveStore.
func NewCurveStore(pool *Pool) *CurveStore {
	return &CurveStore{pool: pool}
}

// Compile-time interface check.
var _ storage.CurveStore = (*CurveStore)(nil)

// Upsert writes the current curve state of a coin.
func (s *CurveStore) Upsert(ctx context.Context, c *domain.Curve) error {
	if c == nil || c.CoinID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO curve (
			coin_id, virtual_nad, virtual_token, reserve_token, price, listed, updated_at
		) VALUES ($1, $2::numeric, $3::numeric, $4::numeric, $5::numeric, $6, $7)
		ON CONFLICT (coin_id) DO UPDATE SET
			virtual_nad = EXCLUDED.virtual_nad,
			virtual_token = EXCLUDED.virtual_token,
			reserve_token = EXCLUDED.reserve_token,
			price = EXCLUDED.price,
			listed = EXCLUDED.listed,
			updated_at = EXCLUDED.updated_at
	`

	_, err := s.pool.Exec(ctx, query,
		c.CoinID,
		c.VirtualNad.String(),
		c.VirtualToken.String(),
		c.ReserveToken.String(),
		c.Price.String(),
		c.Listed,
		c.UpdatedAt,
	)
	if err != nil {
		if isMissingReferenceError(err) {
			return storage.ErrMissingReference
		}
		return fmt.Errorf("upsert curve: %w", err)
	}
	return nil
}

// GetByCoinID retrieves the curve of a coin. Returns ErrNotFound if not exists.
func (s *CurveStore) GetByCoinID(ctx context.Context, coinID string) (*domain.Curve, error) {
	query := `
		SELECT coin_id, virtual_nad::text, virtual_token::text, reserve_token::text,
			price::text, listed, updated_at
		FROM curve
		WHERE coin_id = $1
	`

	var (
		c                                        domain.Curve
		virtualNad, virtualToken, reserve, price string
	)
	err := s.pool.QueryRow(ctx, query, coinID).Scan(
		&c.CoinID, &virtualNad, &virtualToken, &reserve, &price, &c.Listed, &c.UpdatedAt,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get curve by coin id: %w", err)
	}

	if c.VirtualNad, err = parseDecimal(virtualNad, "virtual_nad"); err != nil {
		return nil, err
	}
	if c.VirtualToken, err = parseDecimal(virtualToken, "virtual_token"); err != nil {
		return nil, err
	}
	if c.ReserveToken, err = parseDecimal(reserve, "reserve_token"); err != nil {
		return nil, err
	}
	if c.Price, err = parseDecimal(price, "price"); err != nil {
		return nil, err
	}
	return &c, nil
}
