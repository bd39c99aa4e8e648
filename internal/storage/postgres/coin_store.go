package postgres

import (
	"context"
	"fmt"

	"coin-feed/internal/domain"
	"coin-feed/internal/storage"
)

// CoinStore implements storage.CoinStore using PostgreSQL.
type CoinStore struct {
	pool *Pool
}

// NewCoinStore creates a new CoinStore.
func NewCoinStore(pool *Pool) *CoinStore {
	return &CoinStore{pool: pool}
}

// Compile-time interface check.
var _ storage.CoinStore = (*CoinStore)(nil)

// Insert adds a new coin. Returns ErrDuplicateKey if id exists.
func (s *CoinStore) Insert(ctx context.Context, c *domain.Coin) error {
	if c == nil || c.ID == "" || c.Creator == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO coin (id, creator, name, symbol, image_uri, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := s.pool.Exec(ctx, query,
		c.ID,
		c.Creator,
		c.Name,
		c.Symbol,
		c.ImageURI,
		c.Description,
		c.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		if isMissingReferenceError(err) {
			return storage.ErrMissingReference
		}
		return fmt.Errorf("insert coin: %w", err)
	}
	return nil
}

// GetByID retrieves a coin. Returns ErrNotFound if not exists.
func (s *CoinStore) GetByID(ctx context.Context, id string) (*domain.Coin, error) {
	query := `
		SELECT id, creator, name, symbol, image_uri, description, created_at
		FROM coin
		WHERE id = $1
	`

	var c domain.Coin
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&c.ID,
		&c.Creator,
		&c.Name,
		&c.Symbol,
		&c.ImageURI,
		&c.Description,
		&c.CreatedAt,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get coin by id: %w", err)
	}
	return &c, nil
}
