package postgres

import (
	"context"
	"fmt"

	"coin-feed/internal/domain"
	"coin-feed/internal/storage"
)

// AccountStore implements storage.AccountStore using PostgreSQL.
type AccountStore struct {
	pool *Pool
}

// NewAccountStore creates a new AccountStore.
func NewAccountStore(pool *Pool) *AccountStore {
	return &AccountStore{pool: pool}
}

// Compile-time interface check.
var _ storage.AccountStore = (*AccountStore)(nil)

// Upsert inserts the account or replaces its display metadata.
func (s *AccountStore) Upsert(ctx context.Context, a *domain.Account) error {
	if a == nil || a.ID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO account (id, nickname, image_uri, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			nickname = EXCLUDED.nickname,
			image_uri = EXCLUDED.image_uri
	`

	if _, err := s.pool.Exec(ctx, query, a.ID, a.Nickname, a.ImageURI, a.CreatedAt); err != nil {
		return fmt.Errorf("upsert account: %w", err)
	}
	return nil
}

// GetByID retrieves an account. Returns ErrNotFound if not exists.
func (s *AccountStore) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	query := `SELECT id, nickname, image_uri, created_at FROM account WHERE id = $1`

	var a domain.Account
	err := s.pool.QueryRow(ctx, query, id).Scan(&a.ID, &a.Nickname, &a.ImageURI, &a.CreatedAt)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get account by id: %w", err)
	}
	return &a, nil
}
