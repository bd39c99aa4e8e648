package postgres

import (
	"context"
	"fmt"

	"coin-feed/internal/domain"
	"coin-feed/internal/storage"
)

// BalanceStore implements storage.BalanceStore using PostgreSQL.
type BalanceStore struct {
	pool *Pool
}

// NewBalanceStore creates a new BalanceStore.
func NewBalanceStore(pool *Pool) *BalanceStore {
	return &BalanceStore{pool: pool}
}

// Compile-time interface check.
var _ storage.BalanceStore = (*BalanceStore)(nil)

// Upsert writes the account's current balance of a coin.
func (s *BalanceStore) Upsert(ctx context.Context, b *domain.BalanceWrapper) error {
	if b == nil || b.CoinID == "" || b.Balance.Account == "" || b.Balance.Amount.IsNegative() {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO balance (coin_id, account, amount, updated_at)
		VALUES ($1, $2, $3::numeric, $4)
		ON CONFLICT (coin_id, account) DO UPDATE SET
			amount = EXCLUDED.amount,
			updated_at = EXCLUDED.updated_at
	`

	_, err := s.pool.Exec(ctx, query, b.CoinID, b.Balance.Account, b.Balance.Amount.String(), b.Balance.UpdatedAt)
	if err != nil {
		if isMissingReferenceError(err) {
			return storage.ErrMissingReference
		}
		if isCheckViolationError(err) {
			return storage.ErrInvalidInput
		}
		return fmt.Errorf("upsert balance: %w", err)
	}
	return nil
}

// GetByCoinID retrieves all non-zero balances of a coin, ordered by amount DESC.
func (s *BalanceStore) GetByCoinID(ctx context.Context, coinID string) ([]*domain.BalanceWrapper, error) {
	query := `
		SELECT coin_id, account, amount::text, updated_at
		FROM balance
		WHERE coin_id = $1 AND amount > 0
		ORDER BY amount DESC, account ASC
	`

	rows, err := s.pool.Query(ctx, query, coinID)
	if err != nil {
		return nil, fmt.Errorf("get balances by coin id: %w", err)
	}
	defer rows.Close()

	var balances []*domain.BalanceWrapper
	for rows.Next() {
		var (
			b      domain.BalanceWrapper
			amount string
		)
		if err := rows.Scan(&b.CoinID, &b.Balance.Account, &amount, &b.Balance.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan balance row: %w", err)
		}
		if b.Balance.Amount, err = parseDecimal(amount, "amount"); err != nil {
			return nil, err
		}
		balances = append(balances, &b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate balance rows: %w", err)
	}

	return balances, nil
}
