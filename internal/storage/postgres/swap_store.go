package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"coin-feed/internal/domain"
	"coin-feed/internal/storage"
)

// SwapStore implements storage.SwapStore using PostgreSQL.
type SwapStore struct {
	pool *Pool
}

// NewSwapStore creates a new SwapStore.
func NewSwapStore(pool *Pool) *SwapStore {
	return &SwapStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SwapStore = (*SwapStore)(nil)

// swapColumns selects a swap with NUMERIC columns rendered as text so that
// no precision is lost on the way into decimal.Decimal.
const swapColumns = `
	s.id, s.coin_id, s.sender, s.is_buy,
	s.nad_amount::text, s.token_amount::text, s.price::text,
	COALESCE(s.tx_hash, ''), s.created_at
`

// Insert adds a new swap and assigns its ID. Returns ErrDuplicateKey if tx_hash exists.
func (s *SwapStore) Insert(ctx context.Context, swap *domain.Swap) error {
	if swap == nil || swap.CoinID == "" || swap.Sender == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO swap (
			coin_id, sender, is_buy, nad_amount, token_amount, price, tx_hash, created_at
		) VALUES ($1, $2, $3, $4::numeric, $5::numeric, $6::numeric, NULLIF($7, ''), $8)
		RETURNING id
	`

	err := s.pool.QueryRow(ctx, query,
		swap.CoinID,
		swap.Sender,
		swap.IsBuy,
		swap.NadAmount.String(),
		swap.TokenAmount.String(),
		swap.Price.String(),
		swap.TxHash,
		swap.CreatedAt,
	).Scan(&swap.ID)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		if isMissingReferenceError(err) {
			return storage.ErrMissingReference
		}
		return fmt.Errorf("insert swap: %w", err)
	}
	return nil
}

// GetByCoinID retrieves all swaps for a coin, ordered by created_at ASC, id ASC.
func (s *SwapStore) GetByCoinID(ctx context.Context, coinID string) ([]*domain.Swap, error) {
	query := `SELECT ` + swapColumns + `
		FROM swap s
		WHERE s.coin_id = $1
		ORDER BY s.created_at ASC, s.id ASC
	`

	rows, err := s.pool.Query(ctx, query, coinID)
	if err != nil {
		return nil, fmt.Errorf("get swaps by coin id: %w", err)
	}
	defer rows.Close()

	return scanSwaps(rows)
}

// scanSwaps scans multiple rows into a slice of Swap.
func scanSwaps(rows pgx.Rows) ([]*domain.Swap, error) {
	var swaps []*domain.Swap

	for rows.Next() {
		var swap domain.Swap
		if err := scanSwap(rows, &swap); err != nil {
			return nil, err
		}
		swaps = append(swaps, &swap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate swap rows: %w", err)
	}

	return swaps, nil
}

// scanSwap scans swapColumns plus any trailing destinations.
func scanSwap(row pgx.Row, swap *domain.Swap, extra ...any) error {
	var nadAmount, tokenAmount, price string

	dest := append([]any{
		&swap.ID,
		&swap.CoinID,
		&swap.Sender,
		&swap.IsBuy,
		&nadAmount,
		&tokenAmount,
		&price,
		&swap.TxHash,
		&swap.CreatedAt,
	}, extra...)

	if err := row.Scan(dest...); err != nil {
		return fmt.Errorf("scan swap row: %w", err)
	}

	var err error
	if swap.NadAmount, err = parseDecimal(nadAmount, "nad_amount"); err != nil {
		return err
	}
	if swap.TokenAmount, err = parseDecimal(tokenAmount, "token_amount"); err != nil {
		return err
	}
	if swap.Price, err = parseDecimal(price, "price"); err != nil {
		return err
	}
	return nil
}
