package postgres

import (
	"context"
	"fmt"

	"coin-feed/internal/domain"
	"coin-feed/internal/storage"
)

// ThreadStore implements storage.ThreadStore using PostgreSQL.
type ThreadStore struct {
	pool *Pool
}

// NewThreadStore creates a new ThreadStore.
func NewThreadStore(pool *Pool) *ThreadStore {
	return &ThreadStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ThreadStore = (*ThreadStore)(nil)

// Insert adds a new post and assigns its ID.
func (s *ThreadStore) Insert(ctx context.Context, t *domain.ThreadWrapper) error {
	if t == nil || t.CoinID == "" || t.Thread.Author == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO thread (coin_id, author, content, image_uri, reply_to, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	err := s.pool.QueryRow(ctx, query,
		t.CoinID,
		t.Thread.Author,
		t.Thread.Content,
		t.Thread.ImageURI,
		t.Thread.ReplyTo,
		t.Thread.CreatedAt,
	).Scan(&t.Thread.ID)
	if err != nil {
		if isMissingReferenceError(err) {
			return storage.ErrMissingReference
		}
		return fmt.Errorf("insert thread: %w", err)
	}
	return nil
}

// GetByCoinID retrieves all posts of a coin, ordered by created_at ASC, id ASC.
func (s *ThreadStore) GetByCoinID(ctx context.Context, coinID string) ([]*domain.ThreadWrapper, error) {
	query := `
		SELECT id, coin_id, author, content, image_uri, reply_to, created_at
		FROM thread
		WHERE coin_id = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, coinID)
	if err != nil {
		return nil, fmt.Errorf("get threads by coin id: %w", err)
	}
	defer rows.Close()

	var threads []*domain.ThreadWrapper
	for rows.Next() {
		var t domain.ThreadWrapper
		err := rows.Scan(
			&t.Thread.ID,
			&t.CoinID,
			&t.Thread.Author,
			&t.Thread.Content,
			&t.Thread.ImageURI,
			&t.Thread.ReplyTo,
			&t.Thread.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan thread row: %w", err)
		}
		threads = append(threads, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate thread rows: %w", err)
	}

	return threads, nil
}
