package share

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const repoTimeout = 5 * time.Second

// Repository provides access to share link persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a share link repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Replace deletes any existing link for the file and inserts the new one in a
// single transaction, so two concurrent issues leave exactly one live link.
func (r *Repository) Replace(ctx context.Context, link Link) (Link, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Link{}, fmt.Errorf("begin replace link: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM share_links WHERE file_id = $1;`, link.FileID); err != nil {
		return Link{}, fmt.Errorf("supersede link: %w", err)
	}

	query := `
INSERT INTO share_links (token, file_id, issued_at, expires_at)
VALUES ($1, $2, $3, $4)
RETURNING token, file_id, issued_at, expires_at;`

	var stored Link
	err = tx.QueryRow(ctx, query, link.Token, link.FileID, link.IssuedAt, link.ExpiresAt).Scan(
		&stored.Token, &stored.FileID, &stored.IssuedAt, &stored.ExpiresAt,
	)
	if err != nil {
		return Link{}, fmt.Errorf("insert link: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Link{}, fmt.Errorf("commit replace link: %w", err)
	}

	return stored, nil
}

// Consume atomically removes the link for a token and returns it. Of two
// concurrent resolutions, exactly one gets the row; the other sees no rows.
// Expiry is judged by the caller; the deletion doubles as lazy cleanup.
func (r *Repository) Consume(ctx context.Context, token string) (Link, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
DELETE FROM share_links
WHERE token = $1
RETURNING token, file_id, issued_at, expires_at;`

	var link Link
	err := r.pool.QueryRow(ctx, query, token).Scan(
		&link.Token, &link.FileID, &link.IssuedAt, &link.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Link{}, ErrLinkNotFound
		}
		return Link{}, fmt.Errorf("consume link: %w", err)
	}
	return link, nil
}
