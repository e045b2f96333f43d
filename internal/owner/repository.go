package owner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mbobrov/filebox/internal/folder"
)

const defaultQueryTimeout = 5 * time.Second

// Repository provides database access for owner records.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a new Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateOwner persists a new owner and the owner's root folder in one
// transaction. The root folder carries the owner's name as both name and path.
func (r *Repository) CreateOwner(ctx context.Context, name, passwordHash string) (Owner, folder.Folder, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Owner{}, folder.Folder{}, fmt.Errorf("begin create owner: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
INSERT INTO owners (id, name, password_hash)
VALUES ($1, $2, $3)
RETURNING id, name, password_hash, created_at, updated_at;`

	var o Owner
	err = tx.QueryRow(ctx, query, uuid.New(), name, passwordHash).Scan(
		&o.ID, &o.Name, &o.PasswordHash, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return Owner{}, folder.Folder{}, ErrNameAlreadyExists
		}
		return Owner{}, folder.Folder{}, fmt.Errorf("create owner: %w", err)
	}

	root, err := folder.InsertRootTx(ctx, tx, o.ID, o.Name)
	if err != nil {
		return Owner{}, folder.Folder{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Owner{}, folder.Folder{}, fmt.Errorf("commit create owner: %w", err)
	}

	return o, root, nil
}

// FindByName fetches an owner by name.
func (r *Repository) FindByName(ctx context.Context, name string) (Owner, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	query := `
SELECT id, name, password_hash, created_at, updated_at
FROM owners
WHERE name = $1;`

	var o Owner
	err := r.pool.QueryRow(ctx, query, name).Scan(
		&o.ID, &o.Name, &o.PasswordHash, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Owner{}, ErrOwnerNotFound
		}
		return Owner{}, fmt.Errorf("find owner: %w", err)
	}

	return o, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
