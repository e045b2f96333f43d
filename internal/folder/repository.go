package folder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const repositoryTimeout = 5 * time.Second

// Repository provides access to folder persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a folder repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ResolvePath fetches the folder at an exact path for the owner. Paths are
// compared byte for byte; no normalization of case or trailing slashes.
func (r *Repository) ResolvePath(ctx context.Context, ownerID uuid.UUID, path string) (Folder, error) {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	query := `
SELECT id, owner_id, parent_id, name, path, created_at
FROM folders
WHERE owner_id = $1 AND path = $2;`

	var f Folder
	err := r.pool.QueryRow(ctx, query, ownerID, path).Scan(
		&f.ID, &f.OwnerID, &f.ParentID, &f.Name, &f.Path, &f.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Folder{}, ErrFolderNotFound
		}
		return Folder{}, fmt.Errorf("resolve path: %w", err)
	}
	return f, nil
}

// Create inserts a child folder. The (owner_id, path) unique constraint is the
// duplicate check; a preceding read would not survive concurrent creates.
func (r *Repository) Create(ctx context.Context, parent Folder, name string) (Folder, error) {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	query := `
INSERT INTO folders (id, owner_id, parent_id, name, path)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, owner_id, parent_id, name, path, created_at;`

	var f Folder
	err := r.pool.QueryRow(ctx, query,
		uuid.New(), parent.OwnerID, parent.ID, name, parent.Path+"/"+name,
	).Scan(&f.ID, &f.OwnerID, &f.ParentID, &f.Name, &f.Path, &f.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return Folder{}, ErrFolderExists
		}
		return Folder{}, fmt.Errorf("create folder: %w", err)
	}
	return f, nil
}

// InsertRootTx creates the owner's root folder inside the caller's transaction.
// Invoked exactly once, from owner registration.
func InsertRootTx(ctx context.Context, tx pgx.Tx, ownerID uuid.UUID, name string) (Folder, error) {
	query := `
INSERT INTO folders (id, owner_id, parent_id, name, path)
VALUES ($1, $2, NULL, $3, $3)
RETURNING id, owner_id, parent_id, name, path, created_at;`

	var f Folder
	err := tx.QueryRow(ctx, query, uuid.New(), ownerID, name).Scan(
		&f.ID, &f.OwnerID, &f.ParentID, &f.Name, &f.Path, &f.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return Folder{}, ErrFolderExists
		}
		return Folder{}, fmt.Errorf("insert root folder: %w", err)
	}
	return f, nil
}

// ListSubfolderNames returns the names of the folder's direct children.
func (r *Repository) ListSubfolderNames(ctx context.Context, folderID uuid.UUID) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	query := `SELECT name FROM folders WHERE parent_id = $1 ORDER BY name;`

	rows, err := r.pool.Query(ctx, query, folderID)
	if err != nil {
		return nil, fmt.Errorf("list subfolders: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan subfolder name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subfolders: %w", err)
	}
	return names, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
