package file

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

const repoTimeout = 5 * time.Second

const fileColumns = "id, owner_id, folder_id, display_name, storage_key, size_bytes, download_count, created_at"

// Repository provides access to file metadata storage.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds a new file repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts metadata for a new file. The (owner_id, folder_id,
// display_name) unique constraint serializes concurrent uploads.
func (r *Repository) Create(ctx context.Context, meta File) (File, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
INSERT INTO files (id, owner_id, folder_id, display_name, storage_key, size_bytes)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + fileColumns + `;`

	row := r.pool.QueryRow(ctx, query,
		meta.ID, meta.OwnerID, meta.FolderID, meta.DisplayName, meta.StorageKey, meta.SizeBytes,
	)

	stored, err := scanFile(row)
	if err != nil {
		if isUniqueViolation(err) {
			return File{}, ErrFileExists
		}
		return File{}, fmt.Errorf("create file metadata: %w", err)
	}
	return stored, nil
}

// GetByName fetches metadata by owner, folder and display name.
func (r *Repository) GetByName(ctx context.Context, ownerID, folderID uuid.UUID, displayName string) (File, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
SELECT ` + fileColumns + `
FROM files
WHERE owner_id = $1 AND folder_id = $2 AND display_name = $3;`

	meta, err := scanFile(r.pool.QueryRow(ctx, query, ownerID, folderID, displayName))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return File{}, ErrFileNotFound
		}
		return File{}, fmt.Errorf("get file metadata: %w", err)
	}
	return meta, nil
}

// GetByID fetches metadata by file id, without an owner scope. Used only by
// the public share resolution path, which authorizes via the consumed link.
func (r *Repository) GetByID(ctx context.Context, fileID uuid.UUID) (File, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `SELECT ` + fileColumns + ` FROM files WHERE id = $1;`

	meta, err := scanFile(r.pool.QueryRow(ctx, query, fileID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return File{}, ErrFileNotFound
		}
		return File{}, fmt.Errorf("get file metadata: %w", err)
	}
	return meta, nil
}

// UpdateLocation repoints a file at a new folder and storage key.
func (r *Repository) UpdateLocation(ctx context.Context, fileID, folderID uuid.UUID, storageKey string) (File, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
UPDATE files
SET folder_id = $2, storage_key = $3
WHERE id = $1
RETURNING ` + fileColumns + `;`

	meta, err := scanFile(r.pool.QueryRow(ctx, query, fileID, folderID, storageKey))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return File{}, ErrFileNotFound
		}
		if isUniqueViolation(err) {
			return File{}, ErrFileExists
		}
		return File{}, fmt.Errorf("update file location: %w", err)
	}
	return meta, nil
}

// DeleteWithLinks removes any share link for the file and the metadata row in
// one transaction. Link first: a link pointing at a deleted file must never be
// observable. Returns the deleted record so the caller can remove the object.
func (r *Repository) DeleteWithLinks(ctx context.Context, ownerID, folderID uuid.UUID, displayName string) (File, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return File{}, fmt.Errorf("begin delete file: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
SELECT ` + fileColumns + `
FROM files
WHERE owner_id = $1 AND folder_id = $2 AND display_name = $3
FOR UPDATE;`

	meta, err := scanFile(tx.QueryRow(ctx, query, ownerID, folderID, displayName))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return File{}, ErrFileNotFound
		}
		return File{}, fmt.Errorf("lock file for delete: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM share_links WHERE file_id = $1;`, meta.ID); err != nil {
		return File{}, fmt.Errorf("delete share links: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM files WHERE id = $1;`, meta.ID); err != nil {
		return File{}, fmt.Errorf("delete file metadata: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return File{}, fmt.Errorf("commit delete file: %w", err)
	}

	return meta, nil
}

// DeleteByID removes a metadata row. Used as the compensating action when a
// content write fails after the metadata commit.
func (r *Repository) DeleteByID(ctx context.Context, fileID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	if _, err := r.pool.Exec(ctx, `DELETE FROM files WHERE id = $1;`, fileID); err != nil {
		return fmt.Errorf("delete file metadata: %w", err)
	}
	return nil
}

// IncrementDownloadCount durably advances the counter and returns the new
// value. The store performs the addition, so concurrent downloads never lose
// updates.
func (r *Repository) IncrementDownloadCount(ctx context.Context, fileID uuid.UUID) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
UPDATE files
SET download_count = download_count + 1
WHERE id = $1
RETURNING download_count;`

	var count int64
	if err := r.pool.QueryRow(ctx, query, fileID).Scan(&count); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrFileNotFound
		}
		return 0, fmt.Errorf("increment download count: %w", err)
	}
	return count, nil
}

// ListNamesForFolder returns the display names of files in a folder.
func (r *Repository) ListNamesForFolder(ctx context.Context, folderID uuid.UUID) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `SELECT display_name FROM files WHERE folder_id = $1 ORDER BY display_name;`

	rows, err := r.pool.Query(ctx, query, folderID)
	if err != nil {
		return nil, fmt.Errorf("list file names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan file name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate file names: %w", err)
	}
	return names, nil
}

func scanFile(row pgx.Row) (File, error) {
	var meta File
	err := row.Scan(
		&meta.ID,
		&meta.OwnerID,
		&meta.FolderID,
		&meta.DisplayName,
		&meta.StorageKey,
		&meta.SizeBytes,
		&meta.DownloadCount,
		&meta.CreatedAt,
	)
	if err != nil {
		return File{}, err
	}
	return meta, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
