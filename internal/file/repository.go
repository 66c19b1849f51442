package file

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const repoTimeout = 5 * time.Second

const recordColumns = `id, owner_id, stored_name, original_name, storage_path, size_bytes,
file_type, mime_type, folder, is_public, public_token, token_expires_at, download_count, uploaded_at`

// Repository provides access to file metadata storage.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds a new file repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts metadata for a new file.
func (r *Repository) Create(ctx context.Context, rec Record) (Record, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
INSERT INTO files (id, owner_id, stored_name, original_name, storage_path, size_bytes, file_type, mime_type, folder)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING ` + recordColumns + `;`

	row := r.pool.QueryRow(ctx, query,
		rec.ID,
		rec.OwnerID,
		rec.StoredName,
		rec.OriginalName,
		rec.StoragePath,
		rec.SizeBytes,
		rec.FileType,
		rec.MimeType,
		rec.Folder,
	)

	stored, err := scanRecord(row)
	if err != nil {
		return Record{}, fmt.Errorf("create file metadata: %w", err)
	}
	return stored, nil
}

// Get fetches metadata for a single file by id.
func (r *Repository) Get(ctx context.Context, fileID uuid.UUID) (Record, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `SELECT ` + recordColumns + ` FROM files WHERE id = $1;`

	rec, err := scanRecord(r.pool.QueryRow(ctx, query, fileID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrFileNotFound
		}
		return Record{}, fmt.Errorf("get file metadata: %w", err)
	}
	return rec, nil
}

// List returns files owned by the user, newest first. A nil folder returns
// every folder; an empty string matches only the root.
func (r *Repository) List(ctx context.Context, ownerID uuid.UUID, folder *string) ([]Record, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `SELECT ` + recordColumns + ` FROM files WHERE owner_id = $1`
	args := []any{ownerID}
	if folder != nil {
		query += ` AND folder = $2`
		args = append(args, *folder)
	}
	query += ` ORDER BY uploaded_at DESC;`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	var files []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan file metadata: %w", err)
		}
		files = append(files, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate files: %w", err)
	}
	return files, nil
}

// Delete removes metadata for an owned file and returns the deleted record.
func (r *Repository) Delete(ctx context.Context, ownerID, fileID uuid.UUID) (Record, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
DELETE FROM files
WHERE id = $1 AND owner_id = $2
RETURNING ` + recordColumns + `;`

	rec, err := scanRecord(r.pool.QueryRow(ctx, query, fileID, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrFileNotFound
		}
		return Record{}, fmt.Errorf("delete file metadata: %w", err)
	}
	return rec, nil
}

// SetPublic marks an owned file public with the given token. Both fields
// change in one statement so the token invariant holds.
func (r *Repository) SetPublic(ctx context.Context, ownerID, fileID uuid.UUID, token string, expiresAt *time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
UPDATE files
SET is_public = TRUE, public_token = $3, token_expires_at = $4
WHERE id = $1 AND owner_id = $2;`

	tag, err := r.pool.Exec(ctx, query, fileID, ownerID, token, expiresAt)
	if err != nil {
		return fmt.Errorf("set file public: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrFileNotFound
	}
	return nil
}

// ClearPublic revokes public access for an owned file.
func (r *Repository) ClearPublic(ctx context.Context, ownerID, fileID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
UPDATE files
SET is_public = FALSE, public_token = NULL, token_expires_at = NULL
WHERE id = $1 AND owner_id = $2;`

	tag, err := r.pool.Exec(ctx, query, fileID, ownerID)
	if err != nil {
		return fmt.Errorf("clear file public: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrFileNotFound
	}
	return nil
}

// FindByToken resolves a live public token to its file.
func (r *Repository) FindByToken(ctx context.Context, token string) (Record, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
SELECT ` + recordColumns + `
FROM files
WHERE public_token = $1
  AND is_public = TRUE
  AND (token_expires_at IS NULL OR token_expires_at > NOW());`

	rec, err := scanRecord(r.pool.QueryRow(ctx, query, token))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrFileNotFound
		}
		return Record{}, fmt.Errorf("find file by token: %w", err)
	}
	return rec, nil
}

// IncrementDownloadCount bumps the public download counter.
func (r *Repository) IncrementDownloadCount(ctx context.Context, fileID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	if _, err := r.pool.Exec(ctx,
		`UPDATE files SET download_count = download_count + 1 WHERE id = $1;`, fileID); err != nil {
		return fmt.Errorf("increment download count: %w", err)
	}
	return nil
}

// UsageBytes sums stored sizes for the owner.
func (r *Repository) UsageBytes(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	var total int64
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(size_bytes), 0) FROM files WHERE owner_id = $1;`, ownerID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum usage: %w", err)
	}
	return total, nil
}

// Stats returns file count and total bytes for the owner.
func (r *Repository) Stats(ctx context.Context, ownerID uuid.UUID) (int64, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	var count, total int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(SUM(size_bytes), 0) FROM files WHERE owner_id = $1;`, ownerID).
		Scan(&count, &total)
	if err != nil {
		return 0, 0, fmt.Errorf("owner stats: %w", err)
	}
	return count, total, nil
}

// ListFolders returns the owner's non-empty folder names.
func (r *Repository) ListFolders(ctx context.Context, ownerID uuid.UUID) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT folder FROM files WHERE owner_id = $1 AND folder <> '' ORDER BY folder;`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}
	defer rows.Close()

	var folders []string
	for rows.Next() {
		var folder string
		if err := rows.Scan(&folder); err != nil {
			return nil, fmt.Errorf("scan folder: %w", err)
		}
		folders = append(folders, folder)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate folders: %w", err)
	}
	return folders, nil
}

func scanRecord(row pgx.Row) (Record, error) {
	var rec Record
	err := row.Scan(
		&rec.ID,
		&rec.OwnerID,
		&rec.StoredName,
		&rec.OriginalName,
		&rec.StoragePath,
		&rec.SizeBytes,
		&rec.FileType,
		&rec.MimeType,
		&rec.Folder,
		&rec.IsPublic,
		&rec.PublicToken,
		&rec.TokenExpiresAt,
		&rec.DownloadCount,
		&rec.UploadedAt,
	)
	return rec, err
}
