package repository

import (
	"context"
	"errors"
	"fmt"

	"knowai-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store over a pgx connection pool.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore creates a Postgres-backed store.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.db.Close()
}

const fileColumns = `id, folder_id, owner_id, filename, mime_type, size, checksum, object_key, status, created_at`

func scanFile(row pgx.Row) (*models.File, error) {
	file := &models.File{}
	err := row.Scan(
		&file.ID,
		&file.FolderID,
		&file.OwnerID,
		&file.Filename,
		&file.MimeType,
		&file.Size,
		&file.Checksum,
		&file.ObjectKey,
		&file.Status,
		&file.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return file, nil
}

// CreateFile inserts a new file record.
func (s *PostgresStore) CreateFile(ctx context.Context, file *models.File) error {
	query := `
		INSERT INTO files (
			id, folder_id, owner_id, filename, mime_type, size, checksum, object_key, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at`

	err := s.db.QueryRow(
		ctx, query,
		file.ID,
		file.FolderID,
		file.OwnerID,
		file.Filename,
		file.MimeType,
		file.Size,
		file.Checksum,
		file.ObjectKey,
		file.Status,
	).Scan(&file.CreatedAt)

	return err
}

// GetFile retrieves a file by ID.
func (s *PostgresStore) GetFile(ctx context.Context, id uuid.UUID) (*models.File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE id = $1`

	file, err := scanFile(s.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("file %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return file, nil
}

// CompleteFile commits size and checksum for a pending file and advances it
// to processing. The status predicate makes the transition first-wins under
// concurrent callers.
func (s *PostgresStore) CompleteFile(ctx context.Context, id uuid.UUID, size int64, checksum string) (*models.File, error) {
	query := `
		UPDATE files
		SET size = $2, checksum = $3, status = $4
		WHERE id = $1 AND status = $5
		RETURNING ` + fileColumns

	file, err := scanFile(s.db.QueryRow(ctx, query, id, size, checksum, models.StatusProcessing, models.StatusPending))
	if errors.Is(err, pgx.ErrNoRows) {
		// No pending row: distinguish an unknown file from one already
		// past pending.
		if _, getErr := s.GetFile(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, fmt.Errorf("file %s is not pending: %w", id, models.ErrConflict)
	}
	if err != nil {
		return nil, err
	}
	return file, nil
}

// ApplyProcessingResult records a stage's status report plus metadata. The
// WHERE clause mirrors models.FileStatus.CanTransition: error is reachable
// from any non-terminal state, completed only from processing.
func (s *PostgresStore) ApplyProcessingResult(ctx context.Context, res models.ProcessingResult) error {
	query := `
		UPDATE files
		SET status = $2
		WHERE id = $1
		  AND status NOT IN ($3, $4)
		  AND ($2::text = $4::text OR status = $5)`

	tag, err := s.db.Exec(ctx, query,
		res.FileID, res.Status, models.StatusCompleted, models.StatusError, models.StatusProcessing)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		if _, getErr := s.GetFile(ctx, res.FileID); getErr != nil {
			return getErr
		}
		// Illegal transition: keep the status, still merge metadata below.
	}

	metaQuery := `
		INSERT INTO file_metadata (file_id, doc_type, chunks_count, indexed)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (file_id) DO UPDATE SET
			doc_type     = COALESCE(EXCLUDED.doc_type, file_metadata.doc_type),
			chunks_count = COALESCE(EXCLUDED.chunks_count, file_metadata.chunks_count),
			indexed      = COALESCE(EXCLUDED.indexed, file_metadata.indexed)`

	_, err = s.db.Exec(ctx, metaQuery, res.FileID, res.DocType, res.ChunksCount, res.Indexed)
	return err
}

// DeleteFile removes the metadata row and returns the deleted record.
func (s *PostgresStore) DeleteFile(ctx context.Context, id uuid.UUID) (*models.File, error) {
	query := `DELETE FROM files WHERE id = $1 RETURNING ` + fileColumns

	file, err := scanFile(s.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("file %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return file, nil
}

// GetProcessingInfo returns the status projection for polling.
func (s *PostgresStore) GetProcessingInfo(ctx context.Context, id uuid.UUID) (*models.ProcessingInfo, error) {
	query := `
		SELECT f.id, f.filename, f.status, f.created_at,
		       m.doc_type, m.chunks_count, m.indexed
		FROM files f
		LEFT JOIN file_metadata m ON m.file_id = f.id
		WHERE f.id = $1`

	info := &models.ProcessingInfo{}
	err := s.db.QueryRow(ctx, query, id).Scan(
		&info.ID,
		&info.Filename,
		&info.Status,
		&info.CreatedAt,
		&info.DocType,
		&info.ChunksCount,
		&info.Indexed,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("file %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return info, nil
}

// ListFiles retrieves the most recent files.
func (s *PostgresStore) ListFiles(ctx context.Context, limit int) ([]*models.File, error) {
	query := `SELECT ` + fileColumns + ` FROM files ORDER BY created_at DESC LIMIT $1`
	return s.queryFiles(ctx, query, limit)
}

// ListFilesInFolder retrieves files in a folder; nil means the root.
func (s *PostgresStore) ListFilesInFolder(ctx context.Context, folderID *uuid.UUID) ([]*models.File, error) {
	query := `
		SELECT ` + fileColumns + `
		FROM files
		WHERE coalesce(folder_id::text, 'root') = coalesce($1, 'root')
		ORDER BY filename ASC`

	var arg *string
	if folderID != nil {
		v := folderID.String()
		arg = &v
	}
	return s.queryFiles(ctx, query, arg)
}

// MoveFile reparents a file; nil means the root.
func (s *PostgresStore) MoveFile(ctx context.Context, id uuid.UUID, folderID *uuid.UUID) (*models.File, error) {
	if folderID != nil {
		if _, err := s.GetFolder(ctx, *folderID); err != nil {
			return nil, err
		}
	}

	query := `UPDATE files SET folder_id = $2 WHERE id = $1 RETURNING ` + fileColumns

	file, err := scanFile(s.db.QueryRow(ctx, query, id, folderID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("file %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return file, nil
}

// SearchFiles matches filenames case-insensitively.
func (s *PostgresStore) SearchFiles(ctx context.Context, search string, limit int) ([]*models.File, error) {
	query := `
		SELECT ` + fileColumns + `
		FROM files
		WHERE filename ILIKE '%' || $1 || '%'
		ORDER BY created_at DESC
		LIMIT $2`
	return s.queryFiles(ctx, query, search, limit)
}

func (s *PostgresStore) queryFiles(ctx context.Context, query string, args ...any) ([]*models.File, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []*models.File
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, rows.Err()
}
