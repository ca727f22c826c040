package repository

import (
	"context"
	"errors"
	"fmt"

	"knowai-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const folderColumns = `id, name, parent_id, owner_id, created_at`

func scanFolder(row pgx.Row) (*models.Folder, error) {
	folder := &models.Folder{}
	err := row.Scan(
		&folder.ID,
		&folder.Name,
		&folder.ParentID,
		&folder.OwnerID,
		&folder.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return folder, nil
}

// CreateFolder inserts a new folder. A non-nil parent must already exist,
// which is also what rules out cycles: a folder cannot reference a parent
// created after it.
func (s *PostgresStore) CreateFolder(ctx context.Context, folder *models.Folder) error {
	if folder.ParentID != nil {
		if _, err := s.GetFolder(ctx, *folder.ParentID); err != nil {
			return err
		}
	}

	query := `
		INSERT INTO folders (id, name, parent_id, owner_id)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`

	return s.db.QueryRow(ctx, query, folder.ID, folder.Name, folder.ParentID, folder.OwnerID).
		Scan(&folder.CreatedAt)
}

// GetFolder retrieves a folder by ID.
func (s *PostgresStore) GetFolder(ctx context.Context, id uuid.UUID) (*models.Folder, error) {
	query := `SELECT ` + folderColumns + ` FROM folders WHERE id = $1`

	folder, err := scanFolder(s.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("folder %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return folder, nil
}

// RenameFolder renames a folder unconditionally.
func (s *PostgresStore) RenameFolder(ctx context.Context, id uuid.UUID, name string) (*models.Folder, error) {
	query := `UPDATE folders SET name = $2 WHERE id = $1 RETURNING ` + folderColumns

	folder, err := scanFolder(s.db.QueryRow(ctx, query, id, name))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("folder %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return folder, nil
}

// DeleteFolder deletes a folder only when it has no children and no files.
// The emptiness predicate lives inside the DELETE itself, so the check and
// the delete cannot be separated by a concurrent insert.
func (s *PostgresStore) DeleteFolder(ctx context.Context, id uuid.UUID) error {
	query := `
		DELETE FROM folders f
		WHERE f.id = $1
		  AND NOT EXISTS (SELECT 1 FROM folders c WHERE c.parent_id = f.id)
		  AND NOT EXISTS (SELECT 1 FROM files x WHERE x.folder_id = f.id)`

	tag, err := s.db.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	// Nothing deleted: either the folder is unknown or it is non-empty.
	if _, err := s.GetFolder(ctx, id); err != nil {
		return err
	}
	return fmt.Errorf("folder %s is not empty: %w", id, models.ErrConflict)
}

// ListChildFolders retrieves folders under a parent; nil means the root.
func (s *PostgresStore) ListChildFolders(ctx context.Context, parentID *uuid.UUID) ([]*models.Folder, error) {
	query := `
		SELECT ` + folderColumns + `
		FROM folders
		WHERE coalesce(parent_id::text, 'root') = coalesce($1, 'root')
		ORDER BY name ASC`

	var arg *string
	if parentID != nil {
		v := parentID.String()
		arg = &v
	}

	rows, err := s.db.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var folders []*models.Folder
	for rows.Next() {
		folder, err := scanFolder(rows)
		if err != nil {
			return nil, err
		}
		folders = append(folders, folder)
	}
	return folders, rows.Err()
}

// Breadcrumb walks the parent chain from id up to the root and returns it
// root-first. A missing link ends the walk with whatever was collected.
func (s *PostgresStore) Breadcrumb(ctx context.Context, id uuid.UUID) ([]*models.Folder, error) {
	var chain []*models.Folder

	cur := &id
	for cur != nil {
		folder, err := s.GetFolder(ctx, *cur)
		if errors.Is(err, models.ErrNotFound) {
			break
		}
		if err != nil {
			return nil, err
		}
		chain = append(chain, folder)
		cur = folder.ParentID
	}

	// Reverse in place: collected leaf-first, returned root-first.
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}
