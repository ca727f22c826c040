// Package repository holds the metadata store behind a single interface.
// A Postgres-backed implementation and an in-memory fallback both satisfy
// Store; the backend is chosen exactly once at startup and injected into
// every component that needs it.
package repository

import (
	"context"

	"knowai-backend/config"
	"knowai-backend/db"
	"knowai-backend/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FileStore handles persistence for file records.
type FileStore interface {
	// CreateFile inserts a new record, filling in CreatedAt.
	CreateFile(ctx context.Context, file *models.File) error

	// GetFile returns the record or models.ErrNotFound.
	GetFile(ctx context.Context, id uuid.UUID) (*models.File, error)

	// CompleteFile commits size and checksum and moves the record from
	// pending to processing in one conditional update. A record that is
	// not pending yields models.ErrConflict, so of two racing callers
	// exactly one wins; an unknown id yields models.ErrNotFound.
	CompleteFile(ctx context.Context, id uuid.UUID, size int64, checksum string) (*models.File, error)

	// ApplyProcessingResult records a downstream stage's report: a status
	// transition plus whatever metadata the stage produced. Terminal
	// records keep their status but still absorb metadata.
	ApplyProcessingResult(ctx context.Context, res models.ProcessingResult) error

	// DeleteFile removes the record and returns it so the caller can
	// clean up the backing object.
	DeleteFile(ctx context.Context, id uuid.UUID) (*models.File, error)

	// GetProcessingInfo returns the polling projection for a file.
	GetProcessingInfo(ctx context.Context, id uuid.UUID) (*models.ProcessingInfo, error)

	// ListFiles returns the most recent files, newest first.
	ListFiles(ctx context.Context, limit int) ([]*models.File, error)

	// ListFilesInFolder returns files in a folder (nil = root), by filename.
	ListFilesInFolder(ctx context.Context, folderID *uuid.UUID) ([]*models.File, error)

	// MoveFile reparents a file (nil = root).
	MoveFile(ctx context.Context, id uuid.UUID, folderID *uuid.UUID) (*models.File, error)

	// SearchFiles matches filenames case-insensitively, newest first.
	SearchFiles(ctx context.Context, query string, limit int) ([]*models.File, error)
}

// FolderStore handles persistence for folders and the hierarchy invariants.
type FolderStore interface {
	// CreateFolder inserts a folder, filling in CreatedAt. A non-nil
	// ParentID must reference an existing folder.
	CreateFolder(ctx context.Context, folder *models.Folder) error

	// GetFolder returns the folder or models.ErrNotFound.
	GetFolder(ctx context.Context, id uuid.UUID) (*models.Folder, error)

	// RenameFolder is an unconditioned rename; sibling duplicates are fine.
	RenameFolder(ctx context.Context, id uuid.UUID, name string) (*models.Folder, error)

	// DeleteFolder deletes the folder only if it has no child folders and
	// no contained files. The emptiness check and the delete are a single
	// server-side operation, so concurrent callers cannot slip a delete in
	// between. Non-empty folders yield models.ErrConflict.
	DeleteFolder(ctx context.Context, id uuid.UUID) error

	// ListChildFolders returns folders under a parent (nil = root), by name.
	ListChildFolders(ctx context.Context, parentID *uuid.UUID) ([]*models.Folder, error)

	// Breadcrumb walks the parent chain and returns it root-first. A broken
	// parent link stops the walk early instead of erroring; an unknown id
	// yields an empty chain.
	Breadcrumb(ctx context.Context, id uuid.UUID) ([]*models.Folder, error)
}

// Store is the single query surface the rest of the application depends on.
type Store interface {
	FileStore
	FolderStore

	// Close releases the underlying backend, if any.
	Close()
}

// New selects the store backend once at startup. It connects to Postgres
// unless STORE_BACKEND=memory asks for the in-memory store directly; when
// Postgres is unreachable it logs the failure and falls back to memory so
// the service still comes up in development.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) Store {
	if cfg.StoreBackend == "memory" {
		logger.Info("using in-memory store")
		return NewMemoryStore()
	}

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Warn("postgres unreachable, falling back to in-memory store", zap.Error(err))
		return NewMemoryStore()
	}

	logger.Info("connected to postgres")
	return NewPostgresStore(pool)
}
