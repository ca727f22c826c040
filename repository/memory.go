package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"knowai-backend/models"

	"github.com/google/uuid"
)

// MemoryStore is the in-memory fallback backend. It mirrors the Postgres
// semantics, including the atomic conditional complete and delete paths,
// which a single mutex around each operation gives for free. It also backs
// the test suite.
type MemoryStore struct {
	mu       sync.Mutex
	files    map[uuid.UUID]*models.File
	folders  map[uuid.UUID]*models.Folder
	metadata map[uuid.UUID]*fileMetadata
}

type fileMetadata struct {
	docType     *string
	chunksCount *int
	indexed     *bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		files:    make(map[uuid.UUID]*models.File),
		folders:  make(map[uuid.UUID]*models.Folder),
		metadata: make(map[uuid.UUID]*fileMetadata),
	}
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() {}

func copyFile(f *models.File) *models.File {
	c := *f
	return &c
}

func copyFolder(f *models.Folder) *models.Folder {
	c := *f
	return &c
}

// CreateFile inserts a new file record.
func (s *MemoryStore) CreateFile(ctx context.Context, file *models.File) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.files[file.ID]; ok {
		return fmt.Errorf("file %s already exists: %w", file.ID, models.ErrConflict)
	}
	file.CreatedAt = time.Now().UTC()
	s.files[file.ID] = copyFile(file)
	return nil
}

// GetFile retrieves a file by ID.
func (s *MemoryStore) GetFile(ctx context.Context, id uuid.UUID) (*models.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, ok := s.files[id]
	if !ok {
		return nil, fmt.Errorf("file %s: %w", id, models.ErrNotFound)
	}
	return copyFile(file), nil
}

// CompleteFile commits size and checksum for a pending file; first caller wins.
func (s *MemoryStore) CompleteFile(ctx context.Context, id uuid.UUID, size int64, checksum string) (*models.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, ok := s.files[id]
	if !ok {
		return nil, fmt.Errorf("file %s: %w", id, models.ErrNotFound)
	}
	if !file.Status.CanTransition(models.StatusProcessing) {
		return nil, fmt.Errorf("file %s is not pending: %w", id, models.ErrConflict)
	}

	file.Size = size
	file.Checksum = &checksum
	file.Status = models.StatusProcessing
	return copyFile(file), nil
}

// ApplyProcessingResult records a stage's status report plus metadata.
func (s *MemoryStore) ApplyProcessingResult(ctx context.Context, res models.ProcessingResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, ok := s.files[res.FileID]
	if !ok {
		return fmt.Errorf("file %s: %w", res.FileID, models.ErrNotFound)
	}
	if file.Status.CanTransition(res.Status) {
		file.Status = res.Status
	}

	meta, ok := s.metadata[res.FileID]
	if !ok {
		meta = &fileMetadata{}
		s.metadata[res.FileID] = meta
	}
	if res.DocType != nil {
		meta.docType = res.DocType
	}
	if res.ChunksCount != nil {
		meta.chunksCount = res.ChunksCount
	}
	if res.Indexed != nil {
		meta.indexed = res.Indexed
	}
	return nil
}

// DeleteFile removes a file record and returns it.
func (s *MemoryStore) DeleteFile(ctx context.Context, id uuid.UUID) (*models.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, ok := s.files[id]
	if !ok {
		return nil, fmt.Errorf("file %s: %w", id, models.ErrNotFound)
	}
	delete(s.files, id)
	delete(s.metadata, id)
	return file, nil
}

// GetProcessingInfo returns the status projection for polling.
func (s *MemoryStore) GetProcessingInfo(ctx context.Context, id uuid.UUID) (*models.ProcessingInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, ok := s.files[id]
	if !ok {
		return nil, fmt.Errorf("file %s: %w", id, models.ErrNotFound)
	}

	info := &models.ProcessingInfo{
		ID:        file.ID,
		Filename:  file.Filename,
		Status:    file.Status,
		CreatedAt: file.CreatedAt,
	}
	if meta, ok := s.metadata[id]; ok {
		info.DocType = meta.docType
		info.ChunksCount = meta.chunksCount
		info.Indexed = meta.indexed
	}
	return info, nil
}

// ListFiles retrieves the most recent files.
func (s *MemoryStore) ListFiles(ctx context.Context, limit int) ([]*models.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	files := make([]*models.File, 0, len(s.files))
	for _, f := range s.files {
		files = append(files, copyFile(f))
	}
	sort.Slice(files, func(i, j int) bool {
		return files[i].CreatedAt.After(files[j].CreatedAt)
	})
	if limit > 0 && len(files) > limit {
		files = files[:limit]
	}
	return files, nil
}

// ListFilesInFolder retrieves files in a folder; nil means the root.
func (s *MemoryStore) ListFilesInFolder(ctx context.Context, folderID *uuid.UUID) ([]*models.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var files []*models.File
	for _, f := range s.files {
		if sameParent(f.FolderID, folderID) {
			files = append(files, copyFile(f))
		}
	}
	sort.Slice(files, func(i, j int) bool {
		return files[i].Filename < files[j].Filename
	})
	return files, nil
}

// MoveFile reparents a file; nil means the root.
func (s *MemoryStore) MoveFile(ctx context.Context, id uuid.UUID, folderID *uuid.UUID) (*models.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, ok := s.files[id]
	if !ok {
		return nil, fmt.Errorf("file %s: %w", id, models.ErrNotFound)
	}
	if folderID != nil {
		if _, ok := s.folders[*folderID]; !ok {
			return nil, fmt.Errorf("folder %s: %w", *folderID, models.ErrNotFound)
		}
	}
	file.FolderID = folderID
	return copyFile(file), nil
}

// SearchFiles matches filenames case-insensitively.
func (s *MemoryStore) SearchFiles(ctx context.Context, search string, limit int) ([]*models.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	needle := strings.ToLower(search)
	var files []*models.File
	for _, f := range s.files {
		if strings.Contains(strings.ToLower(f.Filename), needle) {
			files = append(files, copyFile(f))
		}
	}
	sort.Slice(files, func(i, j int) bool {
		return files[i].CreatedAt.After(files[j].CreatedAt)
	})
	if limit > 0 && len(files) > limit {
		files = files[:limit]
	}
	return files, nil
}

// CreateFolder inserts a new folder; a non-nil parent must exist.
func (s *MemoryStore) CreateFolder(ctx context.Context, folder *models.Folder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if folder.ParentID != nil {
		if _, ok := s.folders[*folder.ParentID]; !ok {
			return fmt.Errorf("folder %s: %w", *folder.ParentID, models.ErrNotFound)
		}
	}
	folder.CreatedAt = time.Now().UTC()
	s.folders[folder.ID] = copyFolder(folder)
	return nil
}

// GetFolder retrieves a folder by ID.
func (s *MemoryStore) GetFolder(ctx context.Context, id uuid.UUID) (*models.Folder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	folder, ok := s.folders[id]
	if !ok {
		return nil, fmt.Errorf("folder %s: %w", id, models.ErrNotFound)
	}
	return copyFolder(folder), nil
}

// RenameFolder renames a folder unconditionally.
func (s *MemoryStore) RenameFolder(ctx context.Context, id uuid.UUID, name string) (*models.Folder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	folder, ok := s.folders[id]
	if !ok {
		return nil, fmt.Errorf("folder %s: %w", id, models.ErrNotFound)
	}
	folder.Name = name
	return copyFolder(folder), nil
}

// DeleteFolder deletes a folder only when it has no children and no files.
func (s *MemoryStore) DeleteFolder(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.folders[id]; !ok {
		return fmt.Errorf("folder %s: %w", id, models.ErrNotFound)
	}
	for _, f := range s.folders {
		if f.ParentID != nil && *f.ParentID == id {
			return fmt.Errorf("folder %s is not empty: %w", id, models.ErrConflict)
		}
	}
	for _, f := range s.files {
		if f.FolderID != nil && *f.FolderID == id {
			return fmt.Errorf("folder %s is not empty: %w", id, models.ErrConflict)
		}
	}
	delete(s.folders, id)
	return nil
}

// ListChildFolders retrieves folders under a parent; nil means the root.
func (s *MemoryStore) ListChildFolders(ctx context.Context, parentID *uuid.UUID) ([]*models.Folder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var folders []*models.Folder
	for _, f := range s.folders {
		if sameParent(f.ParentID, parentID) {
			folders = append(folders, copyFolder(f))
		}
	}
	sort.Slice(folders, func(i, j int) bool {
		return folders[i].Name < folders[j].Name
	})
	return folders, nil
}

// Breadcrumb walks the parent chain and returns it root-first.
func (s *MemoryStore) Breadcrumb(ctx context.Context, id uuid.UUID) ([]*models.Folder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var chain []*models.Folder
	cur := &id
	for cur != nil {
		folder, ok := s.folders[*cur]
		if !ok {
			break
		}
		chain = append(chain, copyFolder(folder))
		cur = folder.ParentID
	}

	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}

func sameParent(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
