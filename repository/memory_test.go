package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"knowai-backend/models"

	"github.com/google/uuid"
)

func newTestFile(t *testing.T, s Store, folderID *uuid.UUID) *models.File {
	t.Helper()

	owner := uuid.New()
	id := uuid.New()
	file := &models.File{
		ID:        id,
		FolderID:  folderID,
		OwnerID:   owner,
		Filename:  "report.pdf",
		MimeType:  "application/pdf",
		Size:      0,
		ObjectKey: models.ObjectKey(owner, id, "report.pdf", time.Now()),
		Status:    models.StatusPending,
	}
	if err := s.CreateFile(context.Background(), file); err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	return file
}

func newTestFolder(t *testing.T, s Store, name string, parentID *uuid.UUID) *models.Folder {
	t.Helper()

	folder := &models.Folder{
		ID:       uuid.New(),
		Name:     name,
		ParentID: parentID,
		OwnerID:  uuid.New(),
	}
	if err := s.CreateFolder(context.Background(), folder); err != nil {
		t.Fatalf("CreateFolder(%q): %v", name, err)
	}
	return folder
}

func TestCompleteFileUnknownID(t *testing.T) {
	s := NewMemoryStore()

	_, err := s.CompleteFile(context.Background(), uuid.New(), 1024, "abc123")
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("CompleteFile(unknown) error = %v, want ErrNotFound", err)
	}

	// And it mutated nothing.
	files, err := s.ListFiles(context.Background(), 0)
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	if len(files) != 0 {
		t.Errorf("store has %d files after failed complete, want 0", len(files))
	}
}

func TestUploadRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	file := newTestFile(t, s, nil)
	if file.Status != models.StatusPending || file.Size != 0 || file.Checksum != nil {
		t.Fatalf("fresh record = {status %s, size %d, checksum %v}, want pending/0/nil",
			file.Status, file.Size, file.Checksum)
	}

	got, err := s.CompleteFile(ctx, file.ID, 1024, "abc123")
	if err != nil {
		t.Fatalf("CompleteFile: %v", err)
	}
	if got.Size != 1024 {
		t.Errorf("size = %d, want 1024", got.Size)
	}
	if got.Checksum == nil || *got.Checksum != "abc123" {
		t.Errorf("checksum = %v, want abc123", got.Checksum)
	}
	if got.Status != models.StatusProcessing {
		t.Errorf("status = %s, want processing", got.Status)
	}
}

func TestCompleteFileTwiceConflicts(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	file := newTestFile(t, s, nil)
	if _, err := s.CompleteFile(ctx, file.ID, 1024, "abc123"); err != nil {
		t.Fatalf("first CompleteFile: %v", err)
	}

	_, err := s.CompleteFile(ctx, file.ID, 2048, "def456")
	if !errors.Is(err, models.ErrConflict) {
		t.Fatalf("second CompleteFile error = %v, want ErrConflict", err)
	}

	// The first commit sticks.
	got, err := s.GetFile(ctx, file.ID)
	if err != nil {
		t.Fatalf("GetFile: %v", err)
	}
	if got.Size != 1024 || *got.Checksum != "abc123" {
		t.Errorf("record = {size %d, checksum %s}, want first caller's 1024/abc123",
			got.Size, *got.Checksum)
	}
}

// Two concurrent completes with different checksums: exactly one wins the
// pending->processing transition, the other observes a conflict.
func TestCompleteFileConcurrentRace(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	file := newTestFile(t, s, nil)

	type result struct {
		file *models.File
		err  error
	}
	results := make([]result, 2)
	checksums := []string{"aaa111", "bbb222"}

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			f, err := s.CompleteFile(ctx, file.ID, int64(1000+i), checksums[i])
			results[i] = result{f, err}
		}(i)
	}
	wg.Wait()

	var winners, conflicts int
	var winner *models.File
	for _, r := range results {
		switch {
		case r.err == nil:
			winners++
			winner = r.file
		case errors.Is(r.err, models.ErrConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", r.err)
		}
	}
	if winners != 1 || conflicts != 1 {
		t.Fatalf("winners = %d, conflicts = %d, want exactly one of each", winners, conflicts)
	}

	got, err := s.GetFile(ctx, file.ID)
	if err != nil {
		t.Fatalf("GetFile: %v", err)
	}
	if got.Size != winner.Size || *got.Checksum != *winner.Checksum {
		t.Errorf("stored record does not match the winning caller")
	}
}

// deleteFolder succeeds iff the folder has zero child folders and zero files.
func TestDeleteFolderEmptinessInvariant(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	docs := newTestFolder(t, s, "Docs", nil)
	sub := newTestFolder(t, s, "Sub", &docs.ID)

	if err := s.DeleteFolder(ctx, docs.ID); !errors.Is(err, models.ErrConflict) {
		t.Fatalf("DeleteFolder(non-empty) error = %v, want ErrConflict", err)
	}
	if err := s.DeleteFolder(ctx, sub.ID); err != nil {
		t.Fatalf("DeleteFolder(empty leaf): %v", err)
	}
	if err := s.DeleteFolder(ctx, docs.ID); err != nil {
		t.Fatalf("DeleteFolder(now empty): %v", err)
	}
	if err := s.DeleteFolder(ctx, docs.ID); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("DeleteFolder(gone) error = %v, want ErrNotFound", err)
	}
}

func TestDeleteFolderWithFileConflicts(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	folder := newTestFolder(t, s, "Docs", nil)
	file := newTestFile(t, s, &folder.ID)

	if err := s.DeleteFolder(ctx, folder.ID); !errors.Is(err, models.ErrConflict) {
		t.Fatalf("DeleteFolder(contains file) error = %v, want ErrConflict", err)
	}

	if _, err := s.DeleteFile(ctx, file.ID); err != nil {
		t.Fatalf("DeleteFile: %v", err)
	}
	if err := s.DeleteFolder(ctx, folder.ID); err != nil {
		t.Fatalf("DeleteFolder(after file removed): %v", err)
	}
}

func TestCreateFolderMissingParent(t *testing.T) {
	s := NewMemoryStore()
	missing := uuid.New()

	err := s.CreateFolder(context.Background(), &models.Folder{
		ID:       uuid.New(),
		Name:     "Orphan",
		ParentID: &missing,
		OwnerID:  uuid.New(),
	})
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("CreateFolder(missing parent) error = %v, want ErrNotFound", err)
	}
}

func TestBreadcrumb(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	root := newTestFolder(t, s, "Root", nil)
	mid := newTestFolder(t, s, "Mid", &root.ID)
	leaf := newTestFolder(t, s, "Leaf", &mid.ID)

	chain, err := s.Breadcrumb(ctx, leaf.ID)
	if err != nil {
		t.Fatalf("Breadcrumb: %v", err)
	}
	want := []string{"Root", "Mid", "Leaf"}
	if len(chain) != len(want) {
		t.Fatalf("chain length = %d, want %d", len(chain), len(want))
	}
	for i, name := range want {
		if chain[i].Name != name {
			t.Errorf("chain[%d] = %q, want %q", i, chain[i].Name, name)
		}
	}

	// Unknown id yields an empty chain, not an error.
	chain, err = s.Breadcrumb(ctx, uuid.New())
	if err != nil {
		t.Fatalf("Breadcrumb(unknown): %v", err)
	}
	if len(chain) != 0 {
		t.Errorf("chain for unknown id has %d entries, want 0", len(chain))
	}
}

func TestGetProcessingInfoIdempotent(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	file := newTestFile(t, s, nil)

	first, err := s.GetProcessingInfo(ctx, file.ID)
	if err != nil {
		t.Fatalf("GetProcessingInfo: %v", err)
	}
	second, err := s.GetProcessingInfo(ctx, file.ID)
	if err != nil {
		t.Fatalf("GetProcessingInfo: %v", err)
	}
	if *first != *second {
		t.Errorf("repeated reads differ: %+v vs %+v", first, second)
	}
	if first.Status != models.StatusPending {
		t.Errorf("status = %s, want pending", first.Status)
	}
}

func TestApplyProcessingResult(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	file := newTestFile(t, s, nil)

	if _, err := s.CompleteFile(ctx, file.ID, 10, "c"); err != nil {
		t.Fatalf("CompleteFile: %v", err)
	}

	docType := "well_report"
	chunks := 42
	indexed := true
	err := s.ApplyProcessingResult(ctx, models.ProcessingResult{
		FileID:      file.ID,
		Status:      models.StatusCompleted,
		DocType:     &docType,
		ChunksCount: &chunks,
		Indexed:     &indexed,
	})
	if err != nil {
		t.Fatalf("ApplyProcessingResult: %v", err)
	}

	info, err := s.GetProcessingInfo(ctx, file.ID)
	if err != nil {
		t.Fatalf("GetProcessingInfo: %v", err)
	}
	if info.Status != models.StatusCompleted {
		t.Errorf("status = %s, want completed", info.Status)
	}
	if info.DocType == nil || *info.DocType != "well_report" {
		t.Errorf("doc_type = %v, want well_report", info.DocType)
	}
	if info.ChunksCount == nil || *info.ChunksCount != 42 {
		t.Errorf("chunks_count = %v, want 42", info.ChunksCount)
	}
	if info.Indexed == nil || !*info.Indexed {
		t.Errorf("indexed = %v, want true", info.Indexed)
	}

	// A later report cannot move a terminal record, but metadata merges.
	err = s.ApplyProcessingResult(ctx, models.ProcessingResult{
		FileID: file.ID,
		Status: models.StatusError,
	})
	if err != nil {
		t.Fatalf("ApplyProcessingResult(terminal): %v", err)
	}
	info, _ = s.GetProcessingInfo(ctx, file.ID)
	if info.Status != models.StatusCompleted {
		t.Errorf("terminal status moved to %s", info.Status)
	}
}

func TestApplyProcessingResultSkipsIllegalTransition(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	file := newTestFile(t, s, nil)

	// completed is only reachable from processing; reported against a
	// never-committed upload it leaves the record pending, though the
	// metadata still merges.
	chunks := 3
	err := s.ApplyProcessingResult(ctx, models.ProcessingResult{
		FileID:      file.ID,
		Status:      models.StatusCompleted,
		ChunksCount: &chunks,
	})
	if err != nil {
		t.Fatalf("ApplyProcessingResult: %v", err)
	}
	info, err := s.GetProcessingInfo(ctx, file.ID)
	if err != nil {
		t.Fatalf("GetProcessingInfo: %v", err)
	}
	if info.Status != models.StatusPending {
		t.Errorf("status = %s, want pending", info.Status)
	}
	if info.ChunksCount == nil || *info.ChunksCount != 3 {
		t.Errorf("chunks_count = %v, want 3", info.ChunksCount)
	}

	// error is reachable from any non-terminal state.
	err = s.ApplyProcessingResult(ctx, models.ProcessingResult{
		FileID: file.ID,
		Status: models.StatusError,
	})
	if err != nil {
		t.Fatalf("ApplyProcessingResult(error): %v", err)
	}
	info, _ = s.GetProcessingInfo(ctx, file.ID)
	if info.Status != models.StatusError {
		t.Errorf("status = %s, want error", info.Status)
	}
}

func TestMoveFile(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	folder := newTestFolder(t, s, "Docs", nil)
	file := newTestFile(t, s, nil)

	moved, err := s.MoveFile(ctx, file.ID, &folder.ID)
	if err != nil {
		t.Fatalf("MoveFile: %v", err)
	}
	if moved.FolderID == nil || *moved.FolderID != folder.ID {
		t.Errorf("folder_id = %v, want %s", moved.FolderID, folder.ID)
	}

	missing := uuid.New()
	if _, err := s.MoveFile(ctx, file.ID, &missing); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("MoveFile(missing folder) error = %v, want ErrNotFound", err)
	}

	back, err := s.MoveFile(ctx, file.ID, nil)
	if err != nil {
		t.Fatalf("MoveFile(root): %v", err)
	}
	if back.FolderID != nil {
		t.Errorf("folder_id = %v, want nil", back.FolderID)
	}
}

func TestListChildren(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	parent := newTestFolder(t, s, "Parent", nil)
	newTestFolder(t, s, "B", &parent.ID)
	newTestFolder(t, s, "A", &parent.ID)
	inFolder := newTestFile(t, s, &parent.ID)
	newTestFile(t, s, nil)

	folders, err := s.ListChildFolders(ctx, &parent.ID)
	if err != nil {
		t.Fatalf("ListChildFolders: %v", err)
	}
	if len(folders) != 2 || folders[0].Name != "A" || folders[1].Name != "B" {
		t.Errorf("child folders = %v, want [A B]", folders)
	}

	files, err := s.ListFilesInFolder(ctx, &parent.ID)
	if err != nil {
		t.Fatalf("ListFilesInFolder: %v", err)
	}
	if len(files) != 1 || files[0].ID != inFolder.ID {
		t.Errorf("files in folder = %d, want just the one created there", len(files))
	}

	rootFolders, err := s.ListChildFolders(ctx, nil)
	if err != nil {
		t.Fatalf("ListChildFolders(root): %v", err)
	}
	if len(rootFolders) != 1 || rootFolders[0].ID != parent.ID {
		t.Errorf("root folders = %d, want 1", len(rootFolders))
	}
}

func TestSearchFiles(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	file := newTestFile(t, s, nil) // report.pdf

	hits, err := s.SearchFiles(ctx, "REPO", 10)
	if err != nil {
		t.Fatalf("SearchFiles: %v", err)
	}
	if len(hits) != 1 || hits[0].ID != file.ID {
		t.Errorf("search hits = %d, want 1", len(hits))
	}

	hits, err = s.SearchFiles(ctx, "nomatch", 10)
	if err != nil {
		t.Fatalf("SearchFiles: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("search hits = %d, want 0", len(hits))
	}
}
