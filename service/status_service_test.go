package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"knowai-backend/models"
	"knowai-backend/repository"

	"github.com/google/uuid"
)

func newStatusFixture(t *testing.T) (*StatusService, *repository.MemoryStore, *models.File) {
	t.Helper()

	store := repository.NewMemoryStore()
	svc := NewStatusService(StatusWithStore(store))

	owner := uuid.New()
	id := uuid.New()
	file := &models.File{
		ID:        id,
		OwnerID:   owner,
		Filename:  "report.pdf",
		MimeType:  "application/pdf",
		ObjectKey: models.ObjectKey(owner, id, "report.pdf", time.Now()),
		Status:    models.StatusPending,
	}
	if err := store.CreateFile(context.Background(), file); err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	return svc, store, file
}

func TestGetStatusUnknown(t *testing.T) {
	svc, _, _ := newStatusFixture(t)

	_, err := svc.GetStatus(context.Background(), uuid.New())
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("GetStatus(unknown) error = %v, want ErrNotFound", err)
	}
}

func TestGetStatusIdempotent(t *testing.T) {
	svc, _, file := newStatusFixture(t)
	ctx := context.Background()

	first, err := svc.GetStatus(ctx, file.ID)
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	second, err := svc.GetStatus(ctx, file.ID)
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if first.Status != second.Status || first.ID != second.ID || first.Filename != second.Filename {
		t.Errorf("repeated reads differ: %+v vs %+v", first, second)
	}
}

func TestReport(t *testing.T) {
	svc, store, file := newStatusFixture(t)
	ctx := context.Background()

	if _, err := store.CompleteFile(ctx, file.ID, 10, "c"); err != nil {
		t.Fatalf("CompleteFile: %v", err)
	}

	chunks := 7
	err := svc.Report(ctx, models.ProcessingResult{
		FileID:      file.ID,
		Status:      models.StatusCompleted,
		ChunksCount: &chunks,
	})
	if err != nil {
		t.Fatalf("Report: %v", err)
	}

	info, err := svc.GetStatus(ctx, file.ID)
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if info.Status != models.StatusCompleted {
		t.Errorf("status = %s, want completed", info.Status)
	}
	if info.ChunksCount == nil || *info.ChunksCount != 7 {
		t.Errorf("chunks_count = %v, want 7", info.ChunksCount)
	}
}

func TestReportRejectsNonTerminalStatus(t *testing.T) {
	svc, _, file := newStatusFixture(t)

	err := svc.Report(context.Background(), models.ProcessingResult{
		FileID: file.ID,
		Status: models.StatusProcessing,
	})
	if err == nil {
		t.Fatal("Report accepted a non-terminal status")
	}
}

func TestReportUnknownFile(t *testing.T) {
	svc, _, _ := newStatusFixture(t)

	err := svc.Report(context.Background(), models.ProcessingResult{
		FileID: uuid.New(),
		Status: models.StatusError,
	})
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("Report(unknown) error = %v, want ErrNotFound", err)
	}
}
