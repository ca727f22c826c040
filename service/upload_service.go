// Package service holds the upload orchestrator, the processing dispatcher
// and the status tracker.
package service

import (
	"context"
	"fmt"
	"time"

	"knowai-backend/models"
	"knowai-backend/repository"
	"knowai-backend/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UploadService drives the two-phase upload lifecycle. Phase one hands the
// client a presigned descriptor next to a pending metadata row; phase two
// commits the client-reported size and checksum and kicks off downstream
// processing. The service brackets an upload it cannot observe directly:
// the bytes move straight from the client to the object store.
type UploadService struct {
	store      repository.Store
	gateway    storage.Gateway
	dispatcher *DispatchService
	logger     *zap.Logger

	maxUploadBytes int64
	now            func() time.Time
}

// UploadServiceOption is a functional option for UploadService
type UploadServiceOption func(*UploadService)

// UploadWithStore sets the metadata store
func UploadWithStore(store repository.Store) UploadServiceOption {
	return func(s *UploadService) {
		s.store = store
	}
}

// UploadWithGateway sets the object-store gateway
func UploadWithGateway(gateway storage.Gateway) UploadServiceOption {
	return func(s *UploadService) {
		s.gateway = gateway
	}
}

// UploadWithDispatcher sets the processing dispatcher
func UploadWithDispatcher(dispatcher *DispatchService) UploadServiceOption {
	return func(s *UploadService) {
		s.dispatcher = dispatcher
	}
}

// UploadWithLogger sets the logger
func UploadWithLogger(logger *zap.Logger) UploadServiceOption {
	return func(s *UploadService) {
		s.logger = logger
	}
}

// UploadWithMaxBytes sets the upload size ceiling
func UploadWithMaxBytes(maxBytes int64) UploadServiceOption {
	return func(s *UploadService) {
		s.maxUploadBytes = maxBytes
	}
}

// UploadWithClock overrides the clock, for tests.
func UploadWithClock(now func() time.Time) UploadServiceOption {
	return func(s *UploadService) {
		s.now = now
	}
}

// NewUploadService creates a new upload service
func NewUploadService(opts ...UploadServiceOption) *UploadService {
	s := &UploadService{
		logger:         zap.NewNop(),
		maxUploadBytes: 1_000_000_000,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BeginUploadRequest represents a request to start an upload
type BeginUploadRequest struct {
	Filename string
	MimeType string
	FolderID *uuid.UUID
	OwnerID  uuid.UUID
}

// BeginUploadResult pairs the pending record with the upload descriptor
type BeginUploadResult struct {
	File       *models.File
	Descriptor *storage.UploadDescriptor
}

// BeginUpload creates a pending metadata row and a presigned descriptor for
// it. No bytes have moved when this returns; a crash between the insert and
// the client's upload leaves an orphan pending row with no backing object,
// which is left for an external sweep.
func (s *UploadService) BeginUpload(ctx context.Context, req BeginUploadRequest) (*BeginUploadResult, error) {
	if req.Filename == "" {
		return nil, fmt.Errorf("filename is required")
	}
	if req.MimeType == "" {
		req.MimeType = "application/octet-stream"
	}
	if req.FolderID != nil {
		if _, err := s.store.GetFolder(ctx, *req.FolderID); err != nil {
			return nil, err
		}
	}

	fileID := uuid.New()
	file := &models.File{
		ID:        fileID,
		FolderID:  req.FolderID,
		OwnerID:   req.OwnerID,
		Filename:  req.Filename,
		MimeType:  req.MimeType,
		Size:      0,
		ObjectKey: models.ObjectKey(req.OwnerID, fileID, req.Filename, s.now()),
		Status:    models.StatusPending,
	}

	if err := s.store.CreateFile(ctx, file); err != nil {
		return nil, err
	}

	descriptor, err := s.gateway.PresignUpload(ctx, file.ObjectKey, s.maxUploadBytes)
	if err != nil {
		return nil, fmt.Errorf("presign upload for %s: %w: %v", file.ID, models.ErrUpstream, err)
	}

	return &BeginUploadResult{File: file, Descriptor: descriptor}, nil
}

// CompleteUpload commits the client-reported size and checksum, advances the
// record to processing and enqueues the downstream fan-out. The size and
// checksum are taken on trust; this process never saw the bytes. The return
// does not wait on any stage.
func (s *UploadService) CompleteUpload(ctx context.Context, fileID uuid.UUID, size int64, checksum string) (*models.File, error) {
	file, err := s.store.CompleteFile(ctx, fileID, size, checksum)
	if err != nil {
		return nil, err
	}

	// The commit already happened. Anything that fails past this point is
	// logged and swallowed so the caller still sees a successful upload.
	readURL, err := s.gateway.SignedReadURL(ctx, file.ObjectKey, storage.DefaultReadTTL)
	if err != nil {
		s.logger.Error("signing read URL for dispatch failed, stages not notified",
			zap.String("file_id", file.ID.String()),
			zap.Error(err))
		return file, nil
	}

	s.dispatcher.Enqueue(DispatchJob{
		FileID:        file.ID,
		SignedReadURL: readURL,
		Filename:      file.Filename,
		MimeType:      file.MimeType,
	})

	return file, nil
}

// SignedRead returns a fresh signed read URL for a file, for client preview.
func (s *UploadService) SignedRead(ctx context.Context, fileID uuid.UUID) (string, error) {
	file, err := s.store.GetFile(ctx, fileID)
	if err != nil {
		return "", err
	}

	url, err := s.gateway.SignedReadURL(ctx, file.ObjectKey, storage.DefaultReadTTL)
	if err != nil {
		return "", fmt.Errorf("sign read URL for %s: %w: %v", fileID, models.ErrUpstream, err)
	}
	return url, nil
}

// DeleteFile removes the metadata row, then best-effort deletes the backing
// object. An object-store failure can leak bytes but never resurrects
// metadata.
func (s *UploadService) DeleteFile(ctx context.Context, fileID uuid.UUID) error {
	file, err := s.store.DeleteFile(ctx, fileID)
	if err != nil {
		return err
	}

	if err := s.gateway.Delete(ctx, file.ObjectKey); err != nil {
		s.logger.Warn("object delete failed, metadata already gone",
			zap.String("file_id", file.ID.String()),
			zap.String("object_key", file.ObjectKey),
			zap.Error(err))
	}
	return nil
}
