package service

import (
	"context"
	"fmt"

	"knowai-backend/models"
	"knowai-backend/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StatusService tracks a file's processing state. Clients poll GetStatus
// until a terminal status appears; downstream stages feed the other side
// through Report. The read path has no side effects at all.
type StatusService struct {
	store  repository.Store
	logger *zap.Logger
}

// StatusServiceOption is a functional option for StatusService
type StatusServiceOption func(*StatusService)

// StatusWithStore sets the metadata store
func StatusWithStore(store repository.Store) StatusServiceOption {
	return func(s *StatusService) {
		s.store = store
	}
}

// StatusWithLogger sets the logger
func StatusWithLogger(logger *zap.Logger) StatusServiceOption {
	return func(s *StatusService) {
		s.logger = logger
	}
}

// NewStatusService creates a new status service
func NewStatusService(opts ...StatusServiceOption) *StatusService {
	s := &StatusService{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetStatus returns the current processing projection for a file.
func (s *StatusService) GetStatus(ctx context.Context, fileID uuid.UUID) (*models.ProcessingInfo, error) {
	return s.store.GetProcessingInfo(ctx, fileID)
}

// Report ingests a stage's outcome callback. Stages may only report the
// terminal statuses; everything in between is their own business.
func (s *StatusService) Report(ctx context.Context, res models.ProcessingResult) error {
	if res.Status != models.StatusCompleted && res.Status != models.StatusError {
		return fmt.Errorf("stage reported status %q, want completed or error", res.Status)
	}

	if err := s.store.ApplyProcessingResult(ctx, res); err != nil {
		return err
	}

	s.logger.Info("processing stage reported",
		zap.String("file_id", res.FileID.String()),
		zap.String("status", string(res.Status)))
	return nil
}
