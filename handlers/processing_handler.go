package handlers

import (
	"net/http"

	"knowai-backend/models"
	"knowai-backend/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ProcessingHandler receives the status callbacks downstream stages post
// once they finish (or fail) processing a file. This is the inbound half of
// the fire-and-forget dispatch contract.
type ProcessingHandler struct {
	status *service.StatusService
}

// NewProcessingHandler creates a new processing handler
func NewProcessingHandler(status *service.StatusService) *ProcessingHandler {
	return &ProcessingHandler{status: status}
}

type processingCallbackRequest struct {
	FileID      uuid.UUID `json:"file_id"`
	Status      string    `json:"status"`
	DocType     *string   `json:"doc_type"`
	ChunksCount *int      `json:"chunks_count"`
	Indexed     *bool     `json:"indexed"`
}

// Callback handles POST /api/internal/processing/callback
func (h *ProcessingHandler) Callback(c *gin.Context) {
	var req processingCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	if req.FileID == uuid.Nil {
		respondError(c, http.StatusBadRequest, "MISSING_FILE_ID", "file_id is required")
		return
	}

	status := models.FileStatus(req.Status)
	if status != models.StatusCompleted && status != models.StatusError {
		respondError(c, http.StatusBadRequest, "INVALID_STATUS", "status must be completed or error")
		return
	}

	err := h.status.Report(c.Request.Context(), models.ProcessingResult{
		FileID:      req.FileID,
		Status:      status,
		DocType:     req.DocType,
		ChunksCount: req.ChunksCount,
		Indexed:     req.Indexed,
	})
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
