package handlers

import (
	"net/http"

	"knowai-backend/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// UploadHandler handles HTTP requests for the upload lifecycle
type UploadHandler struct {
	uploads      *service.UploadService
	defaultOwner uuid.UUID
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(uploads *service.UploadService, defaultOwner uuid.UUID) *UploadHandler {
	return &UploadHandler{
		uploads:      uploads,
		defaultOwner: defaultOwner,
	}
}

type beginUploadRequest struct {
	Filename string     `json:"filename"`
	MimeType string     `json:"mime_type"`
	FolderID *uuid.UUID `json:"folder_id"`
	OwnerID  *uuid.UUID `json:"owner_id"`
}

// BeginUpload handles POST /api/uploads/begin
func (h *UploadHandler) BeginUpload(c *gin.Context) {
	var req beginUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	if req.Filename == "" {
		respondError(c, http.StatusBadRequest, "MISSING_FILENAME", "filename is required")
		return
	}

	owner := h.defaultOwner
	if req.OwnerID != nil {
		owner = *req.OwnerID
	}

	result, err := h.uploads.BeginUpload(c.Request.Context(), service.BeginUploadRequest{
		Filename: req.Filename,
		MimeType: req.MimeType,
		FolderID: req.FolderID,
		OwnerID:  owner,
	})
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data": gin.H{
			"file":       result.File,
			"descriptor": result.Descriptor,
		},
	})
}

type completeUploadRequest struct {
	FileID   uuid.UUID `json:"file_id"`
	Size     int64     `json:"size"`
	Checksum string    `json:"checksum"`
}

// CompleteUpload handles POST /api/uploads/complete
func (h *UploadHandler) CompleteUpload(c *gin.Context) {
	var req completeUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	if req.FileID == uuid.Nil {
		respondError(c, http.StatusBadRequest, "MISSING_FILE_ID", "file_id is required")
		return
	}

	file, err := h.uploads.CompleteUpload(c.Request.Context(), req.FileID, req.Size, req.Checksum)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    file,
	})
}
