package handlers

import (
	"net/http"
	"strconv"

	"knowai-backend/repository"
	"knowai-backend/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// FileHandler handles HTTP requests for file reads and deletion
type FileHandler struct {
	uploads *service.UploadService
	status  *service.StatusService
	store   repository.Store
}

// NewFileHandler creates a new file handler
func NewFileHandler(uploads *service.UploadService, status *service.StatusService, store repository.Store) *FileHandler {
	return &FileHandler{
		uploads: uploads,
		status:  status,
		store:   store,
	}
}

func parseIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "invalid id format")
		return uuid.Nil, false
	}
	return id, true
}

// GetStatus handles GET /api/files/:id/status
func (h *FileHandler) GetStatus(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	info, err := h.status.GetStatus(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    info,
	})
}

// SignedRead handles GET /api/files/:id/signed-read
func (h *FileHandler) SignedRead(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	url, err := h.uploads.SignedRead(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"url": url,
		},
	})
}

// DeleteFile handles DELETE /api/files/:id
func (h *FileHandler) DeleteFile(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.uploads.DeleteFile(c.Request.Context(), id); err != nil {
		respondDomainError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListFiles handles GET /api/files
func (h *FileHandler) ListFiles(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "200"))
	if err != nil || limit < 1 {
		limit = 200
	}

	files, err := h.store.ListFiles(c.Request.Context(), limit)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    files,
	})
}
