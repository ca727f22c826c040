package handlers

import (
	"net/http"

	"knowai-backend/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// DriveHandler handles the folder-tree browsing endpoints
type DriveHandler struct {
	store repository.Store
}

// NewDriveHandler creates a new drive handler
func NewDriveHandler(store repository.Store) *DriveHandler {
	return &DriveHandler{store: store}
}

// Children handles GET /api/drive/children?folder_id=
func (h *DriveHandler) Children(c *gin.Context) {
	var folderID *uuid.UUID
	if raw := c.Query("folder_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "INVALID_FOLDER_ID", "invalid folder_id format")
			return
		}
		folderID = &id
	}

	folders, err := h.store.ListChildFolders(c.Request.Context(), folderID)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	files, err := h.store.ListFilesInFolder(c.Request.Context(), folderID)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"folders": folders,
			"files":   files,
		},
	})
}

// Breadcrumbs handles GET /api/drive/breadcrumbs/:id
func (h *DriveHandler) Breadcrumbs(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	chain, err := h.store.Breadcrumb(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    chain,
	})
}

type moveFileRequest struct {
	FolderID *uuid.UUID `json:"folder_id"`
}

// MoveFile handles PATCH /api/files/:id/move
func (h *DriveHandler) MoveFile(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req moveFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}

	file, err := h.store.MoveFile(c.Request.Context(), id, req.FolderID)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    file,
	})
}

// Search handles GET /api/drive/search?q=
func (h *DriveHandler) Search(c *gin.Context) {
	files, err := h.store.SearchFiles(c.Request.Context(), c.Query("q"), 100)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    files,
	})
}
