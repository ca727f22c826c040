package handlers

import (
	"errors"
	"net/http"
	"strings"

	"knowai-backend/models"
	"knowai-backend/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// FolderHandler handles HTTP requests for folder operations
type FolderHandler struct {
	store        repository.Store
	defaultOwner uuid.UUID
}

// NewFolderHandler creates a new folder handler
func NewFolderHandler(store repository.Store, defaultOwner uuid.UUID) *FolderHandler {
	return &FolderHandler{
		store:        store,
		defaultOwner: defaultOwner,
	}
}

type createFolderRequest struct {
	Name     string     `json:"name"`
	ParentID *uuid.UUID `json:"parent_id"`
	OwnerID  *uuid.UUID `json:"owner_id"`
}

// CreateFolder handles POST /api/folders
func (h *FolderHandler) CreateFolder(c *gin.Context) {
	var req createFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		respondError(c, http.StatusBadRequest, "MISSING_NAME", "folder name is required")
		return
	}

	owner := h.defaultOwner
	if req.OwnerID != nil {
		owner = *req.OwnerID
	}

	folder := &models.Folder{
		ID:       uuid.New(),
		Name:     req.Name,
		ParentID: req.ParentID,
		OwnerID:  owner,
	}
	if err := h.store.CreateFolder(c.Request.Context(), folder); err != nil {
		// A missing parent is the caller's mistake, not a lookup miss.
		if req.ParentID != nil && errors.Is(err, models.ErrNotFound) {
			respondError(c, http.StatusBadRequest, "UNKNOWN_PARENT", err.Error())
			return
		}
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    folder,
	})
}

// DeleteFolder handles DELETE /api/folders/:id
func (h *FolderHandler) DeleteFolder(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.store.DeleteFolder(c.Request.Context(), id); err != nil {
		respondDomainError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

type renameFolderRequest struct {
	Name string `json:"name"`
}

// RenameFolder handles PATCH /api/folders/:id
func (h *FolderHandler) RenameFolder(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req renameFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		respondError(c, http.StatusBadRequest, "MISSING_NAME", "folder name is required")
		return
	}

	folder, err := h.store.RenameFolder(c.Request.Context(), id, req.Name)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    folder,
	})
}
