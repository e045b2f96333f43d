package folder

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mbobrov/filebox/internal/auth"
	"github.com/mbobrov/filebox/internal/metrics"
)

// RegisterRoutes mounts folder endpoints onto the authenticated router group.
func RegisterRoutes(group *gin.RouterGroup, service *Service) {
	handler := &httpHandler{service: service}
	group.GET("/folders", handler.listFolder)
	group.POST("/folders", handler.createFolder)
}

type httpHandler struct {
	service *Service
}

type createFolderRequest struct {
	ParentPath string `json:"parent_path" binding:"required"`
	Name       string `json:"name" binding:"required"`
}

func (h *httpHandler) createFolder(c *gin.Context) {
	ownerID, _, ok := auth.RequireOwner(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req createFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	f, err := h.service.Create(c.Request.Context(), ownerID, req.ParentPath, req.Name)
	metrics.ObserveOperation("folder_create", err)
	if err != nil {
		switch err {
		case ErrParentNotFound:
			c.JSON(http.StatusNotFound, gin.H{"error": "parent folder not found"})
		case ErrFolderExists:
			c.JSON(http.StatusConflict, gin.H{"error": "folder already exists"})
		case ErrInvalidName:
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid folder name"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create folder"})
		}
		return
	}

	c.JSON(http.StatusCreated, f)
}

func (h *httpHandler) listFolder(c *gin.Context) {
	ownerID, _, ok := auth.RequireOwner(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	path := c.Query("path")
	if path == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "path query parameter is required"})
		return
	}

	listing, err := h.service.List(c.Request.Context(), ownerID, path)
	metrics.ObserveOperation("folder_list", err)
	if err != nil {
		if errors.Is(err, ErrFolderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "folder not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list folder"})
		return
	}

	c.JSON(http.StatusOK, listing)
}
