package file

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mbobrov/filebox/internal/auth"
	"github.com/mbobrov/filebox/internal/metrics"
)

// RegisterRoutes mounts file operations under the provided router group.
func RegisterRoutes(group *gin.RouterGroup, service *Service) {
	handler := &httpHandler{service: service}
	group.POST("/files", handler.uploadFile)
	group.GET("/files/content", handler.downloadFile)
	group.POST("/files/move", handler.moveFile)
	group.DELETE("/files", handler.deleteFile)
}

type httpHandler struct {
	service *Service
}

func (h *httpHandler) uploadFile(c *gin.Context) {
	ownerID, _, ok := auth.RequireOwner(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	folderPath := c.PostForm("folder_path")
	if folderPath == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "folder_path field is required"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file field is required"})
		return
	}

	upload, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read upload"})
		return
	}
	defer upload.Close()

	content, err := io.ReadAll(upload)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read upload"})
		return
	}

	meta, err := h.service.Upload(c.Request.Context(), ownerID, folderPath, fileHeader.Filename, content)
	metrics.ObserveOperation("upload", err)
	if err != nil {
		switch err {
		case ErrFolderNotFound:
			c.JSON(http.StatusNotFound, gin.H{"error": "folder not found"})
		case ErrFileExists:
			c.JSON(http.StatusConflict, gin.H{"error": "file already exists"})
		case ErrFileTooLarge:
			c.JSON(http.StatusBadRequest, gin.H{"error": "file too large"})
		case ErrInvalidName:
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file name"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to upload file"})
		}
		return
	}

	c.JSON(http.StatusCreated, meta)
}

func (h *httpHandler) downloadFile(c *gin.Context) {
	ownerID, _, ok := auth.RequireOwner(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	path := c.Query("path")
	name := c.Query("name")
	if path == "" || name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "path and name query parameters are required"})
		return
	}

	meta, content, err := h.service.Download(c.Request.Context(), ownerID, path, name)
	metrics.ObserveOperation("download", err)
	if err != nil {
		switch err {
		case ErrFolderNotFound:
			c.JSON(http.StatusNotFound, gin.H{"error": "folder not found"})
		case ErrFileNotFound:
			c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to download file"})
		}
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", meta.DisplayName))
	c.Header("X-Download-Count", fmt.Sprintf("%d", meta.DownloadCount))
	c.Data(http.StatusOK, "application/octet-stream", content)
}

type moveFileRequest struct {
	FromPath string `json:"from_path" binding:"required"`
	ToPath   string `json:"to_path" binding:"required"`
	Name     string `json:"name" binding:"required"`
}

func (h *httpHandler) moveFile(c *gin.Context) {
	ownerID, _, ok := auth.RequireOwner(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req moveFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	meta, err := h.service.Move(c.Request.Context(), ownerID, req.FromPath, req.ToPath, req.Name)
	metrics.ObserveOperation("move", err)
	if err != nil {
		switch err {
		case ErrSourceFolderNotFound:
			c.JSON(http.StatusNotFound, gin.H{"error": "source folder not found"})
		case ErrDestinationFolderNotFound:
			c.JSON(http.StatusNotFound, gin.H{"error": "destination folder not found"})
		case ErrFileNotFound:
			c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		case ErrFileExists:
			c.JSON(http.StatusConflict, gin.H{"error": "file already exists in destination"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to move file"})
		}
		return
	}

	c.JSON(http.StatusOK, meta)
}

func (h *httpHandler) deleteFile(c *gin.Context) {
	ownerID, _, ok := auth.RequireOwner(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	path := c.Query("path")
	name := c.Query("name")
	if path == "" || name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "path and name query parameters are required"})
		return
	}

	meta, err := h.service.Delete(c.Request.Context(), ownerID, path, name)
	metrics.ObserveOperation("delete", err)
	if err != nil {
		switch err {
		case ErrFolderNotFound:
			c.JSON(http.StatusNotFound, gin.H{"error": "folder not found"})
		case ErrFileNotFound:
			c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete file"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": meta.DisplayName})
}
