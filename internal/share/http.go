package share

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mbobrov/filebox/internal/auth"
	"github.com/mbobrov/filebox/internal/file"
	"github.com/mbobrov/filebox/internal/metrics"
)

// RegisterRoutes mounts link issuance under the authenticated group.
func RegisterRoutes(group *gin.RouterGroup, service *Service) {
	handler := &httpHandler{service: service}
	group.POST("/shares", handler.issueLink)
}

// RegisterPublicRoutes mounts token resolution outside authentication: the
// token is the credential.
func RegisterPublicRoutes(group *gin.RouterGroup, service *Service) {
	handler := &httpHandler{service: service}
	group.GET("/shares/:token", handler.resolveLink)
}

type httpHandler struct {
	service *Service
}

type issueLinkRequest struct {
	Path       string `json:"path" binding:"required"`
	Name       string `json:"name" binding:"required"`
	TTLMinutes int    `json:"ttl_minutes" binding:"required"`
}

func (h *httpHandler) issueLink(c *gin.Context) {
	ownerID, _, ok := auth.RequireOwner(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req issueLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	link, err := h.service.Issue(c.Request.Context(), ownerID, req.Path, req.Name, req.TTLMinutes)
	metrics.ObserveOperation("share_issue", err)
	if err != nil {
		switch err {
		case ErrInvalidDuration:
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid share duration"})
		case file.ErrFileNotFound:
			c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue share link"})
		}
		return
	}

	c.JSON(http.StatusCreated, link)
}

func (h *httpHandler) resolveLink(c *gin.Context) {
	token := c.Param("token")

	meta, content, err := h.service.Resolve(c.Request.Context(), token)
	metrics.ObserveOperation("share_resolve", err)
	if err != nil {
		switch err {
		case ErrLinkNotFound:
			c.JSON(http.StatusNotFound, gin.H{"error": "share link not found"})
		case ErrLinkExpired:
			c.JSON(http.StatusGone, gin.H{"error": "share link expired"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve share link"})
		}
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", meta.DisplayName))
	c.Data(http.StatusOK, "application/octet-stream", content)
}
