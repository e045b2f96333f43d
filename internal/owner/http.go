package owner

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts registration and login endpoints onto the router.
func RegisterRoutes(group *gin.RouterGroup, service *Service) {
	handler := &httpHandler{service: service}
	group.POST("/owners", handler.register)
	group.POST("/owners/login", handler.login)
}

type httpHandler struct {
	service *Service
}

type credentialsRequest struct {
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *httpHandler) register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	o, root, err := h.service.Register(c.Request.Context(), req.Name, req.Password)
	if err != nil {
		switch err {
		case ErrNameAlreadyExists:
			c.JSON(http.StatusConflict, gin.H{"error": "owner name already exists"})
		case ErrInvalidCredentials:
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid name or password"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register owner"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"owner": o, "root_folder": root})
}

func (h *httpHandler) login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	o, token, err := h.service.Login(c.Request.Context(), req.Name, req.Password)
	if err != nil {
		if err == ErrInvalidCredentials {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to log in"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"owner": o, "token": token})
}
