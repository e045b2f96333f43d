package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const readinessTimeout = 5 * time.Second

// storeCheck checks one of the two stores whose consistency the service owns.
type storeCheck struct {
	name  string
	check func(ctx context.Context) error
}

func registerHealthRoutes(router *gin.Engine, deps Dependencies) {
	checks := []storeCheck{
		{name: "metadata-store", check: deps.DB.Ping},
		{name: "content-store", check: func(ctx context.Context) error {
			found, err := deps.ObjectStore.BucketExists(ctx, deps.Config.MinIO.Bucket)
			if err != nil {
				return err
			}
			if !found {
				return errors.New("content bucket missing")
			}
			return nil
		}},
	}

	router.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/health/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
		defer cancel()

		for _, chk := range checks {
			if err := chk.check(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status": "degraded",
					"store":  chk.name,
					"error":  err.Error(),
				})
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
