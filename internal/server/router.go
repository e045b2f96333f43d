package server

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mbobrov/filebox/internal/auth"
	"github.com/mbobrov/filebox/internal/config"
	"github.com/mbobrov/filebox/internal/file"
	"github.com/mbobrov/filebox/internal/folder"
	"github.com/mbobrov/filebox/internal/logger"
	"github.com/mbobrov/filebox/internal/metrics"
	"github.com/mbobrov/filebox/internal/owner"
	"github.com/mbobrov/filebox/internal/share"
	"github.com/minio/minio-go/v7"
)

// Dependencies groups the services required by the HTTP router.
type Dependencies struct {
	Config        config.Config
	DB            *pgxpool.Pool
	ObjectStore   *minio.Client
	OwnerService  *owner.Service
	FolderService *folder.Service
	FileService   *file.Service
	ShareService  *share.Service
}

// NewRouter builds a Gin engine with foundational middleware and routes.
func NewRouter(deps Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logger.Middleware())
	router.Use(metrics.Middleware())

	registerHealthRoutes(router, deps)
	metrics.Register(router, deps.Config.Metrics.PrometheusPath)

	api := router.Group("/v1")
	if deps.OwnerService != nil {
		owner.RegisterRoutes(api, deps.OwnerService)

		protected := api.Group("/")
		protected.Use(auth.Middleware(deps.OwnerService))

		if deps.FolderService != nil {
			folder.RegisterRoutes(protected, deps.FolderService)
		}
		if deps.FileService != nil {
			file.RegisterRoutes(protected, deps.FileService)
		}
		if deps.ShareService != nil {
			share.RegisterRoutes(protected, deps.ShareService)
		}
	}

	if deps.ShareService != nil {
		share.RegisterPublicRoutes(api, deps.ShareService)
	}

	return router
}
