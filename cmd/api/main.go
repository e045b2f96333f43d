package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mbobrov/filebox/internal/config"
	"github.com/mbobrov/filebox/internal/file"
	"github.com/mbobrov/filebox/internal/folder"
	"github.com/mbobrov/filebox/internal/logger"
	"github.com/mbobrov/filebox/internal/metrics"
	"github.com/mbobrov/filebox/internal/owner"
	"github.com/mbobrov/filebox/internal/server"
	"github.com/mbobrov/filebox/internal/share"
	"github.com/mbobrov/filebox/internal/storage"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	logg, err := logger.Init()
	if err != nil {
		panic("init logger: " + err.Error())
	}
	defer logg.Sync()

	cfg, err := config.Load()
	if err != nil {
		logg.Fatal("load config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbPool, err := storage.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		logg.Fatal("connect postgres", zap.Error(err))
	}
	defer dbPool.Close()

	if err := storage.Migrate(dbPool, cfg.Postgres.Database); err != nil {
		logg.Fatal("migrate schema", zap.Error(err))
	}

	minioClient, err := storage.NewMinIOClient(cfg.MinIO)
	if err != nil {
		logg.Fatal("connect minio", zap.Error(err))
	}

	if err := storage.EnsureBucket(ctx, minioClient, cfg.MinIO.Bucket, cfg.MinIO.Region); err != nil {
		logg.Fatal("ensure bucket", zap.Error(err))
	}

	metrics.InitMetrics()

	ownerRepo := owner.NewRepository(dbPool)
	ownerService := owner.NewService(ownerRepo, cfg.Auth)

	folderRepo := folder.NewRepository(dbPool)
	fileRepo := file.NewRepository(dbPool)
	shareRepo := share.NewRepository(dbPool)

	folderService := folder.NewService(folderRepo, fileRepo)
	fileStore := file.NewMinIOStore(minioClient)
	fileService := file.NewService(fileRepo, folderService, fileStore, cfg.MinIO.Bucket, cfg.Upload.MaxFileSize, logg)
	shareService := share.NewService(shareRepo, folderService, fileService, cfg.Share.MaxTTLMinutes, logg)

	router := server.NewRouter(server.Dependencies{
		Config:        cfg,
		DB:            dbPool,
		ObjectStore:   minioClient,
		OwnerService:  ownerService,
		FolderService: folderService,
		FileService:   fileService,
		ShareService:  shareService,
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logg.Info("Filebox API listening", zap.String("address", cfg.Server.Address()))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logg.Fatal("http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logg.Info("shutting down gracefully")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logg.Error("shutdown error", zap.Error(err))
	}
}
