package main

import (
	"context"
	"log"

	"knowai-backend/config"
	"knowai-backend/handlers"
	"knowai-backend/repository"
	"knowai-backend/service"
	"knowai-backend/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Select the metadata store backend once, up front.
	store := repository.New(context.Background(), cfg, logger)
	defer store.Close()

	// Initialize the object-store gateway
	gateway, err := storage.NewGateway(storage.GatewayConfig{
		Type:         storage.GatewayType(cfg.ObjectStore),
		Endpoint:     cfg.S3Endpoint,
		Region:       cfg.S3Region,
		Bucket:       cfg.S3Bucket,
		AccessKey:    cfg.S3AccessKey,
		SecretKey:    cfg.S3SecretKey,
		UsePathStyle: cfg.S3UsePathStyle,
		LocalBase:    cfg.ObjectLocalURL,
	})
	if err != nil {
		logger.Fatal("Failed to initialize object-store gateway", zap.Error(err))
	}
	logger.Info("object-store gateway initialized")

	// Initialize services
	dispatcher := service.NewDispatchService(
		service.DispatchWithStages([]service.Stage{
			{Name: "ingest", URL: cfg.IngestURL},
			{Name: "agno", URL: cfg.AgnoURL},
		}),
		service.DispatchWithLogger(logger),
	)
	defer dispatcher.Close()

	uploadService := service.NewUploadService(
		service.UploadWithStore(store),
		service.UploadWithGateway(gateway),
		service.UploadWithDispatcher(dispatcher),
		service.UploadWithMaxBytes(cfg.MaxUploadBytes),
		service.UploadWithLogger(logger),
	)

	statusService := service.NewStatusService(
		service.StatusWithStore(store),
		service.StatusWithLogger(logger),
	)

	// Initialize handlers
	uploadHandler := handlers.NewUploadHandler(uploadService, cfg.DefaultOwnerID)
	fileHandler := handlers.NewFileHandler(uploadService, statusService, store)
	folderHandler := handlers.NewFolderHandler(store, cfg.DefaultOwnerID)
	driveHandler := handlers.NewDriveHandler(store)
	processingHandler := handlers.NewProcessingHandler(statusService)

	// Setup Gin router
	r := gin.Default()

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	// API routes
	api := r.Group("/api")
	{
		// Upload lifecycle
		api.POST("/uploads/begin", uploadHandler.BeginUpload)
		api.POST("/uploads/complete", uploadHandler.CompleteUpload)

		// File endpoints
		api.GET("/files", fileHandler.ListFiles)
		api.GET("/files/:id/status", fileHandler.GetStatus)
		api.GET("/files/:id/signed-read", fileHandler.SignedRead)
		api.PATCH("/files/:id/move", driveHandler.MoveFile)
		api.DELETE("/files/:id", fileHandler.DeleteFile)

		// Folder endpoints
		api.POST("/folders", folderHandler.CreateFolder)
		api.PATCH("/folders/:id", folderHandler.RenameFolder)
		api.DELETE("/folders/:id", folderHandler.DeleteFolder)

		// Drive browsing
		api.GET("/drive/children", driveHandler.Children)
		api.GET("/drive/breadcrumbs/:id", driveHandler.Breadcrumbs)
		api.GET("/drive/search", driveHandler.Search)

		// Stage callback contract
		api.POST("/internal/processing/callback", processingHandler.Callback)
	}

	logger.Info("server starting", zap.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Fatal("Failed to start server", zap.Error(err))
	}
}
