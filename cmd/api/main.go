package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/timmy/colorwalk/internal/api"
	"github.com/timmy/colorwalk/internal/config"
	"github.com/timmy/colorwalk/internal/logger"
	"github.com/timmy/colorwalk/internal/repository"
	"github.com/timmy/colorwalk/internal/service"
	"github.com/timmy/colorwalk/internal/storage"
)

func main() {
	// Load configuration
	// Support CONFIG_PATH environment variable for production deployments
	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	appLogger := logger.NewDefault()
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	// Initialize database
	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}

	// Initialize repositories
	placeRepo := repository.NewPlaceRepository(db)
	qdrantRepo, err := repository.NewQdrantRepository(&repository.QdrantConnectionConfig{
		Host:            cfg.Qdrant.Host,
		Port:            cfg.Qdrant.Port,
		Collection:      cfg.Qdrant.Collection,
		APIKey:          cfg.Qdrant.APIKey,
		UseTLS:          cfg.Qdrant.UseTLS,
		VectorDimension: cfg.Embedding.Dimensions,
	})
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize Qdrant repository")
	}
	defer qdrantRepo.Close()

	// Ensure Qdrant collection exists
	ctx := context.Background()
	if err := qdrantRepo.EnsureCollection(ctx); err != nil {
		appLogger.WithError(err).Fatal("Failed to ensure Qdrant collection")
	}

	// Initialize storage (supports MinIO, R2, S3)
	objectStorage, err := storage.NewStorage(&storage.S3Config{
		Type:      storage.StorageType(cfg.Storage.Type),
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		UseSSL:    cfg.Storage.UseSSL,
		Bucket:    cfg.Storage.Bucket,
		Region:    cfg.Storage.Region,
		PublicURL: cfg.Storage.PublicURL,
	})
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize storage")
	}

	// Ensure bucket exists
	if err := objectStorage.EnsureBucket(ctx); err != nil {
		appLogger.WithError(err).Fatal("Failed to ensure storage bucket")
	}

	// Initialize external feature providers
	paletteService := service.NewPaletteService(&service.PaletteServiceConfig{
		BaseURL:   cfg.Palette.BaseURL,
		APIKey:    cfg.Palette.APIKey,
		MaxColors: cfg.Palette.MaxColors,
	})

	embeddingService := service.NewEmbeddingService(&service.EmbeddingServiceConfig{
		Model:      cfg.Embedding.Model,
		APIKey:     cfg.Embedding.APIKey,
		Dimensions: cfg.Embedding.Dimensions,
	})

	extractionService := service.NewExtractionService(
		paletteService,
		embeddingService,
		appLogger,
		&service.ExtractionServiceConfig{
			ColorTimeout: cfg.Palette.Timeout,
			TextTimeout:  cfg.Embedding.Timeout,
		},
	)

	// Initialize enrichment scheduler
	scheduler := service.NewEnrichmentScheduler(
		placeRepo,
		qdrantRepo,
		extractionService,
		objectStorage,
		appLogger,
		&service.EnrichConfig{
			Workers:   cfg.Enrich.Workers,
			QueueSize: cfg.Enrich.QueueSize,
		},
	)
	scheduler.Start(ctx)

	// Initialize services
	placeService := service.NewPlaceService(placeRepo, qdrantRepo, objectStorage, appLogger)
	searchService := service.NewSearchService(
		placeRepo,
		qdrantRepo,
		extractionService,
		objectStorage,
		appLogger,
		&service.SearchConfig{
			ScoreThreshold: cfg.Search.ScoreThreshold,
			DefaultLimit:   cfg.Search.DefaultLimit,
			MaxLimit:       cfg.Search.MaxLimit,
		},
	)

	// Setup router
	router := api.SetupRouter(placeService, searchService, scheduler, &cfg.Server)

	// Create HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		appLogger.WithFields(logger.Fields{
			"port": cfg.Server.Port,
			"mode": cfg.Server.Mode,
		}).Info("Starting API server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Fatal("Server forced to shutdown")
	}

	// Drain the enrichment queue before exit
	scheduler.Stop()

	appLogger.Info("Server exited")
}
