package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/timmy/colorwalk/internal/config"
	"github.com/timmy/colorwalk/internal/logger"
	"github.com/timmy/colorwalk/internal/repository"
	"github.com/timmy/colorwalk/internal/service"
	"github.com/timmy/colorwalk/internal/storage"
)

// backfill re-runs feature extraction for places that have no features yet,
// typically because the enrichment queue was full or a provider was down when
// they were created.
func main() {
	// Initialize logger first (with defaults)
	appLogger := logger.New(&logger.Config{
		Level:       "info",
		Format:      "json",
		ServiceName: "colorwalk-backfill",
	})
	logger.SetDefaultLogger(appLogger)

	// Parse command line flags
	placeID := flag.String("id", "", "Re-extract a single place by ID, even if it already has features")
	limit := flag.Int("limit", 100, "Maximum number of places to process")
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := qdrantRepo.EnsureCollection(ctx); err != nil {
		appLogger.WithError(err).Fatal("Failed to ensure Qdrant collection")
	}

	// Initialize S3-compatible storage (supports MinIO, R2, S3)
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

	// Initialize services
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

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		appLogger.Info("Received shutdown signal, canceling...")
		cancel()
	}()

	if *placeID != "" {
		place, err := placeRepo.GetByID(ctx, *placeID)
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to load place")
		}
		if err := scheduler.Enrich(ctx, place); err != nil {
			appLogger.WithField(logger.FieldPlaceID, *placeID).WithError(err).Fatal("Extraction failed")
		}
		appLogger.WithField(logger.FieldPlaceID, *placeID).Info("Backfill completed")
		return
	}

	places, err := placeRepo.ListMissingFeatures(ctx, *limit)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to list places missing features")
	}

	appLogger.WithField("count", len(places)).Info("Starting backfill")

	processed := 0
	failed := 0
	skipped := 0
	for i := range places {
		if ctx.Err() != nil {
			break
		}
		// Skip places whose photo object is gone rather than hammering the
		// palette API with dead URLs.
		if exists, err := objectStorage.Exists(ctx, places[i].PhotoKey); err == nil && !exists {
			skipped++
			appLogger.WithField(logger.FieldPlaceID, places[i].ID).Warn("Photo object missing, skipping")
			continue
		}
		if err := scheduler.Enrich(ctx, &places[i]); err != nil {
			failed++
			appLogger.WithField(logger.FieldPlaceID, places[i].ID).WithError(err).Error("Extraction failed")
			continue
		}
		processed++
	}

	appLogger.WithFields(logger.Fields{
		"total":     len(places),
		"processed": processed,
		"skipped":   skipped,
		"failed":    failed,
	}).Info("Backfill completed")
}
