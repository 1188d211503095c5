package service

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/timmy/colorwalk/internal/domain"
	"github.com/timmy/colorwalk/internal/logger"
	"github.com/timmy/colorwalk/internal/storage"
)

// PlaceStore is the subset of the place repository the enrichment path needs:
// loading a place and merging extracted feature fields back into it.
type PlaceStore interface {
	GetByID(ctx context.Context, id string) (*domain.Place, error)
	MergeFeatures(ctx context.Context, id string, updates map[string]interface{}) error
}

// EmbeddingStore persists text embedding vectors keyed by point ID.
type EmbeddingStore interface {
	UpsertEmbedding(ctx context.Context, pointID string, vector []float32, placeID string) error
}

// EnrichmentScheduler runs feature extraction in the background after a place
// is created. Work is enqueued only after the creation response is committed,
// so the scheduled extraction can never race a client that immediately
// re-reads the place. One attempt per creation; failures are logged and
// absorbed, never retried and never surfaced to the creator.
type EnrichmentScheduler struct {
	queue      chan string
	wg         sync.WaitGroup
	workers    int
	places     PlaceStore
	embeddings EmbeddingStore
	extraction *ExtractionService
	storage    storage.ObjectStorage
	logger     *logger.Logger
}

// EnrichConfig holds configuration for the enrichment scheduler
type EnrichConfig struct {
	Workers   int
	QueueSize int
}

// NewEnrichmentScheduler creates a new enrichment scheduler.
// Parameters:
//   - places: place store for loading and merging.
//   - embeddings: embedding store for upserting text vectors.
//   - extraction: feature extraction pipeline.
//   - objectStorage: photo storage, for building the image URL fed to the extractor.
//   - log: logger instance.
//   - cfg: worker pool configuration; nil uses 2 workers and a queue of 64.
// Returns:
//   - *EnrichmentScheduler: scheduler; call Start before Schedule.
func NewEnrichmentScheduler(
	places PlaceStore,
	embeddings EmbeddingStore,
	extraction *ExtractionService,
	objectStorage storage.ObjectStorage,
	log *logger.Logger,
	cfg *EnrichConfig,
) *EnrichmentScheduler {
	workers := 2
	queueSize := 64
	if cfg != nil {
		if cfg.Workers > 0 {
			workers = cfg.Workers
		}
		if cfg.QueueSize > 0 {
			queueSize = cfg.QueueSize
		}
	}
	return &EnrichmentScheduler{
		queue:      make(chan string, queueSize),
		workers:    workers,
		places:     places,
		embeddings: embeddings,
		extraction: extraction,
		storage:    objectStorage,
		logger:     log,
	}
}

// Start launches the worker pool. Workers drain the queue until Stop is called.
// Parameters:
//   - ctx: base context for all enrichment work; independent of any request context.
// Returns: none.
func (s *EnrichmentScheduler) Start(ctx context.Context) {
	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			for placeID := range s.queue {
				s.process(ctx, placeID)
			}
		}()
	}
}

// Stop closes the queue and waits for in-flight enrichments to finish.
func (s *EnrichmentScheduler) Stop() {
	close(s.queue)
	s.wg.Wait()
}

// Schedule enqueues one extraction attempt for a place. Non-blocking: if the
// queue is full the attempt is dropped and logged; the place stays un-enriched
// until a manual backfill.
// Parameters:
//   - placeID: place to enrich.
// Returns:
//   - bool: true if the work item was accepted.
func (s *EnrichmentScheduler) Schedule(placeID string) bool {
	select {
	case s.queue <- placeID:
		return true
	default:
		s.logger.WithField(logger.FieldPlaceID, placeID).Warn("Enrichment queue full, dropping work item")
		return false
	}
}

// process runs one extraction attempt and merges the outcome.
func (s *EnrichmentScheduler) process(ctx context.Context, placeID string) {
	ctx = logger.WithFields(ctx, logger.Fields{
		logger.FieldComponent: "enrich",
		logger.FieldPlaceID:   placeID,
	})

	place, err := s.places.GetByID(ctx, placeID)
	if err != nil {
		logger.CtxError(ctx, "Enrichment failed to load place: error=%v", err)
		return
	}

	if err := s.Enrich(ctx, place); err != nil {
		// Background path: recorded for observability, never surfaced.
		logger.CtxWarn(ctx, "Enrichment produced no features: error=%v", err)
	}
}

// Enrich runs the extraction pipeline for a place and persists whatever it
// produced via a field-level merge. Shared by the background workers and the
// backfill command.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - place: place to enrich; must have a stored photo.
// Returns:
//   - error: ErrNoUsableSignal if nothing was extracted, or a persistence error.
func (s *EnrichmentScheduler) Enrich(ctx context.Context, place *domain.Place) error {
	input := ExtractionInput{
		Image: ImageRef{URL: s.storage.GetURL(place.PhotoKey), Format: place.Format},
		Text:  place.EmbeddingText(),
	}

	update, err := s.extraction.Extract(ctx, input)
	if err != nil {
		return err
	}

	pointID := place.EmbeddingPointID
	if update.HasText() {
		if pointID == "" {
			pointID = uuid.New().String()
		}
		if err := s.embeddings.UpsertEmbedding(ctx, pointID, update.Embedding, place.ID); err != nil {
			// Color fields may still be mergeable; drop only the text side.
			logger.CtxError(ctx, "Failed to store embedding: error=%v", err)
			update.Embedding = nil
			pointID = place.EmbeddingPointID
		}
	}

	updates := buildFeatureUpdates(update, pointID, s.extraction.embeddingModel())
	if len(updates) == 0 {
		return ErrNoUsableSignal
	}

	if err := s.places.MergeFeatures(ctx, place.ID, updates); err != nil {
		logger.CtxError(ctx, "Failed to merge features: error=%v", err)
		return err
	}

	logger.CtxInfo(ctx, "Enrichment completed: color=%t, text=%t, colorful=%q",
		update.HasColor(), update.HasText(), update.Colorful)

	return nil
}

// buildFeatureUpdates converts an extraction outcome into a column update map.
// Only fields from successful sub-extractions appear; a failed sub-extraction
// contributes nothing, so a merge can never regress previously stored data to
// absent.
func buildFeatureUpdates(update *FeatureUpdate, pointID, model string) map[string]interface{} {
	updates := make(map[string]interface{})

	if update.HasColor() {
		updates["palette"] = update.Palette
		updates["color_vector"] = update.ColorVector
		if update.Colorful.Known() {
			updates["is_colorful"] = string(update.Colorful)
		}
	}
	if update.HasText() {
		updates["embedding_point_id"] = pointID
		updates["embedding_model"] = model
	}
	if len(updates) > 0 && update.ExtractedAt != nil {
		updates["extracted_at"] = *update.ExtractedAt
	}

	return updates
}

// embeddingModel exposes the configured embedding model name for persistence.
func (s *ExtractionService) embeddingModel() string {
	if s.embedding == nil {
		return ""
	}
	return s.embedding.Model()
}
