package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/timmy/colorwalk/internal/domain"
	"github.com/timmy/colorwalk/internal/logger"
	"github.com/timmy/colorwalk/internal/repository"
	"github.com/timmy/colorwalk/internal/storage"
	_ "golang.org/x/image/webp"
)

// PlaceService handles place lifecycle operations around the engine: photo
// upload, record creation, retrieval, and deletion.
type PlaceService struct {
	places     *repository.PlaceRepository
	embeddings *repository.QdrantRepository
	storage    storage.ObjectStorage
	logger     *logger.Logger
}

// NewPlaceService creates a new place service.
func NewPlaceService(
	places *repository.PlaceRepository,
	embeddings *repository.QdrantRepository,
	objectStorage storage.ObjectStorage,
	log *logger.Logger,
) *PlaceService {
	return &PlaceService{
		places:     places,
		embeddings: embeddings,
		storage:    objectStorage,
		logger:     log,
	}
}

// log returns a logger from context if available, otherwise returns the default logger
func (s *PlaceService) log(ctx context.Context) *logger.Logger {
	if l := logger.FromContext(ctx); l != nil {
		return l
	}
	return s.logger
}

// CreatePlaceInput describes a place creation request.
type CreatePlaceInput struct {
	OwnerID     string
	Title       string
	Description string
	Address     string
	PhotoData   []byte
}

// Create validates and stores the photo, then inserts the place record. The
// feature record starts empty; enrichment is scheduled by the caller after
// the creation response is committed.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - input: creation fields and raw photo bytes.
// Returns:
//   - *domain.Place: created place record.
//   - error: non-nil on invalid photo or persistence failure.
func (s *PlaceService) Create(ctx context.Context, input *CreatePlaceInput) (*domain.Place, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(input.PhotoData))
	if err != nil {
		return nil, fmt.Errorf("unsupported or corrupt image: %w", err)
	}

	placeID := uuid.New().String()
	photoKey := fmt.Sprintf("places/%s.%s", placeID, format)

	if err := s.storage.Upload(ctx, photoKey, bytes.NewReader(input.PhotoData), int64(len(input.PhotoData)), contentType(format)); err != nil {
		return nil, fmt.Errorf("failed to upload photo: %w", err)
	}

	place := &domain.Place{
		ID:          placeID,
		OwnerID:     input.OwnerID,
		Title:       input.Title,
		Description: input.Description,
		Address:     input.Address,
		PhotoKey:    photoKey,
		Width:       cfg.Width,
		Height:      cfg.Height,
		Format:      format,
		IsColorful:  domain.ColorfulnessUnanalyzed,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	if err := s.places.Create(ctx, place); err != nil {
		// Rollback the uploaded photo; the record never existed.
		if delErr := s.storage.Delete(ctx, photoKey); delErr != nil {
			s.log(ctx).WithField("photo_key", photoKey).WithError(delErr).Error("Failed to rollback photo upload")
		}
		return nil, fmt.Errorf("failed to save place: %w", err)
	}

	return place, nil
}

// Get retrieves a place by ID.
func (s *PlaceService) Get(ctx context.Context, id string) (*domain.Place, error) {
	return s.places.GetByID(ctx, id)
}

// List retrieves places for an owner with pagination.
func (s *PlaceService) List(ctx context.Context, ownerID string, limit, offset int) ([]domain.Place, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return s.places.ListByOwner(ctx, ownerID, limit, offset)
}

// Photo streams a place's stored photo. Used to serve photos through the API
// when the bucket has no public URL.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: place ID.
// Returns:
//   - io.ReadCloser: photo body; caller closes.
//   - string: content type derived from the stored format.
//   - error: non-nil if the place or object cannot be found.
func (s *PlaceService) Photo(ctx context.Context, id string) (io.ReadCloser, string, error) {
	place, err := s.places.GetByID(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if place.PhotoKey == "" {
		return nil, "", fmt.Errorf("place %s has no photo", id)
	}

	body, err := s.storage.Download(ctx, place.PhotoKey)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download photo: %w", err)
	}

	return body, contentType(place.Format), nil
}

// PhotoURL returns the public URL of a place's stored photo.
func (s *PlaceService) PhotoURL(place *domain.Place) string {
	if place.PhotoKey == "" {
		return ""
	}
	return s.storage.GetURL(place.PhotoKey)
}

// Delete removes a place and everything its lifecycle owns: the database row,
// the embedding point, and the stored photo. The feature record is deleted
// only here, as part of place deletion.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: place ID to delete.
// Returns:
//   - error: non-nil if the place cannot be found or the row delete fails.
func (s *PlaceService) Delete(ctx context.Context, id string) error {
	place, err := s.places.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if place.EmbeddingPointID != "" {
		if err := s.embeddings.DeleteEmbedding(ctx, place.EmbeddingPointID); err != nil {
			s.log(ctx).WithField(logger.FieldPlaceID, id).WithError(err).Error("Failed to delete embedding point")
		}
	}

	if place.PhotoKey != "" {
		if err := s.storage.Delete(ctx, place.PhotoKey); err != nil {
			s.log(ctx).WithField(logger.FieldPlaceID, id).WithError(err).Error("Failed to delete photo")
		}
	}

	return s.places.Delete(ctx, id)
}

// Stats returns enrichment statistics across all places.
// Parameters:
//   - ctx: context for cancellation and deadlines.
// Returns:
//   - map[string]interface{}: aggregated counts by enrichment state.
//   - error: non-nil if statistics cannot be computed.
func (s *PlaceService) Stats(ctx context.Context) (map[string]interface{}, error) {
	total, err := s.places.Count(ctx)
	if err != nil {
		return nil, err
	}

	distinctive, err := s.places.CountByColorfulness(ctx, domain.ColorfulnessDistinctive)
	if err != nil {
		return nil, err
	}

	muted, err := s.places.CountByColorfulness(ctx, domain.ColorfulnessNotDistinctive)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"total_places":      total,
		"color_distinctive": distinctive,
		"color_muted":       muted,
		"unanalyzed":        total - distinctive - muted,
	}, nil
}

func contentType(format string) string {
	switch format {
	case "jpeg", "jpg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}
