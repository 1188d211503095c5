package repository

import (
	"context"
	"fmt"

	"github.com/timmy/colorwalk/internal/domain"
	"gorm.io/gorm"
)

// PlaceRepository handles place data operations.
type PlaceRepository struct {
	db *gorm.DB
}

// NewPlaceRepository creates a new PlaceRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *PlaceRepository: repository instance bound to db.
func NewPlaceRepository(db *gorm.DB) *PlaceRepository {
	return &PlaceRepository{db: db}
}

// Create inserts a new place record.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - place: place record to persist.
// Returns:
//   - error: non-nil if the insert fails.
func (r *PlaceRepository) Create(ctx context.Context, place *domain.Place) error {
	return r.db.WithContext(ctx).Create(place).Error
}

// GetByID retrieves a place by its ID.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: place ID.
// Returns:
//   - *domain.Place: place record if found.
//   - error: non-nil if lookup fails.
func (r *PlaceRepository) GetByID(ctx context.Context, id string) (*domain.Place, error) {
	var place domain.Place
	if err := r.db.WithContext(ctx).First(&place, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &place, nil
}

// ListByOwner retrieves places for an owner with pagination, newest first.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - ownerID: owner to filter by; empty means all owners.
//   - limit: maximum number of records to return.
//   - offset: number of records to skip.
// Returns:
//   - []domain.Place: matching place records.
//   - error: non-nil if the query fails.
func (r *PlaceRepository) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]domain.Place, error) {
	var places []domain.Place
	query := r.db.WithContext(ctx)
	if ownerID != "" {
		query = query.Where("owner_id = ?", ownerID)
	}
	if err := query.
		Limit(limit).
		Offset(offset).
		Order("created_at DESC").
		Find(&places).Error; err != nil {
		return nil, err
	}
	return places, nil
}

// ListFeatureCandidates retrieves places eligible for similarity scoring: those
// with at least one feature signal present. Ordered by creation time ascending
// so repeated searches see candidates in a stable order.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - ownerID: restrict candidates to one owner; empty means no restriction.
// Returns:
//   - []domain.Place: eligible candidate records.
//   - error: non-nil if the query fails.
func (r *PlaceRepository) ListFeatureCandidates(ctx context.Context, ownerID string) ([]domain.Place, error) {
	var places []domain.Place
	query := r.db.WithContext(ctx).
		Where("color_vector IS NOT NULL OR COALESCE(embedding_point_id, '') <> ''")
	if ownerID != "" {
		query = query.Where("owner_id = ?", ownerID)
	}
	if err := query.Order("created_at ASC, id ASC").Find(&places).Error; err != nil {
		return nil, fmt.Errorf("failed to list feature candidates: %w", err)
	}
	return places, nil
}

// MergeFeatures applies a field-level partial update to a place's feature
// record. Only the columns present in updates are written; previously stored
// feature fields outside the map are left untouched.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: place ID.
//   - updates: column name to value map; must not be empty.
// Returns:
//   - error: non-nil if the update fails.
func (r *PlaceRepository) MergeFeatures(ctx context.Context, id string, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&domain.Place{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// ListMissingFeatures retrieves places that have no feature signal at all,
// used by the backfill command.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - limit: maximum number of records to return.
// Returns:
//   - []domain.Place: places awaiting extraction.
//   - error: non-nil if the query fails.
func (r *PlaceRepository) ListMissingFeatures(ctx context.Context, limit int) ([]domain.Place, error) {
	var places []domain.Place
	if err := r.db.WithContext(ctx).
		Where("color_vector IS NULL AND COALESCE(embedding_point_id, '') = ''").
		Order("created_at ASC").
		Limit(limit).
		Find(&places).Error; err != nil {
		return nil, err
	}
	return places, nil
}

// CountByColorfulness counts places by their distinctiveness flag.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - state: colorfulness state to count.
// Returns:
//   - int64: number of matching records.
//   - error: non-nil if the query fails.
func (r *PlaceRepository) CountByColorfulness(ctx context.Context, state domain.Colorfulness) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&domain.Place{}).
		Where("is_colorful = ?", string(state)).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Count returns the total number of places.
func (r *PlaceRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.Place{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Delete removes a place by ID.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: place ID to delete.
// Returns:
//   - error: non-nil if the delete fails.
func (r *PlaceRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&domain.Place{}, "id = ?", id).Error
}
