package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/timmy/colorwalk/internal/domain"
	"github.com/timmy/colorwalk/internal/logger"
	"github.com/timmy/colorwalk/internal/storage"
)

// CandidateSource fetches places eligible for similarity scoring.
type CandidateSource interface {
	ListFeatureCandidates(ctx context.Context, ownerID string) ([]domain.Place, error)
}

// EmbeddingFetcher retrieves stored text embeddings by point ID.
type EmbeddingFetcher interface {
	GetEmbeddings(ctx context.Context, pointIDs []string) (map[string][]float32, error)
}

// SearchService ranks stored places by hybrid similarity to a query photo.
type SearchService struct {
	places     CandidateSource
	vectors    EmbeddingFetcher
	extraction *ExtractionService
	storage    storage.ObjectStorage
	logger     *logger.Logger

	defaultThreshold float64
	defaultLimit     int
	maxLimit         int
}

// SearchConfig holds configuration for search service.
type SearchConfig struct {
	ScoreThreshold float64
	DefaultLimit   int
	MaxLimit       int
}

// NewSearchService creates a new search service.
// Parameters:
//   - places: candidate source (place repository).
//   - vectors: embedding fetcher (qdrant repository).
//   - extraction: feature extraction pipeline, used in query mode.
//   - objectStorage: photo storage, for result photo URLs.
//   - log: logger instance.
//   - cfg: search configuration settings.
// Returns:
//   - *SearchService: initialized search service.
func NewSearchService(
	places CandidateSource,
	vectors EmbeddingFetcher,
	extraction *ExtractionService,
	objectStorage storage.ObjectStorage,
	log *logger.Logger,
	cfg *SearchConfig,
) *SearchService {
	threshold := 0.4
	defaultLimit := 10
	maxLimit := 50
	if cfg != nil {
		if cfg.ScoreThreshold > 0 {
			threshold = cfg.ScoreThreshold
		}
		if cfg.DefaultLimit > 0 {
			defaultLimit = cfg.DefaultLimit
		}
		if cfg.MaxLimit > 0 {
			maxLimit = cfg.MaxLimit
		}
	}
	return &SearchService{
		places:           places,
		vectors:          vectors,
		extraction:       extraction,
		storage:          objectStorage,
		logger:           log,
		defaultThreshold: threshold,
		defaultLimit:     defaultLimit,
		maxLimit:         maxLimit,
	}
}

// log returns a logger from context if available, otherwise returns the default logger
func (s *SearchService) log(ctx context.Context) *logger.Logger {
	if l := logger.FromContext(ctx); l != nil {
		return l
	}
	return s.logger
}

// VisualSearchRequest represents a photo similarity search request.
type VisualSearchRequest struct {
	ImageData []byte
	Format    string
	QueryText string
	OwnerID   string
	Threshold *float64
	Limit     int
}

// PlaceSummary is the candidate metadata returned with each result. Raw
// vectors are never exposed.
type PlaceSummary struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Address  string `json:"address,omitempty"`
	PhotoURL string `json:"photo_url,omitempty"`
}

// VisualSearchResult represents a single ranked candidate.
type VisualSearchResult struct {
	Place          PlaceSummary   `json:"place"`
	Score          float64        `json:"score"`
	ScoreBreakdown ScoreBreakdown `json:"score_breakdown"`
}

// WeightsUsed reports the adaptive weight pair applied to the whole search.
type WeightsUsed struct {
	Color float64 `json:"color"`
	Text  float64 `json:"text"`
}

// VisualSearchResponse represents the search response.
type VisualSearchResponse struct {
	Results         []VisualSearchResult `json:"results"`
	ResultCount     int                  `json:"result_count"`
	QueryIsColorful domain.Colorfulness  `json:"query_is_colorful"`
	WeightsUsed     WeightsUsed          `json:"weights_used"`
	QueryPalette    []string             `json:"query_palette"`
}

// VisualSearch ranks stored places against an uploaded query photo.
// The query's features are extracted fresh and discarded after scoring; they
// are never persisted.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - req: search request parameters.
// Returns:
//   - *VisualSearchResponse: ranked, filtered, capped results with breakdowns.
//   - error: ErrNoUsableSignal when the query yields no features, or a
//     wrapped repository error.
func (s *SearchService) VisualSearch(ctx context.Context, req *VisualSearchRequest) (*VisualSearchResponse, error) {
	start := time.Now()

	threshold := s.defaultThreshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}
	limit := req.Limit
	if limit <= 0 {
		limit = s.defaultLimit
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}

	ctx = logger.WithFields(ctx, logger.Fields{
		logger.FieldComponent: "search",
		logger.FieldSearchID:  uuid.New().String(),
	})

	// Query-mode extraction: nothing is persisted.
	query, err := s.extraction.Extract(ctx, ExtractionInput{
		Image: ImageRef{Data: req.ImageData, Format: req.Format},
		Text:  req.QueryText,
	})
	if err != nil {
		return nil, err
	}

	candidates, err := s.places.ListFeatureCandidates(ctx, req.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch candidates: %w", err)
	}

	// Batch-fetch text embeddings for candidates that have one.
	pointIDs := make([]string, 0, len(candidates))
	for i := range candidates {
		if candidates[i].HasEmbedding() {
			pointIDs = append(pointIDs, candidates[i].EmbeddingPointID)
		}
	}
	embeddings := map[string][]float32{}
	if len(pointIDs) > 0 {
		embeddings, err = s.vectors.GetEmbeddings(ctx, pointIDs)
		if err != nil {
			// Degrade to color-only scoring rather than failing the search.
			s.log(ctx).WithError(err).Warn("Failed to fetch candidate embeddings")
			embeddings = map[string][]float32{}
		}
	}

	results := rankCandidates(query, candidates, embeddings, threshold, limit)

	for i := range results {
		if results[i].Place.PhotoURL != "" && s.storage != nil {
			results[i].Place.PhotoURL = s.storage.GetURL(results[i].Place.PhotoURL)
		}
	}

	colorWeight, textWeight := adaptiveWeights(query.Colorful)

	logger.With(logger.Fields{
		logger.FieldDurationMs: time.Since(start).Milliseconds(),
		logger.FieldCount:      len(results),
	}).Info(ctx, "Visual search completed: candidates=%d, colorful=%q, threshold=%.2f",
		len(candidates), query.Colorful, threshold)

	return &VisualSearchResponse{
		Results:         results,
		ResultCount:     len(results),
		QueryIsColorful: query.Colorful,
		WeightsUsed:     WeightsUsed{Color: colorWeight, Text: textWeight},
		QueryPalette:    paletteHexes(query.Palette),
	}, nil
}

// rankCandidates scores every candidate, drops those strictly below the
// threshold, sorts descending by score with candidate fetch order breaking
// ties, and truncates to limit.
func rankCandidates(query *FeatureUpdate, candidates []domain.Place, embeddings map[string][]float32, threshold float64, limit int) []VisualSearchResult {
	results := make([]VisualSearchResult, 0, len(candidates))

	for i := range candidates {
		c := &candidates[i]
		breakdown := scoreCandidate(query, c.ColorVector, embeddings[c.EmbeddingPointID])
		if breakdown.Total < threshold {
			continue
		}
		results = append(results, VisualSearchResult{
			Place: PlaceSummary{
				ID:       c.ID,
				Title:    c.Title,
				Address:  c.Address,
				PhotoURL: c.PhotoKey,
			},
			Score:          breakdown.Total,
			ScoreBreakdown: breakdown,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > limit {
		results = results[:limit]
	}

	return results
}

func paletteHexes(palette domain.Palette) []string {
	hexes := make([]string, len(palette))
	for i, s := range palette {
		hexes[i] = s.Hex
	}
	return hexes
}
