package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/timmy/colorwalk/internal/domain"
	"github.com/timmy/colorwalk/internal/logger"
)

// ErrNoUsableSignal is returned when both sub-extractions fail: the image
// yielded no color data and the text yielded no embedding. Query-path callers
// surface it; the enrichment path absorbs it.
var ErrNoUsableSignal = errors.New("no usable signal: neither color nor text features could be extracted")

// ExtractionInput describes one extraction attempt.
type ExtractionInput struct {
	Image ImageRef
	Text  string
}

// FeatureUpdate carries the fields produced by one extraction attempt. Only
// fields from a successful sub-extraction are set; everything else stays at
// its zero value and is skipped by the merge step, so absence can never
// overwrite previously stored data.
type FeatureUpdate struct {
	Palette     domain.Palette
	ColorVector domain.ColorVector
	Colorful    domain.Colorfulness
	Embedding   []float32
	ExtractedAt *time.Time
}

// HasColor reports whether the color sub-extraction succeeded.
func (u *FeatureUpdate) HasColor() bool {
	return len(u.ColorVector) == domain.ColorVectorDim
}

// HasText reports whether the text sub-extraction succeeded.
func (u *FeatureUpdate) HasText() bool {
	return len(u.Embedding) > 0
}

// ExtractionService runs the two feature sub-extractions concurrently and
// joins them with "wait for both, keep whichever succeeded" semantics. One
// sub-extraction failing never cancels or fails the other.
type ExtractionService struct {
	palette      PaletteProvider
	embedding    EmbeddingProvider
	colorTimeout time.Duration
	textTimeout  time.Duration
	logger       *logger.Logger
}

// ExtractionServiceConfig holds configuration for the extraction pipeline
type ExtractionServiceConfig struct {
	ColorTimeout time.Duration
	TextTimeout  time.Duration
}

// NewExtractionService creates a new extraction pipeline.
// Parameters:
//   - palette: external palette extraction capability.
//   - embedding: external text embedding capability.
//   - log: logger instance.
//   - cfg: timeout configuration; nil uses 10s for both sub-extractions.
// Returns:
//   - *ExtractionService: initialized pipeline.
func NewExtractionService(palette PaletteProvider, embedding EmbeddingProvider, log *logger.Logger, cfg *ExtractionServiceConfig) *ExtractionService {
	colorTimeout := 10 * time.Second
	textTimeout := 10 * time.Second
	if cfg != nil {
		if cfg.ColorTimeout > 0 {
			colorTimeout = cfg.ColorTimeout
		}
		if cfg.TextTimeout > 0 {
			textTimeout = cfg.TextTimeout
		}
	}
	return &ExtractionService{
		palette:      palette,
		embedding:    embedding,
		colorTimeout: colorTimeout,
		textTimeout:  textTimeout,
		logger:       log,
	}
}

// log returns a logger from context if available, otherwise returns the default logger
func (s *ExtractionService) log(ctx context.Context) *logger.Logger {
	if l := logger.FromContext(ctx); l != nil {
		return l
	}
	return s.logger
}

// Extract runs both sub-extractions and combines whatever succeeded.
// A timed-out sub-extraction counts as a failed one. If both fail the returned
// error is ErrNoUsableSignal and the update is empty.
// Parameters:
//   - ctx: context for cancellation; each sub-extraction gets its own timeout.
//   - input: image reference and optional text.
// Returns:
//   - *FeatureUpdate: fields from successful sub-extractions only.
//   - error: ErrNoUsableSignal when neither sub-extraction produced data.
func (s *ExtractionService) Extract(ctx context.Context, input ExtractionInput) (*FeatureUpdate, error) {
	update := &FeatureUpdate{}

	var (
		wg        sync.WaitGroup
		palette   domain.Palette
		vector    domain.ColorVector
		colorful  domain.Colorfulness
		embedding []float32
	)

	wg.Add(2)

	go func() {
		defer wg.Done()
		colorCtx, cancel := context.WithTimeout(ctx, s.colorTimeout)
		defer cancel()

		raw, err := s.palette.ExtractPalette(colorCtx, input.Image)
		if err != nil {
			s.log(ctx).WithError(err).Warn("Color extraction failed")
			return
		}
		if len(raw) == 0 {
			s.log(ctx).Warn("Color extraction returned no swatches")
			return
		}

		palette = normalizePalette(raw)
		vector = buildColorVector(palette)
		colorful = classifyColorfulness(palette, vector)
	}()

	go func() {
		defer wg.Done()
		if input.Text == "" {
			return
		}

		textCtx, cancel := context.WithTimeout(ctx, s.textTimeout)
		defer cancel()

		vec, err := s.embedding.Embed(textCtx, input.Text)
		if err != nil {
			s.log(ctx).WithError(err).Warn("Text embedding failed")
			return
		}
		embedding = vec
	}()

	// Always wait for both outcomes; a failure on one side must not
	// short-circuit the other.
	wg.Wait()

	if len(vector) == domain.ColorVectorDim {
		update.Palette = palette
		update.ColorVector = vector
		update.Colorful = colorful
	}
	if len(embedding) > 0 {
		update.Embedding = embedding
	}

	if !update.HasColor() && !update.HasText() {
		return update, ErrNoUsableSignal
	}

	now := time.Now()
	update.ExtractedAt = &now

	return update, nil
}
