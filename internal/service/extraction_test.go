package service

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/timmy/colorwalk/internal/domain"
	"github.com/timmy/colorwalk/internal/logger"
)

type fakePalette struct {
	swatches []domain.Swatch
	err      error
	delay    time.Duration
	calls    int
}

func (f *fakePalette) ExtractPalette(ctx context.Context, ref ImageRef) ([]domain.Swatch, error) {
	f.calls++
	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.delay):
		}
	}
	return f.swatches, f.err
}

type fakeEmbedding struct {
	vector []float32
	err    error
	calls  int
}

func (f *fakeEmbedding) Embed(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	return f.vector, f.err
}

func (f *fakeEmbedding) Dimensions() int { return 3 }
func (f *fakeEmbedding) Model() string   { return "fake-model" }

func testLogger() *logger.Logger {
	return logger.New(&logger.Config{Level: "error", Format: "json", Output: io.Discard})
}

func colorfulSwatches() []domain.Swatch {
	return []domain.Swatch{
		swatch(255, 0, 0, 500),
		swatch(0, 0, 255, 400),
	}
}

func newTestExtraction(palette *fakePalette, embedding *fakeEmbedding, cfg *ExtractionServiceConfig) *ExtractionService {
	return NewExtractionService(palette, embedding, testLogger(), cfg)
}

// TestExtractBothSucceed verifies a fully successful attempt produces both
// feature groups and a timestamp.
func TestExtractBothSucceed(t *testing.T) {
	svc := newTestExtraction(
		&fakePalette{swatches: colorfulSwatches()},
		&fakeEmbedding{vector: []float32{0.1, 0.2, 0.3}},
		nil,
	)

	update, err := svc.Extract(context.Background(), ExtractionInput{
		Image: ImageRef{URL: "http://example.com/p.jpg"},
		Text:  "cozy ramen shop",
	})
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}

	if !update.HasColor() {
		t.Errorf("Expected color features")
	}
	if !update.HasText() {
		t.Errorf("Expected text features")
	}
	if update.ExtractedAt == nil {
		t.Errorf("Expected extraction timestamp")
	}
	if update.Colorful == domain.ColorfulnessUnanalyzed {
		t.Errorf("Colorfulness should be classified on color success")
	}
}

// TestExtractPaletteFailureKeepsText verifies the text side survives a color
// side failure untouched.
func TestExtractPaletteFailureKeepsText(t *testing.T) {
	svc := newTestExtraction(
		&fakePalette{err: errors.New("palette api down")},
		&fakeEmbedding{vector: []float32{0.1, 0.2, 0.3}},
		nil,
	)

	update, err := svc.Extract(context.Background(), ExtractionInput{
		Image: ImageRef{URL: "http://example.com/p.jpg"},
		Text:  "cozy ramen shop",
	})
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}

	if update.HasColor() {
		t.Errorf("Color features present despite palette failure")
	}
	if !update.HasText() {
		t.Errorf("Text features lost to an unrelated failure")
	}
	if update.ExtractedAt == nil {
		t.Errorf("Timestamp should be set on partial success")
	}
}

// TestExtractEmbeddingFailureKeepsColor verifies the color side survives a
// text side failure untouched.
func TestExtractEmbeddingFailureKeepsColor(t *testing.T) {
	svc := newTestExtraction(
		&fakePalette{swatches: colorfulSwatches()},
		&fakeEmbedding{err: errors.New("embedding api down")},
		nil,
	)

	update, err := svc.Extract(context.Background(), ExtractionInput{
		Image: ImageRef{URL: "http://example.com/p.jpg"},
		Text:  "cozy ramen shop",
	})
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}

	if !update.HasColor() {
		t.Errorf("Color features lost to an unrelated failure")
	}
	if update.HasText() {
		t.Errorf("Text features present despite embedding failure")
	}
}

// TestExtractEmptySwatchesIsFailure verifies an empty palette response counts
// as a failed color extraction, not an empty success.
func TestExtractEmptySwatchesIsFailure(t *testing.T) {
	svc := newTestExtraction(
		&fakePalette{swatches: nil},
		&fakeEmbedding{vector: []float32{0.1, 0.2, 0.3}},
		nil,
	)

	update, err := svc.Extract(context.Background(), ExtractionInput{
		Image: ImageRef{URL: "http://example.com/p.jpg"},
		Text:  "cozy ramen shop",
	})
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if update.HasColor() {
		t.Errorf("Empty swatch list should not produce color features")
	}
}

// TestExtractBothFail verifies the attempt reports no usable signal with an
// empty update.
func TestExtractBothFail(t *testing.T) {
	svc := newTestExtraction(
		&fakePalette{err: errors.New("palette down")},
		&fakeEmbedding{err: errors.New("embedding down")},
		nil,
	)

	update, err := svc.Extract(context.Background(), ExtractionInput{
		Image: ImageRef{URL: "http://example.com/p.jpg"},
		Text:  "cozy ramen shop",
	})
	if !errors.Is(err, ErrNoUsableSignal) {
		t.Fatalf("Expected ErrNoUsableSignal, got %v", err)
	}

	if update.HasColor() || update.HasText() {
		t.Errorf("Failed attempt should carry no features")
	}
	if update.ExtractedAt != nil {
		t.Errorf("Failed attempt should carry no timestamp")
	}
}

// TestExtractEmptyTextSkipsEmbedding verifies the embedding provider is never
// called for empty text, and that the skip does not count as a failure.
func TestExtractEmptyTextSkipsEmbedding(t *testing.T) {
	embedding := &fakeEmbedding{vector: []float32{0.1, 0.2, 0.3}}
	svc := newTestExtraction(&fakePalette{swatches: colorfulSwatches()}, embedding, nil)

	update, err := svc.Extract(context.Background(), ExtractionInput{
		Image: ImageRef{URL: "http://example.com/p.jpg"},
	})
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}

	if embedding.calls != 0 {
		t.Errorf("Embedding provider called %d times for empty text", embedding.calls)
	}
	if !update.HasColor() {
		t.Errorf("Color features missing")
	}
}

// TestExtractTimeoutCountsAsFailure verifies a sub-extraction that outlives
// its timeout is treated as failed without affecting the other side.
func TestExtractTimeoutCountsAsFailure(t *testing.T) {
	svc := newTestExtraction(
		&fakePalette{swatches: colorfulSwatches(), delay: 500 * time.Millisecond},
		&fakeEmbedding{vector: []float32{0.1, 0.2, 0.3}},
		&ExtractionServiceConfig{ColorTimeout: 20 * time.Millisecond},
	)

	update, err := svc.Extract(context.Background(), ExtractionInput{
		Image: ImageRef{URL: "http://example.com/p.jpg"},
		Text:  "cozy ramen shop",
	})
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}

	if update.HasColor() {
		t.Errorf("Timed-out color extraction should not produce features")
	}
	if !update.HasText() {
		t.Errorf("Text side should be unaffected by a color timeout")
	}
}
