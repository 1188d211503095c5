package service

import (
	"math"
	"testing"

	"github.com/timmy/colorwalk/internal/domain"
)

// TestCosineSimilarity exercises the non-comparable fallbacks alongside the
// ordinary cases.
func TestCosineSimilarity(t *testing.T) {
	testCases := []struct {
		name string
		a    []float64
		b    []float64
		want float64
	}{
		{name: "identical", a: []float64{0.2, 0.5, 0.8}, b: []float64{0.2, 0.5, 0.8}, want: 1.0},
		{name: "orthogonal", a: []float64{1, 0}, b: []float64{0, 1}, want: 0.0},
		{name: "opposite", a: []float64{1, 1}, b: []float64{-1, -1}, want: -1.0},
		{name: "both empty", a: nil, b: nil, want: 0.0},
		{name: "length mismatch", a: []float64{1, 2}, b: []float64{1, 2, 3}, want: 0.0},
		{name: "zero magnitude left", a: []float64{0, 0, 0}, b: []float64{1, 2, 3}, want: 0.0},
		{name: "zero magnitude right", a: []float64{1, 2, 3}, b: []float64{0, 0, 0}, want: 0.0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := cosineSimilarity(tc.a, tc.b)
			if math.Abs(got-tc.want) > 1e-9 {
				t.Errorf("cosineSimilarity: got %v, want %v", got, tc.want)
			}
		})
	}
}

// TestCosineSimilarity32 verifies the float32 variant agrees with the float64
// one on equivalent input.
func TestCosineSimilarity32(t *testing.T) {
	a32 := []float32{0.25, 0.5, 0.75}
	b32 := []float32{0.5, 0.25, 1.0}
	a64 := []float64{0.25, 0.5, 0.75}
	b64 := []float64{0.5, 0.25, 1.0}

	got := cosineSimilarity32(a32, b32)
	want := cosineSimilarity(a64, b64)
	if math.Abs(got-want) > 1e-6 {
		t.Errorf("Variants disagree: float32=%v, float64=%v", got, want)
	}

	if cosineSimilarity32(nil, nil) != 0 {
		t.Errorf("Empty float32 vectors should score 0")
	}
}

// TestAdaptiveWeights verifies the weight table is keyed on the query's
// colorfulness alone and always sums to 1.
func TestAdaptiveWeights(t *testing.T) {
	testCases := []struct {
		name      string
		colorful  domain.Colorfulness
		wantColor float64
		wantText  float64
	}{
		{name: "distinctive", colorful: domain.ColorfulnessDistinctive, wantColor: 0.6, wantText: 0.4},
		{name: "muted", colorful: domain.ColorfulnessNotDistinctive, wantColor: 0.2, wantText: 0.8},
		{name: "unanalyzed", colorful: domain.ColorfulnessUnanalyzed, wantColor: 0.0, wantText: 1.0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			colorWeight, textWeight := adaptiveWeights(tc.colorful)
			if colorWeight != tc.wantColor {
				t.Errorf("Color weight: got %v, want %v", colorWeight, tc.wantColor)
			}
			if textWeight != tc.wantText {
				t.Errorf("Text weight: got %v, want %v", textWeight, tc.wantText)
			}
			if colorWeight+textWeight != 1.0 {
				t.Errorf("Weights do not sum to 1: %v + %v", colorWeight, textWeight)
			}
		})
	}
}

// TestScoreCandidate covers component gating: a component only counts when
// both sides carry the corresponding vector.
func TestScoreCandidate(t *testing.T) {
	colorVector := buildColorVector(normalizePalette([]domain.Swatch{
		swatch(255, 0, 0, 500),
		swatch(0, 0, 255, 400),
	}))
	embedding := []float32{0.1, 0.9, 0.3}

	t.Run("identical color, distinctive query", func(t *testing.T) {
		query := &FeatureUpdate{
			ColorVector: colorVector,
			Colorful:    domain.ColorfulnessDistinctive,
		}
		breakdown := scoreCandidate(query, colorVector, nil)

		if math.Abs(breakdown.Color-1.0) > 1e-9 {
			t.Errorf("Color similarity: got %v, want 1.0", breakdown.Color)
		}
		if breakdown.Text != 0 {
			t.Errorf("Text similarity without embeddings: got %v, want 0", breakdown.Text)
		}
		if math.Abs(breakdown.Total-0.6) > 1e-9 {
			t.Errorf("Total: got %v, want 0.6", breakdown.Total)
		}
	})

	t.Run("unanalyzed query contributes no color weight", func(t *testing.T) {
		query := &FeatureUpdate{
			ColorVector: colorVector,
			Colorful:    domain.ColorfulnessUnanalyzed,
		}
		breakdown := scoreCandidate(query, colorVector, nil)

		if breakdown.Total != 0 {
			t.Errorf("Total for text-only weights without text: got %v, want 0", breakdown.Total)
		}
		if breakdown.ColorWeight != 0 || breakdown.TextWeight != 1 {
			t.Errorf("Weights: got (%v, %v), want (0, 1)", breakdown.ColorWeight, breakdown.TextWeight)
		}
	})

	t.Run("candidate missing color vector", func(t *testing.T) {
		query := &FeatureUpdate{
			ColorVector: colorVector,
			Colorful:    domain.ColorfulnessDistinctive,
			Embedding:   embedding,
		}
		breakdown := scoreCandidate(query, nil, embedding)

		if breakdown.Color != 0 {
			t.Errorf("Color similarity against absent vector: got %v, want 0", breakdown.Color)
		}
		if math.Abs(breakdown.Text-1.0) > 1e-6 {
			t.Errorf("Text similarity: got %v, want 1.0", breakdown.Text)
		}
		if math.Abs(breakdown.Total-0.4) > 1e-6 {
			t.Errorf("Total: got %v, want 0.4", breakdown.Total)
		}
	})

	t.Run("nothing comparable scores zero", func(t *testing.T) {
		query := &FeatureUpdate{}
		breakdown := scoreCandidate(query, nil, nil)
		if breakdown.Total != 0 {
			t.Errorf("Total: got %v, want 0", breakdown.Total)
		}
	})
}
