package service

import (
	"testing"

	"github.com/timmy/colorwalk/internal/domain"
)

// TestClassifyColorfulness walks the gate conditions in order: swatch count,
// dominant population, vector spread.
func TestClassifyColorfulness(t *testing.T) {
	testCases := []struct {
		name string
		raw  []domain.Swatch
		want domain.Colorfulness
	}{
		{
			name: "no swatches",
			raw:  nil,
			want: domain.ColorfulnessNotDistinctive,
		},
		{
			name: "single swatch",
			raw:  []domain.Swatch{swatch(255, 0, 0, 5000)},
			want: domain.ColorfulnessNotDistinctive,
		},
		{
			name: "dominant population too small",
			raw: []domain.Swatch{
				swatch(255, 0, 0, 99),
				swatch(0, 0, 255, 50),
			},
			want: domain.ColorfulnessNotDistinctive,
		},
		{
			name: "near-monochrome grays",
			raw: []domain.Swatch{
				swatch(119, 119, 119, 800),
				swatch(125, 125, 125, 600),
				swatch(112, 112, 112, 400),
			},
			want: domain.ColorfulnessNotDistinctive,
		},
		{
			name: "saturated red and blue",
			raw: []domain.Swatch{
				swatch(255, 0, 0, 500),
				swatch(0, 0, 255, 400),
			},
			want: domain.ColorfulnessDistinctive,
		},
		{
			name: "dominant population exactly at threshold",
			raw: []domain.Swatch{
				swatch(255, 0, 0, 100),
				swatch(0, 0, 255, 80),
			},
			want: domain.ColorfulnessDistinctive,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			palette := normalizePalette(tc.raw)
			vector := buildColorVector(palette)
			got := classifyColorfulness(palette, vector)
			if got != tc.want {
				t.Errorf("Colorfulness: got %q, want %q", got, tc.want)
			}
		})
	}
}

// TestClassifyColorfulnessNeverUnanalyzed verifies the classifier always
// commits to a decision; the unanalyzed state is reserved for places that
// never went through extraction.
func TestClassifyColorfulnessNeverUnanalyzed(t *testing.T) {
	inputs := [][]domain.Swatch{
		nil,
		{swatch(0, 0, 0, 10)},
		{swatch(255, 0, 0, 500), swatch(0, 0, 255, 400)},
	}

	for _, raw := range inputs {
		palette := normalizePalette(raw)
		vector := buildColorVector(palette)
		if got := classifyColorfulness(palette, vector); got == domain.ColorfulnessUnanalyzed {
			t.Errorf("Classifier returned unanalyzed for %d swatches", len(raw))
		}
	}
}

// TestStdDev checks the population standard deviation helper.
func TestStdDev(t *testing.T) {
	testCases := []struct {
		name   string
		values []float64
		want   float64
	}{
		{name: "empty", values: nil, want: 0},
		{name: "uniform", values: []float64{0.5, 0.5, 0.5, 0.5}, want: 0},
		{name: "two point spread", values: []float64{0, 1}, want: 0.5},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := stdDev(tc.values)
			if diff := got - tc.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("stdDev: got %v, want %v", got, tc.want)
			}
		})
	}
}
