package service

import (
	"math"

	"github.com/timmy/colorwalk/internal/domain"
)

const (
	// minDominantPopulation rejects near-uniform or low-confidence extractions:
	// if even the most populous swatch covers fewer pixels than this, the color
	// signal is noise.
	minDominantPopulation = 100

	// minVectorStdDev rejects near-monochrome images whose swatches are all
	// close together in Lab space.
	minVectorStdDev = 0.08
)

// classifyColorfulness decides whether a photo's color signal is trustworthy
// enough to drive similarity ranking. Checks run in order and short-circuit on
// the first failure. This is a heuristic gate: a false negative degrades to
// text-weighted scoring, never to an error.
// Parameters:
//   - palette: normalized swatch list for the photo.
//   - vector: the photo's 15-value color vector.
// Returns:
//   - domain.Colorfulness: Distinctive or NotDistinctive.
func classifyColorfulness(palette domain.Palette, vector domain.ColorVector) domain.Colorfulness {
	if len(palette) < 2 {
		return domain.ColorfulnessNotDistinctive
	}

	if palette[0].Population < minDominantPopulation {
		return domain.ColorfulnessNotDistinctive
	}

	if stdDev(vector) < minVectorStdDev {
		return domain.ColorfulnessNotDistinctive
	}

	return domain.ColorfulnessDistinctive
}

// stdDev computes the population standard deviation of the vector's values.
func stdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var sqSum float64
	for _, v := range values {
		d := v - mean
		sqSum += d * d
	}

	return math.Sqrt(sqSum / float64(len(values)))
}
