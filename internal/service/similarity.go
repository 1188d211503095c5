package service

import (
	"math"

	"github.com/timmy/colorwalk/internal/domain"
)

// Weight table keyed by the query photo's colorfulness. A muted or
// failed-extraction query photo falls back to text-driven retrieval instead of
// letting a noisy color signal dominate the ranking.
const (
	colorWeightDistinctive = 0.6
	textWeightDistinctive  = 0.4

	colorWeightMuted = 0.2
	textWeightMuted  = 0.8

	colorWeightUnanalyzed = 0.0
	textWeightUnanalyzed  = 1.0
)

// ScoreBreakdown reports the similarity components for one candidate.
type ScoreBreakdown struct {
	Color       float64 `json:"color"`
	Text        float64 `json:"text"`
	ColorWeight float64 `json:"color_weight"`
	TextWeight  float64 `json:"text_weight"`
	Total       float64 `json:"-"`
}

// adaptiveWeights selects the color/text blend from the query's colorfulness
// only; the candidate's state never influences the weights. The pair always
// sums to 1.
func adaptiveWeights(queryColorful domain.Colorfulness) (colorWeight, textWeight float64) {
	switch queryColorful {
	case domain.ColorfulnessDistinctive:
		return colorWeightDistinctive, textWeightDistinctive
	case domain.ColorfulnessNotDistinctive:
		return colorWeightMuted, textWeightMuted
	default:
		return colorWeightUnanalyzed, textWeightUnanalyzed
	}
}

// cosineSimilarity computes the cosine of two equal-length vectors. A
// non-comparable pair (either side absent, length mismatch, or zero magnitude)
// scores 0 rather than failing: it contributes nothing to the ranking.
func cosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, magA, magB float64
	for i := range a {
		dot += a[i] * b[i]
		magA += a[i] * a[i]
		magB += b[i] * b[i]
	}

	if magA == 0 || magB == 0 {
		return 0
	}

	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}

// cosineSimilarity32 is cosineSimilarity over float32 embedding vectors.
func cosineSimilarity32(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}

	if magA == 0 || magB == 0 {
		return 0
	}

	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}

// scoreCandidate fuses the color and text similarities between the query
// features and one candidate. A component is counted only when both sides
// carry the corresponding vector; otherwise it contributes 0.
// Parameters:
//   - query: query feature record.
//   - candidateVector: candidate's color vector; may be nil.
//   - candidateEmbedding: candidate's text embedding; may be nil.
// Returns:
//   - ScoreBreakdown: component similarities, the weights used, and the total.
func scoreCandidate(query *FeatureUpdate, candidateVector domain.ColorVector, candidateEmbedding []float32) ScoreBreakdown {
	colorWeight, textWeight := adaptiveWeights(query.Colorful)

	breakdown := ScoreBreakdown{
		ColorWeight: colorWeight,
		TextWeight:  textWeight,
	}

	if query.HasColor() && len(candidateVector) == domain.ColorVectorDim {
		breakdown.Color = cosineSimilarity(query.ColorVector, candidateVector)
	}
	if query.HasText() && len(candidateEmbedding) > 0 {
		breakdown.Text = cosineSimilarity32(query.Embedding, candidateEmbedding)
	}

	breakdown.Total = colorWeight*breakdown.Color + textWeight*breakdown.Text

	return breakdown
}
