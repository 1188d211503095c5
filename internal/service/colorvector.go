package service

import (
	"fmt"
	"sort"

	"github.com/timmy/colorwalk/internal/domain"
)

// Neutral gray Lab triple used to pad palettes with fewer than 5 swatches.
const (
	padL = 50.0
	padA = 0.0
	padB = 0.0
)

// normalizePalette sorts raw extractor swatches descending by population,
// truncates to the 5 most populous, and fills in the Lab and hex fields the
// extractor does not provide. The returned order is final; nothing downstream
// re-sorts it.
// Parameters:
//   - raw: swatches as returned by the palette extractor (up to 6).
// Returns:
//   - domain.Palette: normalized palette, at most 5 entries.
func normalizePalette(raw []domain.Swatch) domain.Palette {
	palette := make(domain.Palette, len(raw))
	copy(palette, raw)

	sort.SliceStable(palette, func(i, j int) bool {
		return palette[i].Population > palette[j].Population
	})

	if len(palette) > domain.MaxPaletteSize {
		palette = palette[:domain.MaxPaletteSize]
	}

	for i := range palette {
		s := &palette[i]
		l, a, b := rgbToLab(s.RGB[0], s.RGB[1], s.RGB[2])
		s.Lab = [3]float64{l, a, b}
		if s.Hex == "" {
			s.Hex = fmt.Sprintf("%02x%02x%02x", s.RGB[0], s.RGB[1], s.RGB[2])
		}
	}

	return palette
}

// buildColorVector flattens a normalized palette into the fixed 15-value color
// vector: one [L, a, b] triple per swatch, each component scaled into [0,1]
// (L by /100, a and b by (v+128)/255). Palettes shorter than 5 swatches are
// padded with the neutral gray triple so the vector shape never varies.
// Parameters:
//   - palette: swatch list already sorted and truncated by normalizePalette.
// Returns:
//   - domain.ColorVector: exactly 15 values in [0,1].
func buildColorVector(palette domain.Palette) domain.ColorVector {
	vector := make(domain.ColorVector, 0, domain.ColorVectorDim)

	for i := 0; i < domain.MaxPaletteSize; i++ {
		var l, a, b float64
		if i < len(palette) {
			l, a, b = palette[i].Lab[0], palette[i].Lab[1], palette[i].Lab[2]
		} else {
			l, a, b = padL, padA, padB
		}
		vector = append(vector,
			clamp01(l/100.0),
			clamp01((a+128.0)/255.0),
			clamp01((b+128.0)/255.0),
		)
	}

	return vector
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
