package service

import (
	"math"
	"testing"

	"github.com/timmy/colorwalk/internal/domain"
)

func swatch(r, g, b, population int) domain.Swatch {
	return domain.Swatch{RGB: [3]int{r, g, b}, Population: population}
}

// TestNormalizePaletteOrderAndTruncation verifies swatches come out sorted
// descending by population and capped at 5.
func TestNormalizePaletteOrderAndTruncation(t *testing.T) {
	raw := []domain.Swatch{
		swatch(10, 10, 10, 50),
		swatch(20, 20, 20, 900),
		swatch(30, 30, 30, 300),
		swatch(40, 40, 40, 700),
		swatch(50, 50, 50, 100),
		swatch(60, 60, 60, 500),
	}

	palette := normalizePalette(raw)

	if len(palette) != domain.MaxPaletteSize {
		t.Fatalf("Palette length: got %d, want %d", len(palette), domain.MaxPaletteSize)
	}

	for i := 1; i < len(palette); i++ {
		if palette[i].Population > palette[i-1].Population {
			t.Errorf("Palette not sorted by population at index %d: %d > %d",
				i, palette[i].Population, palette[i-1].Population)
		}
	}

	// The least populous swatch must be the one dropped.
	for _, s := range palette {
		if s.Population == 50 {
			t.Errorf("Least populous swatch survived truncation")
		}
	}
}

// TestNormalizePaletteFillsDerivedFields verifies Lab and hex are computed
// for every surviving swatch.
func TestNormalizePaletteFillsDerivedFields(t *testing.T) {
	palette := normalizePalette([]domain.Swatch{swatch(255, 0, 0, 500)})

	if len(palette) != 1 {
		t.Fatalf("Palette length: got %d, want 1", len(palette))
	}
	if palette[0].Hex != "ff0000" {
		t.Errorf("Hex: got %q, want %q", palette[0].Hex, "ff0000")
	}
	if palette[0].Lab == [3]float64{} {
		t.Errorf("Lab not filled in")
	}
}

// TestBuildColorVectorShape verifies the vector is always exactly 15 values
// in [0,1], for every palette size from empty to full.
func TestBuildColorVectorShape(t *testing.T) {
	for size := 0; size <= domain.MaxPaletteSize; size++ {
		raw := make([]domain.Swatch, 0, size)
		for i := 0; i < size; i++ {
			raw = append(raw, swatch(40*i, 255-40*i, 128, 1000-100*i))
		}

		vector := buildColorVector(normalizePalette(raw))

		if len(vector) != domain.ColorVectorDim {
			t.Errorf("size=%d: vector length got %d, want %d", size, len(vector), domain.ColorVectorDim)
		}
		for i, v := range vector {
			if v < 0 || v > 1 {
				t.Errorf("size=%d: vector[%d]=%v outside [0,1]", size, i, v)
			}
		}
	}
}

// TestBuildColorVectorPadding verifies missing swatch slots are filled with
// the normalized neutral gray triple rather than zeros.
func TestBuildColorVectorPadding(t *testing.T) {
	palette := normalizePalette([]domain.Swatch{
		swatch(255, 0, 0, 500),
		swatch(0, 0, 255, 400),
		swatch(0, 255, 0, 300),
	})

	vector := buildColorVector(palette)

	wantTriple := []float64{
		padL / 100.0,
		(padA + 128.0) / 255.0,
		(padB + 128.0) / 255.0,
	}

	// Slots 3 and 4 are padding.
	for slot := 3; slot < domain.MaxPaletteSize; slot++ {
		for j := 0; j < 3; j++ {
			got := vector[slot*3+j]
			if math.Abs(got-wantTriple[j]) > 1e-9 {
				t.Errorf("Padding slot %d component %d: got %v, want %v", slot, j, got, wantTriple[j])
			}
		}
	}
}

// TestBuildColorVectorEmptyPalette verifies an empty palette yields a vector
// of five identical gray triples, not an empty or zero vector.
func TestBuildColorVectorEmptyPalette(t *testing.T) {
	vector := buildColorVector(nil)

	if len(vector) != domain.ColorVectorDim {
		t.Fatalf("Vector length: got %d, want %d", len(vector), domain.ColorVectorDim)
	}

	for i := 0; i < domain.ColorVectorDim; i += 3 {
		if vector[i] != 0.5 {
			t.Errorf("L component at %d: got %v, want 0.5", i, vector[i])
		}
	}
}
