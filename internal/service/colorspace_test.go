package service

import (
	"math"
	"testing"
)

// TestRGBToLabKnownColors checks the conversion against reference CIELAB
// values for the sRGB primaries and extremes (D65, 2° observer).
func TestRGBToLabKnownColors(t *testing.T) {
	testCases := []struct {
		name    string
		r, g, b int
		wantL   float64
		wantA   float64
		wantB   float64
	}{
		{name: "white", r: 255, g: 255, b: 255, wantL: 100.0, wantA: 0.0, wantB: 0.0},
		{name: "black", r: 0, g: 0, b: 0, wantL: 0.0, wantA: 0.0, wantB: 0.0},
		{name: "red", r: 255, g: 0, b: 0, wantL: 53.24, wantA: 80.09, wantB: 67.20},
		{name: "green", r: 0, g: 255, b: 0, wantL: 87.74, wantA: -86.18, wantB: 83.18},
		{name: "blue", r: 0, g: 0, b: 255, wantL: 32.30, wantA: 79.19, wantB: -107.86},
		{name: "mid gray", r: 119, g: 119, b: 119, wantL: 50.0, wantA: 0.0, wantB: 0.0},
	}

	const tolerance = 0.5

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			l, a, b := rgbToLab(tc.r, tc.g, tc.b)
			if math.Abs(l-tc.wantL) > tolerance {
				t.Errorf("L mismatch: got %.2f, want %.2f", l, tc.wantL)
			}
			if math.Abs(a-tc.wantA) > tolerance {
				t.Errorf("a mismatch: got %.2f, want %.2f", a, tc.wantA)
			}
			if math.Abs(b-tc.wantB) > tolerance {
				t.Errorf("b mismatch: got %.2f, want %.2f", b, tc.wantB)
			}
		})
	}
}

// TestRGBToLabDeterministic verifies repeated conversions of the same input
// produce bitwise-identical output.
func TestRGBToLabDeterministic(t *testing.T) {
	l1, a1, b1 := rgbToLab(201, 87, 143)
	l2, a2, b2 := rgbToLab(201, 87, 143)

	if l1 != l2 || a1 != a2 || b1 != b2 {
		t.Errorf("Conversion not deterministic: (%v,%v,%v) != (%v,%v,%v)", l1, a1, b1, l2, a2, b2)
	}
}

// TestRGBToLabRounding verifies components carry at most 2 decimal places.
func TestRGBToLabRounding(t *testing.T) {
	l, a, b := rgbToLab(17, 203, 91)

	for _, v := range []float64{l, a, b} {
		if math.Round(v*100)/100 != v {
			t.Errorf("Component %v not rounded to 2 decimal places", v)
		}
	}
}

// TestNeutralGrayAnchor verifies that the padding triple corresponds to a
// mid-lightness achromatic color.
func TestNeutralGrayAnchor(t *testing.T) {
	if padL != 50.0 || padA != 0.0 || padB != 0.0 {
		t.Errorf("Padding triple changed: got (%v, %v, %v), want (50, 0, 0)", padL, padA, padB)
	}
}
