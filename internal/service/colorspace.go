package service

import "math"

// D65 reference white, 2° observer.
const (
	refWhiteX = 0.95047
	refWhiteY = 1.0
	refWhiteZ = 1.08883
)

// rgbToLab converts an sRGB triple (each channel 0-255) to CIELAB under the
// D65 illuminant. Lab distances approximate human-perceived color difference;
// raw RGB distances do not, which is why all similarity math runs in Lab.
// Components are rounded to 2 decimal places for reproducibility.
func rgbToLab(r, g, b int) (float64, float64, float64) {
	rl := inverseGamma(float64(r) / 255.0)
	gl := inverseGamma(float64(g) / 255.0)
	bl := inverseGamma(float64(b) / 255.0)

	// Linear RGB to XYZ, D65 primaries
	x := rl*0.4124564 + gl*0.3575761 + bl*0.1804375
	y := rl*0.2126729 + gl*0.7151522 + bl*0.0721750
	z := rl*0.0193339 + gl*0.1191920 + bl*0.9503041

	fx := labF(x / refWhiteX)
	fy := labF(y / refWhiteY)
	fz := labF(z / refWhiteZ)

	l := 116.0*fy - 16.0
	a := 500.0 * (fx - fy)
	bb := 200.0 * (fy - fz)

	return round2(l), round2(a), round2(bb)
}

// inverseGamma applies the sRGB inverse companding function.
func inverseGamma(c float64) float64 {
	if c <= 0.04045 {
		return c / 12.92
	}
	return math.Pow((c+0.055)/1.055, 2.4)
}

// labF is the CIE nonlinear compression applied to normalized XYZ components.
func labF(t float64) float64 {
	if t > 0.008856 {
		return math.Cbrt(t)
	}
	return 7.787*t + 16.0/116.0
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
