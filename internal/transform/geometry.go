package transform

import "math"

// trigEpsilon absorbs floating point noise so that sin/cos products that are
// mathematically integral do not round up to the next pixel.
const trigEpsilon = 1e-9

// Geometry is the axis-aligned bounding box of a rotated source and the pivot
// at its centre.
type Geometry struct {
	Width   int
	Height  int
	CenterX float64
	CenterY float64
	Degrees int
}

// NormalizeDegrees maps any integer angle into [0, 360).
func NormalizeDegrees(degrees int) int {
	d := degrees % 360
	if d < 0 {
		d += 360
	}
	return d
}

// IsQuadrant reports whether a normalised angle is a multiple of 90.
func IsQuadrant(degrees int) bool {
	return NormalizeDegrees(degrees)%90 == 0
}

// Resolve computes the bounding box of a width x height rectangle rotated
// clockwise by degrees. Callers reject non-positive dimensions beforehand.
func Resolve(width, height, degrees int) Geometry {
	d := NormalizeDegrees(degrees)
	sin, cos := sincos(d)

	w := math.Abs(cos)*float64(width) + math.Abs(sin)*float64(height)
	h := math.Abs(sin)*float64(width) + math.Abs(cos)*float64(height)

	bw := int(math.Ceil(w - trigEpsilon))
	bh := int(math.Ceil(h - trigEpsilon))

	return Geometry{
		Width:   bw,
		Height:  bh,
		CenterX: float64(bw) / 2,
		CenterY: float64(bh) / 2,
		Degrees: d,
	}
}

// Radians returns the resolved angle in radians.
func (g Geometry) Radians() float64 {
	return float64(g.Degrees) * math.Pi / 180
}

func sincos(degrees int) (float64, float64) {
	switch degrees {
	case 0:
		return 0, 1
	case 90:
		return 1, 0
	case 180:
		return 0, -1
	case 270:
		return -1, 0
	}
	return math.Sincos(float64(degrees) * math.Pi / 180)
}
