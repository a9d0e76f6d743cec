package geometry

import (
	"math"
	"math/cmplx"
)

const (
	// BoundaryRadius is the radius points are pulled back to when an
	// operation lands on or outside the unit circle.
	BoundaryRadius = 0.9999

	boundaryEpsilon = 1e-10
)

// Origin is the centre of the disk.
var Origin = Point{}

// Point is a point of the open unit disk. The zero value is the origin.
type Point struct {
	z complex128
}

// NewPoint returns the disk point for z. Values with |z| >= 1 are rescaled
// radially to BoundaryRadius; non-finite values collapse to the origin.
func NewPoint(z complex128) Point {
	return Point{z: clampToDisk(z)}
}

// Complex returns the point as a complex number.
func (p Point) Complex() complex128 { return p.z }

// Real returns the real coordinate.
func (p Point) Real() float64 { return real(p.z) }

// Imag returns the imaginary coordinate.
func (p Point) Imag() float64 { return imag(p.z) }

// Radius returns the Euclidean distance from the origin.
func (p Point) Radius() float64 { return cmplx.Abs(p.z) }

// Angle returns the argument of the point in (-π, π].
func (p Point) Angle() float64 { return cmplx.Phase(p.z) }

func clampToDisk(z complex128) complex128 {
	if !isFinite(z) {
		return 0
	}
	if r := cmplx.Abs(z); r >= 1 {
		return z / complex(r+boundaryEpsilon, 0) * BoundaryRadius
	}
	return z
}

func isFinite(z complex128) bool {
	re, im := real(z), imag(z)
	return !math.IsNaN(re) && !math.IsInf(re, 0) && !math.IsNaN(im) && !math.IsInf(im, 0)
}

// fractional returns x mod 1 with the sign of the divisor, so the result lies
// in [0, 1]. Zero results are +0. Non-finite input yields 0.
func fractional(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	m := math.Mod(x, 1)
	if m < 0 {
		m++
	}
	if m == 0 {
		return 0
	}
	return m
}
