package geometry

import (
	"math"
	"math/cmplx"
)

// GoldenSpiralPoints returns n points on a golden-angle spiral. Point i sits
// at angle 2πi/φ² and radius 0.9·(1 - 1/(1+0.1i)), so the spiral starts at
// the origin and approaches radius 0.9.
func GoldenSpiralPoints(n int) []Point {
	if n <= 0 {
		return nil
	}
	points := make([]Point, n)
	for i := range points {
		theta := 2 * math.Pi * float64(i) / (Phi * Phi)
		r := 0.9 * (1 - 1/(1+float64(i)*0.1))
		points[i] = NewPoint(cmplx.Rect(r, theta))
	}
	return points
}
