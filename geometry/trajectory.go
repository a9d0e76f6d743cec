package geometry

import (
	"crypto/sha512"
	"encoding/binary"
	"math"
)

// IntegrityTolerance is how far a point's distance from the origin may fall
// below its predecessor's before a trajectory is rejected.
const IntegrityTolerance = 0.01

// Trajectory is the ordered list of points produced by TraverseLayers.
type Trajectory []Point

// Distances returns the hyperbolic distance of every point from the origin.
func (t Trajectory) Distances() []float64 {
	out := make([]float64, len(t))
	for i, p := range t {
		out[i] = HyperbolicDistance(0, p.z)
	}
	return out
}

// Digest returns SHA-512 over the big-endian float64 real and imaginary
// parts of every point, in order.
func (t Trajectory) Digest() [SecurityHashSize]byte {
	buf := make([]byte, 0, len(t)*16)
	for _, p := range t {
		buf = binary.BigEndian.AppendUint64(buf, math.Float64bits(real(p.z)))
		buf = binary.BigEndian.AppendUint64(buf, math.Float64bits(imag(p.z)))
	}
	return sha512.Sum512(buf)
}

// VerifyTrajectoryIntegrity reports whether t has exactly TrajectoryLength
// points whose distances from the origin never drop by more than
// IntegrityTolerance from one point to the next.
func VerifyTrajectoryIntegrity(t Trajectory) bool {
	if len(t) != TrajectoryLength {
		return false
	}
	distances := t.Distances()
	for i := 1; i < len(distances); i++ {
		if distances[i] < distances[i-1]-IntegrityTolerance {
			return false
		}
	}
	return true
}
