package geometry

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/binary"
	"math"
	"math/cmplx"

	"github.com/sirupsen/logrus"
)

const (
	// Layers is the number of security layers in a hyperbolic space.
	Layers = 13

	// TrajectoryLength is the number of points in a full trajectory: the
	// encoded point plus one per layer.
	TrajectoryLength = Layers + 1

	// SecurityHashSize is the size of ComputeSecurityHash output.
	SecurityHashSize = sha512.Size

	curvatureScale = 0.1
)

// Phi is the golden ratio.
var Phi = (1 + math.Sqrt(5)) / 2

var layerCurvatures = func() [Layers]float64 {
	var c [Layers]float64
	for i := range c {
		c[i] = -1 / math.Pow(Phi, float64(i))
	}
	return c
}()

// LayerCurvature returns the curvature -1/φ^i of layer i.
func LayerCurvature(i int) float64 {
	return layerCurvatures[i]
}

// HyperbolicSpace is the thirteen-layer transform stack derived from a master key.
type HyperbolicSpace struct {
	transforms [Layers]Transform
}

// NewHyperbolicSpace derives one transform per layer from SHA-256(masterKey || i).
func NewHyperbolicSpace(masterKey []byte) *HyperbolicSpace {
	s := &HyperbolicSpace{}
	buf := make([]byte, len(masterKey)+1)
	copy(buf, masterKey)
	for i := 0; i < Layers; i++ {
		buf[len(masterKey)] = byte(i)
		layerKey := sha256.Sum256(buf)
		s.transforms[i] = TransformFromKey(layerKey[:])
	}
	for i := range buf {
		buf[i] = 0
	}
	return s
}

// Transform returns the transform of layer i.
func (s *HyperbolicSpace) Transform(i int) Transform {
	return s.transforms[i]
}

// EncodePoint maps data to a disk point: the first two big-endian float64
// values of SHA-256(data), reduced mod 1 and shifted into [-0.5, 0.5].
func EncodePoint(data []byte) Point {
	h := sha256.Sum256(data)
	x := fractional(math.Float64frombits(binary.BigEndian.Uint64(h[0:8]))) - 0.5
	y := fractional(math.Float64frombits(binary.BigEndian.Uint64(h[8:16]))) - 0.5
	z := complex(x, y)
	if r := cmplx.Abs(z); r >= 1 {
		z = z / complex(r+0.1, 0) * 0.9
	}
	return NewPoint(z)
}

// TraverseLayers pushes p through every layer and returns the trajectory of
// TrajectoryLength points, starting with p.
//
// Before layer i the running point is scaled by 1 + 0.1·curvature(i). The
// trajectory moves outward only: a layer output nearer the origin than its
// predecessor is pushed back out to the predecessor's radius along its own
// direction (the predecessor's direction if the output is the origin).
func (s *HyperbolicSpace) TraverseLayers(p Point) Trajectory {
	trajectory := make(Trajectory, 0, TrajectoryLength)
	trajectory = append(trajectory, p)

	current := p.z
	ratchets := 0
	for i, t := range s.transforms {
		scaled := current * complex(1+layerCurvatures[i]*curvatureScale, 0)
		next := t.Apply(scaled)

		if prevRadius := cmplx.Abs(current); cmplx.Abs(next) < prevRadius {
			next = toRadius(next, current, prevRadius)
			ratchets++
		}

		point := NewPoint(next)
		trajectory = append(trajectory, point)
		current = point.z
	}

	if ratchets > 0 {
		logrus.WithFields(logrus.Fields{
			"function": "TraverseLayers",
			"package":  "geometry",
			"ratchets": ratchets,
		}).Debug("Trajectory re-projected outward")
	}
	return trajectory
}

// toRadius returns z moved to radius r along its direction, or fallback
// when z has no usable direction. The point is rebuilt from its phase so
// subnormal inputs cannot overflow the rescale.
func toRadius(z, fallback complex128, r float64) complex128 {
	if z == 0 || !isFinite(z) {
		return fallback
	}
	moved := cmplx.Rect(r, cmplx.Phase(z))
	if !isFinite(moved) {
		return fallback
	}
	return moved
}

// ComputeSecurityHash encodes data, traverses every layer and returns the
// SHA-512 digest of the trajectory.
func (s *HyperbolicSpace) ComputeSecurityHash(data []byte) []byte {
	digest := s.TraverseLayers(EncodePoint(data)).Digest()
	return digest[:]
}

// DefaultGeodesicSteps is the number of segments used when GeodesicPath is
// called with a non-positive step count.
const DefaultGeodesicSteps = 100

// GeodesicPath returns steps+1 points along the hyperbolic geodesic from
// start to end, both endpoints included.
func (s *HyperbolicSpace) GeodesicPath(start, end Point, steps int) []Point {
	if steps <= 0 {
		steps = DefaultGeodesicSteps
	}

	z1 := start.z
	toOrigin := Transform{A: 1, B: -z1, C: -cmplx.Conj(z1), D: 1}
	fromOrigin := Transform{A: 1, B: z1, C: cmplx.Conj(z1), D: 1}

	moved := toOrigin.Apply(end.z)
	r := cmplx.Abs(moved)
	theta := cmplx.Phase(moved)
	span := math.Atanh(r)

	path := make([]Point, 0, steps+1)
	for i := 0; i <= steps; i++ {
		alpha := float64(i) / float64(steps)
		ri := math.Tanh(alpha * span)
		path = append(path, NewPoint(fromOrigin.Apply(cmplx.Rect(ri, theta))))
	}
	return path
}

// HyperbolicDistance returns the Poincaré distance 2·atanh(|z1-z2| / |1-conj(z1)z2|).
// The ratio is capped at BoundaryRadius; a denominator below
// DenominatorEpsilon yields +Inf.
func HyperbolicDistance(z1, z2 complex128) float64 {
	num := cmplx.Abs(z1 - z2)
	den := cmplx.Abs(1 - cmplx.Conj(z1)*z2)
	if den < DenominatorEpsilon {
		return math.Inf(1)
	}
	return 2 * math.Atanh(math.Min(num/den, BoundaryRadius))
}
