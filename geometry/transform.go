package geometry

import (
	"crypto/sha512"
	"encoding/binary"
	"math"
	"math/cmplx"

	"github.com/sirupsen/logrus"
)

const (
	// DenominatorEpsilon is the smallest |cz+d| a transform divides by.
	DenominatorEpsilon = 1e-15

	// DeterminantEpsilon is the smallest |ad-bc| accepted for a keyed transform.
	DeterminantEpsilon = 1e-10

	determinantOffset = 0.1
	coefficientScale  = 0.5
)

// fallbackPoint is returned when a transform cannot be evaluated.
const fallbackPoint = complex(BoundaryRadius, 0)

// Transform is the rational map z ↦ (Az+B)/(Cz+D).
type Transform struct {
	A, B, C, D complex128
}

// Determinant returns AD-BC.
func (t Transform) Determinant() complex128 {
	return t.A*t.D - t.B*t.C
}

// Apply evaluates the transform at z and keeps the result inside the disk.
//
// A denominator smaller than DenominatorEpsilon, or a non-finite result,
// yields the fixed point BoundaryRadius+0i. Results on or outside the unit
// circle are rescaled to BoundaryRadius along their direction.
func (t Transform) Apply(z complex128) complex128 {
	den := t.C*z + t.D
	if cmplx.Abs(den) < DenominatorEpsilon {
		return fallbackPoint
	}
	result := (t.A*z + t.B) / den
	if !isFinite(result) {
		return fallbackPoint
	}
	return clampToDisk(result)
}

// TransformFromKey derives a transform from key material.
//
// The key is hashed with SHA-512 and each 16-byte chunk of the digest becomes
// one coefficient: its two big-endian float64 halves are reduced mod 1 and
// scaled into [0, 0.5]. A near-singular result has 0.1 added to D.
func TransformFromKey(key []byte) Transform {
	h := sha512.Sum512(key)
	return nondegenerate(
		chunkToComplex(h[0:16]),
		chunkToComplex(h[16:32]),
		chunkToComplex(h[32:48]),
		chunkToComplex(h[48:64]),
	)
}

func chunkToComplex(b []byte) complex128 {
	re := math.Float64frombits(binary.BigEndian.Uint64(b[0:8]))
	im := math.Float64frombits(binary.BigEndian.Uint64(b[8:16]))
	return complex(fractional(re)*coefficientScale, fractional(im)*coefficientScale)
}

func nondegenerate(a, b, c, d complex128) Transform {
	t := Transform{A: a, B: b, C: c, D: d}
	if cmplx.Abs(t.Determinant()) < DeterminantEpsilon {
		t.D += determinantOffset
		logrus.WithFields(logrus.Fields{
			"function": "TransformFromKey",
			"package":  "geometry",
		}).Debug("Perturbed near-singular transform")
	}
	return t
}
