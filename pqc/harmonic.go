package pqc

import (
	"math"
	"sync"
)

// Default parameters of the harmonic scaling law.
const (
	DefaultHarmonicD = 2.0
	DefaultHarmonicR = 1000
)

// HarmonicScaling evaluates H(d, R) = Σ_{n=1..R} 1/n^d. The sum is computed
// once per value and reused.
type HarmonicScaling struct {
	D float64
	R int

	once  sync.Once
	value float64
}

// NewHarmonicScaling returns H(d, R).
func NewHarmonicScaling(d float64, r int) *HarmonicScaling {
	return &HarmonicScaling{D: d, R: r}
}

// Compute returns H(D, R). D and R must not change after the first call.
func (h *HarmonicScaling) Compute() float64 {
	h.once.Do(func() {
		var sum float64
		for n := 1; n <= h.R; n++ {
			sum += 1 / math.Pow(float64(n), h.D)
		}
		h.value = sum
	})
	return h.value
}

// ModulateEntropy returns e · (1 + H/R). A non-positive R leaves e unchanged.
func (h *HarmonicScaling) ModulateEntropy(e float64) float64 {
	if h.R <= 0 {
		return e
	}
	return e * (1 + h.Compute()/float64(h.R))
}
