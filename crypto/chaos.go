package crypto

import (
	"encoding/binary"

	"golang.org/x/crypto/sha3"
)

const (
	// ChaosAxes is the number of independent logistic-map axes in a generator.
	ChaosAxes = 5

	// ChaosGrowthRate is the logistic-map parameter r. 3.99 sits in the chaotic regime.
	ChaosGrowthRate = 3.99
)

// ChaosState holds the five axis values of a chaos generator, each in (0,1).
type ChaosState [ChaosAxes]float64

// ChaosGenerator is a deterministic byte stream source driven by five
// independent logistic maps.
//
// A generator is a sequential state machine: identical seeds and identical
// call sequences produce identical output. It is not safe for concurrent use
// and must not be shared between encrypt/decrypt calls.
type ChaosGenerator struct {
	state ChaosState
}

// NewChaosGenerator seeds a generator from an arbitrary byte string.
//
// The seed is hashed with SHA3-512 and each 8-byte big-endian slice of the
// digest is mapped into (0.1, 0.9).
func NewChaosGenerator(seed []byte) *ChaosGenerator {
	digest := sha3.Sum512(seed)

	g := &ChaosGenerator{}
	for i := 0; i < ChaosAxes; i++ {
		v := binary.BigEndian.Uint64(digest[i*8 : (i+1)*8])
		unit := float64(v) / (1 << 64)
		g.state[i] = 0.1 + 0.8*unit
	}
	return g
}

// State returns a copy of the current axis values.
func (g *ChaosGenerator) State() ChaosState {
	return g.state
}

// Iterate advances every axis by one step of x <- r*x*(1-x) and returns the new state.
func (g *ChaosGenerator) Iterate() ChaosState {
	for i, x := range g.state {
		g.state[i] = ChaosGrowthRate * x * (1 - x)
	}
	return g.state
}

// Skip advances the generator n times without producing output.
func (g *ChaosGenerator) Skip(n int) {
	for i := 0; i < n; i++ {
		g.Iterate()
	}
}

// GenerateStream returns exactly n bytes of chaotic output.
//
// Each iteration contributes one byte per axis. Bytes left over from the last
// iteration of a call are discarded, so two calls of 7 and 9 bytes do not
// equal one call of 16.
func (g *ChaosGenerator) GenerateStream(n int) []byte {
	if n <= 0 {
		return []byte{}
	}

	out := make([]byte, 0, n+ChaosAxes)
	for len(out) < n {
		g.Iterate()
		for _, v := range g.state {
			out = append(out, byte(int(v*256)%256))
		}
	}
	return out[:n]
}
