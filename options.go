package spiralverse

import (
	"fmt"
	"io"

	"github.com/issdandavis/Spiralverse-AetherMoore/crypto"
	"github.com/issdandavis/Spiralverse-AetherMoore/geometry"
	"github.com/issdandavis/Spiralverse-AetherMoore/limits"
)

// DefaultConsensusThreshold is the minimum trajectory length a
// ConsensusValidator accepts when no threshold is given.
const DefaultConsensusThreshold = 7

// Options contains configuration options for creating a System.
type Options struct {
	// ChaosIterations is the number of generator iterations discarded while
	// deriving the long-term key.
	ChaosIterations int
	// BlockSize is the cipher block and IV size in bytes.
	BlockSize int
	// ConsensusThreshold is the default layer threshold of consensus validators.
	ConsensusThreshold int
	// MasterKeySalt fixes the salt of the long-term key derivation. Nil draws a
	// fresh random salt, so only the same System can verify its tokens.
	MasterKeySalt []byte
	// TimeProvider supplies token timestamps. Nil means the wall clock.
	TimeProvider crypto.TimeProvider
	// Rand supplies salts and IVs. Nil means crypto/rand.
	Rand io.Reader
	// Limits bounds subjects, passphrases, payloads and exported tokens.
	Limits limits.Limits
}

// NewOptions returns the default protocol options.
func NewOptions() *Options {
	return &Options{
		ChaosIterations:    crypto.DefaultChaosIterations,
		BlockSize:          crypto.DefaultBlockSize,
		ConsensusThreshold: DefaultConsensusThreshold,
		Limits:             limits.Default(),
	}
}

// Validate checks the options for values no System can run with.
func (o *Options) Validate() error {
	if o.ChaosIterations < 0 {
		return fmt.Errorf("%w: chaos iterations cannot be negative: %d", ErrInvalidOptions, o.ChaosIterations)
	}
	if o.BlockSize < 1 || o.BlockSize > 255 {
		return fmt.Errorf("%w: block size must be in [1, 255]: %d", ErrInvalidOptions, o.BlockSize)
	}
	if o.ConsensusThreshold < 1 || o.ConsensusThreshold > geometry.TrajectoryLength {
		return fmt.Errorf("%w: consensus threshold must be in [1, %d]: %d",
			ErrInvalidOptions, geometry.TrajectoryLength, o.ConsensusThreshold)
	}
	if o.MasterKeySalt != nil && len(o.MasterKeySalt) != crypto.SaltSize {
		return fmt.Errorf("%w: master key salt must be %d bytes: %d",
			ErrInvalidOptions, crypto.SaltSize, len(o.MasterKeySalt))
	}
	if err := o.Limits.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}
	return nil
}

func (o *Options) engineConfig() crypto.Config {
	return crypto.Config{
		ChaosIterations: o.ChaosIterations,
		BlockSize:       o.BlockSize,
		Rand:            o.Rand,
	}
}
