package spiralverse

import (
	"crypto/sha512"
	"fmt"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
	"github.com/sirupsen/logrus"

	"github.com/issdandavis/Spiralverse-AetherMoore/geometry"
)

// ConsensusValidator checks tokens against the trajectory stack of a System
// and aggregates groups of tokens into one digest.
type ConsensusValidator struct {
	system    *System
	threshold int
}

// NewConsensusValidator creates a validator requiring at least threshold
// trajectory points. A threshold of zero or less uses the System's
// ConsensusThreshold option.
func NewConsensusValidator(system *System, threshold int) *ConsensusValidator {
	if threshold <= 0 {
		threshold = system.options.ConsensusThreshold
	}
	return &ConsensusValidator{system: system, threshold: threshold}
}

// Threshold returns the minimum trajectory length the validator accepts.
func (v *ConsensusValidator) Threshold() int {
	return v.threshold
}

// ValidateTrajectory recomputes the subject trajectory of token and accepts
// it when it reaches the threshold and passes the integrity check.
func (v *ConsensusValidator) ValidateTrajectory(token *AuthorizationToken) bool {
	if token == nil {
		return false
	}
	trajectory := v.system.space.TraverseLayers(geometry.EncodePoint([]byte(token.Subject)))
	if len(trajectory) < v.threshold {
		logrus.WithFields(logrus.Fields{
			"function":  "ValidateTrajectory",
			"package":   "spiralverse",
			"length":    len(trajectory),
			"threshold": v.threshold,
		}).Debug("Trajectory below consensus threshold")
		return false
	}
	return geometry.VerifyTrajectoryIntegrity(trajectory)
}

// ComputeConsensusHash returns SHA-512 over each token's geometric signature
// followed by its semantic binding, in slice order. Reordering the tokens
// changes the digest.
func (v *ConsensusValidator) ComputeConsensusHash(tokens []*AuthorizationToken) [sha512.Size]byte {
	h := sha512.New()
	for _, t := range tokens {
		if t == nil {
			continue
		}
		h.Write(t.GeometricSignature)
		h.Write(t.SemanticBinding)
	}
	var out [sha512.Size]byte
	h.Sum(out[:0])
	return out
}

// ConsensusCID wraps the consensus hash of tokens in a CIDv1 (raw codec,
// sha2-512 multihash).
func (v *ConsensusValidator) ConsensusCID(tokens []*AuthorizationToken) (cid.Cid, error) {
	digest := v.ComputeConsensusHash(tokens)
	mh, err := multihash.Encode(digest[:], multihash.SHA2_512)
	if err != nil {
		return cid.Undef, fmt.Errorf("failed to encode consensus multihash: %w", err)
	}
	return cid.NewCidV1(cid.Raw, mh), nil
}
