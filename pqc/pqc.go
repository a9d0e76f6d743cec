// Package pqc provides the post-quantum key-encapsulation and signature
// collaborator: Kyber for KEM and Dilithium for signatures, selected by NIST
// security level. Keys, ciphertexts and signatures are exchanged as byte
// slices of fixed size per level.
//
// The authorization protocol never calls this package.
package pqc

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"github.com/cloudflare/circl/kem"
	"github.com/cloudflare/circl/kem/kyber/kyber1024"
	"github.com/cloudflare/circl/kem/kyber/kyber512"
	"github.com/cloudflare/circl/kem/kyber/kyber768"
	"github.com/cloudflare/circl/sign/dilithium/mode2"
	"github.com/cloudflare/circl/sign/dilithium/mode3"
	"github.com/cloudflare/circl/sign/dilithium/mode5"
	"github.com/sirupsen/logrus"
)

// SecurityLevel is a NIST post-quantum security category.
type SecurityLevel int

const (
	Level1 SecurityLevel = 1 // Kyber512, Dilithium2
	Level3 SecurityLevel = 3 // Kyber768, Dilithium3
	Level5 SecurityLevel = 5 // Kyber1024, Dilithium5
)

// ErrUnsupportedLevel is returned for security levels other than 1, 3 and 5.
var ErrUnsupportedLevel = errors.New("unsupported security level")

// signer adapts one Dilithium mode to byte-slice keys.
type signer struct {
	name          string
	signatureSize int
	generate      func(io.Reader) (pk, sk []byte, err error)
	sign          func(sk, msg []byte) ([]byte, error)
	verify        func(pk, msg, sig []byte) bool
}

var dilithium2 = signer{
	name:          "Dilithium2",
	signatureSize: mode2.SignatureSize,
	generate: func(r io.Reader) ([]byte, []byte, error) {
		pk, sk, err := mode2.GenerateKey(r)
		if err != nil {
			return nil, nil, err
		}
		return marshalPair(pk, sk)
	},
	sign: func(skBytes, msg []byte) ([]byte, error) {
		var sk mode2.PrivateKey
		if err := sk.UnmarshalBinary(skBytes); err != nil {
			return nil, err
		}
		sig := make([]byte, mode2.SignatureSize)
		mode2.SignTo(&sk, msg, sig)
		return sig, nil
	},
	verify: func(pkBytes, msg, sig []byte) bool {
		var pk mode2.PublicKey
		if pk.UnmarshalBinary(pkBytes) != nil || len(sig) != mode2.SignatureSize {
			return false
		}
		return mode2.Verify(&pk, msg, sig)
	},
}

var dilithium3 = signer{
	name:          "Dilithium3",
	signatureSize: mode3.SignatureSize,
	generate: func(r io.Reader) ([]byte, []byte, error) {
		pk, sk, err := mode3.GenerateKey(r)
		if err != nil {
			return nil, nil, err
		}
		return marshalPair(pk, sk)
	},
	sign: func(skBytes, msg []byte) ([]byte, error) {
		var sk mode3.PrivateKey
		if err := sk.UnmarshalBinary(skBytes); err != nil {
			return nil, err
		}
		sig := make([]byte, mode3.SignatureSize)
		mode3.SignTo(&sk, msg, sig)
		return sig, nil
	},
	verify: func(pkBytes, msg, sig []byte) bool {
		var pk mode3.PublicKey
		if pk.UnmarshalBinary(pkBytes) != nil || len(sig) != mode3.SignatureSize {
			return false
		}
		return mode3.Verify(&pk, msg, sig)
	},
}

var dilithium5 = signer{
	name:          "Dilithium5",
	signatureSize: mode5.SignatureSize,
	generate: func(r io.Reader) ([]byte, []byte, error) {
		pk, sk, err := mode5.GenerateKey(r)
		if err != nil {
			return nil, nil, err
		}
		return marshalPair(pk, sk)
	},
	sign: func(skBytes, msg []byte) ([]byte, error) {
		var sk mode5.PrivateKey
		if err := sk.UnmarshalBinary(skBytes); err != nil {
			return nil, err
		}
		sig := make([]byte, mode5.SignatureSize)
		mode5.SignTo(&sk, msg, sig)
		return sig, nil
	},
	verify: func(pkBytes, msg, sig []byte) bool {
		var pk mode5.PublicKey
		if pk.UnmarshalBinary(pkBytes) != nil || len(sig) != mode5.SignatureSize {
			return false
		}
		return mode5.Verify(&pk, msg, sig)
	},
}

type binaryMarshaler interface {
	MarshalBinary() ([]byte, error)
}

func marshalPair(pk, sk binaryMarshaler) ([]byte, []byte, error) {
	pkBytes, err := pk.MarshalBinary()
	if err != nil {
		return nil, nil, err
	}
	skBytes, err := sk.MarshalBinary()
	if err != nil {
		return nil, nil, err
	}
	return pkBytes, skBytes, nil
}

// Module bundles the KEM and signature schemes of one security level with
// the harmonic scaling coefficient. It is safe for concurrent use.
type Module struct {
	level    SecurityLevel
	kem      kem.Scheme
	signer   signer
	harmonic *HarmonicScaling
}

// NewModule returns the module for level.
func NewModule(level SecurityLevel) (*Module, error) {
	m := &Module{
		level:    level,
		harmonic: NewHarmonicScaling(DefaultHarmonicD, DefaultHarmonicR),
	}
	switch level {
	case Level1:
		m.kem, m.signer = kyber512.Scheme(), dilithium2
	case Level3:
		m.kem, m.signer = kyber768.Scheme(), dilithium3
	case Level5:
		m.kem, m.signer = kyber1024.Scheme(), dilithium5
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedLevel, level)
	}

	logrus.WithFields(logrus.Fields{
		"function": "NewModule",
		"package":  "pqc",
		"kem":      m.kem.Name(),
		"sig":      m.signer.name,
	}).Debug("PQC module initialized")
	return m, nil
}

// Level returns the module's security level.
func (m *Module) Level() SecurityLevel { return m.level }

// Sizes reports the byte sizes of KEM public keys, KEM ciphertexts, shared
// secrets and signatures at this level.
func (m *Module) Sizes() (publicKey, ciphertext, sharedSecret, signature int) {
	return m.kem.PublicKeySize(), m.kem.CiphertextSize(), m.kem.SharedKeySize(), m.signer.signatureSize
}

// GenerateKEMKeypair returns a new KEM key pair.
func (m *Module) GenerateKEMKeypair() (public, private []byte, err error) {
	pk, sk, err := m.kem.GenerateKeyPair()
	if err != nil {
		return nil, nil, fmt.Errorf("kem keygen: %w", err)
	}
	return marshalPair(pk, sk)
}

// Encapsulate returns a ciphertext for public and the shared secret it carries.
func (m *Module) Encapsulate(public []byte) (ciphertext, sharedSecret []byte, err error) {
	pk, err := m.kem.UnmarshalBinaryPublicKey(public)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid kem public key: %w", err)
	}
	ct, ss, err := m.kem.Encapsulate(pk)
	if err != nil {
		return nil, nil, fmt.Errorf("encapsulate: %w", err)
	}
	return ct, ss, nil
}

// Decapsulate recovers the shared secret of ciphertext.
func (m *Module) Decapsulate(private, ciphertext []byte) ([]byte, error) {
	sk, err := m.kem.UnmarshalBinaryPrivateKey(private)
	if err != nil {
		return nil, fmt.Errorf("invalid kem private key: %w", err)
	}
	if len(ciphertext) != m.kem.CiphertextSize() {
		return nil, fmt.Errorf("invalid ciphertext size: got %d, want %d", len(ciphertext), m.kem.CiphertextSize())
	}
	ss, err := m.kem.Decapsulate(sk, ciphertext)
	if err != nil {
		return nil, fmt.Errorf("decapsulate: %w", err)
	}
	return ss, nil
}

// GenerateSigKeypair returns a new signature key pair.
func (m *Module) GenerateSigKeypair() (public, private []byte, err error) {
	pk, sk, err := m.signer.generate(rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("signature keygen: %w", err)
	}
	return pk, sk, nil
}

// Sign signs message with private.
func (m *Module) Sign(private, message []byte) ([]byte, error) {
	sig, err := m.signer.sign(private, message)
	if err != nil {
		return nil, fmt.Errorf("invalid signature private key: %w", err)
	}
	return sig, nil
}

// Verify reports whether signature is valid for message under public.
func (m *Module) Verify(public, message, signature []byte) bool {
	return m.signer.verify(public, message, signature)
}

// HarmonicCoefficient returns H(2, 1000).
func (m *Module) HarmonicCoefficient() float64 {
	return m.harmonic.Compute()
}
