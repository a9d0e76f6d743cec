package crypto

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/crypto/sha3"
)

const (
	// PBKDF2Iterations is the number of iterations for password-based key derivation.
	PBKDF2Iterations = 100000

	// SaltSize is the size of the salt prefix of a derived key.
	SaltSize = 16

	// KeyMaterialSize is the size of the key material following the salt.
	KeyMaterialSize = 32

	// DerivedKeySize is the full size of a key produced by DeriveKey.
	DerivedKeySize = SaltSize + KeyMaterialSize

	// DefaultChaosIterations is the number of warm-up iterations applied during key derivation.
	DefaultChaosIterations = 1000

	// DefaultBlockSize is the cipher block (and IV) size in bytes.
	DefaultBlockSize = 16

	pbkdf2OutputSize = 64
)

// ErrInvalidSalt indicates an explicit salt of the wrong size.
var ErrInvalidSalt = errors.New("invalid salt size")

// Config holds the tunable parameters of the chaotic cipher engine.
type Config struct {
	// ChaosIterations is the number of generator iterations discarded during key derivation.
	ChaosIterations int
	// BlockSize is the block and IV size in bytes, in [1, 255].
	BlockSize int
	// Rand supplies salts and IVs. Nil means crypto/rand.Reader.
	Rand io.Reader
}

// DefaultConfig returns the engine configuration used by the authorization protocol.
func DefaultConfig() Config {
	return Config{
		ChaosIterations: DefaultChaosIterations,
		BlockSize:       DefaultBlockSize,
	}
}

// Engine is the Spiral Chaos-Based Encryption engine.
//
// An Engine holds only configuration. Every Encrypt and Decrypt call seeds its
// own ChaosGenerator, so one Engine may be used from multiple goroutines.
type Engine struct {
	config Config
	rand   io.Reader
}

// NewEngine creates an engine with the given configuration.
func NewEngine(config Config) (*Engine, error) {
	if config.BlockSize < 1 || config.BlockSize > 255 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBlockSize, config.BlockSize)
	}
	if config.ChaosIterations < 0 {
		return nil, fmt.Errorf("chaos iterations cannot be negative: %d", config.ChaosIterations)
	}

	r := config.Rand
	if r == nil {
		r = rand.Reader
	}
	return &Engine{config: config, rand: r}, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.config
}

// DeriveKey derives salt || key from a password.
//
// A nil salt generates a fresh random salt. An explicit salt must be SaltSize
// bytes and makes the derivation reproducible.
func (e *Engine) DeriveKey(password, salt []byte) ([]byte, error) {
	logger := NewLogger("DeriveKey").WithField("chaos_iterations", e.config.ChaosIterations)

	if salt == nil {
		salt = make([]byte, SaltSize)
		if _, err := io.ReadFull(e.rand, salt); err != nil {
			return nil, fmt.Errorf("failed to generate salt: %w", err)
		}
	} else if len(salt) != SaltSize {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidSalt, len(salt), SaltSize)
	}

	initial := pbkdf2.Key(password, salt, PBKDF2Iterations, pbkdf2OutputSize, sha3.New256)
	defer ZeroBytes(initial)

	chaos := NewChaosGenerator(initial)
	chaos.Skip(e.config.ChaosIterations)
	enhanced := chaos.GenerateStream(KeyMaterialSize)
	defer ZeroBytes(enhanced)

	h := sha3.New256()
	_, _ = h.Write(initial)
	_, _ = h.Write(enhanced)

	out := make([]byte, 0, DerivedKeySize)
	out = append(out, salt...)
	out = h.Sum(out)

	logger.WithFields(SecureFieldHash(salt, "salt")).Debug("Key derived")
	return out, nil
}

// splitKey separates a key into its salt prefix and up to KeyMaterialSize bytes of material.
func splitKey(key []byte) (salt, material []byte, err error) {
	if len(key) <= SaltSize {
		return nil, nil, fmt.Errorf("%w: %d bytes", ErrKeyTooShort, len(key))
	}
	end := len(key)
	if end > DerivedKeySize {
		end = DerivedKeySize
	}
	return key[:SaltSize], key[SaltSize:end], nil
}

// keystream seeds a fresh generator from material || salt.
func keystream(salt, material []byte) *ChaosGenerator {
	seed := make([]byte, 0, len(material)+len(salt))
	seed = append(seed, material...)
	seed = append(seed, salt...)
	defer ZeroBytes(seed)
	return NewChaosGenerator(seed)
}

// Encrypt encrypts plaintext under key and returns IV || ciphertext.
//
// Each padded block is XORed with the previous ciphertext block (the IV for the
// first block) and then with a fresh chaos-stream block.
func (e *Engine) Encrypt(plaintext, key []byte) ([]byte, error) {
	salt, material, err := splitKey(key)
	if err != nil {
		return nil, err
	}
	bs := e.config.BlockSize
	gen := keystream(salt, material)

	padded := pad(plaintext, bs)
	out := make([]byte, bs+len(padded))
	if _, err := io.ReadFull(e.rand, out[:bs]); err != nil {
		return nil, fmt.Errorf("failed to generate IV: %w", err)
	}

	prev := out[:bs]
	for off := 0; off < len(padded); off += bs {
		stream := gen.GenerateStream(bs)
		dst := out[bs+off : bs+off+bs]
		for i := 0; i < bs; i++ {
			dst[i] = padded[off+i] ^ prev[i] ^ stream[i]
		}
		prev = dst
	}
	ZeroBytes(padded)

	logrus.WithFields(OperationFields("encrypt", "ok", logrus.Fields{
		"plaintext_size":  len(plaintext),
		"ciphertext_size": len(out),
	})).Debug("Payload encrypted")
	return out, nil
}

// Decrypt reverses Encrypt.
//
// It regenerates the same chaos stream, undoes the stream XOR, then undoes the
// chaining with the previous ciphertext block. Malformed padding yields ErrPadding.
func (e *Engine) Decrypt(ciphertext, key []byte) ([]byte, error) {
	salt, material, err := splitKey(key)
	if err != nil {
		return nil, err
	}
	bs := e.config.BlockSize
	if len(ciphertext) < 2*bs || len(ciphertext)%bs != 0 {
		return nil, fmt.Errorf("%w: %d bytes with block size %d", ErrCiphertextLength, len(ciphertext), bs)
	}
	gen := keystream(salt, material)

	data := ciphertext[bs:]
	plain := make([]byte, len(data))
	prev := ciphertext[:bs]
	for off := 0; off < len(data); off += bs {
		stream := gen.GenerateStream(bs)
		block := data[off : off+bs]
		for i := 0; i < bs; i++ {
			plain[off+i] = block[i] ^ stream[i] ^ prev[i]
		}
		prev = block
	}

	out, err := unpad(plain, bs)
	if err != nil {
		ZeroBytes(plain)
		return nil, err
	}
	return out, nil
}

// EncryptWithPassword derives a fresh key from password with the default
// configuration and encrypts plaintext under it. It returns the ciphertext and
// the derived key needed to decrypt it.
func EncryptWithPassword(plaintext, password []byte) (ciphertext, key []byte, err error) {
	engine, err := NewEngine(DefaultConfig())
	if err != nil {
		return nil, nil, err
	}
	key, err = engine.DeriveKey(password, nil)
	if err != nil {
		return nil, nil, err
	}
	ciphertext, err = engine.Encrypt(plaintext, key)
	if err != nil {
		return nil, nil, err
	}
	return ciphertext, key, nil
}

// DecryptWithKey decrypts ciphertext with a key returned by EncryptWithPassword.
func DecryptWithKey(ciphertext, key []byte) ([]byte, error) {
	engine, err := NewEngine(DefaultConfig())
	if err != nil {
		return nil, err
	}
	return engine.Decrypt(ciphertext, key)
}
