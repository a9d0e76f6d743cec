package crypto

import "errors"

var (
	// ErrPadding indicates the trailing pad bytes of a decrypted message are malformed.
	// Decryption never falls back to truncating on a bad pad.
	ErrPadding = errors.New("invalid padding")

	// ErrCiphertextLength indicates a ciphertext that cannot hold an IV plus whole blocks.
	ErrCiphertextLength = errors.New("invalid ciphertext length")

	// ErrKeyTooShort indicates a key without key material after its salt prefix.
	ErrKeyTooShort = errors.New("key too short")

	// ErrInvalidBlockSize indicates a block size outside [1, 255].
	ErrInvalidBlockSize = errors.New("invalid block size")
)
