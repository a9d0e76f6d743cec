package crypto

import (
	"crypto/subtle"
	"errors"
	"runtime"
)

// SecureWipe overwrites a byte slice holding key material with zeros.
// It returns an error if the slice is nil.
func SecureWipe(data []byte) error {
	if data == nil {
		return errors.New("cannot wipe nil data")
	}

	zeros := make([]byte, len(data))
	subtle.ConstantTimeCompare(data, zeros)
	copy(data, zeros)

	runtime.KeepAlive(data)
	runtime.KeepAlive(zeros)

	return nil
}

// ZeroBytes wipes data, ignoring the nil-slice error from SecureWipe.
func ZeroBytes(data []byte) {
	_ = SecureWipe(data)
}

// WipeAll zeroes every non-nil slice. Transient keys built during token
// creation and verification are released through it.
func WipeAll(slices ...[]byte) {
	for _, s := range slices {
		if s != nil {
			ZeroBytes(s)
		}
	}
}

// ConstantTimeEqual reports whether a and b are equal without leaking where
// they differ.
func ConstantTimeEqual(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}
