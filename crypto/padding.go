package crypto

import (
	"bytes"
	"fmt"
)

// pad appends PKCS#7-style padding. The pad length is always in [1, blockSize].
func pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	out := make([]byte, len(data), len(data)+n)
	copy(out, data)
	return append(out, bytes.Repeat([]byte{byte(n)}, n)...)
}

// unpad strips padding added by pad, validating it before truncating.
func unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: no data", ErrPadding)
	}

	n := int(data[len(data)-1])
	if n == 0 || n > blockSize || n > len(data) {
		return nil, fmt.Errorf("%w: pad length %d", ErrPadding, n)
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, fmt.Errorf("%w: inconsistent pad bytes", ErrPadding)
		}
	}
	return data[:len(data)-n], nil
}
