package lws

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

const (
	// KeySize is the size of a semantic key from DeriveKey.
	KeySize = 32

	// SignatureSize is the size of a full semantic signature.
	SignatureSize = sha512.Size

	// BindingSize is the prefix of a semantic signature stored in tokens.
	BindingSize = 32

	bindingInfo = "spiralverse-lws-binding-v1"
)

// DeriveKey derives the semantic key of a passphrase with HKDF-SHA256, using
// the passphrase's sacred hash as salt.
func DeriveKey(passphrase string) ([]byte, error) {
	salt := SacredHash(passphrase)
	r := hkdf.New(sha256.New, []byte(passphrase), salt[:], []byte(bindingInfo))
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("failed to derive semantic key: %w", err)
	}
	return key, nil
}

// SemanticSignature returns HMAC-SHA512 under key of the subject's sacred
// hash followed by the subject.
func SemanticSignature(subject string, key []byte) []byte {
	digest := SacredHash(subject)
	mac := hmac.New(sha512.New, key)
	mac.Write(digest[:])
	mac.Write([]byte(subject))
	return mac.Sum(nil)
}

// Bind returns the BindingSize-byte semantic binding of subject and passphrase
// together with the semantic key it was computed under.
func Bind(subject, passphrase string) (binding, key []byte, err error) {
	key, err = DeriveKey(passphrase)
	if err != nil {
		return nil, nil, err
	}
	return SemanticSignature(subject, key)[:BindingSize], key, nil
}
