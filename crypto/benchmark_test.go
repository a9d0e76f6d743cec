package crypto

import (
	"bytes"
	"testing"
)

// BenchmarkChaosStream measures keystream generation for one cipher block.
func BenchmarkChaosStream(b *testing.B) {
	g := NewChaosGenerator([]byte("bench"))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = g.GenerateStream(DefaultBlockSize)
	}
}

// BenchmarkEncrypt measures encryption of a 1 KiB payload.
func BenchmarkEncrypt(b *testing.B) {
	engine, err := NewEngine(DefaultConfig())
	if err != nil {
		b.Fatal(err)
	}
	key := bytes.Repeat([]byte{1}, DerivedKeySize)
	data := make([]byte, 1024)

	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := engine.Encrypt(data, key); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkDecrypt measures decryption of a 1 KiB payload.
func BenchmarkDecrypt(b *testing.B) {
	engine, err := NewEngine(DefaultConfig())
	if err != nil {
		b.Fatal(err)
	}
	key := bytes.Repeat([]byte{1}, DerivedKeySize)
	ciphertext, err := engine.Encrypt(make([]byte, 1024), key)
	if err != nil {
		b.Fatal(err)
	}

	b.SetBytes(1024)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := engine.Decrypt(ciphertext, key); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkDeriveKey measures the full password derivation path.
func BenchmarkDeriveKey(b *testing.B) {
	engine, err := NewEngine(DefaultConfig())
	if err != nil {
		b.Fatal(err)
	}
	salt := make([]byte, SaltSize)
	for i := 0; i < b.N; i++ {
		if _, err := engine.DeriveKey([]byte("benchmark"), salt); err != nil {
			b.Fatal(err)
		}
	}
}
