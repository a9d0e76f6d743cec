// Package crypto implements the Spiral Chaos-Based Encryption (SCBE) engine
// and the key-handling utilities shared by the authorization protocol.
//
// # Chaos Generator
//
// [ChaosGenerator] iterates five independent logistic maps (r = 3.99) seeded
// from SHA3-512 of an arbitrary seed, emitting one byte per axis per iteration:
//
//	gen := crypto.NewChaosGenerator([]byte("seed"))
//	stream := gen.GenerateStream(32)
//
// A generator is a sequential state machine. The same seed and the same call
// sequence always produce the same bytes; generators are never shared.
//
// # Cipher Engine
//
// [Engine] derives keys and encrypts byte payloads in a chained block mode:
//
//	engine, _ := crypto.NewEngine(crypto.DefaultConfig())
//	key, _ := engine.DeriveKey([]byte("password"), nil) // salt || key material
//	ciphertext, _ := engine.Encrypt(plaintext, key)     // IV || blocks
//	plaintext, err := engine.Decrypt(ciphertext, key)
//
// Key derivation runs PBKDF2-HMAC-SHA3-256 (100,000 iterations, 64 bytes),
// reseeds a generator from the result, discards a configured number of
// iterations, and hashes the PBKDF2 output with the next 32 stream bytes.
//
// Each padded block is XORed with the previous ciphertext block and then with
// a fresh chaos-stream block. Decrypt validates the padding before truncating
// and returns [ErrPadding] when it is malformed.
//
// The engine carries no formal security proof. It reproduces the transforms of
// the protocol so that tokens verify bit for bit.
//
// # Key Storage
//
// [EncryptedKeyStore] keeps long-term master key material on disk under
// AES-256-GCM with a PBKDF2-SHA256 store key:
//
//	store, _ := crypto.NewEncryptedKeyStore("/var/lib/spiralverse/keys", password)
//	defer store.Close()
//	master, _ := store.LoadOrCreateMasterKey("master", 32)
//
// # Secure Memory Handling
//
// Transient keys are wiped after use with [SecureWipe], [ZeroBytes] and [WipeAll].
//
// # Logging
//
// [LoggerHelper] wraps logrus with standard function/package fields.
// [SecureFieldHash] logs only an 8-byte preview and the size of secret data.
//
// # Deterministic Testing
//
// Token timestamps come from a [TimeProvider]; tests inject a fixed clock.
// [Config.Rand] replaces the salt and IV source.
package crypto
