// Package spiralverse issues and verifies quantum-resistant authorization
// tokens by layering three independent transforms over a payload.
//
// A token carries a geometric signature from the thirteen-layer hyperbolic
// trajectory stack (package geometry), a semantic binding of subject and
// passphrase (package lws), and the payload encrypted by the chaotic cipher
// (package crypto) under a key combining both with the System's long-term key.
//
// # Getting Started
//
//	system, err := spiralverse.New(masterKey, spiralverse.NewOptions())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	token, err := system.CreateAuthorization("user@example.io",
//	    spiralverse.Payload{"action": "access"}, "passphrase")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	exported, _ := system.ExportToken(token)
//	imported, _ := system.ImportToken(exported)
//
//	valid, payload := system.VerifyAuthorization(imported, "passphrase")
//
// # Verification
//
// [System.VerifyAuthorization] runs its checks in a fixed order: semantic
// binding (constant-time, before any decryption), payload decryption, JSON
// decoding, and the subject trajectory's integrity. Any failure yields
// (false, nil). The failing stage is logged at Debug level and is never
// returned to the caller.
//
// The decryption key is rebuilt from the geometric signature stored in the
// token. The signature itself is not recomputed; only the subject trajectory
// is re-validated.
//
// # Long-Term Key
//
// [New] derives the long-term key once from the master key. With
// [Options.MasterKeySalt] unset the derivation salt is random, so tokens
// verify only against the System that issued them. Daemons that restart
// persist the master key in a crypto.EncryptedKeyStore and fix the salt.
//
// # Export Format
//
// Exported tokens are base64 of a JSON object with the keys token_id,
// subject, timestamp, geometric_signature, semantic_binding and
// encrypted_payload; the byte fields are themselves base64 encoded.
// [AuthorizationToken.ContentID] gives a CIDv1 of that form.
//
// # Consensus
//
// [ConsensusValidator] accepts a token when its subject trajectory reaches
// the layer threshold and is intact, and folds a list of tokens into an
// order-sensitive SHA-512 digest.
//
// # Concurrency
//
// A [System] is immutable after construction and safe for concurrent use.
// Each call allocates its own chaos generator.
package spiralverse
