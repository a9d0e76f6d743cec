package spiralverse

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ipfs/go-cid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/issdandavis/Spiralverse-AetherMoore/crypto"
	"github.com/issdandavis/Spiralverse-AetherMoore/geometry"
	"github.com/issdandavis/Spiralverse-AetherMoore/limits"
	"github.com/issdandavis/Spiralverse-AetherMoore/lws"
)

// MockTimeProvider is a deterministic time provider for testing.
type MockTimeProvider struct {
	mu          sync.Mutex
	currentTime time.Time
}

func (m *MockTimeProvider) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentTime
}

func (m *MockTimeProvider) Since(t time.Time) time.Duration {
	return m.Now().Sub(t)
}

func (m *MockTimeProvider) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.currentTime = m.currentTime.Add(d)
}

var testMasterKey = []byte("spiralverse-aethermoore-master-2024")

func testOptions() *Options {
	opts := NewOptions()
	opts.MasterKeySalt = []byte("0123456789abcdef")
	opts.ChaosIterations = 100
	return opts
}

func newTestSystem(t testing.TB, opts *Options) *System {
	t.Helper()
	if opts == nil {
		opts = testOptions()
	}
	system, err := New(testMasterKey, opts)
	require.NoError(t, err)
	return system
}

func TestNew_NilOptions(t *testing.T) {
	system, err := New(testMasterKey, nil)
	require.NoError(t, err)

	opts := system.Options()
	assert.Equal(t, crypto.DefaultChaosIterations, opts.ChaosIterations)
	assert.Equal(t, crypto.DefaultBlockSize, opts.BlockSize)
	assert.Equal(t, DefaultConsensusThreshold, opts.ConsensusThreshold)
	assert.Equal(t, limits.Default(), opts.Limits)
	assert.NotNil(t, opts.TimeProvider)
}

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Options)
		wantErr bool
	}{
		{"defaults", func(*Options) {}, false},
		{"zero chaos iterations", func(o *Options) { o.ChaosIterations = 0 }, false},
		{"negative chaos iterations", func(o *Options) { o.ChaosIterations = -1 }, true},
		{"zero block size", func(o *Options) { o.BlockSize = 0 }, true},
		{"block size 256", func(o *Options) { o.BlockSize = 256 }, true},
		{"block size 32", func(o *Options) { o.BlockSize = 32 }, false},
		{"zero threshold", func(o *Options) { o.ConsensusThreshold = 0 }, true},
		{"threshold above trajectory", func(o *Options) { o.ConsensusThreshold = 15 }, true},
		{"full trajectory threshold", func(o *Options) { o.ConsensusThreshold = 14 }, false},
		{"short salt", func(o *Options) { o.MasterKeySalt = []byte("short") }, true},
		{"empty salt", func(o *Options) { o.MasterKeySalt = []byte{} }, true},
		{"zero limits", func(o *Options) { o.Limits = limits.Limits{} }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := NewOptions()
			tt.modify(opts)
			err := opts.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidOptions)
				_, newErr := New(testMasterKey, opts)
				assert.ErrorIs(t, newErr, ErrInvalidOptions)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConcreteScenario(t *testing.T) {
	system := newTestSystem(t, nil)

	token, err := system.CreateAuthorization("user@example.io", Payload{"action": "access"}, "p1")
	require.NoError(t, err)

	valid, payload := system.VerifyAuthorization(token, "p1")
	assert.True(t, valid)
	assert.Equal(t, Payload{"action": "access"}, payload)

	valid, payload = system.VerifyAuthorization(token, "p2")
	assert.False(t, valid)
	assert.Nil(t, payload)
}

func TestCreateVerify_RoundTrip(t *testing.T) {
	system := newTestSystem(t, nil)

	tests := []struct {
		name       string
		subject    string
		payload    Payload
		passphrase string
	}{
		{"simple", "user@spiralverse.io", Payload{"action": "access"}, "sacred-quantum-key"},
		{"empty subject", "", Payload{"k": "v"}, "pass"},
		{"empty passphrase", "subject", Payload{"k": "v"}, ""},
		{"empty payload", "subject", Payload{}, "pass"},
		{"unicode", "שלום-世界", Payload{"note": "héllo ✓"}, "пароль"},
		{"nested", "svc", Payload{
			"action":   "access",
			"resource": "quantum-vault",
			"level":    float64(5),
			"tags":     []any{"a", "b"},
			"meta":     map[string]any{"ok": true, "none": nil},
		}, "sacred-quantum-key"},
		{"large", "bulk", Payload{"blob": strings.Repeat("x", 20000)}, "pass"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := system.CreateAuthorization(tt.subject, tt.payload, tt.passphrase)
			require.NoError(t, err)

			valid, payload := system.VerifyAuthorization(token, tt.passphrase)
			require.True(t, valid)
			assert.Equal(t, tt.payload, payload)
		})
	}
}

func TestCreateAuthorization_TokenShape(t *testing.T) {
	system := newTestSystem(t, nil)

	token, err := system.CreateAuthorization("user@example.io", Payload{"action": "access"}, "p1")
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^SPIRALVERSE-AETHERMOORE-QR-[0-9A-F]{16}$`), token.TokenID)
	assert.Equal(t, "user@example.io", token.Subject)
	assert.Len(t, token.GeometricSignature, 64)
	assert.Len(t, token.SemanticBinding, 32)
	assert.Zero(t, len(token.EncryptedPayload)%crypto.DefaultBlockSize)
	assert.Greater(t, len(token.EncryptedPayload), len(`{"action":"access"}`))
	assert.Equal(t, system.Space().ComputeSecurityHash([]byte(`user@example.io{"action":"access"}`)), token.GeometricSignature)
}

func TestCreateAuthorization_NilPayload(t *testing.T) {
	system := newTestSystem(t, nil)

	token, err := system.CreateAuthorization("subject", nil, "pass")
	require.NoError(t, err)

	valid, payload := system.VerifyAuthorization(token, "pass")
	assert.True(t, valid)
	assert.Equal(t, Payload{}, payload)
}

func TestCreateAuthorization_Errors(t *testing.T) {
	system := newTestSystem(t, nil)

	tests := []struct {
		name       string
		subject    string
		payload    Payload
		passphrase string
		wantErr    error
	}{
		{"function value", "s", Payload{"f": func() {}}, "p", ErrPayloadEncoding},
		{"channel value", "s", Payload{"c": make(chan int)}, "p", ErrPayloadEncoding},
		{"NaN value", "s", Payload{"n": math.NaN()}, "p", ErrPayloadEncoding},
		{"subject too long", strings.Repeat("s", limits.MaxSubjectLength+1), Payload{}, "p", limits.ErrMessageTooLarge},
		{"passphrase too long", "s", Payload{}, strings.Repeat("p", limits.MaxPassphraseLength+1), limits.ErrMessageTooLarge},
		{"payload too large", "s", Payload{"blob": strings.Repeat("x", limits.MaxPayloadSize)}, "p", limits.ErrMessageTooLarge},
		{"subject not UTF-8", "user\xff@example.io", Payload{}, "p", limits.ErrInvalidUTF8},
		{"payload value not UTF-8", "s", Payload{"a": "b\xfe"}, "p", ErrPayloadEncoding},
		{"payload key not UTF-8", "s", Payload{"k\xc3": "v"}, "p", limits.ErrInvalidUTF8},
		{"nested payload not UTF-8", "s", Payload{"list": []any{"ok", Payload{"x": "\xed\xa0\x80"}}}, "p", limits.ErrInvalidUTF8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := system.CreateAuthorization(tt.subject, tt.payload, tt.passphrase)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, token)
		})
	}
}

func TestTokenID_Deterministic(t *testing.T) {
	clock := &MockTimeProvider{currentTime: time.Date(2026, 1, 15, 10, 30, 0, 500_000_000, time.UTC)}
	opts := testOptions()
	opts.TimeProvider = clock
	system := newTestSystem(t, opts)

	first, err := system.CreateAuthorization("a", Payload{}, "p")
	require.NoError(t, err)
	second, err := system.CreateAuthorization("b", Payload{"x": "y"}, "q")
	require.NoError(t, err)

	assert.Equal(t, first.TokenID, second.TokenID, "token id depends only on key and time")
	assert.Equal(t, crypto.UnixSeconds(clock.Now()), first.Timestamp)

	clock.Advance(time.Millisecond)
	third, err := system.CreateAuthorization("a", Payload{}, "p")
	require.NoError(t, err)
	assert.NotEqual(t, first.TokenID, third.TokenID)
}

func TestVerifyAuthorization_Tampering(t *testing.T) {
	system := newTestSystem(t, nil)
	original, err := system.CreateAuthorization("user@example.io", Payload{"action": "access"}, "p1")
	require.NoError(t, err)

	clone := func() *AuthorizationToken {
		c := *original
		c.GeometricSignature = append([]byte(nil), original.GeometricSignature...)
		c.SemanticBinding = append([]byte(nil), original.SemanticBinding...)
		c.EncryptedPayload = append([]byte(nil), original.EncryptedPayload...)
		return &c
	}

	tests := []struct {
		name   string
		tamper func(*AuthorizationToken)
	}{
		{"subject", func(tk *AuthorizationToken) { tk.Subject = "user@example.iO" }},
		{"binding byte", func(tk *AuthorizationToken) { tk.SemanticBinding[0] ^= 1 }},
		{"binding truncated", func(tk *AuthorizationToken) { tk.SemanticBinding = tk.SemanticBinding[:31] }},
		{"binding missing", func(tk *AuthorizationToken) { tk.SemanticBinding = nil }},
		{"payload truncated", func(tk *AuthorizationToken) { tk.EncryptedPayload = tk.EncryptedPayload[:len(tk.EncryptedPayload)-1] }},
		{"payload missing", func(tk *AuthorizationToken) { tk.EncryptedPayload = nil }},
		{"signature key prefix", func(tk *AuthorizationToken) { tk.GeometricSignature[0] ^= 0x80 }},
		{"signature missing", func(tk *AuthorizationToken) { tk.GeometricSignature = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := clone()
			tt.tamper(token)
			valid, payload := system.VerifyAuthorization(token, "p1")
			assert.False(t, valid)
			assert.Nil(t, payload)
		})
	}

	t.Run("nil token", func(t *testing.T) {
		valid, payload := system.VerifyAuthorization(nil, "p1")
		assert.False(t, valid)
		assert.Nil(t, payload)
	})
}

func TestVerifyAuthorization_StoredSignatureTail(t *testing.T) {
	system := newTestSystem(t, nil)
	token, err := system.CreateAuthorization("user@example.io", Payload{"action": "access"}, "p1")
	require.NoError(t, err)

	// Only the first 16 signature bytes key the payload; the rest is not
	// recomputed during verification.
	token.GeometricSignature[40] ^= 0xFF
	valid, payload := system.VerifyAuthorization(token, "p1")
	assert.True(t, valid)
	assert.Equal(t, Payload{"action": "access"}, payload)
}

func TestVerifyAuthorization_NonObjectPayload(t *testing.T) {
	system := newTestSystem(t, nil)
	token, err := system.CreateAuthorization("subject", Payload{}, "pass")
	require.NoError(t, err)

	for _, body := range []string{`[1,2]`, `"text"`, `null`, `{"a":`} {
		t.Run(body, func(t *testing.T) {
			tampered := *token
			tampered.EncryptedPayload = reencrypt(t, system, token, "pass", []byte(body))
			valid, payload := system.VerifyAuthorization(&tampered, "pass")
			assert.False(t, valid)
			assert.Nil(t, payload)
		})
	}
}

// reencrypt replaces the plaintext of token with body under the same combined key.
func reencrypt(t *testing.T, system *System, token *AuthorizationToken, passphrase string, body []byte) []byte {
	t.Helper()
	semanticKey, err := lws.DeriveKey(passphrase)
	require.NoError(t, err)
	ciphertext, err := system.engine.Encrypt(body, system.combinedKey(semanticKey, token.GeometricSignature))
	require.NoError(t, err)
	return ciphertext
}

func TestVerifyAuthorization_AcrossSystems(t *testing.T) {
	issuer := newTestSystem(t, nil)
	token, err := issuer.CreateAuthorization("user@example.io", Payload{"action": "access"}, "p1")
	require.NoError(t, err)

	t.Run("same key and salt", func(t *testing.T) {
		verifier := newTestSystem(t, nil)
		valid, payload := verifier.VerifyAuthorization(token, "p1")
		assert.True(t, valid)
		assert.Equal(t, Payload{"action": "access"}, payload)
	})

	t.Run("different salt", func(t *testing.T) {
		opts := testOptions()
		opts.MasterKeySalt = []byte("fedcba9876543210")
		verifier := newTestSystem(t, opts)
		valid, _ := verifier.VerifyAuthorization(token, "p1")
		assert.False(t, valid)
	})

	t.Run("different master key", func(t *testing.T) {
		verifier, err := New([]byte("another-master-key"), testOptions())
		require.NoError(t, err)
		valid, _ := verifier.VerifyAuthorization(token, "p1")
		assert.False(t, valid)
	})
}

func TestExportImport_RoundTrip(t *testing.T) {
	system := newTestSystem(t, nil)
	token, err := system.CreateAuthorization("user@example.io", Payload{"action": "access", "level": float64(5)}, "p1")
	require.NoError(t, err)

	exported, err := system.ExportToken(token)
	require.NoError(t, err)

	imported, err := system.ImportToken(exported)
	require.NoError(t, err)
	assert.True(t, token.Equal(imported))
	assert.Equal(t, token, imported)

	valid, payload := system.VerifyAuthorization(imported, "p1")
	assert.True(t, valid)
	assert.Equal(t, Payload{"action": "access", "level": float64(5)}, payload)
}

func TestExportImport_PreservesText(t *testing.T) {
	system := newTestSystem(t, nil)

	tests := []struct {
		name    string
		subject string
		payload Payload
	}{
		{"replacement character", "user\ufffd@example.io", Payload{"note": "\ufffd"}},
		{"escaped-looking text", `user\ufffd@example.io`, Payload{"path": `C:\ufffd\dir`}},
		{"html and separators", "<a&b>", Payload{"s": "\u2028<tag>&"}},
		{"multibyte", "ユーザー@example.io", Payload{"emoji": "🔑"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := system.CreateAuthorization(tt.subject, tt.payload, "p1")
			require.NoError(t, err)

			exported, err := system.ExportToken(token)
			require.NoError(t, err)
			imported, err := system.ImportToken(exported)
			require.NoError(t, err)
			require.True(t, token.Equal(imported))

			valid, payload := system.VerifyAuthorization(imported, "p1")
			assert.True(t, valid)
			assert.Equal(t, tt.payload, payload)
		})
	}
}

func TestVerifyAuthorization_SubnormalLayerKey(t *testing.T) {
	key, err := hex.DecodeString("003a86e9393544631a9214c2e9aef9e6a39109c71d05e61e8053d88723b824ff" +
		"6a9caebe76e0df246f5e7867acb64cad")
	require.NoError(t, err)

	system := newTestSystem(t, nil)
	system.space = geometry.NewHyperbolicSpace(key)

	for i := 0; i < 20; i++ {
		subject := fmt.Sprintf("user%d@example.io", i)
		token, err := system.CreateAuthorization(subject, Payload{"action": "access"}, "p1")
		require.NoError(t, err)

		valid, payload := system.VerifyAuthorization(token, "p1")
		require.True(t, valid, subject)
		assert.Equal(t, Payload{"action": "access"}, payload)
	}
}

func TestExport_Format(t *testing.T) {
	token := &AuthorizationToken{
		TokenID:            ProtocolID + "-0011223344556677",
		Subject:            "user@example.io",
		Timestamp:          1768473000.5,
		GeometricSignature: []byte{1, 2, 3},
		SemanticBinding:    []byte{4, 5},
		EncryptedPayload:   []byte{6},
	}

	exported, err := token.Export()
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(exported)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.Equal(t, map[string]any{
		"token_id":            "SPIRALVERSE-AETHERMOORE-QR-0011223344556677",
		"subject":             "user@example.io",
		"timestamp":           1768473000.5,
		"geometric_signature": "AQID",
		"semantic_binding":    "BAU=",
		"encrypted_payload":   "Bg==",
	}, fields)
}

func TestImportToken_Errors(t *testing.T) {
	encode := func(s string) string { return base64.StdEncoding.EncodeToString([]byte(s)) }

	tests := []struct {
		name     string
		exported string
	}{
		{"not base64", "!!not-base64!!"},
		{"not json", encode("not json")},
		{"json array", encode(`[1,2,3]`)},
		{"missing field", encode(`{"token_id":"x","subject":"s","timestamp":1,"geometric_signature":"","semantic_binding":""}`)},
		{"bad byte field", encode(`{"token_id":"x","subject":"s","timestamp":1,"geometric_signature":"@@","semantic_binding":"","encrypted_payload":""}`)},
		{"string timestamp", encode(`{"token_id":"x","subject":"s","timestamp":"1","geometric_signature":"","semantic_binding":"","encrypted_payload":""}`)},
		{"only case-variant field", encode(`{"token_id":"x","SUBJECT":"s","timestamp":1,"geometric_signature":"","semantic_binding":"","encrypted_payload":""}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := ImportToken(tt.exported)
			assert.ErrorIs(t, err, ErrTokenDecode)
			assert.Nil(t, token)
		})
	}
}

func TestImportToken_ExactFieldNames(t *testing.T) {
	system := newTestSystem(t, nil)
	token, err := system.CreateAuthorization("user@example.io", Payload{"action": "access"}, "p1")
	require.NoError(t, err)

	exported, err := token.Export()
	require.NoError(t, err)
	raw, err := base64.StdEncoding.DecodeString(exported)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))
	fields["SUBJECT"] = "mallory"
	fields["Token_ID"] = "forged"
	fields["extra"] = true
	data, err := json.Marshal(fields)
	require.NoError(t, err)

	imported, err := ImportToken(base64.StdEncoding.EncodeToString(data))
	require.NoError(t, err)
	assert.True(t, token.Equal(imported))
	assert.Equal(t, "user@example.io", imported.Subject)
}

func TestSystemImportToken_Limits(t *testing.T) {
	opts := testOptions()
	opts.Limits.MaxExportedToken = 64
	system := newTestSystem(t, opts)

	_, err := system.ImportToken("")
	assert.ErrorIs(t, err, limits.ErrMessageEmpty)

	_, err = system.ImportToken(strings.Repeat("A", 65))
	assert.ErrorIs(t, err, limits.ErrMessageTooLarge)

	_, err = system.ExportToken(nil)
	assert.ErrorIs(t, err, ErrTokenDecode)
}

func TestContentID(t *testing.T) {
	system := newTestSystem(t, nil)
	token, err := system.CreateAuthorization("user@example.io", Payload{"action": "access"}, "p1")
	require.NoError(t, err)

	id, err := token.ContentID()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id.Version())
	assert.Equal(t, uint64(cid.Raw), id.Type())

	again, err := token.ContentID()
	require.NoError(t, err)
	assert.True(t, id.Equals(again))

	other := *token
	other.Subject = "someone@example.io"
	otherID, err := other.ContentID()
	require.NoError(t, err)
	assert.False(t, id.Equals(otherID))
}

func TestSystem_ConcurrentUse(t *testing.T) {
	system := newTestSystem(t, nil)

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			payload := Payload{"worker": float64(i)}
			token, err := system.CreateAuthorization("user@example.io", payload, "p1")
			if err != nil {
				errs <- err
				return
			}
			valid, got := system.VerifyAuthorization(token, "p1")
			if !valid || got["worker"] != float64(i) {
				errs <- errors.New("verification failed under concurrency")
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}

func BenchmarkCreateAuthorization(b *testing.B) {
	system := newTestSystem(b, nil)
	payload := Payload{"action": "access"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := system.CreateAuthorization("user@example.io", payload, "p1"); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkVerifyAuthorization(b *testing.B) {
	system := newTestSystem(b, nil)
	token, err := system.CreateAuthorization("user@example.io", Payload{"action": "access"}, "p1")
	require.NoError(b, err)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if valid, _ := system.VerifyAuthorization(token, "p1"); !valid {
			b.Fatal("verification failed")
		}
	}
}
