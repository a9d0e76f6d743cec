package spiralverse

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/issdandavis/Spiralverse-AetherMoore/crypto"
	"github.com/issdandavis/Spiralverse-AetherMoore/geometry"
	"github.com/issdandavis/Spiralverse-AetherMoore/limits"
	"github.com/issdandavis/Spiralverse-AetherMoore/lws"
)

// Payload is the structured data carried by a token. It travels as a JSON
// object; numbers decode as float64.
type Payload = map[string]any

// signatureKeyPrefix is how much of the geometric signature feeds the combined key.
const signatureKeyPrefix = 16

// System issues and verifies authorization tokens under one long-term key.
//
// The derived key and the hyperbolic space are fixed at construction and
// never mutated, so a System may be used by multiple goroutines at once.
type System struct {
	options    Options
	engine     *crypto.Engine
	derivedKey []byte
	space      *geometry.HyperbolicSpace
}

// New creates a System from master key material. Nil options means NewOptions().
func New(masterKey []byte, options *Options) (*System, error) {
	if options == nil {
		options = NewOptions()
	}
	if err := options.Validate(); err != nil {
		return nil, err
	}

	engine, err := crypto.NewEngine(options.engineConfig())
	if err != nil {
		return nil, err
	}
	derivedKey, err := engine.DeriveKey(masterKey, options.MasterKeySalt)
	if err != nil {
		return nil, fmt.Errorf("failed to derive long-term key: %w", err)
	}

	s := &System{
		options:    *options,
		engine:     engine,
		derivedKey: derivedKey,
		space:      geometry.NewHyperbolicSpace(derivedKey),
	}
	if s.options.TimeProvider == nil {
		s.options.TimeProvider = crypto.GetDefaultTimeProvider()
	}

	logrus.WithFields(logrus.Fields{
		"function":         "New",
		"package":          "spiralverse",
		"version":          Version,
		"chaos_iterations": options.ChaosIterations,
		"block_size":       options.BlockSize,
	}).Debug("Authorization system initialized")
	return s, nil
}

// Options returns a copy of the options the System was built with.
func (s *System) Options() Options {
	return s.options
}

// Space returns the hyperbolic space keyed by the System's derived key.
func (s *System) Space() *geometry.HyperbolicSpace {
	return s.space
}

func (s *System) tokenID(timestamp float64) string {
	h := sha256.New()
	h.Write(s.derivedKey)
	h.Write([]byte(strconv.FormatFloat(timestamp, 'f', -1, 64)))
	return ProtocolID + "-" + strings.ToUpper(hex.EncodeToString(h.Sum(nil)[:8]))
}

func (s *System) combinedKey(semanticKey, geometricSignature []byte) []byte {
	prefix := geometricSignature
	if len(prefix) > signatureKeyPrefix {
		prefix = prefix[:signatureKeyPrefix]
	}
	h := sha256.New()
	h.Write(s.derivedKey)
	h.Write(semanticKey)
	h.Write(prefix)
	return h.Sum(nil)
}

// CreateAuthorization issues a token binding subject and passphrase to an
// encrypted payload. A nil payload is issued as an empty object.
func (s *System) CreateAuthorization(subject string, payload Payload, passphrase string) (*AuthorizationToken, error) {
	logger := crypto.NewPackageLogger("spiralverse", "CreateAuthorization").WithField("subject_size", len(subject))

	if err := s.options.Limits.ValidateSubject(subject); err != nil {
		return nil, err
	}
	if err := s.options.Limits.ValidatePassphrase(passphrase); err != nil {
		return nil, err
	}
	if payload == nil {
		payload = Payload{}
	}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPayloadEncoding, err)
	}
	defer crypto.ZeroBytes(payloadBytes)
	if hasReplacementEscape(payloadBytes) {
		return nil, fmt.Errorf("%w: %w in payload string", ErrPayloadEncoding, limits.ErrInvalidUTF8)
	}
	if err := s.options.Limits.ValidatePayload(payloadBytes); err != nil {
		return nil, err
	}

	timestamp := crypto.TimestampNow(s.options.TimeProvider)

	material := make([]byte, 0, len(subject)+len(payloadBytes))
	material = append(material, subject...)
	material = append(material, payloadBytes...)
	geometricSignature := s.space.ComputeSecurityHash(material)

	binding, semanticKey, err := lws.Bind(subject, passphrase)
	if err != nil {
		return nil, err
	}
	defer crypto.ZeroBytes(semanticKey)

	key := s.combinedKey(semanticKey, geometricSignature)
	defer crypto.ZeroBytes(key)
	encrypted, err := s.engine.Encrypt(payloadBytes, key)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt payload: %w", err)
	}

	token := &AuthorizationToken{
		TokenID:            s.tokenID(timestamp),
		Subject:            subject,
		Timestamp:          timestamp,
		GeometricSignature: geometricSignature,
		SemanticBinding:    binding,
		EncryptedPayload:   encrypted,
	}

	logger.WithField("token_id", token.TokenID).Info("Authorization created")
	return token, nil
}

// VerifyAuthorization checks a token against a passphrase and returns its
// payload when every check passes.
//
// The semantic binding is compared before any decryption. The combined key is
// rebuilt from the token's stored geometric signature; the subject trajectory
// is then recomputed and its integrity checked. Every failure yields
// (false, nil) and the caller cannot tell which check failed.
func (s *System) VerifyAuthorization(token *AuthorizationToken, passphrase string) (bool, Payload) {
	payload, stage := s.verify(token, passphrase)
	if stage != "" {
		fields := logrus.Fields{
			"function": "VerifyAuthorization",
			"package":  "spiralverse",
			"stage":    string(stage),
		}
		if token != nil {
			fields["token_id"] = token.TokenID
		}
		logrus.WithFields(fields).Debug("Authorization rejected")
		return false, nil
	}

	logrus.WithFields(logrus.Fields{
		"function": "VerifyAuthorization",
		"package":  "spiralverse",
		"token_id": token.TokenID,
	}).Info("Authorization verified")
	return true, payload
}

func (s *System) verify(token *AuthorizationToken, passphrase string) (Payload, VerifyStage) {
	if token == nil ||
		s.options.Limits.ValidateSubject(token.Subject) != nil ||
		s.options.Limits.ValidatePassphrase(passphrase) != nil {
		return nil, StageInput
	}

	semanticKey, err := lws.DeriveKey(passphrase)
	if err != nil {
		return nil, StageSemanticBinding
	}
	defer crypto.ZeroBytes(semanticKey)

	expected := lws.SemanticSignature(token.Subject, semanticKey)[:lws.BindingSize]
	if !crypto.ConstantTimeEqual(expected, token.SemanticBinding) {
		return nil, StageSemanticBinding
	}

	key := s.combinedKey(semanticKey, token.GeometricSignature)
	defer crypto.ZeroBytes(key)
	plaintext, err := s.engine.Decrypt(token.EncryptedPayload, key)
	if err != nil {
		return nil, StageDecrypt
	}
	defer crypto.ZeroBytes(plaintext)

	var payload Payload
	if err := json.Unmarshal(plaintext, &payload); err != nil || payload == nil {
		return nil, StageDecode
	}

	trajectory := s.space.TraverseLayers(geometry.EncodePoint([]byte(token.Subject)))
	if !geometry.VerifyTrajectoryIntegrity(trajectory) {
		return nil, StageIntegrity
	}
	return payload, ""
}

// hasReplacementEscape reports whether json.Marshal output contains a \ufffd
// escape. The encoder writes that escape only in place of invalid UTF-8;
// a literal U+FFFD is emitted unescaped.
func hasReplacementEscape(data []byte) bool {
	for i := 0; i < len(data); i++ {
		if data[i] != '\\' {
			continue
		}
		if i+5 < len(data) && data[i+1] == 'u' && string(data[i+2:i+6]) == "fffd" {
			return true
		}
		i++
	}
	return false
}

// ExportToken returns the portable form of token.
func (s *System) ExportToken(token *AuthorizationToken) (string, error) {
	if token == nil {
		return "", fmt.Errorf("%w: nil token", ErrTokenDecode)
	}
	return token.Export()
}

// ImportToken parses an exported token after checking it against the
// System's size limits.
func (s *System) ImportToken(exported string) (*AuthorizationToken, error) {
	if err := s.options.Limits.ValidateExportedToken(exported); err != nil {
		return nil, err
	}
	token, err := ImportToken(exported)
	if err != nil {
		return nil, err
	}
	if err := s.options.Limits.ValidateSubject(token.Subject); err != nil {
		return nil, err
	}
	return token, nil
}
