package spiralverse

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

const (
	// ProtocolID prefixes every token identifier.
	ProtocolID = "SPIRALVERSE-AETHERMOORE-QR"

	// Version is the protocol version.
	Version = "1.0.0"
)

// AuthorizationToken is an issued authorization. Tokens are immutable once
// created; the byte fields are base64 encoded in the JSON export form.
type AuthorizationToken struct {
	TokenID            string  `json:"token_id"`
	Subject            string  `json:"subject"`
	Timestamp          float64 `json:"timestamp"`
	GeometricSignature []byte  `json:"geometric_signature"`
	SemanticBinding    []byte  `json:"semantic_binding"`
	EncryptedPayload   []byte  `json:"encrypted_payload"`
}

// Equal reports whether two tokens carry identical fields.
func (t *AuthorizationToken) Equal(o *AuthorizationToken) bool {
	if t == nil || o == nil {
		return t == o
	}
	return t.TokenID == o.TokenID &&
		t.Subject == o.Subject &&
		t.Timestamp == o.Timestamp &&
		bytes.Equal(t.GeometricSignature, o.GeometricSignature) &&
		bytes.Equal(t.SemanticBinding, o.SemanticBinding) &&
		bytes.Equal(t.EncryptedPayload, o.EncryptedPayload)
}

// Export returns the portable form of the token: base64 of its JSON object.
func (t *AuthorizationToken) Export() (string, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return "", fmt.Errorf("failed to marshal token: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// ImportToken parses the portable form produced by Export. It applies no
// size limits; System.ImportToken does.
func ImportToken(exported string) (*AuthorizationToken, error) {
	data, err := base64.StdEncoding.DecodeString(exported)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenDecode, err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenDecode, err)
	}

	// Field names match exactly; unknown keys are ignored.
	var token AuthorizationToken
	for _, f := range []struct {
		key string
		dst any
	}{
		{"token_id", &token.TokenID},
		{"subject", &token.Subject},
		{"timestamp", &token.Timestamp},
		{"geometric_signature", &token.GeometricSignature},
		{"semantic_binding", &token.SemanticBinding},
		{"encrypted_payload", &token.EncryptedPayload},
	} {
		raw, ok := fields[f.key]
		if !ok {
			return nil, fmt.Errorf("%w: missing field %q", ErrTokenDecode, f.key)
		}
		if err := json.Unmarshal(raw, f.dst); err != nil {
			return nil, fmt.Errorf("%w: field %q: %w", ErrTokenDecode, f.key, err)
		}
	}
	return &token, nil
}

// ContentID returns the CIDv1 (raw codec, sha2-256) of the token's export form.
func (t *AuthorizationToken) ContentID() (cid.Cid, error) {
	exported, err := t.Export()
	if err != nil {
		return cid.Undef, err
	}
	sum, err := multihash.Sum([]byte(exported), multihash.SHA2_256, -1)
	if err != nil {
		return cid.Undef, fmt.Errorf("failed to hash token: %w", err)
	}
	return cid.NewCidV1(cid.Raw, sum), nil
}
