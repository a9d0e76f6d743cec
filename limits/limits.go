// Package limits provides centralized size limits for authorization tokens.
// Token creation, import and the gRPC service validate against the same values.
package limits

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

const (
	// MaxSubjectLength bounds the subject identifier in bytes.
	MaxSubjectLength = 1024

	// MaxPassphraseLength bounds a passphrase in bytes.
	MaxPassphraseLength = 4096

	// MaxPayloadSize bounds the serialized JSON payload (1 MiB).
	MaxPayloadSize = 1024 * 1024

	// CipherOverhead is the most the chaotic cipher adds to a plaintext:
	// a 16-byte IV plus at most one 16-byte padding block.
	CipherOverhead = 32

	// MaxEncryptedPayload is the largest encrypted payload a valid token carries.
	MaxEncryptedPayload = MaxPayloadSize + CipherOverhead

	// MaxExportedToken bounds the base64 export form of a token (4 MiB). The
	// payload is base64 encoded twice, so this leaves room above
	// MaxEncryptedPayload · (4/3)².
	MaxExportedToken = 4 * 1024 * 1024
)

var (
	// ErrMessageEmpty indicates an empty message was provided
	ErrMessageEmpty = errors.New("empty message")

	// ErrMessageTooLarge indicates message exceeds maximum size
	ErrMessageTooLarge = errors.New("message too large")

	// ErrInvalidUTF8 indicates text that the JSON export form cannot carry unchanged
	ErrInvalidUTF8 = errors.New("invalid UTF-8")
)

// Limits carries the bounds a System enforces. The zero value is not useful;
// start from Default.
type Limits struct {
	MaxSubjectLength    int
	MaxPassphraseLength int
	MaxPayloadSize      int
	MaxExportedToken    int
}

// Default returns the package limits.
func Default() Limits {
	return Limits{
		MaxSubjectLength:    MaxSubjectLength,
		MaxPassphraseLength: MaxPassphraseLength,
		MaxPayloadSize:      MaxPayloadSize,
		MaxExportedToken:    MaxExportedToken,
	}
}

// Validate reports limits that cannot admit any input.
func (l Limits) Validate() error {
	var errs []error
	if l.MaxSubjectLength < 0 {
		errs = append(errs, fmt.Errorf("max subject length cannot be negative: %d", l.MaxSubjectLength))
	}
	if l.MaxPassphraseLength < 0 {
		errs = append(errs, fmt.Errorf("max passphrase length cannot be negative: %d", l.MaxPassphraseLength))
	}
	if l.MaxPayloadSize <= 0 {
		errs = append(errs, fmt.Errorf("max payload size must be positive: %d", l.MaxPayloadSize))
	}
	if l.MaxExportedToken <= 0 {
		errs = append(errs, fmt.Errorf("max exported token size must be positive: %d", l.MaxExportedToken))
	}
	return errors.Join(errs...)
}

// ValidateMessageSize validates a message against the specified maximum size.
// Returns an error with context including the actual and maximum sizes.
func ValidateMessageSize(message []byte, maxSize int) error {
	if len(message) == 0 {
		return ErrMessageEmpty
	}
	if len(message) > maxSize {
		return fmt.Errorf("%w: size %d exceeds limit %d", ErrMessageTooLarge, len(message), maxSize)
	}
	return nil
}

// ValidateSubject bounds the subject length and requires valid UTF-8.
// An empty subject is allowed.
func (l Limits) ValidateSubject(subject string) error {
	if len(subject) > l.MaxSubjectLength {
		return fmt.Errorf("%w: subject size %d exceeds limit %d", ErrMessageTooLarge, len(subject), l.MaxSubjectLength)
	}
	if !utf8.ValidString(subject) {
		return fmt.Errorf("%w: subject", ErrInvalidUTF8)
	}
	return nil
}

// ValidatePassphrase bounds the passphrase length. An empty passphrase is allowed.
func (l Limits) ValidatePassphrase(passphrase string) error {
	if len(passphrase) > l.MaxPassphraseLength {
		return fmt.Errorf("%w: passphrase size %d exceeds limit %d", ErrMessageTooLarge, len(passphrase), l.MaxPassphraseLength)
	}
	return nil
}

// ValidatePayload validates a serialized payload against MaxPayloadSize.
func (l Limits) ValidatePayload(payload []byte) error {
	if len(payload) == 0 {
		return ErrMessageEmpty
	}
	if len(payload) > l.MaxPayloadSize {
		return fmt.Errorf("%w: payload size %d exceeds limit %d", ErrMessageTooLarge, len(payload), l.MaxPayloadSize)
	}
	return nil
}

// ValidateExportedToken validates the export form of a token before decoding.
func (l Limits) ValidateExportedToken(exported string) error {
	if len(exported) == 0 {
		return ErrMessageEmpty
	}
	if len(exported) > l.MaxExportedToken {
		return fmt.Errorf("%w: exported token size %d exceeds limit %d", ErrMessageTooLarge, len(exported), l.MaxExportedToken)
	}
	return nil
}
