package spiralverse

import "errors"

var (
	// ErrPayloadEncoding indicates a payload that cannot be serialized to JSON.
	ErrPayloadEncoding = errors.New("payload cannot be encoded")

	// ErrTokenDecode indicates an exported token that is not valid base64 JSON
	// of the token layout.
	ErrTokenDecode = errors.New("token cannot be decoded")

	// ErrInvalidOptions indicates options that cannot configure a System.
	ErrInvalidOptions = errors.New("invalid options")
)

// VerifyStage names the check at which a verification stopped. Stages are
// logged at Debug level only; callers of VerifyAuthorization see a bare bool.
type VerifyStage string

const (
	StageInput           VerifyStage = "input"
	StageSemanticBinding VerifyStage = "semantic_binding"
	StageDecrypt         VerifyStage = "decrypt"
	StageDecode          VerifyStage = "decode"
	StageIntegrity       VerifyStage = "integrity"
)
