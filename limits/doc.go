// Size limits applied to authorization token inputs.
//
// The package-level constants are the defaults; [Limits] lets a caller tighten
// them per System. All validation failures wrap [ErrMessageTooLarge] or are
// [ErrMessageEmpty], so callers can branch with errors.Is:
//
//	if err := limits.Default().ValidatePayload(data); errors.Is(err, limits.ErrMessageTooLarge) {
//		// reject
//	}
package limits
