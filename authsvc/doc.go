// Package authsvc serves a spiralverse.System over gRPC.
//
// The Authority service (spiralverse.authsvc.v1.Authority) has three unary
// methods built on protobuf well-known types:
//
//   - Issue(Struct{subject, passphrase, payload}) returns the exported token.
//   - Verify(Struct{token, passphrase}) returns Struct{valid, payload}.
//   - TokenID(StringValue) returns the token's CIDv1.
//
// Verify never distinguishes failure reasons: an undecodable, tampered,
// wrongly keyed or replayed token all yield valid=false. Malformed request
// shapes are rejected with codes.InvalidArgument.
//
// Each request is logged with a fresh request_id.
package authsvc
