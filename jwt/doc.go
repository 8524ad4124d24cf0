// Package jwt implements the signed-claims codec for access and refresh tokens.
//
// The codec is pure: it performs no I/O, holds no mutable state, and a single
// [Manager] can be shared across any number of goroutines. Tokens are compact
// three-part HS256 strings. Decode failures are classified into
// [ErrTokenMalformed], [ErrSignatureInvalid], and [ErrTokenExpired] so callers
// can log the precise cause while collapsing all of them into one externally
// visible outcome.
package jwt
