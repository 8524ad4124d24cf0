// Package rotation implements the persistent refresh-rotation state store.
//
// Each session family is one Redis hash holding the owning user, the single
// currently valid jti, an absolute expiry, and a revocation flag. Rotation is a
// Lua compare-and-swap: under concurrent calls presenting the same jti exactly
// one caller advances the family and every other caller observes a mismatch.
// A mismatch revokes the family inside the same script execution, so there is
// no window between replay detection and revocation.
package rotation
