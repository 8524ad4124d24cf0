// Package authcore implements the authentication token lifecycle: credential
// verification, signed access/refresh token issuance, stateless access-token
// verification, and a concurrency-safe refresh-token rotation protocol with
// replay detection.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// authcore is the public surface. It exposes [Engine], [Builder], [Config],
// sentinel errors, and value types. Flow orchestration and event dispatch live
// under internal/ and are never exported. The user-credential directory is a
// caller-implemented [UserDirectory]; the rotation state store is Redis-backed
// and owned by this module.
//
// # Performance contract
//
// ValidateAccess is the hot path. It is a pure function of the token codec and
// never performs a store round-trip, so access-token verification stays
// available when Redis is not. Signup, Login, Refresh, and Logout are allowed
// one Redis round-trip plus directory calls.
package authcore
