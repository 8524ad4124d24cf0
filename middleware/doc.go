// Package middleware adapts access-token verification to net/http.
//
// [Guard] reads the Authorization header, verifies the bearer token through
// Engine.ValidateAccess, and injects the resulting identity into the request
// context for handlers to read with [AuthResultFromContext].
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls and nothing else.
// It never parses tokens itself and never touches Redis; verification is
// stateless by construction, so guarded routes stay available during a store
// outage.
package middleware
