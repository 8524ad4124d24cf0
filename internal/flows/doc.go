// Package flows contains the pure-function orchestrator for refresh rotation.
//
// RunRefresh accepts a typed dependency struct of closures and sentinel errors
// supplied by the root package, so the state machine can be exercised in
// isolation with fakes and the root package keeps sole ownership of error
// mapping, metrics, and event emission.
package flows
