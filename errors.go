package authcore

import "errors"

// Sentinel errors returned by Engine operations. Callers branch with
// errors.Is; HTTP layers map them to wire bodies with [PublicErrorFor].
var (
	// ErrInvalidCredentials is returned by Login for an unknown email or a
	// wrong password. The two cases are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAccountExists is returned by Signup when the email is already
	// registered.
	ErrAccountExists = errors.New("account already exists")

	// ErrEmailInvalid is returned by Signup when the email fails validation.
	ErrEmailInvalid = errors.New("email invalid")

	// ErrPasswordPolicy is returned by Signup when the password violates the
	// length policy.
	ErrPasswordPolicy = errors.New("password does not meet policy")

	// ErrUserNotFound is the [UserDirectory] contract for a missing user.
	ErrUserNotFound = errors.New("user not found")

	// ErrDuplicateEmail is the [UserDirectory] contract for a uniqueness
	// violation on insert.
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrUnauthorized is returned by ValidateAccess for every rejection:
	// malformed, badly signed, expired, and claim-deficient tokens all
	// collapse here.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRefreshInvalid is returned by Refresh for a token that fails
	// decoding or signature verification.
	ErrRefreshInvalid = errors.New("refresh token invalid")

	// ErrTokenExpired is returned by Refresh for a correctly signed token
	// past its expiry.
	ErrTokenExpired = errors.New("refresh token expired")

	// ErrRefreshReuse is returned by Refresh when the presented jti has
	// already been rotated out. The session family is revoked by the time
	// the caller observes this error.
	ErrRefreshReuse = errors.New("refresh token reuse detected")

	// ErrSessionNotFound is returned by Refresh when no family record exists
	// for the token's family ID.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionExpired is returned by Refresh when the session family's
	// absolute lifetime has passed.
	ErrSessionExpired = errors.New("session expired")

	// ErrSessionRevoked is returned by Refresh when the session family was
	// revoked by logout or by an earlier replay detection.
	ErrSessionRevoked = errors.New("session revoked")

	// ErrBackendUnavailable wraps directory and rotation store transport
	// failures. It is an availability signal, never an auth decision.
	ErrBackendUnavailable = errors.New("auth backend unavailable")

	// ErrEngineNotReady is returned by [Builder.Build] when required
	// dependencies are missing.
	ErrEngineNotReady = errors.New("engine not ready")
)

// PublicError is the wire-safe error shape. Code is a stable machine-readable
// identifier, Message is human-readable, StatusCode is the suggested HTTP
// status.
type PublicError struct {
	Code       string `json:"error"`
	Message    string `json:"message"`
	StatusCode int    `json:"status_code"`
}

// PublicErrorFor maps an Engine error onto its public representation.
//
// The mapping deliberately collapses detail: everything token- or
// session-shaped becomes a single 401 so the response does not leak whether a
// presented token was malformed, expired, replayed, or belonged to a revoked
// session. The collapsed detail is still observable through the event sink.
func PublicErrorFor(err error) PublicError {
	switch {
	case errors.Is(err, ErrAccountExists):
		return PublicError{Code: "AUTH_EMAIL_EXISTS", Message: "Email already registered", StatusCode: 409}
	case errors.Is(err, ErrEmailInvalid), errors.Is(err, ErrPasswordPolicy):
		return PublicError{Code: "AUTH_INVALID_INPUT", Message: "Invalid signup input", StatusCode: 422}
	case errors.Is(err, ErrInvalidCredentials):
		return PublicError{Code: "AUTH_INVALID_CREDENTIALS", Message: "Invalid credentials", StatusCode: 401}
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, ErrRefreshInvalid),
		errors.Is(err, ErrTokenExpired),
		errors.Is(err, ErrRefreshReuse),
		errors.Is(err, ErrSessionNotFound),
		errors.Is(err, ErrSessionExpired),
		errors.Is(err, ErrSessionRevoked):
		return PublicError{Code: "AUTH_UNAUTHORIZED", Message: "Unauthorized", StatusCode: 401}
	case errors.Is(err, ErrBackendUnavailable):
		return PublicError{Code: "AUTH_SERVICE_UNAVAILABLE", Message: "Service temporarily unavailable", StatusCode: 503}
	default:
		return PublicError{Code: "AUTH_INTERNAL_ERROR", Message: "Internal error", StatusCode: 500}
	}
}

// internalCode maps an error onto the machine-readable code recorded in
// operation events. Unlike [PublicErrorFor] it preserves full detail.
func internalCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return "AUTH_INVALID_CREDENTIALS"
	case errors.Is(err, ErrAccountExists):
		return "AUTH_EMAIL_EXISTS"
	case errors.Is(err, ErrEmailInvalid):
		return "AUTH_EMAIL_INVALID"
	case errors.Is(err, ErrPasswordPolicy):
		return "AUTH_PASSWORD_POLICY"
	case errors.Is(err, ErrUserNotFound):
		return "AUTH_USER_NOT_FOUND"
	case errors.Is(err, ErrRefreshInvalid):
		return "AUTH_TOKEN_MALFORMED"
	case errors.Is(err, ErrTokenExpired):
		return "AUTH_TOKEN_EXPIRED"
	case errors.Is(err, ErrRefreshReuse):
		return "AUTH_REFRESH_REUSE"
	case errors.Is(err, ErrSessionNotFound):
		return "AUTH_SESSION_NOT_FOUND"
	case errors.Is(err, ErrSessionExpired):
		return "AUTH_SESSION_EXPIRED"
	case errors.Is(err, ErrSessionRevoked):
		return "AUTH_SESSION_REVOKED"
	case errors.Is(err, ErrUnauthorized):
		return "AUTH_UNAUTHORIZED"
	case errors.Is(err, ErrBackendUnavailable):
		return "AUTH_BACKEND_UNAVAILABLE"
	default:
		return "AUTH_INTERNAL_ERROR"
	}
}
