package authcore

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/veldt-labs/authcore/internal/oplog"
	"github.com/veldt-labs/authcore/jwt"
	"github.com/veldt-labs/authcore/password"
	"github.com/veldt-labs/authcore/rotation"
)

// Engine is the authentication facade. Construct via [Builder]; all methods
// are safe for concurrent use.
type Engine struct {
	config       Config
	store        *rotation.Store
	jwtManager   *jwt.Manager
	passwordHash *password.Hasher
	directory    UserDirectory
	events       *oplog.Dispatcher
	metrics      *Metrics
	decoyHash    string
}

// Close flushes the event dispatcher. The Engine must not be used afterwards.
func (e *Engine) Close() {
	e.events.Close()
}

// EventsDropped reports how many operation events were discarded because the
// sink buffer was full.
func (e *Engine) EventsDropped() uint64 {
	return e.events.Dropped()
}

// MetricsSnapshot copies the engine's operation counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	return e.metrics.Snapshot()
}

// StorePing checks rotation store availability and reports round-trip latency.
func (e *Engine) StorePing(ctx context.Context) (time.Duration, error) {
	latency, err := e.store.Ping(ctx)
	if err != nil {
		return latency, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return latency, nil
}

// Login verifies credentials and issues a fresh token pair with a new session
// family.
//
//	Security: unknown email and wrong password both return
//	[ErrInvalidCredentials], and the unknown-email path still performs one
//	bcrypt comparison against a decoy hash so response timing does not
//	reveal whether the account exists.
func (e *Engine) Login(ctx context.Context, email, plaintext string) (*TokenPair, error) {
	email = normalizeEmail(email)

	user, err := e.directory.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			e.passwordHash.Verify(plaintext, e.decoyHash)
			e.metrics.Inc(MetricLoginFailure)
			e.emitEvent(ctx, "login_failure", "", "", ErrInvalidCredentials, nil)
			return nil, ErrInvalidCredentials
		}
		return nil, e.backendFailure(ctx, "login_failure", "", err)
	}

	if !e.passwordHash.Verify(plaintext, user.PasswordHash) {
		e.metrics.Inc(MetricLoginFailure)
		e.emitEvent(ctx, "login_failure", user.UserID, "", ErrInvalidCredentials, nil)
		return nil, ErrInvalidCredentials
	}

	pair, err := e.issuePair(ctx, user)
	if err != nil {
		return nil, err
	}

	e.metrics.Inc(MetricLoginSuccess)
	e.emitEvent(ctx, "login_success", user.UserID, pair.FamilyID, nil, nil)

	return pair, nil
}

// ValidateAccess verifies an access token and returns the embedded identity.
// It is a pure codec operation: no store or directory round-trip, so revoking
// a session does not invalidate access tokens already in flight.
//
// Every rejection collapses to [ErrUnauthorized]; the underlying cause is
// recorded in metrics and events only.
func (e *Engine) ValidateAccess(ctx context.Context, token string) (*AuthResult, error) {
	claims, err := e.jwtManager.ParseAccess(token)
	if err != nil {
		e.metrics.Inc(MetricValidateFailure)
		e.emitEvent(ctx, "validate_failure", "", "", ErrUnauthorized, func() map[string]string {
			return map[string]string{"cause": err.Error()}
		})
		return nil, ErrUnauthorized
	}

	e.metrics.Inc(MetricValidateSuccess)

	return &AuthResult{
		UserID: claims.Subject,
		Email:  claims.Email,
	}, nil
}

// Logout revokes a session family. Idempotent: revoking an unknown or already
// revoked family succeeds.
func (e *Engine) Logout(ctx context.Context, familyID string) error {
	if err := e.store.Revoke(ctx, familyID); err != nil {
		return e.backendFailure(ctx, "logout_failure", "", err)
	}

	e.metrics.Inc(MetricLogout)
	e.metrics.Inc(MetricSessionRevoked)
	e.emitEvent(ctx, "logout", "", familyID, nil, nil)

	return nil
}

// LogoutByRefreshToken revokes the session family named by a refresh token.
// The token must decode and verify; its jti is not checked, so a token that
// has already been rotated out still logs its family out.
func (e *Engine) LogoutByRefreshToken(ctx context.Context, refreshToken string) error {
	claims, err := e.jwtManager.ParseRefresh(refreshToken)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return ErrRefreshInvalid
	}

	if err := e.store.Revoke(ctx, claims.FamilyID); err != nil {
		return e.backendFailure(ctx, "logout_failure", claims.Subject, err)
	}

	e.metrics.Inc(MetricLogout)
	e.metrics.Inc(MetricSessionRevoked)
	e.emitEvent(ctx, "logout", claims.Subject, claims.FamilyID, nil, nil)

	return nil
}

// LogoutAll revokes every tracked session family of a user.
func (e *Engine) LogoutAll(ctx context.Context, userID string) error {
	if err := e.store.RevokeAllForUser(ctx, userID); err != nil {
		return e.backendFailure(ctx, "logout_all_failure", userID, err)
	}

	e.metrics.Inc(MetricLogoutAll)
	e.emitEvent(ctx, "logout_all", userID, "", nil, nil)

	return nil
}

// SessionFamilies lists the tracked family IDs for a user.
func (e *Engine) SessionFamilies(ctx context.Context, userID string) ([]string, error) {
	ids, err := e.store.FamilyIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return ids, nil
}

// issuePair creates a session family and mints its first token pair.
func (e *Engine) issuePair(ctx context.Context, user UserRecord) (*TokenPair, error) {
	fam, err := e.store.CreateFamily(ctx, user.UserID, e.config.JWT.RefreshTTL)
	if err != nil {
		return nil, e.backendFailure(ctx, "session_create_failure", user.UserID, err)
	}

	access, err := e.jwtManager.CreateAccess(user.UserID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("access token signing: %w", err)
	}

	refresh, err := e.jwtManager.CreateRefresh(user.UserID, fam.FamilyID, fam.CurrentJTI)
	if err != nil {
		return nil, fmt.Errorf("refresh token signing: %w", err)
	}

	e.metrics.Inc(MetricSessionCreated)

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		FamilyID:     fam.FamilyID,
	}, nil
}

// backendFailure wraps a store or directory transport error, counts nothing,
// and records the outage in the event stream.
func (e *Engine) backendFailure(ctx context.Context, eventType, userID string, err error) error {
	wrapped := fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	e.emitEvent(ctx, eventType, userID, "", wrapped, nil)
	return wrapped
}

// emitEvent records an operation outcome. metadata is lazy so disabled event
// configurations never pay for map construction.
func (e *Engine) emitEvent(ctx context.Context, eventType, userID, familyID string, opErr error, metadata func() map[string]string) {
	if e.events == nil {
		return
	}

	event := oplog.Event{
		Timestamp: time.Now(),
		EventType: eventType,
		UserID:    userID,
		FamilyID:  familyID,
		IP:        clientIPFromContext(ctx),
		Success:   opErr == nil,
	}
	if opErr != nil {
		event.Code = internalCode(opErr)
		event.Error = opErr.Error()
	}
	if metadata != nil {
		event.Metadata = metadata()
	}

	e.events.Emit(ctx, event)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return false
	}
	// ParseAddress accepts display names; require the bare address form.
	return addr.Address == email
}
