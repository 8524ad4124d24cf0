package authcore

import (
	"context"
	"errors"
	"fmt"

	"github.com/veldt-labs/authcore/internal/flows"
	"github.com/veldt-labs/authcore/jwt"
	"github.com/veldt-labs/authcore/rotation"
)

// Refresh rotates a refresh token: the presented token's jti is atomically
// compared-and-swapped against the session family's current jti, and on
// success a new pair is issued within the same family.
//
// Presenting a jti that has already been rotated out revokes the entire
// family and returns [ErrRefreshReuse]; every outstanding token of that
// family is dead from that point.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	deps := flows.RefreshDeps{
		DecodeRefreshToken: func(token string) (flows.RefreshTokenClaims, error) {
			claims, err := e.jwtManager.ParseRefresh(token)
			if err != nil {
				return flows.RefreshTokenClaims{}, err
			}
			return flows.RefreshTokenClaims{
				UserID:   claims.Subject,
				FamilyID: claims.FamilyID,
				JTI:      claims.ID,
			}, nil
		},
		Rotate: e.store.Rotate,
		IssueAccessToken: func(ctx context.Context, userID string) (string, error) {
			// The refresh token does not carry the email claim, so the
			// access token's identity is re-read from the directory.
			user, err := e.directory.GetUserByID(ctx, userID)
			if err != nil {
				return "", err
			}
			return e.jwtManager.CreateAccess(user.UserID, user.Email)
		},
		EncodeRefreshToken: func(userID, familyID, jti string) (string, error) {
			return e.jwtManager.CreateRefresh(userID, familyID, jti)
		},
		TokenExpired:  jwt.ErrTokenExpired,
		ReuseDetected: rotation.ErrReuseDetected,
		NotFound:      rotation.ErrFamilyNotFound,
		Expired:       rotation.ErrFamilyExpired,
		Revoked:       rotation.ErrFamilyRevoked,
	}

	res := flows.RunRefresh(ctx, refreshToken, deps)

	switch res.Failure {
	case flows.RefreshFailureNone:
		e.metrics.Inc(MetricRefreshSuccess)
		e.emitEvent(ctx, "refresh_success", res.UserID, res.FamilyID, nil, nil)
		return &TokenPair{
			AccessToken:  res.AccessToken,
			RefreshToken: res.RefreshToken,
			FamilyID:     res.FamilyID,
		}, nil

	case flows.RefreshFailureDecode:
		return nil, e.refreshFailure(ctx, res, ErrRefreshInvalid)

	case flows.RefreshFailureTokenExpired:
		return nil, e.refreshFailure(ctx, res, ErrTokenExpired)

	case flows.RefreshFailureReuse:
		e.metrics.Inc(MetricRefreshReuseDetected)
		e.metrics.Inc(MetricSessionRevoked)
		e.metrics.Inc(MetricRefreshFailure)
		e.emitEvent(ctx, "refresh_reuse_detected", res.UserID, res.FamilyID, ErrRefreshReuse, nil)
		return nil, ErrRefreshReuse

	case flows.RefreshFailureFamilyNotFound:
		return nil, e.refreshFailure(ctx, res, ErrSessionNotFound)

	case flows.RefreshFailureFamilyExpired:
		return nil, e.refreshFailure(ctx, res, ErrSessionExpired)

	case flows.RefreshFailureFamilyRevoked:
		return nil, e.refreshFailure(ctx, res, ErrSessionRevoked)

	case flows.RefreshFailureIssueAccess:
		if errors.Is(res.Err, ErrUserNotFound) {
			// Session outlived its user record. Treat as unauthorized,
			// not as an outage.
			return nil, e.refreshFailure(ctx, res, ErrUnauthorized)
		}
		return nil, e.refreshBackendFailure(ctx, res)

	case flows.RefreshFailureRotate, flows.RefreshFailureEncodeRefresh:
		return nil, e.refreshBackendFailure(ctx, res)

	default:
		return nil, e.refreshBackendFailure(ctx, res)
	}
}

func (e *Engine) refreshFailure(ctx context.Context, res flows.RefreshResult, sentinel error) error {
	e.metrics.Inc(MetricRefreshFailure)
	e.emitEvent(ctx, "refresh_failure", res.UserID, res.FamilyID, sentinel, func() map[string]string {
		if res.Err == nil {
			return nil
		}
		return map[string]string{"cause": res.Err.Error()}
	})
	return sentinel
}

func (e *Engine) refreshBackendFailure(ctx context.Context, res flows.RefreshResult) error {
	e.metrics.Inc(MetricRefreshFailure)
	wrapped := fmt.Errorf("%w: %v", ErrBackendUnavailable, res.Err)
	e.emitEvent(ctx, "refresh_failure", res.UserID, res.FamilyID, wrapped, nil)
	return wrapped
}
