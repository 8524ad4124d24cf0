package flows

import (
	"context"
	"errors"
)

// RefreshFailureKind classifies refresh flow failures for root-level mapping.
// The kinds mirror the coordinator states: decode, family lookup/CAS, and
// issuance can each fail, and the root package maps every kind to a sentinel
// plus an internal observability code.
type RefreshFailureKind int

const (
	RefreshFailureNone RefreshFailureKind = iota
	RefreshFailureDecode
	RefreshFailureTokenExpired
	RefreshFailureReuse
	RefreshFailureFamilyNotFound
	RefreshFailureFamilyExpired
	RefreshFailureFamilyRevoked
	RefreshFailureRotate
	RefreshFailureIssueAccess
	RefreshFailureEncodeRefresh
)

// RefreshTokenClaims is the flow-local view of a decoded refresh token.
type RefreshTokenClaims struct {
	UserID   string
	FamilyID string
	JTI      string
}

// RefreshResult carries either the issued token pair or failure metadata.
type RefreshResult struct {
	Failure      RefreshFailureKind
	Err          error
	UserID       string
	FamilyID     string
	AccessToken  string
	RefreshToken string
}

// RefreshDeps captures refresh flow dependencies. The sentinel error fields
// let the flow classify store and codec failures without importing either
// package.
type RefreshDeps struct {
	DecodeRefreshToken func(string) (RefreshTokenClaims, error)
	Rotate             func(ctx context.Context, familyID, presentedJTI string) (string, error)
	IssueAccessToken   func(ctx context.Context, userID string) (string, error)
	EncodeRefreshToken func(userID, familyID, jti string) (string, error)

	TokenExpired  error
	ReuseDetected error
	NotFound      error
	Expired       error
	Revoked       error
}

// RunRefresh executes the rotation state machine: decode the presented token,
// compare-and-swap the family's current jti, then mint a fresh pair carrying
// the replacement jti.
//
// Malformed, badly signed, and expired tokens are rejected with no state
// change. A jti mismatch surfaces as RefreshFailureReuse with the family
// already revoked by the store: silently tolerating the mismatch would let a
// stolen token sometimes win depending on arrival order, so an innocent
// duplicate request losing its session is the accepted cost.
func RunRefresh(ctx context.Context, refreshToken string, deps RefreshDeps) RefreshResult {
	claims, err := deps.DecodeRefreshToken(refreshToken)
	if err != nil {
		failure := RefreshFailureDecode
		if deps.TokenExpired != nil && errors.Is(err, deps.TokenExpired) {
			failure = RefreshFailureTokenExpired
		}
		return RefreshResult{
			Failure: failure,
			Err:     err,
		}
	}

	nextJTI, err := deps.Rotate(ctx, claims.FamilyID, claims.JTI)
	if err != nil {
		failure := RefreshFailureRotate
		switch {
		case deps.ReuseDetected != nil && errors.Is(err, deps.ReuseDetected):
			failure = RefreshFailureReuse
		case deps.NotFound != nil && errors.Is(err, deps.NotFound):
			failure = RefreshFailureFamilyNotFound
		case deps.Expired != nil && errors.Is(err, deps.Expired):
			failure = RefreshFailureFamilyExpired
		case deps.Revoked != nil && errors.Is(err, deps.Revoked):
			failure = RefreshFailureFamilyRevoked
		}
		return RefreshResult{
			Failure:  failure,
			Err:      err,
			UserID:   claims.UserID,
			FamilyID: claims.FamilyID,
		}
	}

	access, err := deps.IssueAccessToken(ctx, claims.UserID)
	if err != nil {
		return RefreshResult{
			Failure:  RefreshFailureIssueAccess,
			Err:      err,
			UserID:   claims.UserID,
			FamilyID: claims.FamilyID,
		}
	}

	refresh, err := deps.EncodeRefreshToken(claims.UserID, claims.FamilyID, nextJTI)
	if err != nil {
		return RefreshResult{
			Failure:  RefreshFailureEncodeRefresh,
			Err:      err,
			UserID:   claims.UserID,
			FamilyID: claims.FamilyID,
		}
	}

	return RefreshResult{
		Failure:      RefreshFailureNone,
		UserID:       claims.UserID,
		FamilyID:     claims.FamilyID,
		AccessToken:  access,
		RefreshToken: refresh,
	}
}
