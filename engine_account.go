package authcore

import (
	"context"
	"errors"
)

const (
	minPasswordBytes = 8
	maxPasswordBytes = 72 // bcrypt input limit
)

// Signup registers a new user and issues its first token pair.
//
// The email is trimmed and lowercased before validation and storage, so
// "User@Example.com" and "user@example.com" are the same account. The
// password must be 8 to 72 bytes; the upper bound is the bcrypt input limit.
func (e *Engine) Signup(ctx context.Context, email, plaintext string) (*SignupResult, error) {
	email = normalizeEmail(email)

	if !validEmail(email) {
		e.metrics.Inc(MetricSignupInvalid)
		e.emitEvent(ctx, "signup_failure", "", "", ErrEmailInvalid, nil)
		return nil, ErrEmailInvalid
	}
	if n := len(plaintext); n < minPasswordBytes || n > maxPasswordBytes {
		e.metrics.Inc(MetricSignupInvalid)
		e.emitEvent(ctx, "signup_failure", "", "", ErrPasswordPolicy, nil)
		return nil, ErrPasswordPolicy
	}

	hash, err := e.passwordHash.Hash(plaintext)
	if err != nil {
		return nil, e.backendFailure(ctx, "signup_failure", "", err)
	}

	user, err := e.directory.CreateUser(ctx, CreateUserInput{
		Email:        email,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			e.metrics.Inc(MetricSignupDuplicate)
			e.emitEvent(ctx, "signup_failure", "", "", ErrAccountExists, nil)
			return nil, ErrAccountExists
		}
		return nil, e.backendFailure(ctx, "signup_failure", "", err)
	}

	pair, err := e.issuePair(ctx, user)
	if err != nil {
		return nil, err
	}

	e.metrics.Inc(MetricSignupSuccess)
	e.emitEvent(ctx, "signup_success", user.UserID, pair.FamilyID, nil, nil)

	return &SignupResult{
		User:   user,
		Tokens: *pair,
	}, nil
}
