// Package memory provides an in-process UserDirectory for tests and examples.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/veldt-labs/authcore"
)

// Directory is a mutex-guarded in-memory user store. Not for production use:
// it has no persistence and lives in one process.
type Directory struct {
	mu      sync.RWMutex
	byEmail map[string]authcore.UserRecord
	byID    map[string]authcore.UserRecord
}

// New returns an empty Directory.
func New() *Directory {
	return &Directory{
		byEmail: make(map[string]authcore.UserRecord),
		byID:    make(map[string]authcore.UserRecord),
	}
}

func (d *Directory) CreateUser(_ context.Context, input authcore.CreateUserInput) (authcore.UserRecord, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.byEmail[input.Email]; exists {
		return authcore.UserRecord{}, authcore.ErrDuplicateEmail
	}

	now := time.Now()
	rec := authcore.UserRecord{
		UserID:       uuid.NewString(),
		Email:        input.Email,
		PasswordHash: input.PasswordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	d.byEmail[rec.Email] = rec
	d.byID[rec.UserID] = rec

	return rec, nil
}

func (d *Directory) GetUserByEmail(_ context.Context, email string) (authcore.UserRecord, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	rec, ok := d.byEmail[email]
	if !ok {
		return authcore.UserRecord{}, authcore.ErrUserNotFound
	}
	return rec, nil
}

func (d *Directory) GetUserByID(_ context.Context, userID string) (authcore.UserRecord, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	rec, ok := d.byID[userID]
	if !ok {
		return authcore.UserRecord{}, authcore.ErrUserNotFound
	}
	return rec, nil
}

// Len reports the number of stored users.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.byID)
}
