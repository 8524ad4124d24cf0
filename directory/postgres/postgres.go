// Package postgres provides a pgx-backed UserDirectory.
//
// Expected schema:
//
//	CREATE TABLE users (
//	    id            UUID PRIMARY KEY DEFAULT gen_random_uuid(),
//	    email         TEXT NOT NULL UNIQUE,
//	    password_hash TEXT NOT NULL,
//	    created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
//	    updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/veldt-labs/authcore"
)

// Directory implements authcore.UserDirectory on a pgx connection pool.
type Directory struct {
	pool *pgxpool.Pool
}

// New wraps an existing pool. The caller owns the pool's lifecycle.
func New(pool *pgxpool.Pool) *Directory {
	return &Directory{pool: pool}
}

// Connect opens a pool from a connection string and verifies it with a ping.
func Connect(ctx context.Context, dsn string) (*Directory, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open user directory pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping user directory: %w", err)
	}
	return &Directory{pool: pool}, nil
}

// Close releases the pool.
func (d *Directory) Close() {
	d.pool.Close()
}

func (d *Directory) CreateUser(ctx context.Context, input authcore.CreateUserInput) (authcore.UserRecord, error) {
	const q = `
		INSERT INTO users (email, password_hash)
		VALUES ($1, $2)
		RETURNING id, email, password_hash, created_at, updated_at`

	var rec authcore.UserRecord
	err := d.pool.QueryRow(ctx, q, input.Email, input.PasswordHash).Scan(
		&rec.UserID, &rec.Email, &rec.PasswordHash, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return authcore.UserRecord{}, authcore.ErrDuplicateEmail
		}
		return authcore.UserRecord{}, fmt.Errorf("insert user: %w", err)
	}

	return rec, nil
}

func (d *Directory) GetUserByEmail(ctx context.Context, email string) (authcore.UserRecord, error) {
	const q = `
		SELECT id, email, password_hash, created_at, updated_at
		FROM users
		WHERE email = $1`

	return d.getOne(ctx, q, email)
}

func (d *Directory) GetUserByID(ctx context.Context, userID string) (authcore.UserRecord, error) {
	const q = `
		SELECT id, email, password_hash, created_at, updated_at
		FROM users
		WHERE id = $1`

	return d.getOne(ctx, q, userID)
}

func (d *Directory) getOne(ctx context.Context, query string, arg any) (authcore.UserRecord, error) {
	var rec authcore.UserRecord
	err := d.pool.QueryRow(ctx, query, arg).Scan(
		&rec.UserID, &rec.Email, &rec.PasswordHash, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return authcore.UserRecord{}, authcore.ErrUserNotFound
		}
		return authcore.UserRecord{}, fmt.Errorf("query user: %w", err)
	}

	return rec, nil
}
