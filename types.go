package authcore

import (
	"context"
	"io"
	"time"

	"github.com/veldt-labs/authcore/internal/oplog"
)

// UserRecord is one stored user as seen by the engine. PasswordHash is an
// encoded bcrypt hash and never leaves the auth boundary.
type UserRecord struct {
	UserID       string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CreateUserInput carries the fields for a directory insert. Email arrives
// already normalized (trimmed, lowercased) and the hash already computed.
type CreateUserInput struct {
	Email        string
	PasswordHash string
}

// UserDirectory is the caller-supplied credential store.
//
// Contract: CreateUser returns [ErrDuplicateEmail] on a uniqueness violation;
// GetUserByEmail and GetUserByID return [ErrUserNotFound] for a missing user.
// Transport failures should be returned as-is; the engine wraps them into
// [ErrBackendUnavailable].
type UserDirectory interface {
	CreateUser(ctx context.Context, input CreateUserInput) (UserRecord, error)
	GetUserByEmail(ctx context.Context, email string) (UserRecord, error)
	GetUserByID(ctx context.Context, userID string) (UserRecord, error)
}

// TokenPair is an issued access/refresh token pair. FamilyID identifies the
// rotation family the refresh token belongs to and is the handle for Logout.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	FamilyID     string
}

// SignupResult is the outcome of a successful Signup: the created user plus
// its first token pair.
type SignupResult struct {
	User   UserRecord
	Tokens TokenPair
}

// AuthResult is the identity extracted from a verified access token.
type AuthResult struct {
	UserID string
	Email  string
}

// Event is one operation outcome delivered to the configured [EventSink].
type Event = oplog.Event

// EventSink receives operation events emitted by the engine.
type EventSink = oplog.Sink

// NoOpSink drops all events.
type NoOpSink = oplog.NoOpSink

// ChannelSink buffers events into a channel, for tests and in-process
// consumers.
type ChannelSink = oplog.ChannelSink

// JSONWriterSink writes one JSON object per event per line.
type JSONWriterSink = oplog.JSONWriterSink

// NewChannelSink returns a [ChannelSink] with the given buffer size.
func NewChannelSink(buffer int) *ChannelSink {
	return oplog.NewChannelSink(buffer)
}

// NewJSONWriterSink returns a [JSONWriterSink] writing to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return oplog.NewJSONWriterSink(w)
}
