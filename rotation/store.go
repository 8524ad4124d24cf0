package rotation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrStoreUnavailable wraps every Redis transport failure so callers can
// distinguish backend outage from an authentication decision.
var ErrStoreUnavailable = errors.New("rotation store unavailable")

// ErrFamilyNotFound is returned when no record exists for the family ID.
var ErrFamilyNotFound = errors.New("session family not found")

// ErrFamilyExpired is returned when the family's absolute lifetime has passed.
var ErrFamilyExpired = errors.New("session family expired")

// ErrFamilyRevoked is returned when the family was revoked by logout or by an
// earlier replay detection.
var ErrFamilyRevoked = errors.New("session family revoked")

// ErrReuseDetected is returned when the presented jti does not match the
// family's current jti. The family has already been revoked by the time the
// caller sees this error.
var ErrReuseDetected = errors.New("refresh token reuse detected")

const (
	rotateStatusNotFound int64 = 0
	rotateStatusExpired  int64 = 1
	rotateStatusMismatch int64 = 2
	rotateStatusRotated  int64 = 3
	rotateStatusRevoked  int64 = 4
)

const rotateFamilyScript = `
local family_key = KEYS[1]
local provided = ARGV[1]
local next_jti = ARGV[2]
local now_unix = tonumber(ARGV[3])

if redis.call("EXISTS", family_key) == 0 then
  return 0
end

local fields = redis.call("HMGET", family_key, "jti", "revoked", "expires")
local jti = fields[1]
local revoked = fields[2]
local expires = tonumber(fields[3])

if revoked == "1" then
  return 4
end

if not expires or expires <= now_unix then
  return 1
end

if jti ~= provided then
  redis.call("HSET", family_key, "revoked", "1")
  return 2
end

redis.call("HSET", family_key, "jti", next_jti)
return 3
`

var rotateFamilyLua = redis.NewScript(rotateFamilyScript)

const revokeFamilyScript = `
if redis.call("EXISTS", KEYS[1]) == 1 then
  redis.call("HSET", KEYS[1], "revoked", "1")
  return 1
end
return 0
`

var revokeFamilyLua = redis.NewScript(revokeFamilyScript)

// Store is the Redis-backed rotation state store. One hash per family, plus a
// per-user set of family IDs for logout-everywhere.
//
//	Performance: Rotate is 1 Lua EVALSHA (atomic compare-and-swap).
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// NewStore creates a [Store] backed by the given Redis client. prefix sets the
// key namespace.
func NewStore(client redis.UniversalClient, prefix string) *Store {
	return &Store{
		redis:  client,
		prefix: prefix,
	}
}

func (s *Store) familyKey(familyID string) string {
	return s.prefix + ":rf:" + familyID
}

func (s *Store) userKey(userID string) string {
	return s.prefix + ":ru:" + userID
}

// CreateFamily persists a new family for the user with a fresh random family
// ID and jti. ttl bounds both the absolute expiry field and the Redis key TTL.
func (s *Store) CreateFamily(ctx context.Context, userID string, ttl time.Duration) (*Family, error) {
	if ttl <= 0 {
		return nil, errors.New("family ttl must be positive")
	}

	now := time.Now()
	fam := &Family{
		FamilyID:   uuid.NewString(),
		UserID:     userID,
		CurrentJTI: uuid.NewString(),
		CreatedAt:  now.Unix(),
		ExpiresAt:  now.Add(ttl).Unix(),
	}

	familyKey := s.familyKey(fam.FamilyID)
	userKey := s.userKey(userID)

	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, familyKey, map[string]interface{}{
			"user":    fam.UserID,
			"jti":     fam.CurrentJTI,
			"revoked": "0",
			"created": fam.CreatedAt,
			"expires": fam.ExpiresAt,
		})
		pipe.Expire(ctx, familyKey, ttl)
		pipe.SAdd(ctx, userKey, fam.FamilyID)
		pipe.Expire(ctx, userKey, ttl)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return fam, nil
}

// Get retrieves a family record without mutating any state.
func (s *Store) Get(ctx context.Context, familyID string) (*Family, error) {
	fields, err := s.redis.HGetAll(ctx, s.familyKey(familyID)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if len(fields) == 0 {
		return nil, ErrFamilyNotFound
	}

	created, err := strconv.ParseInt(fields["created"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: corrupt created field", ErrStoreUnavailable)
	}
	expires, err := strconv.ParseInt(fields["expires"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: corrupt expires field", ErrStoreUnavailable)
	}

	return &Family{
		FamilyID:   familyID,
		UserID:     fields["user"],
		CurrentJTI: fields["jti"],
		Revoked:    fields["revoked"] == "1",
		CreatedAt:  created,
		ExpiresAt:  expires,
	}, nil
}

// Rotate atomically advances the family's current jti when presentedJTI still
// matches it, and returns the replacement jti. On mismatch the family is
// revoked inside the same script execution and [ErrReuseDetected] is returned:
// a legitimate client never re-presents a rotated-out jti, so a mismatch is
// either a replayed stolen token or two requests racing on one token, and both
// are handled fail-closed.
func (s *Store) Rotate(ctx context.Context, familyID, presentedJTI string) (string, error) {
	nextJTI := uuid.NewString()

	result, err := rotateFamilyLua.Run(
		ctx,
		s.redis,
		[]string{s.familyKey(familyID)},
		presentedJTI,
		nextJTI,
		time.Now().Unix(),
	).Result()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	code, ok := result.(int64)
	if !ok {
		return "", fmt.Errorf("%w: invalid rotate script response", ErrStoreUnavailable)
	}

	switch code {
	case rotateStatusNotFound:
		return "", ErrFamilyNotFound
	case rotateStatusExpired:
		return "", ErrFamilyExpired
	case rotateStatusMismatch:
		return "", ErrReuseDetected
	case rotateStatusRevoked:
		return "", ErrFamilyRevoked
	case rotateStatusRotated:
		return nextJTI, nil
	default:
		return "", fmt.Errorf("%w: unknown rotate script status %d", ErrStoreUnavailable, code)
	}
}

// Revoke marks the family revoked. Idempotent; revoking a missing or already
// revoked family is not an error. The record is kept as a tombstone until its
// Redis TTL passes so later presentations still observe the revocation.
func (s *Store) Revoke(ctx context.Context, familyID string) error {
	if _, err := revokeFamilyLua.Run(ctx, s.redis, []string{s.familyKey(familyID)}).Result(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// FamilyIDs returns the tracked family IDs for a user.
func (s *Store) FamilyIDs(ctx context.Context, userID string) ([]string, error) {
	ids, err := s.redis.SMembers(ctx, s.userKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return ids, nil
}

// RevokeAllForUser revokes every tracked family of a user.
//
// ATOMICITY NOTE: this reads the user's family set and then revokes each
// member; a family created between the read and the revocations is not
// captured. The race only affects logout-everywhere semantics and the stray
// family expires on its own TTL or is caught by the next call.
func (s *Store) RevokeAllForUser(ctx context.Context, userID string) error {
	ids, err := s.FamilyIDs(ctx, userID)
	if err != nil {
		return err
	}

	for _, familyID := range ids {
		if err := s.Revoke(ctx, familyID); err != nil {
			return err
		}
	}

	return nil
}

// Ping returns a point-in-time Redis availability check and latency.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return time.Since(start), nil
}
