package authcore

import (
	"errors"
	"fmt"
	"time"

	"github.com/veldt-labs/authcore/jwt"
	"github.com/veldt-labs/authcore/password"
)

// JWTConfig configures the token codec.
type JWTConfig struct {
	// Secret is the HS256 signing key. Minimum 32 bytes.
	Secret []byte
	// Issuer, when set, is stamped into and required from every token.
	Issuer string
	// AccessTTL is the access-token lifetime. Default 7 days.
	AccessTTL time.Duration
	// RefreshTTL is the refresh-token and session-family lifetime.
	// Default 30 days.
	RefreshTTL time.Duration
	// Leeway is the clock-skew tolerance applied to time claims. 0 to 2
	// minutes.
	Leeway time.Duration
}

// PasswordConfig configures credential hashing.
type PasswordConfig struct {
	// Cost is the bcrypt work factor. Values below 10 are raised to 10.
	Cost int
}

// RotationConfig configures the Redis rotation state store.
type RotationConfig struct {
	// RedisPrefix namespaces every key the store writes.
	RedisPrefix string
}

// EventsConfig configures the async operation-event dispatcher.
type EventsConfig struct {
	Enabled    bool
	BufferSize int
	// DropIfFull discards events instead of blocking Engine operations when
	// the buffer is full. Drops are counted and reported by
	// [Engine.EventsDropped].
	DropIfFull bool
}

// MetricsConfig enables the in-process operation counters.
type MetricsConfig struct {
	Enabled bool
}

// Config is the full engine configuration. Construct with [DefaultConfig] and
// override fields; Build copies it, so post-Build mutation has no effect.
type Config struct {
	JWT      JWTConfig
	Password PasswordConfig
	Rotation RotationConfig
	Events   EventsConfig
	Metrics  MetricsConfig
}

// DefaultConfig returns the baseline configuration. The signing secret has no
// default and must be supplied.
func DefaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTTL:  7 * 24 * time.Hour,
			RefreshTTL: 30 * 24 * time.Hour,
		},
		Password: PasswordConfig{
			Cost: 12,
		},
		Rotation: RotationConfig{
			RedisPrefix: "ac",
		},
		Events: EventsConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Validate reports the first configuration problem found.
func (c Config) Validate() error {
	if len(c.JWT.Secret) < jwt.MinSecretBytes {
		return fmt.Errorf("jwt secret must be at least %d bytes", jwt.MinSecretBytes)
	}
	if c.JWT.AccessTTL <= 0 {
		return errors.New("access ttl must be positive")
	}
	if c.JWT.RefreshTTL <= 0 {
		return errors.New("refresh ttl must be positive")
	}
	if c.JWT.Leeway < 0 || c.JWT.Leeway > 2*time.Minute {
		return errors.New("leeway must be between 0 and 2 minutes")
	}
	if c.Password.Cost < password.MinCost {
		return fmt.Errorf("password cost must be at least %d", password.MinCost)
	}
	if c.Rotation.RedisPrefix == "" {
		return errors.New("redis prefix must not be empty")
	}
	return nil
}

func cloneConfig(c Config) Config {
	out := c
	out.JWT.Secret = cloneBytes(c.JWT.Secret)
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
