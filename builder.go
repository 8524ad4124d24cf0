package authcore

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/veldt-labs/authcore/internal/oplog"
	"github.com/veldt-labs/authcore/jwt"
	"github.com/veldt-labs/authcore/password"
	"github.com/veldt-labs/authcore/rotation"
)

// Builder assembles an [Engine]. Redis and a [UserDirectory] are required;
// everything else defaults through [DefaultConfig].
//
//	engine, err := authcore.New().
//		WithConfig(cfg).
//		WithRedis(client).
//		WithDirectory(dir).
//		Build()
type Builder struct {
	config    Config
	redis     redis.UniversalClient
	directory UserDirectory
	eventSink EventSink
	built     bool
}

// New returns a Builder preloaded with [DefaultConfig].
func New() *Builder {
	return &Builder{config: DefaultConfig()}
}

// WithConfig replaces the entire configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithRedis sets the Redis client backing the rotation state store.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithDirectory sets the user credential directory.
func (b *Builder) WithDirectory(dir UserDirectory) *Builder {
	b.directory = dir
	return b
}

// WithEventSink sets the sink receiving operation events. Ignored when events
// are disabled in the configuration.
func (b *Builder) WithEventSink(sink EventSink) *Builder {
	b.eventSink = sink
	return b
}

// Build validates the configuration and constructs the Engine. A Builder can
// build at most once.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, fmt.Errorf("%w: builder already used", ErrEngineNotReady)
	}
	if b.redis == nil {
		return nil, fmt.Errorf("%w: redis client is required", ErrEngineNotReady)
	}
	if b.directory == nil {
		return nil, fmt.Errorf("%w: user directory is required", ErrEngineNotReady)
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEngineNotReady, err)
	}

	jwtManager, err := jwt.NewManager(jwt.Config{
		Secret:     cfg.JWT.Secret,
		Issuer:     cfg.JWT.Issuer,
		AccessTTL:  cfg.JWT.AccessTTL,
		RefreshTTL: cfg.JWT.RefreshTTL,
		Leeway:     cfg.JWT.Leeway,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEngineNotReady, err)
	}

	hasher, err := password.NewHasher(cfg.Password.Cost)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEngineNotReady, err)
	}

	// Hash of a throwaway random value, verified against when Login hits an
	// unknown email so both failure paths pay one bcrypt comparison.
	decoyHash, err := hasher.Hash(uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEngineNotReady, err)
	}

	events := oplog.NewDispatcher(oplog.Config{
		Enabled:    cfg.Events.Enabled,
		BufferSize: cfg.Events.BufferSize,
		DropIfFull: cfg.Events.DropIfFull,
	}, b.eventSink)

	b.built = true

	return &Engine{
		config:       cfg,
		store:        rotation.NewStore(b.redis, cfg.Rotation.RedisPrefix),
		jwtManager:   jwtManager,
		passwordHash: hasher,
		directory:    b.directory,
		events:       events,
		metrics:      NewMetrics(cfg.Metrics.Enabled),
		decoyHash:    decoyHash,
	}, nil
}
