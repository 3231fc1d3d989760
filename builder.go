package fastauth

import (
	"time"

	internalaudit "github.com/fastauth/fastauth/internal/audit"
	internalmetrics "github.com/fastauth/fastauth/internal/metrics"
	"github.com/fastauth/fastauth/internal/rate"
	"github.com/fastauth/fastauth/internal/revocation"
	"github.com/fastauth/fastauth/password"
	"github.com/fastauth/fastauth/token"
	"github.com/redis/go-redis/v9"
)

// Builder assembles an [Engine] from configuration and collaborators. A
// builder is single-use: Build consumes it.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	userStore UserStore
	roleStore RoleStore
	auditSink AuditSink

	built bool
}

// New returns a builder seeded with the default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the entire configuration. The config is cloned; later
// mutation of cfg by the caller does not affect the builder.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithUserStore sets the identity-lookup collaborator. Required.
func (b *Builder) WithUserStore(store UserStore) *Builder {
	b.userStore = store
	return b
}

// WithRoleStore sets the role-lookup collaborator. Required only when role
// operations are used; an engine without one rejects role checks.
func (b *Builder) WithRoleStore(store RoleStore) *Builder {
	b.roleStore = store
	return b
}

// WithRedis sets the Redis client backing rate limiting and revocation.
// Required only when either of those features is enabled.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithAuditSink sets the sink receiving audit events. Only consulted when
// audit is enabled in the configuration.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles the in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the verify-latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration, wires the collaborators, and returns a
// ready engine. All misconfiguration surfaces here as [ErrConfigInvalid];
// nothing is deferred to request time.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, configInvalid("builder already used")
	}

	cfg := cloneConfig(b.config)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.userStore == nil {
		return nil, configInvalid("user store required")
	}
	if b.redis == nil {
		if cfg.RateLimit.Enabled {
			return nil, configInvalid("rate limiting requires a redis client")
		}
		if cfg.Revocation.Enabled {
			return nil, configInvalid("revocation requires a redis client")
		}
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	codec, err := token.NewCodec(token.Config{
		SigningMethod: token.SigningMethod(cfg.Token.SigningMethod),
		Secret:        cloneBytes(cfg.Token.Secret),
		PrivateKey:    cloneBytes(cfg.Token.PrivateKey),
		PublicKey:     cloneBytes(cfg.Token.PublicKey),
		Issuer:        cfg.Token.Issuer,
		Leeway:        cfg.Token.Leeway,
		TimeFunc:      clock,
	})
	if err != nil {
		return nil, configInvalid(err.Error())
	}

	hasher, err := password.NewHasher(password.Config{
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
	})
	if err != nil {
		return nil, configInvalid(err.Error())
	}

	engine := &Engine{
		config: cfg,
		clock:  clock,
		codec:  codec,
		hasher: hasher,
		users:  b.userStore,
		roles:  b.roleStore,
		metrics: internalmetrics.New(internalmetrics.Config{
			Enabled:       cfg.Metrics.Enabled,
			EnableLatency: cfg.Metrics.EnableLatencyHistograms,
		}),
		audit: internalaudit.NewDispatcher(internalaudit.Config{
			Enabled:    cfg.Audit.Enabled,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
		}, b.auditSink),
	}

	if cfg.RateLimit.Enabled {
		engine.limiter = rate.New(b.redis, rate.Config{
			EnableIPThrottle:        cfg.RateLimit.EnableIPThrottle,
			EnableRefreshThrottle:   cfg.RateLimit.EnableRefreshThrottle,
			MaxLoginAttempts:        cfg.RateLimit.MaxLoginAttempts,
			LoginCooldownDuration:   cfg.RateLimit.LoginCooldownDuration,
			MaxRefreshAttempts:      cfg.RateLimit.MaxRefreshAttempts,
			RefreshCooldownDuration: cfg.RateLimit.RefreshCooldownDuration,
		})
	}
	if cfg.Revocation.Enabled {
		engine.revocations = revocation.New(b.redis, clock)
	}

	b.built = true

	return engine, nil
}
