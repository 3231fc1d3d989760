package fastauth

import (
	"time"
)

// Config collects every tunable of the engine. Construct it, adjust fields,
// and hand it to the builder; it is cloned on Build and immutable after.
type Config struct {
	Token      TokenConfig
	Password   PasswordConfig
	Authz      AuthzConfig
	RateLimit  RateLimitConfig
	Revocation RevocationConfig
	Audit      AuditConfig
	Metrics    MetricsConfig

	// Clock is the injected time source for issuance and expiry. Nil means
	// time.Now.
	Clock Clock
}

// TokenConfig holds signing and lifetime parameters for both token kinds.
type TokenConfig struct {
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	SigningMethod string // "hs256" (default) or "ed25519"
	Secret        []byte // hs256 shared secret
	PrivateKey    []byte // ed25519 private key (raw or PEM)
	PublicKey     []byte // ed25519 public key (raw or PEM)
	Issuer        string
	// Leeway is the explicit clock-skew grace window applied on verify.
	// Zero means strict comparison; at most two minutes.
	Leeway time.Duration
}

// PasswordConfig holds the argon2id cost parameters.
type PasswordConfig struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
	// UpgradeOnLogin rehashes stored credentials during login when the
	// stored hash is weaker than the current parameters. Requires the user
	// store to implement [CredentialUpdater]; ignored otherwise.
	UpgradeOnLogin bool
}

// AuthzConfig holds authorization policy parameters.
type AuthzConfig struct {
	// AdminRoles is the role set whose members pass the IsAdmin check.
	// Membership in any one of them suffices.
	AdminRoles []string
}

// RateLimitConfig holds Redis-backed throttle parameters for login and
// refresh. All throttling is off unless Enabled is set.
type RateLimitConfig struct {
	Enabled                 bool
	EnableIPThrottle        bool
	EnableRefreshThrottle   bool
	MaxLoginAttempts        int
	LoginCooldownDuration   time.Duration
	MaxRefreshAttempts      int
	RefreshCooldownDuration time.Duration
}

// RevocationConfig controls the Redis token denylist. When disabled, Revoke
// returns an error and verification never consults Redis.
type RevocationConfig struct {
	Enabled bool
}

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls the in-process metrics counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the configuration the builder starts from. Hosts
// take it, set the signing secret and whatever else differs, and pass the
// result to [Builder.WithConfig].
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Token: TokenConfig{
			AccessTTL:     30 * time.Minute,
			RefreshTTL:    7 * 24 * time.Hour,
			SigningMethod: "hs256",
		},
		Password: PasswordConfig{
			Memory:         65536,
			Time:           3,
			Parallelism:    2,
			SaltLength:     16,
			KeyLength:      32,
			UpgradeOnLogin: true,
		},
		Authz: AuthzConfig{
			AdminRoles: []string{"admin", "superadmin"},
		},
		RateLimit: RateLimitConfig{
			Enabled:                 false,
			EnableIPThrottle:        true,
			EnableRefreshThrottle:   true,
			MaxLoginAttempts:        5,
			LoginCooldownDuration:   15 * time.Minute,
			MaxRefreshAttempts:      20,
			RefreshCooldownDuration: 1 * time.Minute,
		},
		Revocation: RevocationConfig{
			Enabled: false,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.Secret = cloneBytes(cfg.Token.Secret)
	out.Token.PrivateKey = cloneBytes(cfg.Token.PrivateKey)
	out.Token.PublicKey = cloneBytes(cfg.Token.PublicKey)
	out.Authz.AdminRoles = append([]string(nil), cfg.Authz.AdminRoles...)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// Validate checks the configuration for structural errors. Every violation
// is reported as [ErrConfigInvalid] with a field-level detail; nothing is
// deferred to request time.
func (c *Config) Validate() error {
	// Token
	if c.Token.AccessTTL <= 0 {
		return configInvalid("Token AccessTTL must be > 0")
	}
	if c.Token.RefreshTTL <= 0 {
		return configInvalid("Token RefreshTTL must be > 0")
	}
	if c.Token.AccessTTL > c.Token.RefreshTTL {
		return configInvalid("Token AccessTTL must not exceed RefreshTTL")
	}

	switch c.Token.SigningMethod {
	case "hs256":
		if len(c.Token.Secret) == 0 {
			return configInvalid("hs256 requires Secret")
		}
	case "ed25519":
		if len(c.Token.PrivateKey) == 0 {
			return configInvalid("ed25519 requires PrivateKey")
		}
		if len(c.Token.PublicKey) == 0 {
			return configInvalid("ed25519 requires PublicKey")
		}
	default:
		return configInvalid("unsupported token signing method")
	}

	if c.Token.Leeway < 0 {
		return configInvalid("Token Leeway must be >= 0")
	}
	if c.Token.Leeway > 2*time.Minute {
		return configInvalid("Token Leeway must be <= 2m")
	}

	// Password
	if c.Password.Memory < 8*1024 {
		return configInvalid("Password Memory must be >= 8192 KB")
	}
	if c.Password.Time < 1 {
		return configInvalid("Password Time must be >= 1")
	}
	if c.Password.Parallelism < 1 {
		return configInvalid("Password Parallelism must be >= 1")
	}
	if c.Password.SaltLength < 16 {
		return configInvalid("Password SaltLength must be >= 16")
	}
	if c.Password.KeyLength < 16 {
		return configInvalid("Password KeyLength must be >= 16")
	}

	// Authz
	if len(c.Authz.AdminRoles) == 0 {
		return configInvalid("Authz AdminRoles must not be empty")
	}
	for _, role := range c.Authz.AdminRoles {
		if role == "" {
			return configInvalid("Authz AdminRoles must not contain empty names")
		}
	}

	// Rate limiting
	if c.RateLimit.Enabled {
		if c.RateLimit.MaxLoginAttempts <= 0 {
			return configInvalid("RateLimit MaxLoginAttempts must be > 0")
		}
		if c.RateLimit.LoginCooldownDuration <= 0 {
			return configInvalid("RateLimit LoginCooldownDuration must be > 0")
		}
		if c.RateLimit.EnableRefreshThrottle {
			if c.RateLimit.MaxRefreshAttempts <= 0 {
				return configInvalid("RateLimit MaxRefreshAttempts must be > 0 when refresh throttle is enabled")
			}
			if c.RateLimit.RefreshCooldownDuration <= 0 {
				return configInvalid("RateLimit RefreshCooldownDuration must be > 0 when refresh throttle is enabled")
			}
		}
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return configInvalid("Audit BufferSize must be > 0 when audit is enabled")
	}

	return nil
}
