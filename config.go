package scholarauth

import (
	"errors"
	"time"
)

// JWTConfig controls token signing and lifetimes.
type JWTConfig struct {
	// SigningMethod is "HS256" or "EdDSA".
	SigningMethod string
	// Secret is the HMAC key for HS256, 32 bytes minimum.
	Secret []byte
	// PrivateKey and PublicKey are raw Ed25519 key material for EdDSA.
	PrivateKey []byte
	PublicKey  []byte
	Issuer     string
	Leeway     time.Duration

	AccessTTL  time.Duration
	RefreshTTL time.Duration
	// BlacklistTTL is how long a revoked jti stays on the blacklist. It
	// must be at least the longest token lifetime.
	BlacklistTTL time.Duration
	// RotateRefresh blacklists the presented refresh token before a new
	// pair is issued.
	RotateRefresh bool
}

// LockoutConfig controls brute-force lockout on login.
type LockoutConfig struct {
	Enabled       bool
	Threshold     int
	FailureWindow time.Duration
	LockDuration  time.Duration
}

// RegistrationConfig controls self-service account creation.
type RegistrationConfig struct {
	Enabled bool
	// RequireVerifiedEmail blocks login until the email is verified.
	RequireVerifiedEmail bool
	MinPasswordLength    int
	// AutoLogin issues a token pair on successful registration.
	AutoLogin bool
}

// PasswordResetConfig controls the reset challenge lifecycle.
type PasswordResetConfig struct {
	TTL            time.Duration
	MaxAttempts    int
	ResendCooldown time.Duration
}

// EmailVerificationConfig controls the verification challenge lifecycle.
type EmailVerificationConfig struct {
	Enabled        bool
	TTL            time.Duration
	MaxAttempts    int
	ResendCooldown time.Duration
	// StatusCacheTTL bounds how long a verified-status read may be served
	// from cache without consulting the PrincipalStore.
	StatusCacheTTL time.Duration
}

// PasswordConfig holds Argon2id parameters.
type PasswordConfig struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// CacheConfig controls the cache backend binding.
type CacheConfig struct {
	// KeyPrefix namespaces every key the engine writes, letting several
	// deployments share one Redis.
	KeyPrefix string
	OpTimeout time.Duration
}

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls counter collection.
type MetricsConfig struct {
	Enabled bool
}

// MailConfig controls the outbound email queue.
type MailConfig struct {
	BufferSize  int
	MaxRetries  int
	RetryDelay  time.Duration
	SendTimeout time.Duration
}

// Config is the full engine configuration. Zero values are filled from
// defaultConfig by New; construct through the builder rather than by hand.
type Config struct {
	JWT               JWTConfig
	Lockout           LockoutConfig
	Registration      RegistrationConfig
	PasswordReset     PasswordResetConfig
	EmailVerification EmailVerificationConfig
	Password          PasswordConfig
	Cache             CacheConfig
	Audit             AuditConfig
	Metrics           MetricsConfig
	Mail              MailConfig
}

// DefaultConfig returns the configuration the builder starts from. Callers
// that want to tweak a few knobs can take this, adjust, and pass the result
// to Builder.WithConfig. Signing material must still be supplied before the
// config validates.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			SigningMethod: "HS256",
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    14 * 24 * time.Hour,
			BlacklistTTL:  14 * 24 * time.Hour,
			RotateRefresh: true,
		},
		Lockout: LockoutConfig{
			Enabled:       true,
			Threshold:     5,
			FailureWindow: 30 * time.Minute,
			LockDuration:  15 * time.Minute,
		},
		Registration: RegistrationConfig{
			Enabled:           true,
			MinPasswordLength: 8,
			AutoLogin:         true,
		},
		PasswordReset: PasswordResetConfig{
			TTL:            time.Hour,
			MaxAttempts:    5,
			ResendCooldown: 5 * time.Minute,
		},
		EmailVerification: EmailVerificationConfig{
			Enabled:        true,
			TTL:            72 * time.Hour,
			MaxAttempts:    5,
			ResendCooldown: 5 * time.Minute,
			StatusCacheTTL: time.Hour,
		},
		Password: PasswordConfig{
			Memory:      64 * 1024,
			Time:        2,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		Cache: CacheConfig{
			KeyPrefix: "sa:",
			OpTimeout: 5 * time.Second,
		},
		Audit: AuditConfig{
			BufferSize: 256,
			DropIfFull: true,
		},
		Mail: MailConfig{
			BufferSize:  64,
			MaxRetries:  2,
			RetryDelay:  2 * time.Second,
			SendTimeout: 10 * time.Second,
		},
	}
}

// Validate rejects configurations whose invariants the engine cannot
// uphold at runtime.
func (c *Config) Validate() error {
	if c.JWT.AccessTTL <= 0 || c.JWT.RefreshTTL <= 0 {
		return errors.New("token TTLs must be positive")
	}
	maxLife := c.JWT.AccessTTL
	if c.JWT.RefreshTTL > maxLife {
		maxLife = c.JWT.RefreshTTL
	}
	if c.JWT.BlacklistTTL < maxLife {
		return errors.New("BlacklistTTL must be at least the longest token lifetime")
	}
	if c.Lockout.Enabled {
		if c.Lockout.Threshold <= 0 {
			return errors.New("lockout threshold must be positive")
		}
		if c.Lockout.FailureWindow <= 0 || c.Lockout.LockDuration <= 0 {
			return errors.New("lockout durations must be positive")
		}
	}
	if c.Registration.Enabled && c.Registration.MinPasswordLength < 8 {
		return errors.New("minimum password length must be at least 8")
	}
	if c.PasswordReset.TTL <= 0 {
		return errors.New("password reset TTL must be positive")
	}
	if c.EmailVerification.Enabled && c.EmailVerification.TTL <= 0 {
		return errors.New("email verification TTL must be positive")
	}
	return nil
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.Secret = cloneBytes(cfg.JWT.Secret)
	out.JWT.PrivateKey = cloneBytes(cfg.JWT.PrivateKey)
	out.JWT.PublicKey = cloneBytes(cfg.JWT.PublicKey)
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
