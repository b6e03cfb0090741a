package scholarauth

import (
	"errors"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/DESMOND-77/scholarauth/cache"
	"github.com/DESMOND-77/scholarauth/internal/audit"
	"github.com/DESMOND-77/scholarauth/internal/challenge"
	"github.com/DESMOND-77/scholarauth/internal/lifecycle"
	"github.com/DESMOND-77/scholarauth/internal/lockout"
	"github.com/DESMOND-77/scholarauth/internal/mailer"
	"github.com/DESMOND-77/scholarauth/password"
	"github.com/DESMOND-77/scholarauth/token"
)

// Builder assembles an Engine. A Builder is single-use.
type Builder struct {
	config Config
	redis  redis.UniversalClient
	store  cache.Store

	principals PrincipalStore
	auditSink  AuditSink
	mailSender mailer.Sender
	logger     *log.Logger

	built bool
}

// New returns a Builder seeded with production defaults.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis binds the cache backend. Overridden by WithCache.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithCache binds a custom cache.Store, bypassing the Redis adapter.
func (b *Builder) WithCache(store cache.Store) *Builder {
	b.store = store
	return b
}

func (b *Builder) WithPrincipalStore(store PrincipalStore) *Builder {
	b.principals = store
	return b
}

func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	b.config.Audit.Enabled = true
	return b
}

// WithMailSender binds the delivery backend for verification and reset
// emails. Without one, those emails are silently not sent.
func (b *Builder) WithMailSender(sender MailSender) *Builder {
	b.mailSender = sender
	return b
}

func (b *Builder) WithLogger(logger *log.Logger) *Builder {
	b.logger = logger
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration and wires the engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.principals == nil {
		return nil, errors.New("principal store required")
	}

	store := b.store
	if store == nil {
		if b.redis == nil {
			return nil, errors.New("redis client required")
		}
		store = cache.NewRedis(b.redis, cfg.Cache.OpTimeout)
	}
	store = cache.NewPrefixed(store, cfg.Cache.KeyPrefix)

	hasher, err := password.NewHasher(password.Config{
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
	})
	if err != nil {
		return nil, err
	}

	codec, err := token.NewCodec(token.Config{
		Method:     token.SigningMethod(cfg.JWT.SigningMethod),
		Secret:     cloneBytes(cfg.JWT.Secret),
		PrivateKey: cloneBytes(cfg.JWT.PrivateKey),
		PublicKey:  cloneBytes(cfg.JWT.PublicKey),
		Issuer:     cfg.JWT.Issuer,
		Leeway:     cfg.JWT.Leeway,
	})
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config:     cfg,
		store:      store,
		principals: b.principals,
		hasher:     hasher,
		codec:      codec,
		logger:     b.logger,
	}

	engine.tokens = lifecycle.New(codec, store, principalSource{principals: b.principals}, lifecycle.Config{
		AccessTTL:     cfg.JWT.AccessTTL,
		RefreshTTL:    cfg.JWT.RefreshTTL,
		BlacklistTTL:  cfg.JWT.BlacklistTTL,
		RotateRefresh: cfg.JWT.RotateRefresh,
	}, engine.warnf)

	engine.guard = lockout.New(store, lockout.Config{
		Enabled:       cfg.Lockout.Enabled,
		Threshold:     cfg.Lockout.Threshold,
		FailureWindow: cfg.Lockout.FailureWindow,
		LockDuration:  cfg.Lockout.LockDuration,
	})

	engine.resetChallenges = challenge.New(store, challenge.Config{
		Prefix:      "apr:",
		TTL:         cfg.PasswordReset.TTL,
		MaxAttempts: cfg.PasswordReset.MaxAttempts,
		Cooldown:    cfg.PasswordReset.ResendCooldown,
	})
	engine.verifyChallenges = challenge.New(store, challenge.Config{
		Prefix:      "aev:",
		TTL:         cfg.EmailVerification.TTL,
		MaxAttempts: cfg.EmailVerification.MaxAttempts,
		Cooldown:    cfg.EmailVerification.ResendCooldown,
	})

	engine.audit = audit.NewDispatcher(audit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, b.auditSink)

	engine.mail = mailer.NewDispatcher(mailer.Config{
		BufferSize:  cfg.Mail.BufferSize,
		MaxRetries:  cfg.Mail.MaxRetries,
		RetryDelay:  cfg.Mail.RetryDelay,
		SendTimeout: cfg.Mail.SendTimeout,
	}, b.mailSender, engine.warnf)

	engine.metrics = NewMetrics(cfg.Metrics)

	b.built = true
	return engine, nil
}
