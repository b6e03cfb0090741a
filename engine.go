package scholarauth

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/DESMOND-77/scholarauth/cache"
	"github.com/DESMOND-77/scholarauth/internal/audit"
	"github.com/DESMOND-77/scholarauth/internal/challenge"
	"github.com/DESMOND-77/scholarauth/internal/lifecycle"
	"github.com/DESMOND-77/scholarauth/internal/lockout"
	"github.com/DESMOND-77/scholarauth/internal/mailer"
	"github.com/DESMOND-77/scholarauth/password"
	"github.com/DESMOND-77/scholarauth/token"
)

// Engine is the authentication backend. Build one through the Builder;
// a zero Engine rejects every operation with ErrEngineNotReady.
//
// All operations are safe for concurrent use and return a Result envelope
// rather than bare errors, so HTTP handlers can serialize them directly.
type Engine struct {
	config     Config
	store      cache.Store
	principals PrincipalStore

	hasher *password.Hasher
	codec  *token.Codec
	tokens *lifecycle.Manager
	guard  *lockout.Guard

	resetChallenges  *challenge.Store
	verifyChallenges *challenge.Store

	audit   *audit.Dispatcher
	mail    *mailer.Dispatcher
	metrics *Metrics
	logger  *log.Logger
}

func (e *Engine) ready() bool {
	return e != nil && e.store != nil && e.principals != nil && e.tokens != nil
}

func (e *Engine) warnf(format string, args ...any) {
	if e == nil || e.logger == nil {
		log.Printf(format, args...)
		return
	}
	e.logger.Printf(format, args...)
}

// emit stamps the event and hands it to the async audit dispatcher. Safe
// to call with auditing disabled.
func (e *Engine) emit(ctx context.Context, event AuditEvent) {
	if e == nil || e.audit == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	e.audit.Emit(ctx, event)
}

// MetricsSnapshot returns a point-in-time copy of the engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return e.metrics.Snapshot()
}

// AuditDropped reports audit events discarded under backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}

// Ping reports whether the cache backend is reachable.
func (e *Engine) Ping(ctx context.Context) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	return e.store.Ping(ctx)
}

// Close drains the audit and mail dispatchers. The engine must not be
// used after Close.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.audit.Close()
	e.mail.Close()
}

// canonicalEmail normalizes an identifier before any lookup, hashing, or
// storage so that case and whitespace variants map to one account.
func canonicalEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// principalSource adapts the host's PrincipalStore to the token layer.
type principalSource struct {
	principals PrincipalStore
}

func (s principalSource) FindSubject(ctx context.Context, id string) (*lifecycle.Subject, error) {
	p, err := s.principals.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &lifecycle.Subject{
		ID:         p.ID,
		Email:      p.Email,
		IsStaff:    p.IsStaff,
		IsVerified: p.IsVerified,
		IsActive:   p.IsActive,
	}, nil
}
