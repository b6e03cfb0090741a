package scholarauth

import (
	"context"
	"errors"
	"net/http"

	"github.com/DESMOND-77/scholarauth/internal/audit"
	"github.com/DESMOND-77/scholarauth/internal/lifecycle"
	"github.com/DESMOND-77/scholarauth/internal/lockout"
)

// LoginInput carries the credentials for Login.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates an email/password pair and issues a token pair.
//
// Unknown accounts and wrong passwords both produce ErrInvalidCredentials
// and both count toward the lockout threshold, so a caller cannot probe
// which emails exist. The failure that crosses the threshold, and every
// attempt while the lock holds, answers ErrAccountLocked regardless of
// whether the password was correct.
func (e *Engine) Login(ctx context.Context, in LoginInput) Result {
	if !e.ready() {
		return failure(ErrEngineNotReady)
	}
	email := canonicalEmail(in.Email)
	if email == "" || in.Password == "" {
		return failure(ErrInvalidCredentials)
	}

	if e.isLocked(ctx, email) {
		return e.loginLocked(ctx, email)
	}

	p, err := e.principals.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return e.loginFailed(ctx, email)
		}
		e.warnf("scholarauth: principal lookup for login failed: %v", err)
		return failure(err)
	}

	ok, err := e.hasher.Verify(in.Password, p.CredentialHash)
	if err != nil {
		e.warnf("scholarauth: credential verify for user %s failed: %v", p.ID, err)
		return failure(err)
	}
	if !ok {
		return e.loginFailed(ctx, email)
	}

	if !p.IsActive {
		e.metrics.Inc(MetricLoginFailure)
		e.emit(ctx, AuditEvent{EventType: audit.TypeLoginFailure, UserID: p.ID, Error: ErrAccountDisabled.Error()})
		return failure(ErrAccountDisabled)
	}
	if e.config.Registration.RequireVerifiedEmail && !p.IsVerified {
		e.metrics.Inc(MetricLoginFailure)
		e.emit(ctx, AuditEvent{EventType: audit.TypeLoginFailure, UserID: p.ID, Error: ErrAccountUnverified.Error()})
		return failure(ErrAccountUnverified)
	}

	if err := e.guard.Reset(ctx, email); err != nil {
		e.warnf("scholarauth: clearing lockout state for %s failed: %v", p.ID, err)
	}

	pair, err := e.tokens.IssuePair(ctx, subjectFromPrincipal(p))
	if err != nil {
		e.warnf("scholarauth: token issuance for user %s failed: %v", p.ID, err)
		return failure(err)
	}

	e.maybeRehash(ctx, p, in.Password)

	e.metrics.Inc(MetricLoginSuccess)
	e.emit(ctx, AuditEvent{EventType: audit.TypeLoginSuccess, UserID: p.ID, Success: true})
	return success(http.StatusOK, "login successful", pair)
}

func (e *Engine) isLocked(ctx context.Context, email string) bool {
	locked, err := e.guard.IsLocked(ctx, email)
	if err != nil {
		// A cache outage must not take login down with it.
		e.warnf("scholarauth: lockout check unavailable, proceeding unlocked: %v", err)
		return false
	}
	return locked
}

func (e *Engine) loginLocked(ctx context.Context, email string) Result {
	e.metrics.Inc(MetricLoginLocked)
	e.emit(ctx, AuditEvent{EventType: audit.TypeLoginLocked, Email: email, Error: ErrAccountLocked.Error()})
	return failureWithData(ErrAccountLocked, map[string]any{"locked": true})
}

func (e *Engine) loginFailed(ctx context.Context, email string) Result {
	status, err := e.guard.RecordFailure(ctx, email)
	if err != nil {
		e.warnf("scholarauth: recording login failure unavailable: %v", err)
		status = lockout.Status{}
	}
	if status.Locked {
		return e.loginLocked(ctx, email)
	}
	e.metrics.Inc(MetricLoginFailure)
	e.emit(ctx, AuditEvent{EventType: audit.TypeLoginFailure, Email: email, Error: ErrInvalidCredentials.Error()})
	return failure(ErrInvalidCredentials)
}

// maybeRehash upgrades the stored hash when parameters have strengthened
// since it was written. Best effort: the login already succeeded.
func (e *Engine) maybeRehash(ctx context.Context, p *Principal, plaintext string) {
	needs, err := e.hasher.NeedsRehash(p.CredentialHash)
	if err != nil || !needs {
		return
	}
	rehashed, err := e.hasher.Hash(plaintext)
	if err != nil {
		return
	}
	if err := e.principals.UpdateCredential(ctx, p.ID, rehashed); err != nil {
		e.warnf("scholarauth: credential rehash for user %s failed: %v", p.ID, err)
	}
}

func subjectFromPrincipal(p *Principal) lifecycle.Subject {
	return lifecycle.Subject{
		ID:         p.ID,
		Email:      p.Email,
		IsStaff:    p.IsStaff,
		IsVerified: p.IsVerified,
		IsActive:   p.IsActive,
	}
}
