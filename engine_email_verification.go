package scholarauth

import (
	"context"
	"errors"
	"net/http"

	"github.com/DESMOND-77/scholarauth/cache"
	"github.com/DESMOND-77/scholarauth/internal/audit"
	"github.com/DESMOND-77/scholarauth/internal/challenge"
)

const verificationRequestedMessage = "if the account exists, a verification email has been sent"

func verifiedStatusKey(userID string) string {
	return "avs:" + userID
}

// RequestEmailVerification mints a verification challenge and queues the
// email. Like password reset requests, the response never reveals whether
// the account exists or is already verified.
func (e *Engine) RequestEmailVerification(ctx context.Context, email string) Result {
	if !e.ready() {
		return failure(ErrEngineNotReady)
	}
	if !e.config.EmailVerification.Enabled {
		return failure(ErrEmailVerificationDisabled)
	}
	email = canonicalEmail(email)

	p, err := e.principals.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			e.warnf("scholarauth: principal lookup for verification failed: %v", err)
		}
		return success(http.StatusOK, verificationRequestedMessage, nil)
	}
	if p.IsVerified {
		return success(http.StatusOK, verificationRequestedMessage, nil)
	}

	e.sendVerification(ctx, p)
	return success(http.StatusOK, verificationRequestedMessage, nil)
}

// ConfirmEmailVerification consumes the challenge and marks the account
// verified. Confirming an already-verified account succeeds idempotently
// as long as the token itself is still valid.
func (e *Engine) ConfirmEmailVerification(ctx context.Context, tokenStr string) Result {
	if !e.ready() {
		return failure(ErrEngineNotReady)
	}
	if !e.config.EmailVerification.Enabled {
		return failure(ErrEmailVerificationDisabled)
	}

	subjectID, err := e.verifyChallenges.Consume(ctx, tokenStr)
	if err != nil {
		e.metrics.Inc(MetricVerificationFailure)
		switch {
		case errors.Is(err, challenge.ErrAttemptsExceeded):
			return failure(ErrEmailVerificationAttempts)
		case errors.Is(err, challenge.ErrInvalid):
			return failure(ErrEmailVerificationInvalid)
		default:
			e.warnf("scholarauth: consuming verification challenge failed: %v", err)
			return failure(err)
		}
	}

	if err := e.principals.MarkVerified(ctx, subjectID); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return failure(ErrEmailVerificationInvalid)
		}
		e.warnf("scholarauth: marking user %s verified failed: %v", subjectID, err)
		return failure(err)
	}
	e.cacheVerifiedStatus(ctx, subjectID, true)

	e.metrics.Inc(MetricVerificationSuccess)
	e.emit(ctx, AuditEvent{EventType: audit.TypeVerifyConfirm, UserID: subjectID, Success: true})
	return success(http.StatusOK, "email verified", map[string]any{"user_id": subjectID})
}

// IsVerified reports the account's verification state, served from cache
// when a recent answer is available. Staleness is bounded by
// EmailVerification.StatusCacheTTL; a confirm on this node refreshes the
// entry immediately.
func (e *Engine) IsVerified(ctx context.Context, userID string) (bool, error) {
	if !e.ready() {
		return false, ErrEngineNotReady
	}

	if v, err := e.store.Get(ctx, verifiedStatusKey(userID)); err == nil {
		return v == "1", nil
	} else if !errors.Is(err, cache.ErrMiss) {
		e.warnf("scholarauth: verified-status cache read failed: %v", err)
	}

	p, err := e.principals.FindByID(ctx, userID)
	if err != nil {
		return false, err
	}
	e.cacheVerifiedStatus(ctx, userID, p.IsVerified)
	return p.IsVerified, nil
}

func (e *Engine) cacheVerifiedStatus(ctx context.Context, userID string, verified bool) {
	ttl := e.config.EmailVerification.StatusCacheTTL
	if ttl <= 0 {
		return
	}
	v := "0"
	if verified {
		v = "1"
	}
	if err := e.store.Set(ctx, verifiedStatusKey(userID), v, ttl); err != nil {
		e.warnf("scholarauth: verified-status cache write failed: %v", err)
	}
}
