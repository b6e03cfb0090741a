package scholarauth

import (
	"context"
	"errors"
	"net/http"

	"github.com/DESMOND-77/scholarauth/internal/audit"
	"github.com/DESMOND-77/scholarauth/internal/challenge"
	"github.com/DESMOND-77/scholarauth/internal/mailer"
)

const resetRequestedMessage = "if the account exists, a reset email has been sent"

// RequestPasswordReset mints a reset challenge and queues the email. The
// response is identical whether or not the account exists, and whether or
// not the resend cooldown suppressed a new challenge.
func (e *Engine) RequestPasswordReset(ctx context.Context, email string) Result {
	if !e.ready() {
		return failure(ErrEngineNotReady)
	}
	email = canonicalEmail(email)

	e.metrics.Inc(MetricPasswordResetRequest)
	e.emit(ctx, AuditEvent{EventType: audit.TypeResetRequest, Email: email, Success: true})

	p, err := e.principals.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			e.warnf("scholarauth: principal lookup for reset failed: %v", err)
		}
		return success(http.StatusOK, resetRequestedMessage, nil)
	}

	tok, err := e.resetChallenges.Create(ctx, p.ID, email)
	if err != nil {
		if !errors.Is(err, challenge.ErrCooldown) {
			e.warnf("scholarauth: creating reset challenge for user %s failed: %v", p.ID, err)
		}
		return success(http.StatusOK, resetRequestedMessage, nil)
	}

	e.mail.Enqueue(mailer.Job{
		Kind:        mailer.KindPasswordReset,
		PrincipalID: p.ID,
		Email:       email,
		Token:       tok,
	})
	return success(http.StatusOK, resetRequestedMessage, nil)
}

// ConfirmPasswordReset consumes the challenge, installs the new
// credential, and revokes every outstanding refresh token for the account.
func (e *Engine) ConfirmPasswordReset(ctx context.Context, tokenStr, newPassword string) Result {
	if !e.ready() {
		return failure(ErrEngineNotReady)
	}
	if len(newPassword) < e.config.Registration.MinPasswordLength {
		return failure(ErrPasswordPolicy)
	}

	subjectID, err := e.resetChallenges.Consume(ctx, tokenStr)
	if err != nil {
		e.metrics.Inc(MetricPasswordResetFailure)
		switch {
		case errors.Is(err, challenge.ErrAttemptsExceeded):
			return failure(ErrPasswordResetAttempts)
		case errors.Is(err, challenge.ErrInvalid):
			return failure(ErrPasswordResetInvalid)
		default:
			e.warnf("scholarauth: consuming reset challenge failed: %v", err)
			return failure(err)
		}
	}

	p, err := e.principals.FindByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			// The account vanished between challenge and confirm.
			return failure(ErrPasswordResetInvalid)
		}
		e.warnf("scholarauth: principal lookup for reset confirm failed: %v", err)
		return failure(err)
	}

	if r := e.installCredential(ctx, p, newPassword); r.Err != nil {
		return r
	}

	e.metrics.Inc(MetricPasswordResetConfirm)
	e.emit(ctx, AuditEvent{EventType: audit.TypeResetConfirm, UserID: subjectID, Success: true})
	return success(http.StatusOK, "password reset", nil)
}

// ChangePassword rotates the credential for an authenticated user after
// re-verifying the current password. All other sessions are revoked.
func (e *Engine) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) Result {
	if !e.ready() {
		return failure(ErrEngineNotReady)
	}

	p, err := e.principals.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return failure(ErrUserNotFound)
		}
		e.warnf("scholarauth: principal lookup for password change failed: %v", err)
		return failure(err)
	}

	ok, err := e.hasher.Verify(oldPassword, p.CredentialHash)
	if err != nil {
		e.warnf("scholarauth: credential verify for user %s failed: %v", p.ID, err)
		return failure(err)
	}
	if !ok {
		return failure(ErrInvalidCredentials)
	}
	if newPassword == oldPassword {
		return failure(ErrPasswordReuse)
	}
	if len(newPassword) < e.config.Registration.MinPasswordLength {
		return failure(ErrPasswordPolicy)
	}

	if r := e.installCredential(ctx, p, newPassword); r.Err != nil {
		return r
	}

	e.metrics.Inc(MetricPasswordChange)
	e.emit(ctx, AuditEvent{EventType: audit.TypePasswordChange, UserID: p.ID, Success: true})
	return success(http.StatusOK, "password changed", nil)
}

// installCredential hashes, stores, and contains: any refresh token minted
// under the old password must be dead before this returns.
func (e *Engine) installCredential(ctx context.Context, p *Principal, plaintext string) Result {
	hash, err := e.hasher.Hash(plaintext)
	if err != nil {
		e.warnf("scholarauth: hashing new credential failed: %v", err)
		return failure(err)
	}
	if err := e.principals.UpdateCredential(ctx, p.ID, hash); err != nil {
		e.warnf("scholarauth: storing new credential for user %s failed: %v", p.ID, err)
		return failure(err)
	}

	if n, err := e.tokens.BlacklistAllForUser(ctx, p.ID); err != nil {
		e.warnf("scholarauth: revoking sessions for user %s failed after %d revocations: %v", p.ID, n, err)
		return failure(ErrCacheUnavailable)
	}

	if err := e.guard.Reset(ctx, p.Email); err != nil {
		e.warnf("scholarauth: clearing lockout state for user %s failed: %v", p.ID, err)
	}
	return Result{}
}
