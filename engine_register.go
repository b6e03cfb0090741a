package scholarauth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/DESMOND-77/scholarauth/internal/audit"
	"github.com/DESMOND-77/scholarauth/internal/challenge"
	"github.com/DESMOND-77/scholarauth/internal/mailer"
)

// RegisterInput carries the fields for account creation.
type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterOutput is the payload of a successful registration. Tokens is
// nil when AutoLogin is disabled or verification must happen first.
type RegisterOutput struct {
	User   *Principal `json:"user"`
	Tokens *TokenPair `json:"tokens,omitempty"`
}

// Register creates an account and, when verification is enabled, queues a
// verification email. Email delivery trouble never fails the registration.
func (e *Engine) Register(ctx context.Context, in RegisterInput) Result {
	if !e.ready() {
		return failure(ErrEngineNotReady)
	}
	if !e.config.Registration.Enabled {
		return failure(ErrRegistrationDisabled)
	}

	email := canonicalEmail(in.Email)
	if !plausibleEmail(email) {
		return failure(ErrEmailInvalid)
	}
	if len(in.Password) < e.config.Registration.MinPasswordLength {
		return failure(ErrPasswordPolicy)
	}

	hash, err := e.hasher.Hash(in.Password)
	if err != nil {
		e.warnf("scholarauth: hashing registration password failed: %v", err)
		return failure(err)
	}

	p := &Principal{
		ID:             uuid.NewString(),
		Email:          email,
		CredentialHash: hash,
		IsActive:       true,
		IsVerified:     !e.config.EmailVerification.Enabled,
	}
	if err := e.principals.Create(ctx, p); err != nil {
		if errors.Is(err, ErrAccountExists) {
			e.metrics.Inc(MetricRegisterDuplicate)
			e.emit(ctx, AuditEvent{EventType: audit.TypeRegisterDuplicate, Email: email, Error: ErrAccountExists.Error()})
			return failure(ErrAccountExists)
		}
		e.warnf("scholarauth: creating account failed: %v", err)
		return failure(err)
	}

	if e.config.EmailVerification.Enabled {
		e.sendVerification(ctx, p)
	}

	out := RegisterOutput{User: p}
	if e.config.Registration.AutoLogin {
		pair, err := e.tokens.IssuePair(ctx, subjectFromPrincipal(p))
		if err != nil {
			// The account exists; report it without tokens.
			e.warnf("scholarauth: post-registration token issuance failed: %v", err)
		} else {
			out.Tokens = pair
		}
	}

	e.metrics.Inc(MetricRegisterSuccess)
	e.emit(ctx, AuditEvent{EventType: audit.TypeRegisterSuccess, UserID: p.ID, Success: true})
	return success(http.StatusCreated, "account created", out)
}

func (e *Engine) sendVerification(ctx context.Context, p *Principal) {
	tok, err := e.verifyChallenges.Create(ctx, p.ID, p.Email)
	if err != nil {
		if !errors.Is(err, challenge.ErrCooldown) {
			e.warnf("scholarauth: creating verification challenge for user %s failed: %v", p.ID, err)
		}
		return
	}
	e.metrics.Inc(MetricVerificationRequest)
	e.emit(ctx, AuditEvent{EventType: audit.TypeVerifyRequest, UserID: p.ID, Success: true})
	e.mail.Enqueue(mailer.Job{
		Kind:        mailer.KindVerification,
		PrincipalID: p.ID,
		Email:       p.Email,
		Token:       tok,
	})
}

// plausibleEmail is a shallow shape check; real validation happens when
// the verification email round-trips.
func plausibleEmail(email string) bool {
	at := strings.IndexByte(email, '@')
	return at > 0 && at < len(email)-1 && !strings.ContainsAny(email, " \t\r\n")
}
