package scholarauth

import "errors"

var (
	// ErrInvalidCredentials covers unknown accounts and wrong passwords,
	// deliberately indistinguishable from one another.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountLocked is returned while a brute-force lock is active.
	ErrAccountLocked = errors.New("account locked")
	// ErrAccountDisabled is returned for deactivated accounts.
	ErrAccountDisabled = errors.New("account disabled")
	// ErrAccountUnverified is returned when verification is required before login.
	ErrAccountUnverified = errors.New("account email not verified")
	// ErrAccountExists is returned on registration with a taken email.
	ErrAccountExists = errors.New("account already exists")
	// ErrRegistrationDisabled is returned when self-registration is off.
	ErrRegistrationDisabled = errors.New("registration disabled")
	// ErrEmailInvalid is returned for unusable email addresses.
	ErrEmailInvalid = errors.New("invalid email address")
	// ErrPasswordPolicy is returned when a password fails policy checks.
	ErrPasswordPolicy = errors.New("password policy violation")
	// ErrPasswordReuse is returned when the new password equals the current one.
	ErrPasswordReuse = errors.New("new password must be different from current password")
	// ErrUserNotFound is the sentinel PrincipalStore implementations return
	// for unknown ids or emails.
	ErrUserNotFound = errors.New("user not found")

	// ErrTokenInvalid covers malformed tokens and bad signatures.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenExpired is returned for a well-signed token past its expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenBlacklisted is returned for revoked or already-rotated tokens.
	ErrTokenBlacklisted = errors.New("token blacklisted")
	// ErrTokenWrongKind is returned when an access token is presented to a
	// refresh-only operation.
	ErrTokenWrongKind = errors.New("wrong token kind")

	// ErrPasswordResetInvalid is returned for unusable reset tokens.
	ErrPasswordResetInvalid = errors.New("password reset challenge invalid")
	// ErrPasswordResetAttempts is returned once a reset challenge's attempt
	// budget is spent.
	ErrPasswordResetAttempts = errors.New("password reset attempts exceeded")
	// ErrEmailVerificationDisabled is returned when verification is off.
	ErrEmailVerificationDisabled = errors.New("email verification disabled")
	// ErrEmailVerificationInvalid is returned for unusable verification tokens.
	ErrEmailVerificationInvalid = errors.New("email verification challenge invalid")
	// ErrEmailVerificationAttempts is returned once a verification
	// challenge's attempt budget is spent.
	ErrEmailVerificationAttempts = errors.New("email verification attempts exceeded")

	// ErrCacheUnavailable is returned when an operation cannot proceed
	// without the cache backend.
	ErrCacheUnavailable = errors.New("cache backend unavailable")
	// ErrEngineNotReady is returned when calling an unbuilt engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)
