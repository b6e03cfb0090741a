package scholarauth

import (
	"context"
	"errors"
	"net/http"

	"github.com/DESMOND-77/scholarauth/internal/audit"
	"github.com/DESMOND-77/scholarauth/internal/lifecycle"
)

// Refresh exchanges a refresh token for a new pair, rotating the presented
// token out of circulation. Replay of an already-rotated token is reported
// as a blacklisted token and audited as token reuse.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) Result {
	if !e.ready() {
		return failure(ErrEngineNotReady)
	}

	pair, err := e.tokens.Refresh(ctx, refreshToken)
	if err != nil {
		mapped := mapLifecycleErr(err)
		if errors.Is(err, lifecycle.ErrTokenBlacklisted) {
			e.metrics.Inc(MetricRefreshReuse)
			e.emit(ctx, AuditEvent{EventType: audit.TypeTokenRefreshReuse, Error: mapped.Error()})
		} else {
			e.metrics.Inc(MetricRefreshFailure)
		}
		return failure(mapped)
	}

	e.metrics.Inc(MetricRefreshSuccess)
	e.emit(ctx, AuditEvent{EventType: audit.TypeTokenRefresh, UserID: pair.UserID, Success: true})
	return success(http.StatusOK, "token refreshed", pair)
}

// Validate checks a token's signature, expiry, and blacklist state. It
// accepts either kind; callers gate on TokenKind in the payload.
func (e *Engine) Validate(ctx context.Context, tokenStr string) Result {
	if !e.ready() {
		return failure(ErrEngineNotReady)
	}

	v, err := e.tokens.Validate(ctx, tokenStr)
	if err != nil {
		return failure(mapLifecycleErr(err))
	}
	return success(http.StatusOK, "token valid", v)
}

func mapLifecycleErr(err error) error {
	switch {
	case errors.Is(err, lifecycle.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, lifecycle.ErrTokenBlacklisted):
		return ErrTokenBlacklisted
	case errors.Is(err, lifecycle.ErrWrongKind):
		return ErrTokenWrongKind
	case errors.Is(err, lifecycle.ErrSubjectNotFound):
		return ErrTokenInvalid
	case errors.Is(err, lifecycle.ErrSubjectInactive):
		return ErrAccountDisabled
	case errors.Is(err, lifecycle.ErrTokenInvalid):
		return ErrTokenInvalid
	default:
		return err
	}
}
