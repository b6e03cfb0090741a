package scholarauth

import (
	"context"
	"net/http"

	"github.com/DESMOND-77/scholarauth/internal/audit"
)

// Logout blacklists the presented refresh token. It always reports
// success: a malformed, expired, or already-revoked token leaves the
// client in the desired state either way, and a distinguishable response
// would only aid token probing.
func (e *Engine) Logout(ctx context.Context, refreshToken string) Result {
	if !e.ready() {
		return failure(ErrEngineNotReady)
	}

	if err := e.tokens.Revoke(ctx, refreshToken); err != nil {
		e.warnf("scholarauth: logout revocation failed: %v", err)
	} else {
		e.metrics.Inc(MetricTokenBlacklisted)
	}

	e.metrics.Inc(MetricLogout)
	e.emit(ctx, AuditEvent{EventType: audit.TypeLogout, Success: true})
	return success(http.StatusOK, "logged out", nil)
}

// LogoutAll revokes every tracked refresh token for the user. Unlike
// Logout this is fallible: callers on containment paths need to know the
// sweep completed.
func (e *Engine) LogoutAll(ctx context.Context, userID string) Result {
	if !e.ready() {
		return failure(ErrEngineNotReady)
	}

	n, err := e.tokens.BlacklistAllForUser(ctx, userID)
	if err != nil {
		e.warnf("scholarauth: logout-all for user %s failed after %d revocations: %v", userID, n, err)
		return failure(ErrCacheUnavailable)
	}

	e.metrics.Inc(MetricLogoutAll)
	e.emit(ctx, AuditEvent{EventType: audit.TypeTokenBlacklist, UserID: userID, Success: true,
		Metadata: map[string]string{"scope": "all"}})
	return success(http.StatusOK, "all sessions revoked", map[string]any{"revoked": n})
}
