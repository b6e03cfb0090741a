// Package lifecycle issues, rotates, validates, and revokes token pairs.
//
// Revocation is cache-backed: a blacklist entry per jti with a TTL that must
// outlive the longest token, and a per-user set of active refresh jtis for
// blacklist-all containment. The blacklist write is a SET NX, which doubles
// as the single-flight winner selection during refresh rotation: of two
// concurrent refreshes presenting the same token, exactly one creates the
// blacklist entry and proceeds to reissue.
package lifecycle

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/DESMOND-77/scholarauth/cache"
	"github.com/DESMOND-77/scholarauth/token"
)

var (
	// ErrTokenInvalid covers malformed tokens and bad signatures.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenExpired is returned for a well-signed token past its expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenBlacklisted is returned when the jti has been revoked,
	// including when a concurrent refresh already consumed it.
	ErrTokenBlacklisted = errors.New("token blacklisted")
	// ErrWrongKind is returned when an access token is presented where a
	// refresh token is required.
	ErrWrongKind = errors.New("wrong token kind")
	// ErrSubjectNotFound is returned when the token's subject no longer
	// exists.
	ErrSubjectNotFound = errors.New("token subject not found")
	// ErrSubjectInactive is returned when the token's subject is disabled;
	// the presented token is blacklisted as a side effect.
	ErrSubjectInactive = errors.New("token subject inactive")
)

// Subject is the slice of a principal the token layer needs.
type Subject struct {
	ID         string
	Email      string
	IsStaff    bool
	IsVerified bool
	IsActive   bool
}

// SubjectSource resolves a subject id during refresh. Implementations
// return ErrSubjectNotFound (possibly wrapped) for unknown ids.
type SubjectSource interface {
	FindSubject(ctx context.Context, id string) (*Subject, error)
}

// TokenPair is the full issuance result handed back to clients.
type TokenPair struct {
	Access           string `json:"access"`
	Refresh          string `json:"refresh"`
	TokenType        string `json:"token_type"`
	AccessExpiresIn  int64  `json:"access_expires_in"`
	RefreshExpiresIn int64  `json:"refresh_expires_in"`
	UserID           string `json:"user_id"`
	IssuedAt         int64  `json:"issued_at"`
}

// Validation is the outcome of a stateless-plus-blacklist token check.
type Validation struct {
	Valid     bool
	UserID    string
	TokenKind token.Kind
	ExpiresAt int64
}

// Config holds token lifetimes and rotation policy. BlacklistTTL must be at
// least the longest token lifetime or a revoked token could outlive its
// blacklist entry; the engine validates this at build time.
type Config struct {
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	BlacklistTTL  time.Duration
	RotateRefresh bool
}

// Manager is the token lifecycle coordinator. Safe for concurrent use.
type Manager struct {
	codec  *token.Codec
	store  cache.Store
	source SubjectSource
	config Config
	warn   func(format string, args ...any)
}

// New creates a Manager. warn receives degraded-mode notices (store
// unavailable during a security check) and may be nil.
func New(codec *token.Codec, store cache.Store, source SubjectSource, cfg Config, warn func(string, ...any)) *Manager {
	if warn == nil {
		warn = func(string, ...any) {}
	}
	return &Manager{codec: codec, store: store, source: source, config: cfg, warn: warn}
}

func blacklistKey(jti string) string {
	return "abl:" + jti
}

func userTokensKey(userID string) string {
	return "atk:" + userID
}

// IssuePair signs a fresh access/refresh pair for the subject and records
// the refresh jti in the user's active-token set. Both tokens are signed
// before any state is written: issuance is all-or-nothing.
func (m *Manager) IssuePair(ctx context.Context, sub Subject) (*TokenPair, error) {
	now := time.Now()

	access, err := m.sign(sub, token.KindAccess, uuid.NewString(), now, m.config.AccessTTL)
	if err != nil {
		return nil, err
	}
	refreshJTI := uuid.NewString()
	refresh, err := m.sign(sub, token.KindRefresh, refreshJTI, now, m.config.RefreshTTL)
	if err != nil {
		return nil, err
	}

	// Losing the set record only weakens blacklist-all, not correctness of
	// the tokens themselves; degrade rather than fail the login.
	if err := m.store.AddToSet(ctx, userTokensKey(sub.ID), refreshJTI, m.config.RefreshTTL); err != nil {
		m.warn("scholarauth: recording refresh jti for user %s failed: %v", sub.ID, err)
	}

	return &TokenPair{
		Access:           access,
		Refresh:          refresh,
		TokenType:        "Bearer",
		AccessExpiresIn:  int64(m.config.AccessTTL.Seconds()),
		RefreshExpiresIn: int64(m.config.RefreshTTL.Seconds()),
		UserID:           sub.ID,
		IssuedAt:         now.Unix(),
	}, nil
}

func (m *Manager) sign(sub Subject, kind token.Kind, jti string, now time.Time, ttl time.Duration) (string, error) {
	return m.codec.Sign(&token.Claims{
		UserID:     sub.ID,
		TokenType:  kind,
		Email:      sub.Email,
		IsStaff:    sub.IsStaff,
		IsVerified: sub.IsVerified,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
}

// Validate decodes the token and checks the blacklist. It never touches the
// subject source: validation stays O(1) against the cache.
func (m *Manager) Validate(ctx context.Context, tokenStr string) (*Validation, error) {
	claims, err := m.parse(tokenStr)
	if err != nil {
		return &Validation{}, err
	}

	if m.isBlacklisted(ctx, claims.ID) {
		return &Validation{}, ErrTokenBlacklisted
	}

	return &Validation{
		Valid:     true,
		UserID:    claims.UserID,
		TokenKind: claims.TokenType,
		ExpiresAt: claims.ExpiresAt.Unix(),
	}, nil
}

// Refresh exchanges a refresh token for a new pair. With rotation enabled
// the presented jti is blacklisted before the new pair is issued, and the
// NX semantics of that write guarantee a single winner under concurrent
// replay of the same token.
func (m *Manager) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := m.parse(refreshToken)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != token.KindRefresh {
		return nil, ErrWrongKind
	}
	if m.isBlacklisted(ctx, claims.ID) {
		return nil, ErrTokenBlacklisted
	}

	sub, err := m.source.FindSubject(ctx, claims.UserID)
	if err != nil {
		return nil, ErrSubjectNotFound
	}
	if !sub.IsActive {
		// Containment: a token held by a disabled account is burned on sight.
		if err := m.BlacklistToken(ctx, claims.ID); err != nil {
			m.warn("scholarauth: blacklisting token of inactive user %s failed: %v", sub.ID, err)
		}
		return nil, ErrSubjectInactive
	}

	if m.config.RotateRefresh {
		won, err := m.store.SetNX(ctx, blacklistKey(claims.ID), "1", m.config.BlacklistTTL)
		if err != nil {
			// Availability over strict rotation during a store outage.
			m.warn("scholarauth: rotation blacklist write failed for jti %s: %v", claims.ID, err)
		} else if !won {
			return nil, ErrTokenBlacklisted
		}
	}

	return m.IssuePair(ctx, *sub)
}

// BlacklistToken revokes a single jti. Idempotent: repeated calls leave the
// first entry (and its TTL) in place.
func (m *Manager) BlacklistToken(ctx context.Context, jti string) error {
	if jti == "" {
		return nil
	}
	_, err := m.store.SetNX(ctx, blacklistKey(jti), "1", m.config.BlacklistTTL)
	return err
}

// Revoke blacklists the presented token's jti regardless of kind.
// Undecodable or expired tokens are a silent no-op: they cannot be used
// anyway, and logout must not fail because a client sent a stale token.
func (m *Manager) Revoke(ctx context.Context, tokenStr string) error {
	claims, err := m.parse(tokenStr)
	if err != nil {
		return nil
	}
	return m.BlacklistToken(ctx, claims.ID)
}

// BlacklistAllForUser revokes every tracked refresh token for the user and
// drops the tracking set. Returns the number of tokens blacklisted; zero
// when the set is absent. Runs synchronously; callers on password-change
// paths must not return success until this completes.
func (m *Manager) BlacklistAllForUser(ctx context.Context, userID string) (int, error) {
	key := userTokensKey(userID)

	members, err := m.store.SetMembers(ctx, key)
	if err != nil {
		return 0, err
	}
	if len(members) == 0 {
		return 0, nil
	}

	count := 0
	for _, jti := range members {
		if err := m.BlacklistToken(ctx, jti); err != nil {
			return count, err
		}
		count++
	}

	if err := m.store.Delete(ctx, key); err != nil {
		return count, err
	}
	return count, nil
}

// ActiveTokenIDs returns the tracked refresh jtis for a user.
func (m *Manager) ActiveTokenIDs(ctx context.Context, userID string) ([]string, error) {
	return m.store.SetMembers(ctx, userTokensKey(userID))
}

func (m *Manager) parse(tokenStr string) (*token.Claims, error) {
	claims, err := m.codec.Parse(tokenStr)
	if err != nil {
		switch {
		case errors.Is(err, token.ErrExpired):
			return nil, ErrTokenExpired
		default:
			return nil, ErrTokenInvalid
		}
	}
	if claims.ID == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// isBlacklisted degrades to permissive when the store is unreachable: a
// brief outage must not lock every holder of a valid token out.
func (m *Manager) isBlacklisted(ctx context.Context, jti string) bool {
	if jti == "" {
		return false
	}
	_, err := m.store.Get(ctx, blacklistKey(jti))
	if err != nil {
		if errors.Is(err, cache.ErrMiss) {
			return false
		}
		m.warn("scholarauth: blacklist lookup for jti %s failed: %v", jti, err)
		return false
	}
	return true
}
