package scholarauth

import (
	"context"

	"github.com/DESMOND-77/scholarauth/internal/lifecycle"
	"github.com/DESMOND-77/scholarauth/token"
)

// Principal is an authenticated account as seen by the engine. The engine
// never stores principals itself; it reads and writes them through the
// host-provided PrincipalStore.
type Principal struct {
	ID             string `json:"id"`
	Email          string `json:"email"`
	CredentialHash string `json:"-"`
	IsActive       bool   `json:"is_active"`
	IsVerified     bool   `json:"is_verified"`
	IsStaff        bool   `json:"is_staff"`
}

// PrincipalStore is the host application's account storage. Emails passed
// in are already canonicalized (trimmed, lowercased). Implementations
// return ErrUserNotFound for unknown lookups and ErrAccountExists when
// Create collides on email; both may be wrapped.
type PrincipalStore interface {
	FindByEmail(ctx context.Context, email string) (*Principal, error)
	FindByID(ctx context.Context, id string) (*Principal, error)
	Create(ctx context.Context, p *Principal) error
	UpdateCredential(ctx context.Context, id, credentialHash string) error
	MarkVerified(ctx context.Context, id string) error
}

// TokenPair is the issuance payload returned by login, register, and
// refresh operations.
type TokenPair = lifecycle.TokenPair

// TokenValidation is the outcome of Validate.
type TokenValidation = lifecycle.Validation

// TokenKind discriminates access from refresh tokens.
type TokenKind = token.Kind

const (
	TokenKindAccess  = token.KindAccess
	TokenKindRefresh = token.KindRefresh
)
