// Package challenge manages single-use, expiring secrets for out-of-band
// flows such as password reset and email verification.
//
// A challenge token is base64url(id || secret). Only a SHA-256 digest of the
// secret is stored, so a cache dump never yields a usable token. Attempt
// counting rides on an atomic cache increment keyed alongside the record,
// and a successful consume deletes both keys.
package challenge

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/DESMOND-77/scholarauth/cache"
)

var (
	// ErrInvalid is returned for unknown, expired, malformed, or
	// wrong-secret tokens. Callers present these identically to avoid
	// leaking which case occurred.
	ErrInvalid = errors.New("invalid challenge token")
	// ErrAttemptsExceeded is returned once the verification budget for a
	// challenge is spent; the challenge is destroyed as a side effect.
	ErrAttemptsExceeded = errors.New("challenge attempts exceeded")
	// ErrCooldown is returned when a new challenge for the same identifier
	// is requested before the resend window has elapsed.
	ErrCooldown = errors.New("challenge cooldown active")
)

const (
	idLen     = 16
	secretLen = 32
)

// Config controls challenge lifetime and abuse limits. Prefix namespaces
// the cache keys so independent flows never collide.
type Config struct {
	Prefix      string
	TTL         time.Duration
	MaxAttempts int
	Cooldown    time.Duration
}

type record struct {
	SubjectID  string `json:"sub"`
	SecretHash string `json:"h"`
}

// Store issues and consumes challenges against a cache backend.
type Store struct {
	store  cache.Store
	config Config
}

// New creates a challenge store.
func New(store cache.Store, cfg Config) *Store {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	return &Store{store: store, config: cfg}
}

func (s *Store) recordKey(id []byte) string {
	return s.config.Prefix + hex.EncodeToString(id)
}

func (s *Store) attemptsKey(id []byte) string {
	return s.config.Prefix + "att:" + hex.EncodeToString(id)
}

func (s *Store) cooldownKey(identifier string) string {
	sum := sha256.Sum256([]byte(identifier))
	return s.config.Prefix + "cd:" + hex.EncodeToString(sum[:])
}

// Create mints a challenge for subjectID and returns the opaque token to be
// delivered out of band. identifier scopes the resend cooldown; pass the
// canonical email. A second Create within the cooldown returns ErrCooldown
// without disturbing the outstanding challenge.
func (s *Store) Create(ctx context.Context, subjectID, identifier string) (string, error) {
	claimed := false
	if s.config.Cooldown > 0 && identifier != "" {
		won, err := s.store.SetNX(ctx, s.cooldownKey(identifier), "1", s.config.Cooldown)
		if err != nil {
			return "", err
		}
		if !won {
			return "", ErrCooldown
		}
		claimed = true
	}

	tok, err := s.mint(ctx, subjectID)
	if err != nil && claimed {
		// A failed mint must not burn the resend window: the caller got no
		// token, so a retry has to be allowed through.
		_ = s.store.Delete(ctx, s.cooldownKey(identifier))
	}
	return tok, err
}

func (s *Store) mint(ctx context.Context, subjectID string) (string, error) {
	id, err := randBytes(idLen)
	if err != nil {
		return "", err
	}
	secret, err := randBytes(secretLen)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(secret)
	raw, err := json.Marshal(record{
		SubjectID:  subjectID,
		SecretHash: hex.EncodeToString(sum[:]),
	})
	if err != nil {
		return "", err
	}
	if err := s.store.Set(ctx, s.recordKey(id), string(raw), s.config.TTL); err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(append(id, secret...)), nil
}

// Consume verifies the token and, on success, destroys the challenge and
// returns the subject it was minted for. Every failed verification counts
// against MaxAttempts; the budget exhausting destroys the challenge too.
func (s *Store) Consume(ctx context.Context, tokenStr string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(tokenStr)
	if err != nil || len(raw) != idLen+secretLen {
		return "", ErrInvalid
	}
	id, secret := raw[:idLen], raw[idLen:]

	stored, err := s.store.Get(ctx, s.recordKey(id))
	if err != nil {
		if errors.Is(err, cache.ErrMiss) {
			return "", ErrInvalid
		}
		return "", err
	}

	attempts, err := s.store.Increment(ctx, s.attemptsKey(id), s.config.TTL)
	if err != nil {
		return "", err
	}
	if attempts > int64(s.config.MaxAttempts) {
		s.destroy(ctx, id)
		return "", ErrAttemptsExceeded
	}

	var rec record
	if err := json.Unmarshal([]byte(stored), &rec); err != nil {
		return "", fmt.Errorf("corrupt challenge record: %w", err)
	}
	want, err := hex.DecodeString(rec.SecretHash)
	if err != nil {
		return "", fmt.Errorf("corrupt challenge record: %w", err)
	}
	sum := sha256.Sum256(secret)
	if subtle.ConstantTimeCompare(sum[:], want) != 1 {
		return "", ErrInvalid
	}

	s.destroy(ctx, id)
	return rec.SubjectID, nil
}

func (s *Store) destroy(ctx context.Context, id []byte) {
	_ = s.store.Delete(ctx, s.recordKey(id), s.attemptsKey(id))
}

func randBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("entropy source failed: %w", err)
	}
	return b, nil
}
