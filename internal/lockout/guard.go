// Package lockout tracks failed login attempts per account identifier and
// enforces a temporary lockout once a threshold is reached.
//
// Two cache entries with independent TTLs back the state: a failure counter
// (rolling window) and a lock flag. The lock flag is authoritative; an
// expired lock means unlocked even while the counter is still live, and the
// next failure on a live counter re-arms the lock.
package lockout

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/DESMOND-77/scholarauth/cache"
)

// Config holds lockout thresholds and windows.
type Config struct {
	Enabled       bool
	Threshold     int
	FailureWindow time.Duration // counter TTL
	LockDuration  time.Duration // lock flag TTL
}

// Status reports the outcome of a recorded failure.
type Status struct {
	Locked   bool
	Attempts int
}

// Guard is the account-protection limiter. All state lives in the injected
// cache store; the guard itself is stateless and safe for concurrent use.
type Guard struct {
	store  cache.Store
	config Config
}

// New creates a Guard backed by the given store.
func New(store cache.Store, cfg Config) *Guard {
	return &Guard{store: store, config: cfg}
}

// bucket derives a stable, collision-resistant cache key fragment from an
// account identifier. Identifiers are canonicalized (trimmed, lower-cased)
// before hashing so "Alice@Example.com " and "alice@example.com" share a
// lockout bucket while distinct accounts never collide.
func bucket(identifier string) string {
	canonical := strings.ToLower(strings.TrimSpace(identifier))
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}

func failKey(identifier string) string {
	return "alf:" + bucket(identifier)
}

func lockKey(identifier string) string {
	return "alk:" + bucket(identifier)
}

// RecordFailure increments the failure counter for the identifier, arming
// the lock flag once the counter reaches the threshold. The counter TTL is
// bound atomically on creation.
func (g *Guard) RecordFailure(ctx context.Context, identifier string) (Status, error) {
	if !g.config.Enabled || identifier == "" {
		return Status{}, nil
	}

	count, err := g.store.Increment(ctx, failKey(identifier), g.config.FailureWindow)
	if err != nil {
		return Status{}, err
	}

	status := Status{Attempts: int(count)}
	if count >= int64(g.config.Threshold) {
		if err := g.store.Set(ctx, lockKey(identifier), "1", g.config.LockDuration); err != nil {
			return status, err
		}
		status.Locked = true
	}

	return status, nil
}

// IsLocked reports whether the identifier is currently locked out. Only the
// lock flag is consulted; a surviving failure counter does not imply locked.
func (g *Guard) IsLocked(ctx context.Context, identifier string) (bool, error) {
	if !g.config.Enabled || identifier == "" {
		return false, nil
	}
	return g.store.Exists(ctx, lockKey(identifier))
}

// Reset clears the failure counter and lock flag after a successful
// authentication.
func (g *Guard) Reset(ctx context.Context, identifier string) error {
	if !g.config.Enabled || identifier == "" {
		return nil
	}
	return g.store.Delete(ctx, failKey(identifier), lockKey(identifier))
}

// Attempts returns the live failure count for the identifier. Missing
// counters read as zero.
func (g *Guard) Attempts(ctx context.Context, identifier string) (int, error) {
	if !g.config.Enabled || identifier == "" {
		return 0, nil
	}

	val, err := g.store.Get(ctx, failKey(identifier))
	if err != nil {
		if errors.Is(err, cache.ErrMiss) {
			return 0, nil
		}
		return 0, err
	}

	count, err := strconv.Atoi(val)
	if err != nil || count < 0 {
		return 0, nil
	}
	return count, nil
}
