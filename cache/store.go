// Package cache defines the key-value capability the authentication core
// depends on, plus its Redis implementation.
//
// The core never talks to Redis directly: every component receives a [Store]
// so tests can substitute a backing store with a controllable clock. All
// mutating operations are atomic on the backing store; there is no
// read-modify-write in this package or in its callers.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by Get when the key does not exist or has expired.
var ErrMiss = errors.New("cache miss")

// ErrUnavailable wraps transport failures talking to the backing store.
// Callers on security-check paths degrade to permissive defaults when they
// see it (availability over strict revocation during a brief outage).
var ErrUnavailable = errors.New("cache unavailable")

// Store is the shared mutable state of the authentication core: failure
// counters, lockout flags, token blacklist entries, and per-user token sets
// all live behind this interface. Implementations must bound the latency of
// every call.
type Store interface {
	// Get returns the string value at key, or ErrMiss.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value at key with the given TTL. A non-positive TTL is
	// rejected; nothing in the core stores unbounded keys.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// SetNX stores value only if key is absent. Returns true when this call
	// created the key. The single writer that wins the NX race is the
	// single-flight winner for the guarded operation.
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)

	// Delete removes the given keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error

	// Exists reports whether key is present and unexpired.
	Exists(ctx context.Context, key string) (bool, error)

	// Increment atomically increments the counter at key, binding ttl when
	// the counter is created by this call. Returns the new value.
	Increment(ctx context.Context, key string, ttl time.Duration) (int64, error)

	// AddToSet atomically adds member to the set at key and extends the set
	// TTL to at least ttl.
	AddToSet(ctx context.Context, key, member string, ttl time.Duration) error

	// SetMembers returns all members of the set at key. A missing set yields
	// an empty slice, not an error.
	SetMembers(ctx context.Context, key string) ([]string, error)

	// Ping reports point-in-time availability of the backing store.
	Ping(ctx context.Context) error
}
