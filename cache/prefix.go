package cache

import (
	"context"
	"time"
)

// Prefixed wraps a Store and namespaces every key, letting multiple
// deployments share one backend without collisions.
type Prefixed struct {
	inner  Store
	prefix string
}

// NewPrefixed returns store unchanged when prefix is empty.
func NewPrefixed(store Store, prefix string) Store {
	if prefix == "" {
		return store
	}
	return &Prefixed{inner: store, prefix: prefix}
}

func (p *Prefixed) key(k string) string {
	return p.prefix + k
}

func (p *Prefixed) Get(ctx context.Context, key string) (string, error) {
	return p.inner.Get(ctx, p.key(key))
}

func (p *Prefixed) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return p.inner.Set(ctx, p.key(key), value, ttl)
}

func (p *Prefixed) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	return p.inner.SetNX(ctx, p.key(key), value, ttl)
}

func (p *Prefixed) Delete(ctx context.Context, keys ...string) error {
	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = p.key(k)
	}
	return p.inner.Delete(ctx, prefixed...)
}

func (p *Prefixed) Exists(ctx context.Context, key string) (bool, error) {
	return p.inner.Exists(ctx, p.key(key))
}

func (p *Prefixed) Increment(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	return p.inner.Increment(ctx, p.key(key), ttl)
}

func (p *Prefixed) AddToSet(ctx context.Context, key, member string, ttl time.Duration) error {
	return p.inner.AddToSet(ctx, p.key(key), member, ttl)
}

func (p *Prefixed) SetMembers(ctx context.Context, key string) ([]string, error) {
	return p.inner.SetMembers(ctx, p.key(key))
}

func (p *Prefixed) Ping(ctx context.Context) error {
	return p.inner.Ping(ctx)
}
