package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Counter creation and TTL binding must be a single atomic step so that two
// concurrent failed logins cannot produce a counter with no expiry.
const incrExpireScript = `
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return count
`

const setAddExpireScript = `
redis.call("SADD", KEYS[1], ARGV[1])
local ttl = redis.call("PTTL", KEYS[1])
if ttl < tonumber(ARGV[2]) then
  redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return redis.call("SCARD", KEYS[1])
`

var (
	incrExpireLua = redis.NewScript(incrExpireScript)
	setAddLua     = redis.NewScript(setAddExpireScript)
)

// Redis is the production [Store]: a thin layer over a go-redis client that
// adds a per-operation timeout and maps transport errors to ErrUnavailable.
type Redis struct {
	client    redis.UniversalClient
	opTimeout time.Duration
}

// NewRedis wraps client as a [Store]. opTimeout bounds every call; zero
// selects a 5s default.
func NewRedis(client redis.UniversalClient, opTimeout time.Duration) *Redis {
	if opTimeout <= 0 {
		opTimeout = 5 * time.Second
	}
	return &Redis{client: client, opTimeout: opTimeout}
}

func (r *Redis) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, r.opTimeout)
}

func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrMiss
		}
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return val, nil
}

func (r *Redis) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		return errors.New("cache: non-positive ttl")
	}

	ctx, cancel := r.bound(ctx)
	defer cancel()

	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (r *Redis) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		return false, errors.New("cache: non-positive ttl")
	}

	ctx, cancel := r.bound(ctx)
	defer cancel()

	created, err := r.client.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return created, nil
}

func (r *Redis) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	ctx, cancel := r.bound(ctx)
	defer cancel()

	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (r *Redis) Exists(ctx context.Context, key string) (bool, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	n, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return n > 0, nil
}

func (r *Redis) Increment(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	count, err := incrExpireLua.Run(ctx, r.client, []string{key}, ttl.Milliseconds()).Int64()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return count, nil
}

func (r *Redis) AddToSet(ctx context.Context, key, member string, ttl time.Duration) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	if err := setAddLua.Run(ctx, r.client, []string{key}, member, ttl.Milliseconds()).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (r *Redis) SetMembers(ctx context.Context, key string) ([]string, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	members, err := r.client.SMembers(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return members, nil
}

func (r *Redis) Ping(ctx context.Context) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
