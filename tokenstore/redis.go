package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a [Store] for clients that share one session across processes
// (a worker fleet, a rendering tier). The record lives under a single
// namespaced key; Set is one SET command, so the overwrite is atomic.
type Redis struct {
	redis  redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedis creates a Redis-backed store. prefix sets the key namespace.
// ttl bounds how long an untouched record survives; zero keeps it until
// Clear. Align ttl with the refresh token's lifetime, not the access
// token's: an expired-access record is still refreshable.
func NewRedis(client redis.UniversalClient, prefix string, ttl time.Duration) *Redis {
	if prefix == "" {
		prefix = "authsync"
	}
	return &Redis{
		redis:  client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (r *Redis) key() string {
	return r.prefix + ":tokens"
}

// Get returns the persisted record, if any.
//
//	Performance: 1 Redis GET.
func (r *Redis) Get(ctx context.Context) (Tokens, bool, error) {
	data, err := r.redis.Get(ctx, r.key()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Tokens{}, false, nil
		}
		return Tokens{}, false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	tokens, err := Decode(data)
	if err != nil {
		return Tokens{}, false, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}

	return tokens, true, nil
}

// Set persists the record with one SET.
func (r *Redis) Set(ctx context.Context, t Tokens) error {
	data, err := Encode(t)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTokens, err)
	}

	if err := r.redis.Set(ctx, r.key(), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return nil
}

// Clear removes the record. Clearing an absent key is a no-op.
func (r *Redis) Clear(ctx context.Context) error {
	if err := r.redis.Del(ctx, r.key()).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}
