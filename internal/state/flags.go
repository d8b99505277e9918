// Package state holds the agent's small amount of mutable runtime state.
package state

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/redis/go-redis/v9"
)

// Flags is the switchboard for auto-posting.
type Flags interface {
	Paused(ctx context.Context) (bool, error)
	SetPaused(ctx context.Context, paused bool) error
}

// MemoryFlags keeps flags in process memory. They reset on restart.
type MemoryFlags struct {
	paused atomic.Bool
}

func NewMemoryFlags() *MemoryFlags { return &MemoryFlags{} }

func (f *MemoryFlags) Paused(context.Context) (bool, error) { return f.paused.Load(), nil }

func (f *MemoryFlags) SetPaused(_ context.Context, paused bool) error {
	f.paused.Store(paused)
	return nil
}

// PausedKey is the Redis key holding the auto-posting switch.
const PausedKey = "openclaw:paused"

// RedisFlags keeps flags in Redis so they survive restarts and are shared
// between replicas.
type RedisFlags struct {
	client redis.UniversalClient
}

func NewRedisFlags(client redis.UniversalClient) *RedisFlags {
	return &RedisFlags{client: client}
}

// DialRedisFlags connects using a redis:// URL.
func DialRedisFlags(ctx context.Context, url string) (*RedisFlags, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisFlags{client: client}, nil
}

func (f *RedisFlags) Paused(ctx context.Context) (bool, error) {
	v, err := f.client.Get(ctx, PausedKey).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", PausedKey, err)
	}
	return v == "1", nil
}

func (f *RedisFlags) SetPaused(ctx context.Context, paused bool) error {
	var err error
	if paused {
		err = f.client.Set(ctx, PausedKey, "1", 0).Err()
	} else {
		err = f.client.Del(ctx, PausedKey).Err()
	}
	if err != nil {
		return fmt.Errorf("writing %s: %w", PausedKey, err)
	}
	return nil
}

func (f *RedisFlags) Close() error { return f.client.Close() }
