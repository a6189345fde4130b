// Package redis is the fast-path accelerator in front of the
// Postgres-backed Idempotency Registry: a SETNX-guarded, short-lived
// claim marker per idempotency key flags a request that is already in
// flight. Responses are not stored here; completed results are always
// read from Postgres. Grounded on the teacher repo's
// create-idempotency-key test (components/transaction's surviving test
// file), which is the one place the monorepo documents this exact
// SETNX-then-fall-through contract.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// ErrKeyAlreadySet is returned by TrySet when another request already
// holds this idempotency key's fast-path claim. The orchestrator then
// looks up the key in Postgres and returns a completed result if one is
// recorded; otherwise it proceeds with the write.
var ErrKeyAlreadySet = errors.New("idempotency key already set")

//go:generate mockgen -destination=idempotency_cache.mock.go -package=redis . Cache

// Cache is the Redis-backed accelerator interface; a generated-style
// mock implementing this lives in idempotency_cache.mock.go for use in
// the Idempotency Registry's unit tests.
type Cache interface {
	// TrySet atomically claims key for ttl if absent. It returns
	// ErrKeyAlreadySet if the key is already claimed.
	TrySet(ctx context.Context, key string, value string, ttl time.Duration) error
	// Get returns the previously stored value, or goredis.Nil if absent.
	Get(ctx context.Context, key string) (string, error)
	// Delete removes a claimed key, used to release the fast path when
	// the underlying Postgres insert fails and the key must be
	// retryable again immediately (spec.md §4.2).
	Delete(ctx context.Context, key string) error
}

type redisCache struct {
	client *goredis.Client
	prefix string
}

// NewCache wires a Cache against an established go-redis client. prefix
// namespaces keys so the idempotency accelerator cannot collide with
// any other cache this process maintains on the same Redis instance.
func NewCache(client *goredis.Client, prefix string) Cache {
	return &redisCache{client: client, prefix: prefix}
}

func (c *redisCache) namespacedKey(key string) string {
	return fmt.Sprintf("%s:idempotency:%s", c.prefix, key)
}

func (c *redisCache) TrySet(ctx context.Context, key string, value string, ttl time.Duration) error {
	ok, err := c.client.SetNX(ctx, c.namespacedKey(key), value, ttl).Result()
	if err != nil {
		return fmt.Errorf("redis setnx: %w", err)
	}

	if !ok {
		return ErrKeyAlreadySet
	}

	return nil
}

func (c *redisCache) Get(ctx context.Context, key string) (string, error) {
	value, err := c.client.Get(ctx, c.namespacedKey(key)).Result()
	if err != nil {
		return "", err
	}

	return value, nil
}

func (c *redisCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.namespacedKey(key)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}

	return nil
}
