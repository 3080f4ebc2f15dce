// Package cache stores resolved principals between requests.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/devbridge/dev-bridge-manager/internal/permission"
)

const keyPrefix = "principal:"

// PrincipalCache holds principals keyed by user ID.
type PrincipalCache interface {
	// Get returns the cached principal of userID. ok is false on a miss.
	Get(ctx context.Context, userID uint64) (p *permission.Principal, ok bool, err error)
	Set(ctx context.Context, p *permission.Principal) error
	// Invalidate drops the given users, or every cached principal when called without IDs.
	Invalidate(ctx context.Context, userIDs ...uint64) error
}

// RedisPrincipalCache keeps principals as JSON values with a TTL.
type RedisPrincipalCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisPrincipalCache returns a cache on client. Entries expire after ttl.
func NewRedisPrincipalCache(client redis.UniversalClient, ttl time.Duration) *RedisPrincipalCache {
	return &RedisPrincipalCache{client: client, ttl: ttl}
}

func key(userID uint64) string {
	return keyPrefix + strconv.FormatUint(userID, 10)
}

func (c *RedisPrincipalCache) Get(ctx context.Context, userID uint64) (*permission.Principal, bool, error) {
	data, err := c.client.Get(ctx, key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached principal: %w", err)
	}

	var p permission.Principal
	if err := json.Unmarshal(data, &p); err != nil {
		// A value we cannot decode is treated as a miss and replaced on the next Set.
		return nil, false, nil
	}
	return &p, true, nil
}

func (c *RedisPrincipalCache) Set(ctx context.Context, p *permission.Principal) error {
	if p == nil {
		return nil
	}
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode principal: %w", err)
	}
	if err := c.client.Set(ctx, key(p.ID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache principal: %w", err)
	}
	return nil
}

func (c *RedisPrincipalCache) Invalidate(ctx context.Context, userIDs ...uint64) error {
	if len(userIDs) > 0 {
		keys := make([]string, len(userIDs))
		for i, id := range userIDs {
			keys[i] = key(id)
		}
		if err := c.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("failed to invalidate principals: %w", err)
		}
		return nil
	}

	iter := c.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan cached principals: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to invalidate principals: %w", err)
	}
	return nil
}

// NopPrincipalCache never holds anything.
type NopPrincipalCache struct{}

func (NopPrincipalCache) Get(context.Context, uint64) (*permission.Principal, bool, error) {
	return nil, false, nil
}

func (NopPrincipalCache) Set(context.Context, *permission.Principal) error { return nil }

func (NopPrincipalCache) Invalidate(context.Context, ...uint64) error { return nil }
