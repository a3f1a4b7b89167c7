// Package storage holds the optional persistence backends: a Redis cache that
// remembers clean comparisons across runs, and a Postgres store for run
// history. The core pipeline works without either.
package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const cleanKeyPrefix = "locdrift:clean:"

// CleanCache skips oracle calls for pairs whose exact screenshot bytes were
// already judged clean within the TTL. Only clean verdicts are cached; a pair
// with findings is always re-checked.
type CleanCache struct {
	client *redis.Client
}

func NewCleanCache(addr string) *CleanCache {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	return &CleanCache{client: rdb}
}

func (c *CleanCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// PairDigest derives the cache identity of a comparison from both images'
// content, so any pixel change invalidates the entry.
func PairDigest(source, target []byte) string {
	h := sha256.New()
	h.Write(source)
	h.Write(target)
	return hex.EncodeToString(h.Sum(nil))
}

// MarkClean records a clean verdict with an expiry.
func (c *CleanCache) MarkClean(ctx context.Context, digest string, ttl time.Duration) error {
	return c.client.Set(ctx, cleanKeyPrefix+digest, "1", ttl).Err()
}

// IsClean reports whether this exact pair was judged clean recently.
func (c *CleanCache) IsClean(ctx context.Context, digest string) (bool, error) {
	val, err := c.client.Exists(ctx, cleanKeyPrefix+digest).Result()
	if err != nil {
		return false, fmt.Errorf("checking clean cache: %w", err)
	}
	return val == 1, nil
}
