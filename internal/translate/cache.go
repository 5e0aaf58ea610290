package translate

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache memoizes translations in Redis so repeated scrapes of the same page
// do not hammer the translation service. All operations are best-effort: a
// cache failure is never surfaced past this package.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCache(addr string, ttl time.Duration) *Cache {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	return &Cache{client: rdb, ttl: ttl}
}

func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func key(text, target string) string {
	sum := sha1.Sum([]byte(text))
	return fmt.Sprintf("tl:%s:%s", target, hex.EncodeToString(sum[:]))
}

// Get returns a cached translation and whether it was present.
func (c *Cache) Get(ctx context.Context, text, target string) (string, bool) {
	val, err := c.client.Get(ctx, key(text, target)).Result()
	if err != nil {
		return "", false
	}
	return val, true
}

// Put stores a translation with the configured TTL.
func (c *Cache) Put(ctx context.Context, text, target, translated string) {
	c.client.Set(ctx, key(text, target), translated, c.ttl)
}
