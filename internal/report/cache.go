package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores computed reports per section. Get reports the generation it
// looked in; a report built after that Get is stored with Set under the same
// generation, so an Invalidate that lands mid-build orphans it.
type Cache interface {
	Get(ctx context.Context, sectionID int64, key string, dst any) (gen int64, hit bool, err error)
	Set(ctx context.Context, sectionID, gen int64, key string, v any) error
	Invalidate(ctx context.Context, sectionID int64) error
}

// RedisCache keys entries by a per-section generation counter. Bumping the
// counter orphans old entries, which then expire through their TTL.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCache creates a cache. A zero ttl keeps entries for ten minutes.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RedisCache{client: client, prefix: "report", ttl: ttl}
}

func (c *RedisCache) genKey(sectionID int64) string {
	return fmt.Sprintf("%s:gen:%d", c.prefix, sectionID)
}

func entryKey(prefix string, sectionID, gen int64, key string) string {
	return fmt.Sprintf("%s:%d:%d:%s", prefix, sectionID, gen, key)
}

func (c *RedisCache) generation(ctx context.Context, sectionID int64) (int64, error) {
	v, err := c.client.Get(ctx, c.genKey(sectionID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(v, 10, 64)
}

// Get decodes a cached report into dst.
func (c *RedisCache) Get(ctx context.Context, sectionID int64, key string, dst any) (int64, bool, error) {
	gen, err := c.generation(ctx, sectionID)
	if err != nil {
		return 0, false, err
	}
	raw, err := c.client.Get(ctx, entryKey(c.prefix, sectionID, gen, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return gen, false, nil
	}
	if err != nil {
		return gen, false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return gen, false, err
	}
	return gen, true, nil
}

// Set stores v under gen, the generation returned by the Get that missed.
func (c *RedisCache) Set(ctx context.Context, sectionID, gen int64, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, entryKey(c.prefix, sectionID, gen, key), raw, c.ttl).Err()
}

// Invalidate moves the section to a new generation.
func (c *RedisCache) Invalidate(ctx context.Context, sectionID int64) error {
	return c.client.Incr(ctx, c.genKey(sectionID)).Err()
}

// NopCache never stores anything.
type NopCache struct{}

func (NopCache) Get(context.Context, int64, string, any) (int64, bool, error) { return 0, false, nil }
func (NopCache) Set(context.Context, int64, int64, string, any) error { return nil }
func (NopCache) Invalidate(context.Context, int64) error { return nil }
