package httpmiddleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"classattend/internal/auth"
	"classattend/internal/logging"
)

// Limiter decides whether one more request under key fits the budget.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RateLimit rejects requests over budget with 429. Requests are keyed by
// token subject once authenticated, by client IP otherwise. A limiter error
// lets the request through.
func RateLimit(l Limiter) gin.HandlerFunc {
	log := logging.Component("ratelimit")
	return func(c *gin.Context) {
		ok, err := l.Allow(c.Request.Context(), clientKey(c))
		if err != nil {
			log.Warn("limiter unavailable", slog.String("error", err.Error()))
			ok = true
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit"})
			return
		}
		c.Next()
	}
}

func clientKey(c *gin.Context) string {
	if claims, ok := auth.ClaimsFrom(c); ok && claims.Subject != "" {
		return "user:" + claims.Subject
	}
	ip := c.ClientIP()
	if ip == "" {
		ip = "unknown"
	}
	return "ip:" + ip
}

// TokenBucket is an in-process limiter. Every API replica keeps its own
// buckets, so the effective limit scales with the replica count. Buckets
// that have refilled completely are dropped, since a full bucket behaves
// like a missing one.
type TokenBucket struct {
	burst     float64
	perSec    float64
	now       func() time.Time
	mu        sync.Mutex
	buckets   map[string]*tokens
	lastSweep time.Time
}

type tokens struct {
	left float64
	seen time.Time
}

// NewTokenBucket allows perMinute requests per key with bursts up to burst.
// A non-positive perMinute disables limiting.
func NewTokenBucket(burst, perMinute int) *TokenBucket {
	if burst <= 0 {
		burst = perMinute
	}
	return &TokenBucket{
		burst:   float64(burst),
		perSec:  float64(perMinute) / 60,
		now:     time.Now,
		buckets: map[string]*tokens{},
	}
}

func (b *TokenBucket) Allow(_ context.Context, key string) (bool, error) {
	if b.perSec <= 0 {
		return true, nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	b.sweep(now)
	t, ok := b.buckets[key]
	if !ok {
		t = &tokens{left: b.burst, seen: now}
		b.buckets[key] = t
	}
	t.left = min(b.burst, t.left+now.Sub(t.seen).Seconds()*b.perSec)
	t.seen = now
	if t.left < 1 {
		return false, nil
	}
	t.left--
	return true, nil
}

// sweep drops full buckets at most once per refill period. Callers hold mu.
func (b *TokenBucket) sweep(now time.Time) {
	refill := time.Duration(b.burst / b.perSec * float64(time.Second))
	if now.Sub(b.lastSweep) < refill {
		return
	}
	b.lastSweep = now
	for key, t := range b.buckets {
		if t.left+now.Sub(t.seen).Seconds()*b.perSec >= b.burst {
			delete(b.buckets, key)
		}
	}
}

// RedisWindow counts requests per key in fixed one-minute windows shared by
// every replica.
type RedisWindow struct {
	client    *redis.Client
	perMinute int64
	now       func() time.Time
}

func NewRedisWindow(client *redis.Client, perMinute int) *RedisWindow {
	return &RedisWindow{client: client, perMinute: int64(perMinute), now: time.Now}
}

func (w *RedisWindow) Allow(ctx context.Context, key string) (bool, error) {
	if w.perMinute <= 0 {
		return true, nil
	}
	k := windowKey(key, w.now())
	pipe := w.client.TxPipeline()
	n := pipe.Incr(ctx, k)
	pipe.Expire(ctx, k, 2*time.Minute)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	return n.Val() <= w.perMinute, nil
}

func windowKey(key string, t time.Time) string {
	return fmt.Sprintf("ratelimit:%s:%d", key, t.Unix()/60)
}
