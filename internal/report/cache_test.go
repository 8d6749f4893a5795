package report

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntryKey(t *testing.T) {
	assert.Equal(t, "report:10:3:section:3:ALL:-..-", entryKey("report", 10, 3, "section:3:ALL:-..-"))
}

func TestNopCache(t *testing.T) {
	var c Cache = NopCache{}
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, 1, 0, "k", []int{1}))
	var out []int
	_, hit, err := c.Get(ctx, 1, "k", &out)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.NoError(t, c.Invalidate(ctx, 1))
}

func TestRedisCacheGenerations(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	ctx := context.Background()
	require.NoError(t, client.Ping(ctx).Err())

	c := NewRedisCache(client, time.Minute)
	c.prefix = "report-test-" + time.Now().Format("150405.000000")

	want := []SectionRow{{RollNumber: "R1", CourseCode: "C1", Total: 3, Attended: 2, Percentage: 66.7}}
	var got []SectionRow
	gen, hit, err := c.Get(ctx, 10, "section", &got)
	require.NoError(t, err)
	require.False(t, hit)
	require.NoError(t, c.Set(ctx, 10, gen, "section", want))

	_, hit, err = c.Get(ctx, 10, "section", &got)
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, want, got)

	_, hit, err = c.Get(ctx, 11, "section", &got)
	require.NoError(t, err)
	assert.False(t, hit, "sections do not share entries")

	require.NoError(t, c.Invalidate(ctx, 10))
	_, hit, err = c.Get(ctx, 10, "section", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestRedisCacheWriteAfterInvalidateIsOrphaned(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	ctx := context.Background()
	require.NoError(t, client.Ping(ctx).Err())

	c := NewRedisCache(client, time.Minute)
	c.prefix = "report-test-" + time.Now().Format("150405.000000")

	var got []SectionRow
	gen, hit, err := c.Get(ctx, 10, "section", &got)
	require.NoError(t, err)
	require.False(t, hit)

	require.NoError(t, c.Invalidate(ctx, 10))
	require.NoError(t, c.Set(ctx, 10, gen, "section", []SectionRow{{RollNumber: "R1"}}))

	next, hit, err := c.Get(ctx, 10, "section", &got)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, gen+1, next)
}
