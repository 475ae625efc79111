package cache

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rskariadi-dev/manrura/internal/domain"
)

func TestNopNeverHits(t *testing.T) {
	var c SnapshotCache = Nop{}
	require.NoError(t, c.Set(context.Background(), 0, &domain.Snapshot{}))

	_, _, ok := c.Get(context.Background())
	assert.False(t, ok)
	assert.NoError(t, c.Invalidate(context.Background()))
}

func TestMemoryServesCurrentGeneration(t *testing.T) {
	ctx := context.Background()
	var c SnapshotCache = NewMemory(time.Minute)

	_, gen, ok := c.Get(ctx)
	require.False(t, ok)

	snap := &domain.Snapshot{Wards: []domain.Ward{{ID: "mawar", Name: "Ruang Mawar"}}}
	require.NoError(t, c.Set(ctx, gen, snap))

	got, _, ok := c.Get(ctx)
	require.True(t, ok)
	assert.Equal(t, snap, got)

	require.NoError(t, c.Invalidate(ctx))
	_, _, ok = c.Get(ctx)
	assert.False(t, ok)
}

func TestMemoryDropsSnapshotReadBeforeInvalidate(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(time.Minute)

	_, gen, ok := c.Get(ctx)
	require.False(t, ok)

	// a write lands while the snapshot is being read from the database
	require.NoError(t, c.Invalidate(ctx))
	require.NoError(t, c.Set(ctx, gen, &domain.Snapshot{}))

	_, next, ok := c.Get(ctx)
	assert.False(t, ok)
	assert.Equal(t, gen+1, next)
}

func TestMemoryExpires(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(0)

	_, gen, _ := c.Get(ctx)
	require.NoError(t, c.Set(ctx, gen, &domain.Snapshot{}))
	time.Sleep(time.Millisecond)

	_, _, ok := c.Get(ctx)
	assert.False(t, ok)
}

func TestRedisCacheUnreachableIsAMiss(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	l.Close()

	rdb := redis.NewClient(&redis.Options{Addr: addr, DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	defer rdb.Close()

	c := NewRedisCache(rdb, time.Minute)
	_, gen, ok := c.Get(context.Background())
	assert.False(t, ok)
	assert.Negative(t, gen)
	assert.NoError(t, c.Set(context.Background(), gen, &domain.Snapshot{}), "nothing is stored for an unknown generation")
	assert.Error(t, c.Set(context.Background(), 0, &domain.Snapshot{}))
}
