package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rskariadi-dev/manrura/internal/domain"
	"github.com/rskariadi-dev/manrura/internal/metrics"
)

const (
	snapshotKey   = "manrura_snapshot"
	generationKey = "manrura_snapshot_generation"
)

// SnapshotCache holds the unfiltered fetch-all payload between writes. Every Invalidate starts a
// new generation, and a snapshot is only served for the generation it was stored under, so one
// read from the database before a write can never be cached past it.
type SnapshotCache interface {
	// Get reports the current generation even on a miss; a negative one means unknown.
	Get(ctx context.Context) (snap *domain.Snapshot, generation int64, ok bool)
	Set(ctx context.Context, generation int64, snap *domain.Snapshot) error
	Invalidate(ctx context.Context) error
}

type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

func generationSnapshotKey(generation int64) string {
	return fmt.Sprintf("%s:%d", snapshotKey, generation)
}

// Get reports a miss for anything but a readable cached snapshot, redis errors included.
func (c *RedisCache) Get(ctx context.Context) (*domain.Snapshot, int64, bool) {
	generation, err := c.rdb.Get(ctx, generationKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		metrics.SnapshotCache.WithLabelValues("error").Inc()
		return nil, -1, false
	}

	data, err := c.rdb.Get(ctx, generationSnapshotKey(generation)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.SnapshotCache.WithLabelValues("miss").Inc()
		} else {
			metrics.SnapshotCache.WithLabelValues("error").Inc()
		}
		return nil, generation, false
	}

	snap := &domain.Snapshot{}
	if err := json.Unmarshal(data, snap); err != nil {
		metrics.SnapshotCache.WithLabelValues("error").Inc()
		return nil, generation, false
	}

	metrics.SnapshotCache.WithLabelValues("hit").Inc()
	return snap, generation, true
}

func (c *RedisCache) Set(ctx context.Context, generation int64, snap *domain.Snapshot) error {
	if generation < 0 {
		return nil
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, generationSnapshotKey(generation), data, c.ttl).Err()
}

// Invalidate moves to the next generation; snapshots of older ones expire with their TTL.
func (c *RedisCache) Invalidate(ctx context.Context) error {
	return c.rdb.Incr(ctx, generationKey).Err()
}

// Memory caches the snapshot in process, for deployments where this process makes every write.
type Memory struct {
	mu         sync.Mutex
	ttl        time.Duration
	generation int64
	snap       *domain.Snapshot
	snapGen    int64
	storedAt   time.Time
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{ttl: ttl}
}

func (c *Memory) Get(context.Context) (*domain.Snapshot, int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.snap == nil || c.snapGen != c.generation || time.Since(c.storedAt) > c.ttl {
		metrics.SnapshotCache.WithLabelValues("miss").Inc()
		return nil, c.generation, false
	}
	metrics.SnapshotCache.WithLabelValues("hit").Inc()
	return c.snap, c.generation, true
}

func (c *Memory) Set(_ context.Context, generation int64, snap *domain.Snapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if generation != c.generation {
		return nil
	}
	c.snap = snap
	c.snapGen = generation
	c.storedAt = time.Now()
	return nil
}

func (c *Memory) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generation++
	c.snap = nil
	return nil
}

// Nop never caches anything.
type Nop struct{}

func (Nop) Get(context.Context) (*domain.Snapshot, int64, bool) {
	return nil, -1, false
}

func (Nop) Set(context.Context, int64, *domain.Snapshot) error {
	return nil
}

func (Nop) Invalidate(context.Context) error {
	return nil
}
