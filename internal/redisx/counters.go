package redisx

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// Counters are per-day named tallies. Values are decimal strings.
type Counters interface {
	// AddMany applies every delta of one event to day, all or nothing.
	AddMany(ctx context.Context, day string, deltas map[string]decimal.Decimal) error
	Day(ctx context.Context, day string) (map[string]string, error)
}

type RedisCounters struct {
	rdb *redis.Client
}

func NewCounters(rdb *redis.Client) *RedisCounters { return &RedisCounters{rdb: rdb} }

func (c *RedisCounters) AddMany(ctx context.Context, day string, deltas map[string]decimal.Decimal) error {
	if len(deltas) == 0 {
		return nil
	}
	key := fmt.Sprintf(KeyAnalyticsDaily, day)
	pipe := c.rdb.TxPipeline()
	for _, field := range slices.Sorted(maps.Keys(deltas)) {
		v := deltas[field]
		if v.IsInteger() {
			pipe.HIncrBy(ctx, key, field, v.IntPart())
			continue
		}
		f, _ := v.Float64()
		pipe.HIncrByFloat(ctx, key, field, f)
	}
	pipe.Expire(ctx, key, TTLAnalytics)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redisx: add counters %s: %w", day, err)
	}
	return nil
}

func (c *RedisCounters) Day(ctx context.Context, day string) (map[string]string, error) {
	return c.rdb.HGetAll(ctx, fmt.Sprintf(KeyAnalyticsDaily, day)).Result()
}

// MemoryCounters keeps the tallies in process.
type MemoryCounters struct {
	mu   sync.Mutex
	days map[string]map[string]decimal.Decimal
}

func NewMemoryCounters() *MemoryCounters {
	return &MemoryCounters{days: map[string]map[string]decimal.Decimal{}}
}

func (c *MemoryCounters) AddMany(_ context.Context, day string, deltas map[string]decimal.Decimal) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.days[day]
	if !ok {
		d = map[string]decimal.Decimal{}
		c.days[day] = d
	}
	for field, v := range deltas {
		d[field] = d[field].Add(v)
	}
	return nil
}

func (c *MemoryCounters) Day(_ context.Context, day string) (map[string]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]string, len(c.days[day]))
	for k, v := range c.days[day] {
		out[k] = v.String()
	}
	return out, nil
}

// Dedup reports whether an id is seen for the first time. Release forgets
// an id whose processing failed so a redelivery is handled again.
type Dedup interface {
	First(ctx context.Context, service, id string) (bool, error)
	Release(ctx context.Context, service, id string) error
}

type RedisDedup struct {
	rdb *redis.Client
}

func NewDedup(rdb *redis.Client) *RedisDedup { return &RedisDedup{rdb: rdb} }

func (d *RedisDedup) First(ctx context.Context, service, id string) (bool, error) {
	return d.rdb.SetNX(ctx, fmt.Sprintf(KeyDedup, service, id), "1", TTLDedup).Result()
}

func (d *RedisDedup) Release(ctx context.Context, service, id string) error {
	return d.rdb.Del(ctx, fmt.Sprintf(KeyDedup, service, id)).Err()
}

// MemoryDedup keeps seen ids for TTLDedup. Expired ids are dropped on a
// sweep that runs at most once per dedupSweepEvery.
type MemoryDedup struct {
	mu        sync.Mutex
	seen      map[string]time.Time
	lastSweep time.Time
	now       func() time.Time
}

const dedupSweepEvery = time.Minute

func NewMemoryDedup() *MemoryDedup {
	return &MemoryDedup{seen: map[string]time.Time{}, now: time.Now}
}

func (d *MemoryDedup) First(_ context.Context, service, id string) (bool, error) {
	key := fmt.Sprintf(KeyDedup, service, id)
	now := d.now()
	d.mu.Lock()
	defer d.mu.Unlock()
	if now.Sub(d.lastSweep) >= dedupSweepEvery {
		maps.DeleteFunc(d.seen, func(_ string, at time.Time) bool { return now.Sub(at) >= TTLDedup })
		d.lastSweep = now
	}
	if at, ok := d.seen[key]; ok && now.Sub(at) < TTLDedup {
		return false, nil
	}
	d.seen[key] = now
	return true, nil
}

func (d *MemoryDedup) Release(_ context.Context, service, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.seen, fmt.Sprintf(KeyDedup, service, id))
	return nil
}
