package redisx

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrInFlight means another request holding the same key has not finished.
var ErrInFlight = errors.New("redisx: request with this idempotency key is in flight")

const pendingMarker = "\x00pending"

// Idempotency remembers the response of a keyed request. Begin claims key;
// when the key already completed it returns the stored body.
type Idempotency interface {
	Begin(ctx context.Context, key string) (replay []byte, err error)
	Complete(ctx context.Context, key string, body []byte) error
	Abort(ctx context.Context, key string) error
}

type RedisIdempotency struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewIdempotency(rdb *redis.Client) *RedisIdempotency {
	return &RedisIdempotency{rdb: rdb, ttl: TTLIdempotency}
}

func (i *RedisIdempotency) Begin(ctx context.Context, key string) ([]byte, error) {
	ok, err := i.rdb.SetNX(ctx, key, pendingMarker, i.ttl).Result()
	if err != nil {
		return nil, err
	}
	if ok {
		return nil, nil
	}
	v, err := i.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		// expired between SETNX and GET
		return i.Begin(ctx, key)
	}
	if err != nil {
		return nil, err
	}
	if string(v) == pendingMarker {
		return nil, ErrInFlight
	}
	return v, nil
}

func (i *RedisIdempotency) Complete(ctx context.Context, key string, body []byte) error {
	return i.rdb.Set(ctx, key, body, i.ttl).Err()
}

func (i *RedisIdempotency) Abort(ctx context.Context, key string) error {
	return i.rdb.Del(ctx, key).Err()
}

// MemoryIdempotency is the single-process fallback when Redis is not configured.
type MemoryIdempotency struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memEntry
}

type memEntry struct {
	body    []byte
	done    bool
	expires time.Time
}

func NewMemoryIdempotency() *MemoryIdempotency {
	return &MemoryIdempotency{ttl: TTLIdempotency, now: time.Now, entries: map[string]memEntry{}}
}

func (m *MemoryIdempotency) Begin(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	e, ok := m.entries[key]
	if ok && now.Before(e.expires) {
		if !e.done {
			return nil, ErrInFlight
		}
		return e.body, nil
	}
	m.entries[key] = memEntry{expires: now.Add(m.ttl)}
	return nil, nil
}

func (m *MemoryIdempotency) Complete(_ context.Context, key string, body []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = memEntry{body: body, done: true, expires: m.now().Add(m.ttl)}
	return nil
}

func (m *MemoryIdempotency) Abort(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}
