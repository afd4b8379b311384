package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// CounterStore provides atomic increment-and-expire semantics keyed by
// identity. Injected so the pipeline can be sharded or restarted without
// relying on process-wide singletons.
type CounterStore interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RedisCounterStore backs the rate limiter with a shared Redis instance.
// The window TTL is set only on the first increment of a window.
type RedisCounterStore struct {
	client *redis.Client
}

func NewRedisCounterStore(client *redis.Client) *RedisCounterStore {
	return &RedisCounterStore{client: client}
}

func (s *RedisCounterStore) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("incr %s: %w", key, err)
	}
	return incr.Val(), nil
}

// MemoryCounterStore is the in-process fallback, used when no Redis is
// configured and in tests. Fixed window per key, reset on the first
// increment after expiry.
type MemoryCounterStore struct {
	mu       sync.Mutex
	counters map[string]*windowCounter
	now      func() time.Time
}

type windowCounter struct {
	count   int64
	resetAt time.Time
}

func NewMemoryCounterStore() *MemoryCounterStore {
	return &MemoryCounterStore{
		counters: make(map[string]*windowCounter),
		now:      time.Now,
	}
}

func (s *MemoryCounterStore) Incr(_ context.Context, key string, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	counter, ok := s.counters[key]
	if !ok || !now.Before(counter.resetAt) {
		counter = &windowCounter{resetAt: now.Add(window)}
		s.counters[key] = counter
	}
	counter.count++
	return counter.count, nil
}

// Limiter caps signal submissions per identity inside a fixed window.
// Submissions over the cap are dropped, not queued; backpressure is
// expressed to the sender.
type Limiter struct {
	store  CounterStore
	limit  int64
	window time.Duration
	logger *zap.Logger
}

const (
	DefaultSignalLimit  = 10
	DefaultSignalWindow = 60 * time.Second
)

func NewLimiter(store CounterStore, limit int64, window time.Duration, logger *zap.Logger) *Limiter {
	if limit <= 0 {
		limit = DefaultSignalLimit
	}
	if window <= 0 {
		window = DefaultSignalWindow
	}
	return &Limiter{store: store, limit: limit, window: window, logger: logger}
}

// Allow reports whether one more submission from identity fits the window.
// A counter-store outage fails open: proctoring is sampled telemetry and
// must never block the session.
func (l *Limiter) Allow(ctx context.Context, identity string) bool {
	count, err := l.store.Incr(ctx, "proctoring:signals:"+identity, l.window)
	if err != nil {
		l.logger.Warn("Rate limit counter unavailable, allowing signal",
			zap.String("identity", identity),
			zap.Error(err),
		)
		return true
	}
	return count <= l.limit
}
