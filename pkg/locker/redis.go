package locker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisLocker implements DistributedLocker with Redsync (Redlock).
type RedisLocker struct {
	rs      *redsync.Redsync
	logger  *zap.Logger
	prefix  string
	mutexes map[string]*redsync.Mutex
	mu      sync.Mutex
}

// NewRedisLocker creates a Redis-backed locker. Keys are stored as
// "<prefix>:lock:<key>"; an empty prefix stores "lock:<key>".
func NewRedisLocker(client *redis.Client, logger *zap.Logger, prefix string) *RedisLocker {
	return &RedisLocker{
		rs:      redsync.New(goredis.NewPool(client)),
		logger:  logger,
		prefix:  prefix,
		mutexes: make(map[string]*redsync.Mutex),
	}
}

// Acquire makes a single non-blocking attempt.
func (r *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	mutex := r.rs.NewMutex(
		r.redisKey(key),
		redsync.WithExpiry(ttl),
		redsync.WithTries(1),
	)

	if err := mutex.LockContext(ctx); err != nil {
		if isTaken(err) {
			r.logger.Debug("lock held elsewhere", zap.String("key", key))
			return false, nil
		}
		return false, fmt.Errorf("acquire lock %s: %w", key, err)
	}

	r.mu.Lock()
	r.mutexes[key] = mutex
	r.mu.Unlock()

	r.logger.Debug("lock acquired", zap.String("key", key), zap.Duration("ttl", ttl))
	return true, nil
}

// Extend resets the expiry of a held lock. It returns false if this
// instance does not hold key or the lock already expired.
func (r *RedisLocker) Extend(ctx context.Context, key string) (bool, error) {
	r.mu.Lock()
	mutex, exists := r.mutexes[key]
	r.mu.Unlock()
	if !exists {
		return false, nil
	}

	ok, err := mutex.ExtendContext(ctx)
	if err != nil {
		if isTaken(err) {
			return false, nil
		}
		return false, fmt.Errorf("extend lock %s: %w", key, err)
	}
	return ok, nil
}

// Release frees a lock held by this instance.
func (r *RedisLocker) Release(ctx context.Context, key string) error {
	r.mu.Lock()
	mutex, exists := r.mutexes[key]
	delete(r.mutexes, key)
	r.mu.Unlock()

	if !exists {
		r.logger.Debug("release skipped, lock not held here", zap.String("key", key))
		return nil
	}

	ok, err := mutex.UnlockContext(ctx)
	if err != nil {
		if isTaken(err) {
			return nil
		}
		return fmt.Errorf("release lock %s: %w", key, err)
	}
	r.logger.Debug("lock released", zap.String("key", key), zap.Bool("owned", ok))
	return nil
}

func (r *RedisLocker) redisKey(key string) string {
	if r.prefix == "" {
		return "lock:" + key
	}
	return r.prefix + ":lock:" + key
}

// isTaken reports contention rather than a Redis failure.
func isTaken(err error) bool {
	if errors.Is(err, redsync.ErrFailed) || errors.Is(err, redsync.ErrExtendFailed) {
		return true
	}
	return strings.Contains(err.Error(), "lock already taken")
}
