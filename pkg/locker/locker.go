// Package locker provides distributed locking for coordinating work across
// service instances.
package locker

import (
	"context"
	"time"
)

// DistributedLocker provides distributed lock capabilities across multiple instances.
// Implementations must be safe for concurrent use.
//
// Typical usage:
//
//	acquired, err := locker.Acquire(ctx, "refresh", 5*time.Minute)
//	if err != nil {
//	    return err
//	}
//	if !acquired {
//	    return nil // another instance holds it
//	}
//	defer locker.Release(ctx, "refresh")
type DistributedLocker interface {
	// Acquire tries once to take the lock. It returns false, nil when
	// another holder has it. The lock expires after ttl if not released.
	//
	// For mutual exclusion use the operation timeout as ttl; for a cooldown
	// use the desired cooldown period and do not release on success.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Extend resets the ttl of a lock this instance holds.
	Extend(ctx context.Context, key string) (bool, error)

	// Release frees a lock this instance holds. Releasing a lock held
	// elsewhere is a no-op.
	Release(ctx context.Context, key string) error
}

// RunOnce runs fn while holding key. It returns false without calling fn when
// the lock is held elsewhere. The lock is released afterwards only if fn
// fails, so a successful run keeps other instances out until ttl expires.
func RunOnce(ctx context.Context, l DistributedLocker, key string, ttl time.Duration, fn func(context.Context) error) (bool, error) {
	acquired, err := l.Acquire(ctx, key, ttl)
	if err != nil || !acquired {
		return false, err
	}
	if err := fn(ctx); err != nil {
		_ = l.Release(context.WithoutCancel(ctx), key)
		return true, err
	}
	return true, nil
}
