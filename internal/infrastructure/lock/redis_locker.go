// Package lock provides the per-key exclusive locks that serialise
// settlements of the same stock item.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	appshared "github.com/dealership/backend/internal/application/shared"
	"github.com/redis/go-redis/v9"
)

// RedisLocker obtains locks with redislock so they hold across instances.
// Obtain does not wait: a held key fails fast with ErrLockNotObtained.
type RedisLocker struct {
	client *redislock.Client
}

// NewRedisLocker creates a locker on a shared redis client
func NewRedisLocker(client redis.UniversalClient) *RedisLocker {
	return &RedisLocker{client: redislock.New(client)}
}

// Obtain takes key for ttl
func (l *RedisLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (appshared.Lock, error) {
	held, err := l.client.Obtain(ctx, key, ttl, &redislock.Options{RetryStrategy: redislock.NoRetry()})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, appshared.ErrLockNotObtained
	}
	if err != nil {
		return nil, fmt.Errorf("obtain redis lock %q: %w", key, err)
	}
	return redisLock{held}, nil
}

type redisLock struct {
	lock *redislock.Lock
}

// Release frees the lock. A lock that already expired is not an error.
func (l redisLock) Release(ctx context.Context) error {
	err := l.lock.Release(ctx)
	if errors.Is(err, redislock.ErrLockNotHeld) {
		return nil
	}
	return err
}

var _ appshared.Locker = (*RedisLocker)(nil)
