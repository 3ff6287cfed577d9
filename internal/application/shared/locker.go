package shared

import (
	"context"
	"errors"
	"time"
)

// ErrLockNotObtained is returned when another holder owns the key
var ErrLockNotObtained = errors.New("lock not obtained")

// Locker hands out exclusive, expiring locks on string keys
type Locker interface {
	Obtain(ctx context.Context, key string, ttl time.Duration) (Lock, error)
}

// Lock is a held lock
type Lock interface {
	Release(ctx context.Context) error
}
