package lock

import (
	"context"
	"sync"
	"time"

	appshared "github.com/dealership/backend/internal/application/shared"
)

// LocalLocker is an in-process Locker for single-instance deployments and
// tests. Like RedisLocker it fails fast on a held key, and a lock whose ttl
// elapsed may be taken over.
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]*localLock
	now  func() time.Time
}

// NewLocalLocker creates an empty LocalLocker
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{
		held: make(map[string]*localLock),
		now:  time.Now,
	}
}

// Obtain takes key for ttl
func (l *LocalLocker) Obtain(_ context.Context, key string, ttl time.Duration) (appshared.Lock, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if cur, ok := l.held[key]; ok && now.Before(cur.expiresAt) {
		return nil, appshared.ErrLockNotObtained
	}
	lk := &localLock{owner: l, key: key, expiresAt: now.Add(ttl)}
	l.held[key] = lk
	return lk, nil
}

type localLock struct {
	owner     *LocalLocker
	key       string
	expiresAt time.Time
}

// Release frees the key if this lock still owns it
func (lk *localLock) Release(context.Context) error {
	lk.owner.mu.Lock()
	defer lk.owner.mu.Unlock()

	if lk.owner.held[lk.key] == lk {
		delete(lk.owner.held, lk.key)
	}
	return nil
}

var _ appshared.Locker = (*LocalLocker)(nil)
