package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	appshared "github.com/dealership/backend/internal/application/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLocker_Obtain(t *testing.T) {
	ctx := context.Background()
	l := NewLocalLocker()

	first, err := l.Obtain(ctx, "settlement:stock-item:1", time.Minute)
	require.NoError(t, err)

	_, err = l.Obtain(ctx, "settlement:stock-item:1", time.Minute)
	assert.ErrorIs(t, err, appshared.ErrLockNotObtained)

	other, err := l.Obtain(ctx, "settlement:stock-item:2", time.Minute)
	require.NoError(t, err)
	require.NoError(t, other.Release(ctx))

	require.NoError(t, first.Release(ctx))
	again, err := l.Obtain(ctx, "settlement:stock-item:1", time.Minute)
	require.NoError(t, err)
	require.NoError(t, again.Release(ctx))
}

func TestLocalLocker_ExpiredLockCanBeTakenOver(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	l := NewLocalLocker()
	l.now = func() time.Time { return now }

	stale, err := l.Obtain(ctx, "k", time.Second)
	require.NoError(t, err)

	now = now.Add(2 * time.Second)
	fresh, err := l.Obtain(ctx, "k", time.Second)
	require.NoError(t, err)

	// the stale holder must not free the new owner's key
	require.NoError(t, stale.Release(ctx))
	_, err = l.Obtain(ctx, "k", time.Second)
	assert.ErrorIs(t, err, appshared.ErrLockNotObtained)

	require.NoError(t, fresh.Release(ctx))
}

func TestLocalLocker_OnlyOneConcurrentHolder(t *testing.T) {
	ctx := context.Background()
	l := NewLocalLocker()

	var obtained atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := l.Obtain(ctx, "hot", time.Minute); err == nil {
				obtained.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), obtained.Load())
}
