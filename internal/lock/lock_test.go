package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exercise runs n goroutines that each hold key for a moment and records
// the highest number of simultaneous holders.
func exercise(t *testing.T, l Locker, key string, n int) int32 {
	t.Helper()
	var (
		inside, peak int32
		wg           sync.WaitGroup
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := l.Acquire(context.Background(), key)
			if !assert.NoError(t, err) {
				return
			}
			cur := atomic.AddInt32(&inside, 1)
			for {
				old := atomic.LoadInt32(&peak)
				if cur <= old || atomic.CompareAndSwapInt32(&peak, old, cur) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			atomic.AddInt32(&inside, -1)
			release()
		}()
	}
	wg.Wait()
	return peak
}

func TestLocalMutualExclusion(t *testing.T) {
	l := NewLocal()
	assert.Equal(t, int32(1), exercise(t, l, "tables:two_guest_table", 16))
	assert.Zero(t, l.held())
}

func TestLocalKeysAreIndependent(t *testing.T) {
	l := NewLocal()
	ctx := context.Background()

	releaseA, err := l.Acquire(ctx, "a")
	require.NoError(t, err)
	releaseB, err := l.Acquire(ctx, "b")
	require.NoError(t, err)

	releaseA()
	releaseB()
	releaseB() // double release is a no-op
	assert.Zero(t, l.held())
}

func TestLocalAcquireHonoursContext(t *testing.T) {
	l := NewLocal()
	release, err := l.Acquire(context.Background(), "k")
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Acquire(ctx, "k")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, l.held())
}

func newRedisLocker(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedis(rdb, "lock", time.Second, time.Millisecond), mr
}

func TestRedisMutualExclusion(t *testing.T) {
	l, mr := newRedisLocker(t)
	assert.Equal(t, int32(1), exercise(t, l, "tables:four_guest_table", 8))
	assert.False(t, mr.Exists("lock:tables:four_guest_table"))
}

func TestRedisReleaseKeepsForeignLease(t *testing.T) {
	l, mr := newRedisLocker(t)
	release, err := l.Acquire(context.Background(), "k")
	require.NoError(t, err)

	// lease expired and someone else took the key
	require.NoError(t, mr.Set("lock:k", "someone-else"))
	release()

	v, err := mr.Get("lock:k")
	require.NoError(t, err)
	assert.Equal(t, "someone-else", v)
}

func TestRedisAcquireHonoursContext(t *testing.T) {
	l, _ := newRedisLocker(t)
	release, err := l.Acquire(context.Background(), "k")
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Acquire(ctx, "k")
	assert.Error(t, err)
}
