package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"nexus-bot/internal/logging"

	"github.com/alicebob/miniredis/v2"
	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	r := NewFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), logging.Discard())
	t.Cleanup(func() { _ = r.Close() })
	require.NoError(t, r.Ping(context.Background()))
	return r, mr
}

func TestAcquireRedemptionIsExclusive(t *testing.T) {
	r, mr := setupTestRedis(t)
	ctx := context.Background()

	release, err := r.AcquireRedemption(ctx, "ORD-1")
	require.NoError(t, err)
	assert.True(t, mr.Exists("nexus:redeem:ORD-1"))
	assert.Equal(t, RedemptionLockTTL, mr.TTL("nexus:redeem:ORD-1"))

	_, err = r.AcquireRedemption(ctx, "ORD-1")
	assert.True(t, errors.Is(err, ErrLocked))

	// Locks are per order.
	releaseOther, err := r.AcquireRedemption(ctx, "ORD-2")
	require.NoError(t, err)
	releaseOther(ctx)

	release(ctx)
	assert.False(t, mr.Exists("nexus:redeem:ORD-1"))

	release2, err := r.AcquireRedemption(ctx, "ORD-1")
	require.NoError(t, err)
	release2(ctx)
}

func TestReleaseDoesNotDropForeignLock(t *testing.T) {
	r, mr := setupTestRedis(t)
	ctx := context.Background()

	release, err := r.AcquireRedemption(ctx, "ORD-1")
	require.NoError(t, err)

	// Expire the first holder and let someone else take over.
	mr.FastForward(RedemptionLockTTL + time.Second)
	releaseNew, err := r.AcquireRedemption(ctx, "ORD-1")
	require.NoError(t, err)

	release(ctx)
	assert.True(t, mr.Exists("nexus:redeem:ORD-1"), "stale holder must not delete the new lock")

	releaseNew(ctx)
	assert.False(t, mr.Exists("nexus:redeem:ORD-1"))
}

func TestAcquireRedemptionConcurrent(t *testing.T) {
	r, _ := setupTestRedis(t)
	ctx := context.Background()

	const workers = 10
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.AcquireRedemption(ctx, "ORD-9"); err == nil {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, winners)
}

func TestAcquireRedemptionUnavailable(t *testing.T) {
	r, mr := setupTestRedis(t)
	mr.Close()

	_, err := r.AcquireRedemption(context.Background(), "ORD-1")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrLocked))
}
