package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mehdry/flowline/pkg/adapters/redis"
)

func TestLocker_AcquireAndRelease(t *testing.T) {
	mr, client := newTestClient(t)
	locker := redis.NewLocker(client, "flowline:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "session-1", 5*time.Second)
	require.NoError(t, err)
	assert.True(t, mr.Exists("flowline:lock:session-1"))

	require.NoError(t, unlock(ctx))
	assert.False(t, mr.Exists("flowline:lock:session-1"))
}

func TestLocker_ContendedLockTimesOut(t *testing.T) {
	_, client := newTestClient(t)
	locker := redis.NewLocker(client, "flowline:")

	unlock, err := locker.Lock(context.Background(), "session-1", 5*time.Second)
	require.NoError(t, err)
	defer func() { _ = unlock(context.Background()) }()

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	_, err = locker.Lock(ctx, "session-1", 5*time.Second)
	assert.ErrorIs(t, err, redis.ErrLockAcquire)
}

func TestLocker_StaleUnlockIsNoOp(t *testing.T) {
	mr, client := newTestClient(t)
	locker := redis.NewLocker(client, "flowline:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "session-1", 1*time.Second)
	require.NoError(t, err)

	// Simulate expiry plus re-acquisition by another holder.
	mr.FastForward(2 * time.Second)
	unlock2, err := locker.Lock(ctx, "session-1", 5*time.Second)
	require.NoError(t, err)
	defer func() { _ = unlock2(ctx) }()

	// The first holder's release must not drop the new holder's lock.
	require.NoError(t, unlock(ctx))
	assert.True(t, mr.Exists("flowline:lock:session-1"))
}
