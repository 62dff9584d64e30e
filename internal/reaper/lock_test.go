package reaper

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestAcquireLockExclusive(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	ctx := context.Background()

	l1, err := AcquireLock(ctx, client, "rsrq:lock:reap", time.Minute)
	require.NoError(t, err)
	require.NotNil(t, l1)

	l2, err := AcquireLock(ctx, client, "rsrq:lock:reap", time.Minute)
	require.NoError(t, err)
	require.Nil(t, l2)
}

func TestReleaseFreesLockForNextHolder(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	ctx := context.Background()

	l1, err := AcquireLock(ctx, client, "rsrq:lock:reap", time.Minute)
	require.NoError(t, err)
	require.NoError(t, l1.Release(ctx))

	l2, err := AcquireLock(ctx, client, "rsrq:lock:reap", time.Minute)
	require.NoError(t, err)
	require.NotNil(t, l2)
}
