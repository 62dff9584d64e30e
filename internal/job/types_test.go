package job

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/aaronmussig/rsrq/internal/keys"
	"github.com/aaronmussig/rsrq/internal/rsrqerr"
)

func newTestClient(t *testing.T) *redis.Client {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestCreateAndLoad(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	j, err := Create(ctx, client, "default", "echo hello")
	require.NoError(t, err)
	require.Equal(t, StatusQueued, j.Status)

	loaded, err := Load(ctx, client, j.ID)
	require.NoError(t, err)
	require.Equal(t, "echo hello", loaded.Cmd)
	require.Equal(t, StatusQueued, loaded.Status)
	require.Equal(t, "default", loaded.Queue)
	require.Nil(t, loaded.ExitCode)

	n, err := client.LLen(ctx, keys.StateKey(keys.StateQueued, "default")).Result()
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}

func TestLoadMissingJobReturnsJobNotFound(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	_, err := Load(ctx, client, 999)
	require.Error(t, err)
	require.True(t, rsrqerr.Is(err, rsrqerr.KindJobNotFound))
}

func TestStatusManyPreservesOrder(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	a, err := Create(ctx, client, "q", "cmd-a")
	require.NoError(t, err)
	b, err := Create(ctx, client, "q", "cmd-b")
	require.NoError(t, err)

	client.HSet(ctx, keys.Job(b.ID), "status", string(StatusCancelled))

	statuses, err := StatusMany(ctx, client, []int64{a.ID, b.ID, 9999})
	require.NoError(t, err)
	require.Len(t, statuses, 3)
	require.Equal(t, StatusQueued, statuses[0])
	require.Equal(t, StatusCancelled, statuses[1])
	require.Equal(t, Status(""), statuses[2])
}
