package queue

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/aaronmussig/rsrq/internal/keys"
)

func newTestQueue(t *testing.T) (*Queue, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return New(client), client
}

func TestLengthEmptyQueue(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	n, err := q.Length(ctx, keys.StateQueued, "default")
	require.NoError(t, err)
	require.EqualValues(t, 0, n)

	n, err = q.Length(ctx, keys.StateFinished, "default")
	require.NoError(t, err)
	require.EqualValues(t, 0, n)
}

func TestPipeAddAndLength(t *testing.T) {
	q, client := newTestQueue(t)
	ctx := context.Background()

	pipe := client.TxPipeline()
	q.PipeAdd(ctx, pipe, keys.StateQueued, "default", 1)
	q.PipeAdd(ctx, pipe, keys.StateQueued, "default", 2)
	q.PipeAdd(ctx, pipe, keys.StateFinished, "default", 3)
	_, err := pipe.Exec(ctx)
	require.NoError(t, err)

	n, err := q.Length(ctx, keys.StateQueued, "default")
	require.NoError(t, err)
	require.EqualValues(t, 2, n)

	n, err = q.Length(ctx, keys.StateFinished, "default")
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}

func TestPipeRemove(t *testing.T) {
	q, client := newTestQueue(t)
	ctx := context.Background()

	pipe := client.TxPipeline()
	q.PipeAdd(ctx, pipe, keys.StateFailed, "default", 7)
	_, err := pipe.Exec(ctx)
	require.NoError(t, err)

	pipe = client.TxPipeline()
	q.PipeRemove(ctx, pipe, keys.StateFailed, "default", 7)
	_, err = pipe.Exec(ctx)
	require.NoError(t, err)

	n, err := q.Length(ctx, keys.StateFailed, "default")
	require.NoError(t, err)
	require.EqualValues(t, 0, n)
}

func TestLeaseOneMovesBetweenContainers(t *testing.T) {
	q, client := newTestQueue(t)
	ctx := context.Background()

	pipe := client.TxPipeline()
	q.PipeAdd(ctx, pipe, keys.StateQueued, "default", 10)
	_, err := pipe.Exec(ctx)
	require.NoError(t, err)

	id, ok, err := q.LeaseOne(ctx, "default")
	require.NoError(t, err)
	require.True(t, ok)
	require.EqualValues(t, 10, id)

	n, err := q.Length(ctx, keys.StateQueued, "default")
	require.NoError(t, err)
	require.EqualValues(t, 0, n)

	n, err = q.Length(ctx, keys.StateRunning, "default")
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}

func TestLeaseOneEmptyQueueReturnsNotOK(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	id, ok, err := q.LeaseOne(ctx, "default")
	require.NoError(t, err)
	require.False(t, ok)
	require.Zero(t, id)
}

func TestLeaseBatchZeroIsNoOp(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	ids, err := q.LeaseBatch(ctx, "default", 0)
	require.NoError(t, err)
	require.Empty(t, ids)
}

func TestLeaseBatchStopsWhenQueueDrains(t *testing.T) {
	q, client := newTestQueue(t)
	ctx := context.Background()

	pipe := client.TxPipeline()
	q.PipeAdd(ctx, pipe, keys.StateQueued, "default", 1)
	q.PipeAdd(ctx, pipe, keys.StateQueued, "default", 2)
	_, err := pipe.Exec(ctx)
	require.NoError(t, err)

	ids, err := q.LeaseBatch(ctx, "default", 5)
	require.NoError(t, err)
	require.Len(t, ids, 2)

	n, err := q.Length(ctx, keys.StateRunning, "default")
	require.NoError(t, err)
	require.EqualValues(t, 2, n)
}

func TestListQueuesDiscoversDistinctNames(t *testing.T) {
	q, client := newTestQueue(t)
	ctx := context.Background()

	pipe := client.TxPipeline()
	q.PipeAdd(ctx, pipe, keys.StateQueued, "alpha", 1)
	q.PipeAdd(ctx, pipe, keys.StateFinished, "beta", 2)
	q.PipeAdd(ctx, pipe, keys.StateFailed, "alpha", 3)
	_, err := pipe.Exec(ctx)
	require.NoError(t, err)

	names, err := q.ListQueues(ctx)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"alpha", "beta"}, names)
}

func TestPurgeStateDeletesJobsAndContainer(t *testing.T) {
	q, client := newTestQueue(t)
	ctx := context.Background()

	pipe := client.TxPipeline()
	q.PipeAdd(ctx, pipe, keys.StateFailed, "default", 1)
	q.PipeAdd(ctx, pipe, keys.StateFailed, "default", 2)
	pipe.HSet(ctx, keys.Job(1), "status", "failed")
	pipe.HSet(ctx, keys.Job(2), "status", "failed")
	_, err := pipe.Exec(ctx)
	require.NoError(t, err)

	require.NoError(t, q.PurgeState(ctx, keys.StateFailed, "default"))

	n, err := q.Length(ctx, keys.StateFailed, "default")
	require.NoError(t, err)
	require.EqualValues(t, 0, n)

	exists, err := client.Exists(ctx, keys.Job(1)).Result()
	require.NoError(t, err)
	require.Zero(t, exists)
}

func TestPurgeStateAllAcrossQueues(t *testing.T) {
	q, client := newTestQueue(t)
	ctx := context.Background()

	pipe := client.TxPipeline()
	q.PipeAdd(ctx, pipe, keys.StateFailed, "alpha", 1)
	q.PipeAdd(ctx, pipe, keys.StateFailed, "beta", 2)
	q.PipeAdd(ctx, pipe, keys.StateQueued, "alpha", 3)
	_, err := pipe.Exec(ctx)
	require.NoError(t, err)

	require.NoError(t, q.PurgeStateAll(ctx, keys.StateFailed))

	n, err := q.Length(ctx, keys.StateFailed, "alpha")
	require.NoError(t, err)
	require.EqualValues(t, 0, n)

	n, err = q.Length(ctx, keys.StateFailed, "beta")
	require.NoError(t, err)
	require.EqualValues(t, 0, n)

	n, err = q.Length(ctx, keys.StateQueued, "alpha")
	require.NoError(t, err)
	require.EqualValues(t, 1, n, "purging failed must not touch other states")
}

func TestPurgeAllDeletesEverything(t *testing.T) {
	q, client := newTestQueue(t)
	ctx := context.Background()

	pipe := client.TxPipeline()
	q.PipeAdd(ctx, pipe, keys.StateQueued, "default", 1)
	pipe.HSet(ctx, keys.Job(1), "status", "queued")
	_, err := pipe.Exec(ctx)
	require.NoError(t, err)
	require.NoError(t, client.Incr(ctx, keys.JobUIDCounter()).Err())

	n, err := PurgeAll(ctx, client)
	require.NoError(t, err)
	require.Greater(t, n, 0)

	keysLeft, err := client.Keys(ctx, "rsrq:*").Result()
	require.NoError(t, err)
	require.Empty(t, keysLeft)
}
