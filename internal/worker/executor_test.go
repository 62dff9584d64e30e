package worker

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/aaronmussig/rsrq/internal/job"
	"github.com/aaronmussig/rsrq/internal/keys"
	"github.com/aaronmussig/rsrq/internal/logger"
	"github.com/aaronmussig/rsrq/internal/metrics"
	"github.com/aaronmussig/rsrq/internal/queue"
)

func newExecutorEnv(t *testing.T) (*redis.Client, *queue.Queue) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return client, queue.New(client)
}

func leaseJob(t *testing.T, ctx context.Context, client *redis.Client, q *queue.Queue, queueName, cmd string) int64 {
	t.Helper()
	j, err := job.Create(ctx, client, queueName, cmd)
	require.NoError(t, err)
	id, ok, err := q.LeaseOne(ctx, queueName)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, j.ID, id)
	return id
}

func TestRunExecutorTaskSuccess(t *testing.T) {
	client, q := newExecutorEnv(t)
	ctx := context.Background()
	id := leaseJob(t, ctx, client, q, "default", "echo hello")

	completed := runExecutorTask(ctx, client, q, "default", id, metrics.NewCollector(), &logger.NoOpLogger{})
	require.True(t, completed)

	loaded, err := job.Load(ctx, client, id)
	require.NoError(t, err)
	require.Equal(t, job.StatusFinished, loaded.Status)
	require.Equal(t, "hello\n", loaded.Stdout)
	require.NotNil(t, loaded.ExitCode)
	require.Zero(t, *loaded.ExitCode)

	n, err := q.Length(ctx, keys.StateRunning, "default")
	require.NoError(t, err)
	require.EqualValues(t, 0, n)

	n, err = q.Length(ctx, keys.StateFinished, "default")
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}

func TestRunExecutorTaskNonZeroExit(t *testing.T) {
	client, q := newExecutorEnv(t)
	ctx := context.Background()
	id := leaseJob(t, ctx, client, q, "default", "sh -c 'exit 2'")

	completed := runExecutorTask(ctx, client, q, "default", id, metrics.NewCollector(), &logger.NoOpLogger{})
	require.True(t, completed)

	loaded, err := job.Load(ctx, client, id)
	require.NoError(t, err)
	require.Equal(t, job.StatusFailed, loaded.Status)
	require.Equal(t, 2, *loaded.ExitCode)

	n, err := q.Length(ctx, keys.StateFailed, "default")
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}

func TestRunExecutorTaskParseFailure(t *testing.T) {
	client, q := newExecutorEnv(t)
	ctx := context.Background()
	id := leaseJob(t, ctx, client, q, "default", "   ")

	completed := runExecutorTask(ctx, client, q, "default", id, metrics.NewCollector(), &logger.NoOpLogger{})
	require.True(t, completed)

	loaded, err := job.Load(ctx, client, id)
	require.NoError(t, err)
	require.Equal(t, job.StatusFailed, loaded.Status)
	require.Equal(t, "Unable to parse command.", loaded.Stderr)
	require.Equal(t, 1, *loaded.ExitCode)
}

func TestRunExecutorTaskAbortedMidChildSkipsTerminalUpdate(t *testing.T) {
	client, q := newExecutorEnv(t)
	background := context.Background()
	id := leaseJob(t, background, client, q, "default", "sleep 5")

	ctx, cancel := context.WithTimeout(background, 50*time.Millisecond)
	defer cancel()

	completed := runExecutorTask(ctx, client, q, "default", id, metrics.NewCollector(), &logger.NoOpLogger{})
	require.False(t, completed)

	loaded, err := job.Load(background, client, id)
	require.NoError(t, err)
	require.Equal(t, job.StatusRunning, loaded.Status)
}
