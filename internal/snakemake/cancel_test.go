package snakemake

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aaronmussig/rsrq/internal/job"
	"github.com/aaronmussig/rsrq/internal/keys"
	"github.com/aaronmussig/rsrq/internal/queue"
)

func TestCancelMovesQueuedAndRunningToFailed(t *testing.T) {
	client := newSnakemakeEnv(t)
	ctx := context.Background()
	q := queue.New(client)

	runningJob, err := job.Create(ctx, client, "default", "echo b")
	require.NoError(t, err)
	leasedID, ok, err := q.LeaseOne(ctx, "default")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, runningJob.ID, leasedID)
	require.NoError(t, client.HSet(ctx, keys.Job(runningJob.ID), "status", string(job.StatusRunning)).Err())

	queuedJob, err := job.Create(ctx, client, "default", "echo a")
	require.NoError(t, err)

	require.NoError(t, Cancel(ctx, client, []int64{queuedJob.ID, runningJob.ID}))

	for _, id := range []int64{queuedJob.ID, runningJob.ID} {
		loaded, err := job.Load(ctx, client, id)
		require.NoError(t, err)
		require.Equal(t, job.StatusCancelled, loaded.Status)
	}

	n, err := q.Length(ctx, keys.StateFailed, "default")
	require.NoError(t, err)
	require.EqualValues(t, 2, n)

	n, err = q.Length(ctx, keys.StateQueued, "default")
	require.NoError(t, err)
	require.EqualValues(t, 0, n)

	n, err = q.Length(ctx, keys.StateRunning, "default")
	require.NoError(t, err)
	require.EqualValues(t, 0, n)
}

func TestCancelIgnoresTerminalJobs(t *testing.T) {
	client := newSnakemakeEnv(t)
	ctx := context.Background()

	finishedJob, err := job.Create(ctx, client, "default", "echo a")
	require.NoError(t, err)
	require.NoError(t, client.HSet(ctx, keys.Job(finishedJob.ID), "status", string(job.StatusFinished)).Err())

	require.NoError(t, Cancel(ctx, client, []int64{finishedJob.ID}))

	loaded, err := job.Load(ctx, client, finishedJob.ID)
	require.NoError(t, err)
	require.Equal(t, job.StatusFinished, loaded.Status)
}

func TestCancelIgnoresUnknownIDs(t *testing.T) {
	client := newSnakemakeEnv(t)
	require.NoError(t, Cancel(context.Background(), client, []int64{404}))
}

func TestCancelDeduplicatesInput(t *testing.T) {
	client := newSnakemakeEnv(t)
	ctx := context.Background()
	q := queue.New(client)

	j, err := job.Create(ctx, client, "default", "echo a")
	require.NoError(t, err)

	require.NoError(t, Cancel(ctx, client, []int64{j.ID, j.ID, j.ID}))

	n, err := q.Length(ctx, keys.StateFailed, "default")
	require.NoError(t, err)
	require.EqualValues(t, 1, n, "duplicate ids must not be moved into the failed set twice")
}
