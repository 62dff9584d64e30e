package snakemake

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/aaronmussig/rsrq/internal/job"
	"github.com/aaronmussig/rsrq/internal/keys"
	"github.com/aaronmussig/rsrq/internal/queue"
	"github.com/aaronmussig/rsrq/internal/rsrqerr"
)

// dedupeIDs returns ids with duplicates removed, preserving the order of
// first occurrence.
func dedupeIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func isCancellable(s job.Status) bool {
	return s == job.StatusQueued || s == job.StatusRunning
}

func stateForStatus(s job.Status) keys.State {
	if s == job.StatusQueued {
		return keys.StateQueued
	}
	return keys.StateRunning
}

// Cancel marks every cancellable id among ids as cancelled, moving it out
// of its current container and into the failed set in one atomic
// pipeline. Ids that are already terminal, or that do not exist, are
// silently ignored. Duplicate ids are collapsed before processing.
func Cancel(ctx context.Context, client *redis.Client, ids []int64) error {
	ids = dedupeIDs(ids)
	if len(ids) == 0 {
		return nil
	}

	jobs := make([]*job.Job, 0, len(ids))
	for _, id := range ids {
		j, err := job.Load(ctx, client, id)
		if err != nil {
			if rsrqerr.Is(err, rsrqerr.KindJobNotFound) {
				continue
			}
			return err
		}
		if isCancellable(j.Status) {
			jobs = append(jobs, j)
		}
	}
	if len(jobs) == 0 {
		return nil
	}

	q := queue.New(client)
	pipe := client.TxPipeline()
	for _, j := range jobs {
		pipe.HSet(ctx, keys.Job(j.ID), "status", string(job.StatusCancelled))
		q.PipeRemove(ctx, pipe, stateForStatus(j.Status), j.Queue, j.ID)
		q.PipeAdd(ctx, pipe, keys.StateFailed, j.Queue, j.ID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return rsrqerr.Wrap(rsrqerr.KindRedisOp, "failed to cancel jobs", err)
	}
	return nil
}
