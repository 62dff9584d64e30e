package reaper

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aaronmussig/rsrq/internal/keys"
	"github.com/aaronmussig/rsrq/internal/queue"
	"github.com/aaronmussig/rsrq/internal/rsrqerr"
)

const lockTTL = 30 * time.Second

// Report summarizes one reap pass.
type Report struct {
	WorkersScanned int
	JobsReclaimed  []int64
}

// Reap acquires the rsrq:lock:reap distributed lock, scans every worker
// process record on queueName whose heartbeat is older than staleAfter,
// and moves every job id listed in such a record's comma-joined
// current_jobs field (if any) from running to failed with status=failed. If the lock is already held by another
// reaper, Reap returns a zero Report and no error — this is a no-op, not
// a failure.
func Reap(ctx context.Context, client *redis.Client, q *queue.Queue, queueName string, staleAfter time.Duration) (Report, error) {
	lock, err := AcquireLock(ctx, client, keys.ReapLock(), lockTTL)
	if err != nil {
		return Report{}, err
	}
	if lock == nil {
		return Report{}, nil
	}
	defer func() { _ = lock.Release(ctx) }()

	workerKeys, err := scanWorkerKeys(ctx, client)
	if err != nil {
		return Report{}, err
	}

	report := Report{}
	cutoff := time.Now().Add(-staleAfter)

	for _, wk := range workerKeys {
		fields, err := client.HGetAll(ctx, wk).Result()
		if err != nil {
			return report, rsrqerr.Wrap(rsrqerr.KindRedisOp, "failed to load worker record", err)
		}
		if len(fields) == 0 {
			continue
		}
		if fields["queue"] != queueName {
			continue
		}
		report.WorkersScanned++

		hb, err := strconv.ParseInt(fields["heartbeat"], 10, 64)
		if err != nil {
			continue
		}
		if time.Unix(hb, 0).After(cutoff) {
			continue
		}

		for _, jobIDStr := range strings.Split(fields["current_jobs"], ",") {
			if jobIDStr == "" {
				continue
			}
			jobID, err := strconv.ParseInt(jobIDStr, 10, 64)
			if err != nil {
				continue
			}

			if err := reclaim(ctx, client, q, queueName, jobID); err != nil {
				return report, err
			}
			report.JobsReclaimed = append(report.JobsReclaimed, jobID)
		}
	}

	return report, nil
}

func scanWorkerKeys(ctx context.Context, client *redis.Client) ([]string, error) {
	var out []string
	iter := client.Scan(ctx, 0, keys.WorkerPattern(), 0).Iterator()
	for iter.Next(ctx) {
		out = append(out, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, rsrqerr.Wrap(rsrqerr.KindRedisOp, "failed to scan worker records", err)
	}
	return out, nil
}

func reclaim(ctx context.Context, client *redis.Client, q *queue.Queue, queueName string, jobID int64) error {
	pipe := client.TxPipeline()
	pipe.HSet(ctx, keys.Job(jobID), map[string]interface{}{
		"status":   "failed",
		"finished": time.Now().Unix(),
		"stderr":   "Worker heartbeat expired.",
	})
	q.PipeRemove(ctx, pipe, keys.StateRunning, queueName, jobID)
	q.PipeAdd(ctx, pipe, keys.StateFailed, queueName, jobID)
	if _, err := pipe.Exec(ctx); err != nil {
		return rsrqerr.Wrap(rsrqerr.KindRedisOp, "failed to reclaim stale job", err)
	}
	return nil
}
