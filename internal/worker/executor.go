package worker

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aaronmussig/rsrq/internal/command"
	"github.com/aaronmussig/rsrq/internal/job"
	"github.com/aaronmussig/rsrq/internal/keys"
	"github.com/aaronmussig/rsrq/internal/logger"
	"github.com/aaronmussig/rsrq/internal/metrics"
	"github.com/aaronmussig/rsrq/internal/queue"
	"github.com/aaronmussig/rsrq/internal/rsrqerr"
)

// runExecutorTask carries one leased id from lease through its terminal
// pipeline (§4.6). It returns false when the task was aborted mid-child —
// by cancellation observation or by the child's own context being torn
// down — in which case the caller must not post a finished_job message or
// treat the job as resolved by this worker.
func runExecutorTask(ctx context.Context, client *redis.Client, q *queue.Queue, queueName string, id int64, mc *metrics.Collector, log logger.Logger) (completed bool) {
	defer func() {
		// recover must be called directly by the deferred function; from a
		// nested helper it always returns nil.
		if rec := recover(); rec != nil {
			pe := &rsrqerr.PanicError{Value: rec, Stacktrace: string(debug.Stack())}
			log.Error("executor panic recovered", "job_id", id, "panic", rsrqerr.FormatPanicForLog(pe))
			failPanicked(context.Background(), client, q, queueName, id, pe)
			completed = true
		}
	}()

	j, err := job.Load(ctx, client, id)
	if err != nil {
		log.Error("failed to load leased job", "job_id", id, "error", err)
		return false
	}

	startPipe := client.TxPipeline()
	startPipe.HSet(ctx, keys.Job(id), map[string]interface{}{
		"status":  string(job.StatusRunning),
		"started": time.Now().Unix(),
	})
	if _, err := startPipe.Exec(ctx); err != nil {
		log.Error("failed to mark job running", "job_id", id, "error", err)
		return false
	}

	result := command.Run(ctx, j.Cmd)

	if ctx.Err() != nil {
		return false
	}

	status := job.StatusFinished
	target := keys.StateFinished
	if result.ExitCode != 0 {
		status = job.StatusFailed
		target = keys.StateFailed
	}

	finishPipe := client.TxPipeline()
	finishPipe.HSet(ctx, keys.Job(id), map[string]interface{}{
		"status":      string(status),
		"finished":    time.Now().Unix(),
		"stdout":      result.Stdout,
		"stderr":      result.Stderr,
		"exit_code":   result.ExitCode,
		"duration_ms": result.DurationMS,
	})
	q.PipeRemove(ctx, finishPipe, keys.StateRunning, queueName, id)
	q.PipeAdd(ctx, finishPipe, target, queueName, id)
	if _, err := finishPipe.Exec(ctx); err != nil {
		log.Error("failed to commit terminal job state", "job_id", id, "error", err)
		return false
	}

	dur := time.Duration(result.DurationMS) * time.Millisecond
	if status == job.StatusFinished {
		mc.RecordFinished(dur)
	} else {
		mc.RecordFailed(dur)
	}

	return true
}

// failPanicked drives the same terminal pipeline an ordinary spawn
// failure would, so a panicking handler never leaves a job stuck outside
// every state container (invariant I1).
func failPanicked(ctx context.Context, client *redis.Client, q *queue.Queue, queueName string, id int64, recovered error) {
	pipe := client.TxPipeline()
	pipe.HSet(ctx, keys.Job(id), map[string]interface{}{
		"status":      string(job.StatusFailed),
		"finished":    time.Now().Unix(),
		"stderr":      recovered.Error(),
		"exit_code":   1,
		"duration_ms": 0,
	})
	q.PipeRemove(ctx, pipe, keys.StateRunning, queueName, id)
	q.PipeAdd(ctx, pipe, keys.StateFailed, queueName, id)
	_, _ = pipe.Exec(ctx)
}
