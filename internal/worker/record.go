package worker

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aaronmussig/rsrq/internal/keys"
	"github.com/aaronmussig/rsrq/internal/rsrqerr"
)

// Record is the process-scoped worker record described in SPEC_FULL.md
// §3.1: one hash per running worker process (not per job), written once
// at startup, heartbeat-refreshed by the control loop, and deleted on
// clean shutdown. It is purely additive — no operation in spec.md depends
// on its presence — and exists for observability and as the anchor the
// stale-lease reaper (internal/reaper) scans for crashed workers.
type Record struct {
	client *redis.Client
	id     int64
	queue  string
}

// Register allocates a worker-process id and writes the initial record.
func Register(ctx context.Context, client *redis.Client, queueName string) (*Record, error) {
	id, err := keys.NextWorkerID(ctx, client)
	if err != nil {
		return nil, err
	}

	hostname, _ := os.Hostname()
	fields := map[string]interface{}{
		"id":        id,
		"hostname":  hostname,
		"pid":       os.Getpid(),
		"queue":     queueName,
		"birth":     time.Now().Unix(),
		"heartbeat": time.Now().Unix(),
	}
	if err := client.HSet(ctx, keys.Worker(id), fields).Err(); err != nil {
		return nil, rsrqerr.Wrap(rsrqerr.KindRedisOp, "failed to register worker record", err)
	}

	return &Record{client: client, id: id, queue: queueName}, nil
}

// Heartbeat refreshes the heartbeat timestamp and the set of job ids this
// process currently has in flight, so the reaper can tell a merely-slow
// worker from a crashed one.
func (r *Record) Heartbeat(ctx context.Context, currentJobs []int64) error {
	fields := map[string]interface{}{
		"heartbeat":    time.Now().Unix(),
		"current_jobs": joinIDs(currentJobs),
	}
	if err := r.client.HSet(ctx, keys.Worker(r.id), fields).Err(); err != nil {
		return rsrqerr.Wrap(rsrqerr.KindRedisOp, "failed to refresh worker heartbeat", err)
	}
	return nil
}

// Deregister deletes the record at clean shutdown.
func (r *Record) Deregister(ctx context.Context) error {
	if err := r.client.Del(ctx, keys.Worker(r.id)).Err(); err != nil {
		return rsrqerr.Wrap(rsrqerr.KindRedisOp, "failed to deregister worker record", err)
	}
	return nil
}

func joinIDs(ids []int64) string {
	if len(ids) == 0 {
		return ""
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}
