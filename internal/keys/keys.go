// Package keys builds and parses the deterministic Redis key layout used
// by the queue, and allocates monotonic job ids.
package keys

import (
	"context"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/aaronmussig/rsrq/internal/rsrqerr"
)

// State is one of the four state containers a job id can live in.
type State string

const (
	StateQueued   State = "queued"
	StateRunning  State = "running"
	StateFinished State = "finished"
	StateFailed   State = "failed"
)

const (
	prefix        = "rsrq:"
	jobUIDKey     = prefix + "uid:job"
	jobKeyBase    = prefix + "job:"
	workerUIDKey  = prefix + "uid:worker"
	workerKeyBase = prefix + "worker:"
	reapLockKey   = prefix + "lock:reap"
)

// StateKey builds the container key rsrq:<state>:<Q>.
func StateKey(state State, queue string) string {
	var b strings.Builder
	b.Grow(len(prefix) + len(state) + 1 + len(queue))
	b.WriteString(prefix)
	b.WriteString(string(state))
	b.WriteByte(':')
	b.WriteString(queue)
	return b.String()
}

// Job builds the job hash key rsrq:job:<id>.
func Job(id int64) string {
	var b strings.Builder
	b.Grow(len(jobKeyBase) + 20)
	b.WriteString(jobKeyBase)
	b.WriteString(strconv.FormatInt(id, 10))
	return b.String()
}

// JobUIDCounter returns the key of the monotonic job id counter.
func JobUIDCounter() string { return jobUIDKey }

// Worker builds the worker process record key rsrq:worker:<id>.
func Worker(id int64) string {
	var b strings.Builder
	b.Grow(len(workerKeyBase) + 20)
	b.WriteString(workerKeyBase)
	b.WriteString(strconv.FormatInt(id, 10))
	return b.String()
}

// WorkerUIDCounter returns the key of the monotonic worker-process id
// counter.
func WorkerUIDCounter() string { return workerUIDKey }

// WorkerPattern returns the SCAN match pattern for every worker process
// record.
func WorkerPattern() string { return workerKeyBase + "*" }

// ReapLock returns the key of the distributed lock guarding the stale-lease
// reclaimer, so two reapers never race.
func ReapLock() string { return reapLockKey }

// AllPattern returns the SCAN match pattern for every key this system owns.
func AllPattern() string { return prefix + "*" }

// StatePattern returns the SCAN match pattern for every container of the
// given state, across all queue names.
func StatePattern(state State) string {
	return prefix + string(state) + ":*"
}

// NextWorkerID allocates the next monotonic worker-process id via INCR.
func NextWorkerID(ctx context.Context, client *redis.Client) (int64, error) {
	id, err := client.Incr(ctx, workerUIDKey).Result()
	if err != nil {
		return 0, rsrqerr.Wrap(rsrqerr.KindRedisOp, "failed to allocate worker id", err)
	}
	return id, nil
}

// ParseKey is the inverse of StateKey: it extracts the state and queue name
// from a container key of the form rsrq:<state>:<Q>.
func ParseKey(key string) (State, string, error) {
	if !strings.HasPrefix(key, prefix) {
		return "", "", rsrqerr.New(rsrqerr.KindParse, "key missing rsrq: prefix: "+key)
	}
	rest := strings.TrimPrefix(key, prefix)
	parts := strings.SplitN(rest, ":", 2)
	if len(parts) != 2 || parts[1] == "" {
		return "", "", rsrqerr.New(rsrqerr.KindParse, "malformed state key: "+key)
	}
	state := State(parts[0])
	switch state {
	case StateQueued, StateRunning, StateFinished, StateFailed:
		return state, parts[1], nil
	default:
		return "", "", rsrqerr.New(rsrqerr.KindParse, "unknown state in key: "+key)
	}
}

// NextJobID allocates the next monotonic job id via INCR.
func NextJobID(ctx context.Context, client *redis.Client) (int64, error) {
	id, err := client.Incr(ctx, jobUIDKey).Result()
	if err != nil {
		return 0, rsrqerr.Wrap(rsrqerr.KindRedisOp, "failed to allocate job id", err)
	}
	return id, nil
}
