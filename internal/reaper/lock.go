// Package reaper implements the optional stale-lease reclaimer described
// in SPEC_FULL.md §3.2: an out-of-band maintenance pass that finds worker
// process records whose heartbeat has gone stale and moves every job still
// listed in that record's current_jobs to the failed set. It is never
// invoked automatically by the worker process itself.
package reaper

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/aaronmussig/rsrq/internal/rsrqerr"
)

// DistributedLock is a Redis SETNX lock with a random fencing token, so a
// holder can safely release only the lock it still owns. There is no
// extend operation; the lock expires after its TTL.
type DistributedLock struct {
	client *redis.Client
	key    string
	token  string
	ttl    time.Duration
}

// AcquireLock attempts to take the named lock. It returns a nil lock (and
// nil error) if another reaper already holds it.
func AcquireLock(ctx context.Context, client *redis.Client, key string, ttl time.Duration) (*DistributedLock, error) {
	token := uuid.New().String()

	acquired, err := client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, rsrqerr.Wrap(rsrqerr.KindRedisOp, "failed to acquire reap lock", err)
	}
	if !acquired {
		return nil, nil
	}

	return &DistributedLock{client: client, key: key, token: token, ttl: ttl}, nil
}

var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`)

// Release deletes the lock, but only if this holder's token still matches
// what's stored — a concurrent holder that took over after TTL expiry is
// never clobbered.
func (l *DistributedLock) Release(ctx context.Context) error {
	if _, err := releaseScript.Run(ctx, l.client, []string{l.key}, l.token).Result(); err != nil {
		return rsrqerr.Wrap(rsrqerr.KindRedisOp, "failed to release reap lock", err)
	}
	return nil
}
