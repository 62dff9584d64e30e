// Package queue implements the typed wrapper over the four state
// containers described in §3/§4.1: queued and running are FIFO lists,
// finished and failed are unordered sets. Transitions that touch more
// than one container are composed into a single atomic pipeline by the
// caller using PipeAdd/PipeRemove; lease operations are atomic primitives
// in their own right.
package queue

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/aaronmussig/rsrq/internal/keys"
	"github.com/aaronmussig/rsrq/internal/rsrqerr"
)

// Queue wraps a Redis client with the state-container operations for one
// Redis instance; the queue name Q is passed per-call so a single Queue
// value can serve every named queue.
type Queue struct {
	client *redis.Client
}

// New wraps a Redis client.
func New(client *redis.Client) *Queue {
	return &Queue{client: client}
}

func isListState(state keys.State) bool {
	return state == keys.StateQueued || state == keys.StateRunning
}

// Length returns the list-length for list states, or the set-cardinality
// for set states.
func (q *Queue) Length(ctx context.Context, state keys.State, queueName string) (int64, error) {
	key := keys.StateKey(state, queueName)
	var n int64
	var err error
	if isListState(state) {
		n, err = q.client.LLen(ctx, key).Result()
	} else {
		n, err = q.client.SCard(ctx, key).Result()
	}
	if err != nil {
		return 0, rsrqerr.Wrap(rsrqerr.KindRedisOp, "failed to read container length", err)
	}
	return n, nil
}

// PipeAdd composes an add of id into state onto an existing pipeline: a
// left-push for list states, a set-add for set states.
func (q *Queue) PipeAdd(ctx context.Context, pipe redis.Pipeliner, state keys.State, queueName string, id int64) {
	key := keys.StateKey(state, queueName)
	if isListState(state) {
		pipe.LPush(ctx, key, id)
	} else {
		pipe.SAdd(ctx, key, id)
	}
}

// PipeRemove composes a removal of id from state onto an existing
// pipeline: a count=1 list-remove for list states, a set-remove for set
// states.
func (q *Queue) PipeRemove(ctx context.Context, pipe redis.Pipeliner, state keys.State, queueName string, id int64) {
	key := keys.StateKey(state, queueName)
	if isListState(state) {
		pipe.LRem(ctx, key, 1, id)
	} else {
		pipe.SRem(ctx, key, id)
	}
}

// LeaseOne atomically moves one id from queued:Q to running:Q using a
// single right-pop/left-push primitive, so two concurrent leasers never
// see the same id. Returns ok=false if the queue is empty.
func (q *Queue) LeaseOne(ctx context.Context, queueName string) (id int64, ok bool, err error) {
	from := keys.StateKey(keys.StateQueued, queueName)
	to := keys.StateKey(keys.StateRunning, queueName)

	v, err := q.client.RPopLPush(ctx, from, to).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, rsrqerr.Wrap(rsrqerr.KindRedisOp, "failed to lease job", err)
	}

	n, perr := parseID(v)
	if perr != nil {
		return 0, false, perr
	}
	return n, true, nil
}

// LeaseBatch issues up to n LeaseOne calls one after another, stopping at
// the first empty result, and collects the ids that came back. The calls
// are not made concurrently. The batch itself is not atomic; a short
// batch (fewer than n ids) indicates a draining queue. n<=0 is a no-op
// that performs no round trips.
func (q *Queue) LeaseBatch(ctx context.Context, queueName string, n int) ([]int64, error) {
	if n <= 0 {
		return nil, nil
	}

	ids := make([]int64, 0, n)
	for i := 0; i < n; i++ {
		id, ok, err := q.LeaseOne(ctx, queueName)
		if err != nil {
			return ids, err
		}
		if !ok {
			break
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// ParseKey is the inverse of the key formatter, re-exported for callers
// that only import the queue package.
func ParseKey(key string) (keys.State, string, error) {
	return keys.ParseKey(key)
}

// ListQueues discovers every distinct queue name that currently has a
// container in any of the four states, by scanning rsrq:* cursor-style
// rather than KEYS, so a large keyspace never blocks Redis.
func (q *Queue) ListQueues(ctx context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	var cursor uint64
	for {
		batch, next, err := q.client.Scan(ctx, cursor, keys.AllPattern(), 100).Result()
		if err != nil {
			return nil, rsrqerr.Wrap(rsrqerr.KindRedisOp, "failed to scan keys", err)
		}
		for _, key := range batch {
			if _, queueName, err := keys.ParseKey(key); err == nil {
				seen[queueName] = struct{}{}
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}

	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	return out, nil
}

// PurgeState deletes every job hash in state:queueName along with the
// container itself.
func (q *Queue) PurgeState(ctx context.Context, state keys.State, queueName string) error {
	return q.purgeStateKeys(ctx, state, []string{keys.StateKey(state, queueName)})
}

// PurgeStateAll purges state across every queue that currently has a
// container for it, by scanning state:* rather than requiring the caller
// to already know every queue name.
func (q *Queue) PurgeStateAll(ctx context.Context, state keys.State) error {
	var cursor uint64
	var matched []string
	for {
		batch, next, err := q.client.Scan(ctx, cursor, keys.StatePattern(state), 100).Result()
		if err != nil {
			return rsrqerr.Wrap(rsrqerr.KindRedisOp, "failed to scan state containers", err)
		}
		matched = append(matched, batch...)
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return q.purgeStateKeys(ctx, state, matched)
}

func (q *Queue) purgeStateKeys(ctx context.Context, state keys.State, containerKeys []string) error {
	p := q.client.TxPipeline()
	for _, key := range containerKeys {
		ids, err := q.memberIDs(ctx, state, key)
		if err != nil {
			return err
		}
		for _, id := range ids {
			p.Del(ctx, keys.Job(id))
		}
		p.Del(ctx, key)
	}
	if _, err := p.Exec(ctx); err != nil {
		return rsrqerr.Wrap(rsrqerr.KindRedisOp, "failed to purge state container", err)
	}
	return nil
}

// Members returns every id currently in state:queueName, preserving list
// order for the two FIFO states and arbitrary order for the two sets.
func (q *Queue) Members(ctx context.Context, state keys.State, queueName string) ([]int64, error) {
	return q.memberIDs(ctx, state, keys.StateKey(state, queueName))
}

func (q *Queue) memberIDs(ctx context.Context, state keys.State, key string) ([]int64, error) {
	var raw []string
	var err error
	if isListState(state) {
		raw, err = q.client.LRange(ctx, key, 0, -1).Result()
	} else {
		raw, err = q.client.SMembers(ctx, key).Result()
	}
	if err != nil {
		return nil, rsrqerr.Wrap(rsrqerr.KindRedisOp, "failed to read container members", err)
	}

	ids := make([]int64, 0, len(raw))
	for _, v := range raw {
		id, err := parseID(v)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// PurgeAll deletes every key this system owns, scanning rsrq:* rather than
// using KEYS.
func PurgeAll(ctx context.Context, client *redis.Client) (int, error) {
	var cursor uint64
	var deleted int
	for {
		batch, next, err := client.Scan(ctx, cursor, keys.AllPattern(), 100).Result()
		if err != nil {
			return deleted, rsrqerr.Wrap(rsrqerr.KindRedisOp, "failed to scan keys", err)
		}
		if len(batch) > 0 {
			n, err := client.Del(ctx, batch...).Result()
			if err != nil {
				return deleted, rsrqerr.Wrap(rsrqerr.KindRedisOp, "failed to delete keys", err)
			}
			deleted += int(n)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return deleted, nil
}

func parseID(v string) (int64, error) {
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, rsrqerr.Wrap(rsrqerr.KindParse, "non-integer id in container: "+v, err)
	}
	return n, nil
}
