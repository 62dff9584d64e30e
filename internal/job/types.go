// Package job implements the hash-backed job record described in §3 of
// the queue's data model: a Redis hash at rsrq:job:<id> with a fixed set
// of fields, created atomically alongside the id's push onto the queued
// list.
package job

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aaronmussig/rsrq/internal/keys"
	"github.com/aaronmussig/rsrq/internal/rsrqerr"
)

// Status is the job's lifecycle state. "cancelled" is a special failed
// variant: it is only ever observed on ids that sit in the failed set.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusFinished  Status = "finished"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Job is the in-memory view of a job hash.
type Job struct {
	ID         int64
	Cmd        string
	Status     Status
	Queue      string
	Created    int64 // unix seconds
	Started    int64 // unix seconds, 0 if unset
	Finished   int64 // unix seconds, 0 if unset
	Stdout     string
	Stderr     string
	ExitCode   *int // nil if unset
	DurationMS *int64
}

// Create allocates a new id, builds the job hash with status=queued, and
// atomically HSETs the hash while pushing the id onto queued:Q.
func Create(ctx context.Context, client *redis.Client, queue, cmd string) (*Job, error) {
	id, err := keys.NextJobID(ctx, client)
	if err != nil {
		return nil, err
	}

	j := &Job{
		ID:      id,
		Cmd:     cmd,
		Status:  StatusQueued,
		Queue:   queue,
		Created: time.Now().Unix(),
	}

	pipe := client.TxPipeline()
	pipe.HSet(ctx, keys.Job(id), j.toFields())
	pipe.LPush(ctx, keys.StateKey(keys.StateQueued, queue), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, rsrqerr.Wrap(rsrqerr.KindRedisOp, "failed to create job", err)
	}

	return j, nil
}

// Load reads the job hash and parses it. Empty string fields decode to
// "unset" (zero value / nil pointer).
func Load(ctx context.Context, client *redis.Client, id int64) (*Job, error) {
	fields, err := client.HGetAll(ctx, keys.Job(id)).Result()
	if err != nil {
		return nil, rsrqerr.Wrap(rsrqerr.KindRedisOp, "failed to load job", err)
	}
	if len(fields) == 0 {
		return nil, rsrqerr.New(rsrqerr.KindJobNotFound, "job not found: "+strconv.FormatInt(id, 10))
	}
	return fromFields(id, fields)
}

// StatusMany fetches the status field for each id with a single pipelined
// round trip, preserving input order. Missing ids yield an empty Status.
func StatusMany(ctx context.Context, client *redis.Client, ids []int64) ([]Status, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	pipe := client.Pipeline()
	cmds := make([]*redis.StringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGet(ctx, keys.Job(id), "status")
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, rsrqerr.Wrap(rsrqerr.KindRedisOp, "failed to fetch statuses", err)
	}

	out := make([]Status, len(ids))
	for i, cmd := range cmds {
		v, err := cmd.Result()
		if err != nil {
			out[i] = ""
			continue
		}
		out[i] = Status(v)
	}
	return out, nil
}

func (j *Job) toFields() map[string]interface{} {
	fields := map[string]interface{}{
		"id":      j.ID,
		"cmd":     j.Cmd,
		"status":  string(j.Status),
		"queue":   j.Queue,
		"created": j.Created,
	}
	if j.Started != 0 {
		fields["started"] = j.Started
	}
	if j.Finished != 0 {
		fields["finished"] = j.Finished
	}
	fields["stdout"] = j.Stdout
	fields["stderr"] = j.Stderr
	if j.ExitCode != nil {
		fields["exit_code"] = *j.ExitCode
	}
	if j.DurationMS != nil {
		fields["duration_ms"] = *j.DurationMS
	}
	return fields
}

func fromFields(id int64, fields map[string]string) (*Job, error) {
	j := &Job{
		ID:     id,
		Cmd:    fields["cmd"],
		Status: Status(fields["status"]),
		Queue:  fields["queue"],
	}

	var err error
	if j.Created, err = parseOptionalInt64(fields["created"]); err != nil {
		return nil, err
	}
	if j.Started, err = parseOptionalInt64(fields["started"]); err != nil {
		return nil, err
	}
	if j.Finished, err = parseOptionalInt64(fields["finished"]); err != nil {
		return nil, err
	}

	j.Stdout = fields["stdout"]
	j.Stderr = fields["stderr"]

	if v, ok := fields["exit_code"]; ok && v != "" {
		code, err := strconv.Atoi(v)
		if err != nil {
			return nil, rsrqerr.Wrap(rsrqerr.KindParse, "invalid exit_code field", err)
		}
		j.ExitCode = &code
	}

	if v, ok := fields["duration_ms"]; ok && v != "" {
		dur, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, rsrqerr.Wrap(rsrqerr.KindParse, "invalid duration_ms field", err)
		}
		j.DurationMS = &dur
	}

	return j, nil
}

func parseOptionalInt64(v string) (int64, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, rsrqerr.Wrap(rsrqerr.KindParse, "invalid integer field: "+v, err)
	}
	return n, nil
}
