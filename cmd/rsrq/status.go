package main

import (
	"context"
	"flag"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/aaronmussig/rsrq/internal/config"
	"github.com/aaronmussig/rsrq/internal/job"
	"github.com/aaronmussig/rsrq/internal/keys"
	"github.com/aaronmussig/rsrq/internal/logger"
	"github.com/aaronmussig/rsrq/internal/queue"
	"github.com/aaronmussig/rsrq/internal/redisconn"
	"github.com/aaronmussig/rsrq/internal/rsrqerr"
)

type queueCounts struct {
	queued, running, finished, failed, cancelled int
}

func runStatus(ctx context.Context, cfg *config.Config, log logger.Logger, args []string) error {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	queueFlag := fs.String("queue", "", "only report this queue (default: all queues)")
	if err := fs.Parse(args); err != nil {
		return rsrqerr.Wrap(rsrqerr.KindGeneral, "failed to parse flags", err)
	}

	client, err := redisconn.Dial(ctx, cfg.RedisURL)
	if err != nil {
		return err
	}
	defer client.Close()

	q := queue.New(client)

	queueNames := []string{*queueFlag}
	if *queueFlag == "" {
		queueNames, err = q.ListQueues(ctx)
		if err != nil {
			return err
		}
	}

	counts := make(map[string]*queueCounts, len(queueNames))
	for _, name := range queueNames {
		c, err := countQueue(ctx, client, q, name)
		if err != nil {
			return err
		}
		counts[name] = c
	}

	sorted := make([]string, 0, len(counts))
	for name := range counts {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)

	for _, name := range sorted {
		c := counts[name]
		fmt.Printf("Queue: %-10s [Queued %-5d] [Running %-5d] [Finished %-5d] [Failed %-5d] [Cancelled %-5d]\n",
			name, c.queued, c.running, c.finished, c.failed, c.cancelled)
	}
	return nil
}

// countQueue tallies each state container, splitting the failed container
// into "failed" and "cancelled" since both terminal statuses share it and
// only the job hash itself distinguishes them.
func countQueue(ctx context.Context, client *redis.Client, q *queue.Queue, queueName string) (*queueCounts, error) {
	c := &queueCounts{}

	nQueued, err := q.Length(ctx, keys.StateQueued, queueName)
	if err != nil {
		return nil, err
	}
	c.queued = int(nQueued)

	nRunning, err := q.Length(ctx, keys.StateRunning, queueName)
	if err != nil {
		return nil, err
	}
	c.running = int(nRunning)

	nFinished, err := q.Length(ctx, keys.StateFinished, queueName)
	if err != nil {
		return nil, err
	}
	c.finished = int(nFinished)

	failedIDs, err := q.Members(ctx, keys.StateFailed, queueName)
	if err != nil {
		return nil, err
	}
	statuses, err := job.StatusMany(ctx, client, failedIDs)
	if err != nil {
		return nil, err
	}
	for _, s := range statuses {
		if s == job.StatusCancelled {
			c.cancelled++
		} else {
			c.failed++
		}
	}

	return c, nil
}
