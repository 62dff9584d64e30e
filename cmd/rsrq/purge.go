package main

import (
	"context"
	"flag"

	"github.com/aaronmussig/rsrq/internal/config"
	"github.com/aaronmussig/rsrq/internal/keys"
	"github.com/aaronmussig/rsrq/internal/logger"
	"github.com/aaronmussig/rsrq/internal/queue"
	"github.com/aaronmussig/rsrq/internal/redisconn"
	"github.com/aaronmussig/rsrq/internal/rsrqerr"
)

func runPurge(ctx context.Context, cfg *config.Config, log logger.Logger, args []string) error {
	if len(args) < 1 {
		return rsrqerr.New(rsrqerr.KindGeneral, "usage: rsrq purge {all|failed|finished|queued} [--queue Q]")
	}
	sub, rest := args[0], args[1:]

	client, err := redisconn.Dial(ctx, cfg.RedisURL)
	if err != nil {
		return err
	}
	defer client.Close()

	cliLog := log.WithComponent(logger.ComponentCLI)

	if sub == "all" {
		n, err := queue.PurgeAll(ctx, client)
		if err != nil {
			return err
		}
		cliLog.Info("purged all keys", "count", n)
		return nil
	}

	var state keys.State
	switch sub {
	case "failed":
		state = keys.StateFailed
	case "finished":
		state = keys.StateFinished
	case "queued":
		state = keys.StateQueued
	default:
		return rsrqerr.New(rsrqerr.KindGeneral, "unknown purge target: "+sub)
	}

	fs := flag.NewFlagSet("purge "+sub, flag.ContinueOnError)
	queueFlag := fs.String("queue", "", "the target queue to purge (default: all queues)")
	if err := fs.Parse(rest); err != nil {
		return rsrqerr.Wrap(rsrqerr.KindGeneral, "failed to parse flags", err)
	}

	q := queue.New(client)
	if *queueFlag != "" {
		if err := q.PurgeState(ctx, state, *queueFlag); err != nil {
			return err
		}
		cliLog.Info("purged queue", "state", string(state), "queue", *queueFlag)
		return nil
	}

	if err := q.PurgeStateAll(ctx, state); err != nil {
		return err
	}
	cliLog.Info("purged all queues", "state", string(state))
	return nil
}
