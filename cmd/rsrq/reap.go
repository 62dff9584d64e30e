package main

import (
	"context"
	"flag"

	"github.com/aaronmussig/rsrq/internal/config"
	"github.com/aaronmussig/rsrq/internal/durationgrammar"
	"github.com/aaronmussig/rsrq/internal/logger"
	"github.com/aaronmussig/rsrq/internal/queue"
	"github.com/aaronmussig/rsrq/internal/reaper"
	"github.com/aaronmussig/rsrq/internal/redisconn"
	"github.com/aaronmussig/rsrq/internal/rsrqerr"
)

func runReap(ctx context.Context, cfg *config.Config, log logger.Logger, args []string) error {
	fs := flag.NewFlagSet("reap", flag.ContinueOnError)
	staleAfterFlag := fs.String("stale-after", "5m", "a worker's heartbeat older than this is considered stale")
	every := fs.String("every", "", "run on this cron schedule instead of once (eg */5 * * * *)")
	if err := fs.Parse(args); err != nil {
		return rsrqerr.Wrap(rsrqerr.KindGeneral, "failed to parse flags", err)
	}
	if fs.NArg() != 1 {
		return rsrqerr.New(rsrqerr.KindGeneral, "usage: rsrq reap <queue> [--stale-after D] [--every CRON]")
	}
	queueName := fs.Arg(0)

	staleAfter, err := durationgrammar.Parse(*staleAfterFlag)
	if err != nil {
		return err
	}

	client, err := redisconn.Dial(ctx, cfg.RedisURL)
	if err != nil {
		return err
	}
	defer client.Close()

	q := queue.New(client)
	reapLog := log.WithComponent(logger.ComponentReaper)

	if *every != "" {
		reapLog.Info("reaper starting on schedule", "queue", queueName, "stale_after", staleAfter.String(), "cron", *every)
		return reaper.RunOnSchedule(ctx, client, q, queueName, staleAfter, *every)
	}

	report, err := reaper.Reap(ctx, client, q, queueName, staleAfter)
	if err != nil {
		return err
	}
	reapLog.Info("reap pass complete",
		"queue", queueName,
		"workers_scanned", report.WorkersScanned,
		"jobs_reclaimed", len(report.JobsReclaimed))
	return nil
}
