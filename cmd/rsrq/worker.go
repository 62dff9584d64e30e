package main

import (
	"context"
	"flag"
	"time"

	"github.com/aaronmussig/rsrq/internal/config"
	"github.com/aaronmussig/rsrq/internal/durationgrammar"
	"github.com/aaronmussig/rsrq/internal/logger"
	"github.com/aaronmussig/rsrq/internal/queue"
	"github.com/aaronmussig/rsrq/internal/redisconn"
	"github.com/aaronmussig/rsrq/internal/rsrqerr"
	"github.com/aaronmussig/rsrq/internal/worker"
)

func runWorker(ctx context.Context, cfg *config.Config, log logger.Logger, args []string) error {
	fs := flag.NewFlagSet("worker", flag.ContinueOnError)
	workers := fs.Int("workers", 1, "number of concurrent workers")
	maxDuration := fs.String("max-duration", "", "stop processing after this duration (eg 1h30m)")
	maxJobs := fs.Int("max-jobs", 0, "stop processing after this many jobs have finished")
	burst := fs.Bool("burst", false, "stop processing once the queue is empty")
	pollMS := fs.Int64("poll", 1000, "interval to check for new jobs in milliseconds")
	if err := fs.Parse(args); err != nil {
		return rsrqerr.Wrap(rsrqerr.KindGeneral, "failed to parse flags", err)
	}
	if fs.NArg() != 1 {
		return rsrqerr.New(rsrqerr.KindGeneral, "usage: rsrq worker <queue> [--workers N] [--max-duration D] [--max-jobs M] [--burst] [--poll MS]")
	}
	queueName := fs.Arg(0)

	runCfg := worker.RunConfig{
		QueueName:    queueName,
		MaxWorkers:   *workers,
		Burst:        *burst,
		PollInterval: time.Duration(*pollMS) * time.Millisecond,
	}
	if *maxDuration != "" {
		d, err := durationgrammar.Parse(*maxDuration)
		if err != nil {
			return err
		}
		runCfg.MaxDuration = &d
	}
	if *maxJobs > 0 {
		runCfg.MaxJobs = maxJobs
	}

	client, err := redisconn.Dial(ctx, cfg.RedisURL)
	if err != nil {
		return err
	}
	defer client.Close()

	q := queue.New(client)
	workerLog := log.WithComponent(logger.ComponentWorker)
	workerLog.Info("worker starting",
		"queue", queueName,
		"workers", *workers,
		"burst", *burst,
		"poll_ms", *pollMS)

	cl := worker.NewControlLoop(client, q, runCfg, workerLog)
	kind, err := cl.Run(ctx)
	if err != nil {
		return err
	}

	snapshot := cl.Metrics().Snapshot()
	workerLog.Info("worker stopped",
		"reason", string(kind),
		"jobs_started", snapshot.JobsStarted,
		"jobs_finished", snapshot.JobsFinished,
		"jobs_failed", snapshot.JobsFailed,
		"uptime", snapshot.Uptime.String())
	return nil
}
