// Package main provides the rsrq command-line entrypoint: enqueue, worker,
// status, purge, snakemake, and reap subcommands, all built on the same
// internal packages so there is exactly one code path per operation.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aaronmussig/rsrq/internal/config"
	"github.com/aaronmussig/rsrq/internal/logger"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()
	logger.SetDefault(log)

	ctx := context.Background()

	var cmdErr error
	switch os.Args[1] {
	case "enqueue":
		cmdErr = runEnqueue(ctx, cfg, log, os.Args[2:])
	case "worker":
		cmdErr = runWorker(ctx, cfg, log, os.Args[2:])
	case "status":
		cmdErr = runStatus(ctx, cfg, log, os.Args[2:])
	case "purge":
		cmdErr = runPurge(ctx, cfg, log, os.Args[2:])
	case "snakemake":
		cmdErr = runSnakemake(ctx, cfg, log, os.Args[2:])
	case "reap":
		cmdErr = runReap(ctx, cfg, log, os.Args[2:])
	case "-h", "--help", "help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		usage()
		os.Exit(1)
	}

	if cmdErr != nil {
		log.Error("command failed", "command", os.Args[1], "error", cmdErr)
		fmt.Fprintf(os.Stderr, "error: %v\n", cmdErr)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `rsrq - a minimal Redis-backed job queue.

Usage:
  rsrq enqueue <queue> <path>
  rsrq worker <queue> [--workers N] [--max-duration D] [--max-jobs M] [--burst] [--poll MS]
  rsrq status [--queue Q]
  rsrq purge all
  rsrq purge {failed|finished|queued} [--queue Q]
  rsrq snakemake submit <jobscript-path>
  rsrq snakemake status <job-id>
  rsrq snakemake cancel <job-ids...>
  rsrq snakemake config <directory>
  rsrq reap <queue> [--stale-after D] [--every cron-expr]

REDIS_URL must be set in the environment.`)
}
