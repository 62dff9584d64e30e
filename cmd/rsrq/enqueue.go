package main

import (
	"bufio"
	"context"
	"os"
	"strings"

	"github.com/aaronmussig/rsrq/internal/config"
	"github.com/aaronmussig/rsrq/internal/job"
	"github.com/aaronmussig/rsrq/internal/logger"
	"github.com/aaronmussig/rsrq/internal/redisconn"
	"github.com/aaronmussig/rsrq/internal/rsrqerr"
)

func runEnqueue(ctx context.Context, cfg *config.Config, log logger.Logger, args []string) error {
	if len(args) != 2 {
		return rsrqerr.New(rsrqerr.KindGeneral, "usage: rsrq enqueue <queue> <path>")
	}
	queueName, path := args[0], args[1]

	client, err := redisconn.Dial(ctx, cfg.RedisURL)
	if err != nil {
		return err
	}
	defer client.Close()

	f, err := os.Open(path)
	if err != nil {
		return rsrqerr.Wrap(rsrqerr.KindIO, "failed to open job file", err)
	}
	defer f.Close()

	cliLog := log.WithComponent(logger.ComponentCLI)
	cliLog.Info("reading jobs from file", "path", path)

	n := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if _, err := job.Create(ctx, client, queueName, line); err != nil {
			return err
		}
		n++
	}
	if err := scanner.Err(); err != nil {
		return rsrqerr.Wrap(rsrqerr.KindIO, "failed to read job file", err)
	}

	cliLog.Info("enqueued jobs", "count", n, "queue", queueName)
	return nil
}
