package reaper

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"github.com/aaronmussig/rsrq/internal/logger"
	"github.com/aaronmussig/rsrq/internal/queue"
	"github.com/aaronmussig/rsrq/internal/rsrqerr"
)

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// RunOnSchedule runs Reap once immediately, then again every time cronExpr
// is due, until ctx is cancelled. It is the `reap --every` recurring mode;
// a plain `reap` invocation calls Reap directly instead.
func RunOnSchedule(ctx context.Context, client *redis.Client, q *queue.Queue, queueName string, staleAfter time.Duration, cronExpr string) error {
	schedule, err := cronParser.Parse(cronExpr)
	if err != nil {
		return rsrqerr.Wrap(rsrqerr.KindParse, "invalid --every cron expression", err)
	}

	log := logger.Default().WithComponent(logger.ComponentReaper)
	runAndLog := func() {
		report, err := Reap(ctx, client, q, queueName, staleAfter)
		if err != nil {
			log.Error("reap pass failed", "error", err)
			return
		}
		log.Info("reap pass complete",
			"workers_scanned", report.WorkersScanned,
			"jobs_reclaimed", len(report.JobsReclaimed))
	}

	runAndLog()

	next := schedule.Next(time.Now())
	timer := time.NewTimer(time.Until(next))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
			runAndLog()
			next = schedule.Next(time.Now())
			timer.Reset(time.Until(next))
		}
	}
}
