package worker

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aaronmussig/rsrq/internal/logger"
	"github.com/aaronmussig/rsrq/internal/metrics"
	"github.com/aaronmussig/rsrq/internal/queue"
)

// RunConfig is everything the worker command line surface needs to start
// the runtime (§4.7).
type RunConfig struct {
	QueueName    string
	MaxWorkers   int
	MaxJobs      *int
	MaxDuration  *time.Duration
	Burst        bool
	PollInterval time.Duration
}

// ControlLoop is the single-owner event loop described in §4.7: it reacts
// to pool events and shutdown sources delivered over one channel, and is
// the only mutator of the Pool.
type ControlLoop struct {
	client   *redis.Client
	queue    *queue.Queue
	cfg      RunConfig
	pool     *Pool
	progress *Progress
	metrics  *metrics.Collector
	log      logger.Logger
	messages chan Message
	record   *Record
}

// NewControlLoop wires a pool, progress display and metrics collector
// around one queue.
func NewControlLoop(client *redis.Client, q *queue.Queue, cfg RunConfig, log logger.Logger) *ControlLoop {
	messages := make(chan Message, cfg.MaxWorkers*10)
	mc := metrics.NewCollector()

	var deadline time.Time
	hasDeadline := cfg.MaxDuration != nil
	if hasDeadline {
		deadline = time.Now().Add(*cfg.MaxDuration)
	}
	progress := NewProgress(deadline, hasDeadline)

	poolCfg := Config{
		MaxWorkers:   cfg.MaxWorkers,
		MaxJobs:      cfg.MaxJobs,
		PollInterval: cfg.PollInterval,
		Burst:        cfg.Burst,
	}
	pool := NewPool(client, q, cfg.QueueName, poolCfg, mc, progress, log, messages)

	return &ControlLoop{
		client:   client,
		queue:    q,
		cfg:      cfg,
		pool:     pool,
		progress: progress,
		metrics:  mc,
		log:      log,
		messages: messages,
	}
}

// Metrics exposes the runtime's counters, e.g. for a periodic log line in
// the worker command.
func (cl *ControlLoop) Metrics() *metrics.Collector { return cl.metrics }

const metricsLogInterval = 30 * time.Second

// logMetricsPeriodically logs a metrics snapshot every interval until ctx
// is cancelled, matching the teacher's cmd/worker metrics ticker cadence.
func (cl *ControlLoop) logMetricsPeriodically(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snapshot := cl.metrics.Snapshot()
			cl.log.Info("metrics snapshot",
				"jobs_started", snapshot.JobsStarted,
				"jobs_finished", snapshot.JobsFinished,
				"jobs_failed", snapshot.JobsFailed,
				"uptime", snapshot.Uptime.String())
		}
	}
}

// Run executes the control loop until a shutdown source fires or ctx is
// cancelled by the caller. It returns the MessageKind that ended the loop,
// or an empty kind and ctx's error when ctx was cancelled first.
func (cl *ControlLoop) Run(ctx context.Context) (MessageKind, error) {
	record, err := Register(ctx, cl.client, cl.cfg.QueueName)
	if err != nil {
		cl.log.Error("failed to register worker record", "error", err)
	} else {
		cl.record = record
	}

	sourcesCtx, cancelSources := context.WithCancel(ctx)
	defer cancelSources()

	go listenSigint(sourcesCtx, cl.messages)
	if cl.cfg.MaxDuration != nil {
		go armDeadline(sourcesCtx, *cl.cfg.MaxDuration, cl.messages)
	}
	go runWakeTicker(sourcesCtx, cl.cfg.PollInterval, cl.messages)
	go cl.logMetricsPeriodically(sourcesCtx, metricsLogInterval)

	cl.messages <- Message{Kind: MsgCheckForJobs}

	for {
		var msg Message
		select {
		case <-ctx.Done():
			cancelSources()
			return "", ctx.Err()
		case msg = <-cl.messages:
		}

		if msg.Kind == MsgSigint {
			cl.log.Info("sigint received, abandoning in-flight jobs")
			cancelSources()
			return MsgSigint, nil
		}

		if msg.Kind.isShutdown() {
			cl.log.Info("shutdown triggered", "reason", string(msg.Kind))
			cancelSources()
			cl.pool.Await()
			cl.progress.Finish()
			if cl.record != nil {
				_ = cl.record.Deregister(ctx)
			}
			return msg.Kind, nil
		}

		if msg.JobID != nil {
			cl.pool.RemoveJob(*msg.JobID)
		}
		if err := cl.pool.AbortCancelled(ctx); err != nil {
			cl.log.Error("failed to check for cancelled jobs", "error", err)
		}
		if err := cl.pool.MaybeStartNewJobs(ctx); err != nil {
			cl.log.Error("redis error in lease round, aborting worker", "error", err)
			cancelSources()
			return "", err
		}
		if cl.record != nil {
			_ = cl.record.Heartbeat(ctx, cl.pool.RunningIDs())
		}
	}
}
