package worker

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aaronmussig/rsrq/internal/job"
	"github.com/aaronmussig/rsrq/internal/keys"
	"github.com/aaronmussig/rsrq/internal/logger"
	"github.com/aaronmussig/rsrq/internal/metrics"
	"github.com/aaronmussig/rsrq/internal/queue"
)

// Config configures one worker pool instance.
type Config struct {
	MaxWorkers   int
	MaxJobs      *int
	PollInterval time.Duration
	Burst        bool
}

// EffectiveMaxWorkers clamps MaxWorkers to MaxJobs when the latter is the
// tighter cap — there is no point spawning capacity that cannot be used.
func (c Config) EffectiveMaxWorkers() int {
	if c.MaxJobs != nil && *c.MaxJobs < c.MaxWorkers {
		return *c.MaxJobs
	}
	return c.MaxWorkers
}

type runningExec struct {
	cancel    context.CancelFunc
	startedAt time.Time
}

// Pool is the bounded concurrent executor pool described in §4.5. Every
// exported method is meant to be called from the single control-loop
// goroutine that owns it, per §5's "no locking on the pool map" design —
// runningFutures is unguarded by design, not by oversight.
type Pool struct {
	client    *redis.Client
	queue     *queue.Queue
	queueName string
	cfg       Config
	metrics   *metrics.Collector
	progress  *Progress
	log       logger.Logger
	messages  chan Message

	runningFutures map[int64]*runningExec
	nStarted       int
	lastTick       time.Time
	ticked         bool
	wg             sync.WaitGroup
}

// NewPool builds a pool bound to one queue and Redis connection.
func NewPool(client *redis.Client, q *queue.Queue, queueName string, cfg Config, mc *metrics.Collector, progress *Progress, log logger.Logger, messages chan Message) *Pool {
	return &Pool{
		client:         client,
		queue:          q,
		queueName:      queueName,
		cfg:            cfg,
		metrics:        mc,
		progress:       progress,
		log:            log,
		messages:       messages,
		runningFutures: make(map[int64]*runningExec),
	}
}

// RunningCount reports how many executors are currently in flight.
func (p *Pool) RunningCount() int { return len(p.runningFutures) }

// RunningIDs returns the ids currently leased by this pool, for the
// worker process record's heartbeat.
func (p *Pool) RunningIDs() []int64 {
	ids := make([]int64, 0, len(p.runningFutures))
	for id := range p.runningFutures {
		ids = append(ids, id)
	}
	return ids
}

// NStarted reports the total number of executors ever spawned.
func (p *Pool) NStarted() int { return p.nStarted }

// MaybeStartNewJobs is the lease protocol (§4.5): rate-limited to once per
// PollInterval except for the very first call, after which it reads the
// queue depth, computes how many ids to lease, spawns an executor per
// leased id, and raises max_jobs/burst_no_jobs as needed.
func (p *Pool) MaybeStartNewJobs(ctx context.Context) error {
	if p.ticked && time.Since(p.lastTick) < p.cfg.PollInterval {
		return nil
	}
	p.ticked = true
	defer func() { p.lastTick = time.Now() }()

	nQ, err := p.queue.Length(ctx, keys.StateQueued, p.queueName)
	if err != nil {
		return err
	}

	capacity := p.cfg.EffectiveMaxWorkers() - len(p.runningFutures)
	if capacity < 0 {
		capacity = 0
	}
	nTake := int(nQ)
	if nTake > capacity {
		nTake = capacity
	}
	if p.cfg.MaxJobs != nil {
		remainingBudget := *p.cfg.MaxJobs - p.nStarted
		if remainingBudget < 0 {
			remainingBudget = 0
		}
		if nTake > remainingBudget {
			nTake = remainingBudget
		}
	}

	leased, err := p.queue.LeaseBatch(ctx, p.queueName, nTake)
	if err != nil {
		return err
	}

	for _, id := range leased {
		p.spawn(id)
	}
	p.nStarted += len(leased)

	remainingAfter := int(nQ) - len(leased) + len(p.runningFutures)
	if p.progress != nil {
		maxJobsRemaining := -1
		if p.cfg.MaxJobs != nil {
			maxJobsRemaining = *p.cfg.MaxJobs - p.nStarted
			if maxJobsRemaining < 0 {
				maxJobsRemaining = 0
			}
		}
		p.progress.Update(ProgressState{
			QueuedAfter:       int64(nQ) - int64(len(leased)),
			RunningElapsed:    p.runningElapsed(),
			Workers:           p.cfg.EffectiveMaxWorkers(),
			MaxJobsRemaining:  maxJobsRemaining,
			HasMaxJobs:        p.cfg.MaxJobs != nil,
			AverageDuration:   p.metrics.AverageDuration(),
		})
	}

	if p.cfg.MaxJobs != nil && p.nStarted >= *p.cfg.MaxJobs {
		p.messages <- Message{Kind: MsgMaxJobs}
	}

	if remainingAfter == 0 {
		if p.cfg.Burst {
			p.messages <- Message{Kind: MsgBurstNoJobs}
		} else if p.progress != nil {
			p.progress.SetWaiting()
		}
	}

	return nil
}

// AbortCancelled reads the status of every in-flight id and aborts any
// executor whose job has been externally marked cancelled (§4.5). The
// cancelling agent has already moved the id to the failed set, so no
// further Redis write is made here.
func (p *Pool) AbortCancelled(ctx context.Context) error {
	if len(p.runningFutures) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(p.runningFutures))
	for id := range p.runningFutures {
		ids = append(ids, id)
	}

	statuses, err := job.StatusMany(ctx, p.client, ids)
	if err != nil {
		return err
	}

	for i, id := range ids {
		if statuses[i] != job.StatusCancelled {
			continue
		}
		if exec, ok := p.runningFutures[id]; ok {
			exec.cancel()
			delete(p.runningFutures, id)
			p.log.Info("aborted externally cancelled job", "job_id", id)
		}
	}
	return nil
}

// RemoveJob drops id's handle once its executor has posted completion.
func (p *Pool) RemoveJob(id int64) {
	delete(p.runningFutures, id)
}

func (p *Pool) runningElapsed() []time.Duration {
	now := time.Now()
	out := make([]time.Duration, 0, len(p.runningFutures))
	for _, e := range p.runningFutures {
		out = append(out, now.Sub(e.startedAt))
	}
	return out
}

func (p *Pool) spawn(id int64) {
	ctx, cancel := context.WithCancel(context.Background())
	p.runningFutures[id] = &runningExec{cancel: cancel, startedAt: time.Now()}
	p.metrics.RecordStarted()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		completed := runExecutorTask(ctx, p.client, p.queue, p.queueName, id, p.metrics, p.log)
		if !completed {
			return
		}
		jobID := id
		p.messages <- Message{Kind: MsgCheckForJobs, JobID: &jobID}
	}()
}

// Await blocks until every registered executor has returned. Used for
// graceful shutdown paths (time_exceeded, max_jobs, burst_no_jobs) — never
// for sigint, which abandons in-flight executors instead.
func (p *Pool) Await() {
	p.wg.Wait()
}
