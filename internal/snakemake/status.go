package snakemake

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/aaronmussig/rsrq/internal/job"
)

// Status is the three-value status vocabulary a workflow engine's
// cluster-status script is expected to print.
type Status string

const (
	StatusRunning Status = "running"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// statusFromJob collapses the five job statuses onto the three the adapter
// surface exposes: queued and running both read as "running", finished as
// "success", failed and cancelled both as "failed".
func statusFromJob(s job.Status) Status {
	switch s {
	case job.StatusQueued, job.StatusRunning:
		return StatusRunning
	case job.StatusFinished:
		return StatusSuccess
	default:
		return StatusFailed
	}
}

// JobStatus reports the collapsed status for one job id.
func JobStatus(ctx context.Context, client *redis.Client, id int64) (Status, error) {
	j, err := job.Load(ctx, client, id)
	if err != nil {
		return "", err
	}
	return statusFromJob(j.Status), nil
}
