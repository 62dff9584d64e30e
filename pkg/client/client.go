// Package client is the library surface for embedding the queue in a Go
// program instead of shelling out to the CLI (SPEC_FULL.md §6.2): the same
// three operations the snakemake adapter wraps, built on the same
// internal/queue and internal/job primitives so there is exactly one code
// path per operation.
package client

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/aaronmussig/rsrq/internal/job"
	"github.com/aaronmussig/rsrq/internal/redisconn"
	"github.com/aaronmussig/rsrq/internal/snakemake"
)

// Client wraps a Redis connection for job submission and inspection.
type Client struct {
	redisClient *redis.Client
}

// NewClient dials Redis and verifies the connection with a PING.
func NewClient(ctx context.Context, redisURL string) (*Client, error) {
	redisClient, err := redisconn.Dial(ctx, redisURL)
	if err != nil {
		return nil, err
	}
	return &Client{redisClient: redisClient}, nil
}

// Submit enqueues cmd under queueName and returns the allocated job id.
func (c *Client) Submit(ctx context.Context, queueName, cmd string) (int64, error) {
	j, err := job.Create(ctx, c.redisClient, queueName, cmd)
	if err != nil {
		return 0, err
	}
	return j.ID, nil
}

// Status returns the current lifecycle status of id.
func (c *Client) Status(ctx context.Context, id int64) (job.Status, error) {
	j, err := job.Load(ctx, c.redisClient, id)
	if err != nil {
		return "", err
	}
	return j.Status, nil
}

// Cancel marks every cancellable id among ids as cancelled, moving it into
// the failed set. Ids that are already terminal or unknown are ignored.
func (c *Client) Cancel(ctx context.Context, ids ...int64) error {
	return snakemake.Cancel(ctx, c.redisClient, ids)
}

// Close releases the underlying Redis connection.
func (c *Client) Close() error {
	return c.redisClient.Close()
}
