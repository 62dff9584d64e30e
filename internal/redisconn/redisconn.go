// Package redisconn opens the single kind of connection every command in
// this system uses: a synchronous one-shot *redis.Client, verified with a
// PING before the caller gets it back.
package redisconn

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/aaronmussig/rsrq/internal/rsrqerr"
)

// Dial opens a synchronous connection for one-shot command-style
// operations and verifies it with a PING.
func Dial(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, rsrqerr.Wrap(rsrqerr.KindParse, "failed to parse REDIS_URL", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, rsrqerr.Wrap(rsrqerr.KindRedisConnect, "failed to connect to Redis", err)
	}
	return client, nil
}
