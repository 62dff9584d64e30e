package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aaronmussig/rsrq/internal/config"
	"github.com/aaronmussig/rsrq/internal/logger"
	"github.com/aaronmussig/rsrq/internal/redisconn"
	"github.com/aaronmussig/rsrq/internal/rsrqerr"
	"github.com/aaronmussig/rsrq/internal/snakemake"
)

func runSnakemake(ctx context.Context, cfg *config.Config, log logger.Logger, args []string) error {
	if len(args) < 1 {
		return rsrqerr.New(rsrqerr.KindGeneral, "usage: rsrq snakemake {submit|status|cancel|config} ...")
	}
	sub, rest := args[0], args[1:]

	if sub == "config" {
		if len(rest) != 1 {
			return rsrqerr.New(rsrqerr.KindGeneral, "usage: rsrq snakemake config <directory>")
		}
		if err := snakemake.Config(rest[0]); err != nil {
			return err
		}
		cliLog := log.WithComponent(logger.ComponentSnakemake)
		cliLog.Info("wrote cluster profile", "directory", rest[0])
		return nil
	}

	client, err := redisconn.Dial(ctx, cfg.RedisURL)
	if err != nil {
		return err
	}
	defer client.Close()

	switch sub {
	case "submit":
		if len(rest) != 1 {
			return rsrqerr.New(rsrqerr.KindGeneral, "usage: rsrq snakemake submit <jobscript-path>")
		}
		id, err := snakemake.Submit(ctx, client, rest[0])
		if err != nil {
			return err
		}
		fmt.Println(id)
		return nil

	case "status":
		if len(rest) != 1 {
			return rsrqerr.New(rsrqerr.KindGeneral, "usage: rsrq snakemake status <job-id>")
		}
		id, err := strconv.ParseInt(rest[0], 10, 64)
		if err != nil {
			return rsrqerr.Wrap(rsrqerr.KindParse, "invalid job id", err)
		}
		status, err := snakemake.JobStatus(ctx, client, id)
		if err != nil {
			return err
		}
		fmt.Println(status)
		return nil

	case "cancel":
		if len(rest) == 0 {
			return rsrqerr.New(rsrqerr.KindGeneral, "usage: rsrq snakemake cancel <job-ids...>")
		}
		ids := make([]int64, 0, len(rest))
		for _, raw := range rest {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return rsrqerr.Wrap(rsrqerr.KindParse, "invalid job id: "+raw, err)
			}
			ids = append(ids, id)
		}
		return snakemake.Cancel(ctx, client, ids)

	default:
		return rsrqerr.New(rsrqerr.KindGeneral, "unknown snakemake subcommand: "+sub)
	}
}
