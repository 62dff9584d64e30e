// Package snakemake implements the small cluster-execution adapter
// described in SPEC_FULL.md §6.2: the three operations a workflow engine's
// "cluster" profile shells out to (submit, status, cancel) plus a config
// scaffolder that writes the profile itself.
package snakemake

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/aaronmussig/rsrq/internal/job"
	"github.com/aaronmussig/rsrq/internal/rsrqerr"
)

const propertiesPrefix = "# properties ="

// properties is the subset of a jobscript's embedded JSON this adapter
// cares about: the resources.queue field, if present.
type properties struct {
	Resources struct {
		Queue string `json:"queue"`
	} `json:"resources"`
}

func readProperties(path string) (properties, error) {
	f, err := os.Open(path)
	if err != nil {
		return properties{}, rsrqerr.Wrap(rsrqerr.KindIO, "failed to open jobscript", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, propertiesPrefix) {
			continue
		}
		jsonStr := strings.TrimSpace(strings.TrimPrefix(line, propertiesPrefix))
		var p properties
		if err := json.Unmarshal([]byte(jsonStr), &p); err != nil {
			return properties{}, rsrqerr.Wrap(rsrqerr.KindJSON, "invalid properties json in jobscript", err)
		}
		return p, nil
	}
	if err := scanner.Err(); err != nil {
		return properties{}, rsrqerr.Wrap(rsrqerr.KindIO, "failed to read jobscript", err)
	}
	return properties{}, rsrqerr.New(rsrqerr.KindParse, "no properties section found in job script: "+path)
}

// Submit reads the "# properties = {...}" comment from a jobscript,
// enqueues the script under resources.queue (or "default" if absent), and
// returns the allocated job id.
func Submit(ctx context.Context, client *redis.Client, jobscriptPath string) (int64, error) {
	props, err := readProperties(jobscriptPath)
	if err != nil {
		return 0, err
	}

	queueName := props.Resources.Queue
	if queueName == "" {
		queueName = "default"
	}

	j, err := job.Create(ctx, client, queueName, jobscriptPath)
	if err != nil {
		return 0, err
	}
	return j.ID, nil
}
