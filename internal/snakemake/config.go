package snakemake

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/aaronmussig/rsrq/internal/rsrqerr"
)

const (
	configFileName    = "config.yaml"
	cancelFileName    = "cancel.sh"
	jobscriptFileName = "jobscript.sh"
	statusFileName    = "status.sh"
	submitFileName    = "submit.sh"
)

var configLines = strings.Join([]string{
	"jobscript: " + jobscriptFileName,
	"cluster: " + submitFileName,
	"cluster-status: " + statusFileName,
	"cluster-cancel: " + cancelFileName,
	"",
}, "\n")

var jobscriptLines = strings.Join([]string{
	"#!/bin/bash",
	"# properties = {properties}",
	"",
	"set -o errexit",
	"{exec_job}",
	"",
}, "\n")

var cancelLines = strings.Join([]string{
	"#!/bin/bash",
	"rsrq snakemake cancel \"$@\"",
	"",
}, "\n")

var statusLines = strings.Join([]string{
	"#!/bin/bash",
	"rsrq snakemake status \"$@\"",
	"",
}, "\n")

var submitLines = strings.Join([]string{
	"#!/bin/bash",
	"rsrq snakemake submit \"$@\"",
	"",
}, "\n")

// Config scaffolds a workflow-engine cluster profile in directory: a
// config.yaml plus four shell scripts, three of which re-enter this
// binary's snakemake subcommands. directory must not already exist.
func Config(directory string) error {
	if _, err := os.Stat(directory); err == nil {
		return rsrqerr.New(rsrqerr.KindGeneral, "directory already exists: "+directory)
	} else if !os.IsNotExist(err) {
		return rsrqerr.Wrap(rsrqerr.KindIO, "failed to stat directory", err)
	}

	if err := os.MkdirAll(directory, 0o755); err != nil {
		return rsrqerr.Wrap(rsrqerr.KindIO, "failed to create directory", err)
	}

	files := []struct {
		name string
		body string
		mode os.FileMode
	}{
		{configFileName, configLines, 0o644},
		{jobscriptFileName, jobscriptLines, 0o644},
		{cancelFileName, cancelLines, 0o755},
		{statusFileName, statusLines, 0o755},
		{submitFileName, submitLines, 0o755},
	}

	for _, f := range files {
		path := filepath.Join(directory, f.name)
		if err := os.WriteFile(path, []byte(f.body), f.mode); err != nil {
			return rsrqerr.Wrap(rsrqerr.KindIO, "failed to write "+f.name, err)
		}
	}

	return nil
}
