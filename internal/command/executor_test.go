package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunCapturesStdout(t *testing.T) {
	res := Run(context.Background(), "echo hello")
	assert.Equal(t, "hello\n", res.Stdout)
	assert.Equal(t, 0, res.ExitCode)
}

func TestRunCapturesNonZeroExit(t *testing.T) {
	res := Run(context.Background(), "sh -c 'exit 2'")
	assert.Equal(t, 2, res.ExitCode)
}

func TestRunUnparsableCommandFailsClosed(t *testing.T) {
	res := Run(context.Background(), "   ")
	assert.Equal(t, 1, res.ExitCode)
	assert.Equal(t, "Unable to parse command.", res.Stderr)
	assert.EqualValues(t, 0, res.DurationMS)
}

func TestRunMissingBinaryReportsSpawnFailure(t *testing.T) {
	res := Run(context.Background(), "this-binary-does-not-exist-anywhere")
	assert.Equal(t, 1, res.ExitCode)
	assert.NotEmpty(t, res.Stderr)
}
