package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/artpar/dockhand/internal/core/pipeline"
	"github.com/artpar/dockhand/internal/shell/remote"
)

func TestPipelineExitCode(t *testing.T) {
	connectStage := pipeline.NewStageError("connect", "target unreachable", pipeline.ErrConnectivity)

	// A link dropping mid-pipeline surfaces as a ConnectError wrapped by
	// whichever stage was running.
	droppedLink := pipeline.NewStageError("provision", "", &remote.ConnectError{
		Op: "dial", Addr: "203.0.113.7:22", Message: "i/o timeout", Err: remote.ErrConnectTimeout,
	})

	deployFailure := pipeline.NewStageError("deploy", "container shop failed to start", pipeline.ErrDeployment)

	assert.Equal(t, ExitConnectError, pipelineExitCode(connectStage))
	assert.Equal(t, ExitConnectError, pipelineExitCode(droppedLink))
	assert.Equal(t, ExitStageError, pipelineExitCode(deployFailure))
	assert.Equal(t, ExitStageError, pipelineExitCode(errors.New("unexpected")))
}
