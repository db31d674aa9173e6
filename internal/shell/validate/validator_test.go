package validate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artpar/dockhand/internal/core/pipeline"
	"github.com/artpar/dockhand/internal/shell/remote/remotetest"
)

func TestCheck_AllPass(t *testing.T) {
	fake := &remotetest.Runner{}
	fake.StubOutput("docker ps -q", "c0ffee\n")

	v := NewValidator(fake, nil)
	require.NoError(t, v.Check(context.Background(), "shop"))

	cmds := fake.Commands()
	require.Len(t, cmds, 3)
	assert.Contains(t, cmds[0], "systemctl is-active")
	assert.Contains(t, cmds[1], "docker ps -q -f name=shop")
	assert.Contains(t, cmds[2], "curl")
}

func TestCheck_ProxyProbeFailureReportedDespiteOthersPassing(t *testing.T) {
	fake := &remotetest.Runner{}
	fake.StubOutput("docker ps -q", "c0ffee\n")
	fake.StubExit("curl", 7)

	v := NewValidator(fake, nil)
	err := v.Check(context.Background(), "shop")

	require.Error(t, err)
	assert.ErrorIs(t, err, pipeline.ErrValidation)
	assert.Contains(t, err.Error(), "proxy responds locally")
}

func TestCheck_ContainerAbsentFailsEvenWithZeroExit(t *testing.T) {
	fake := &remotetest.Runner{}
	fake.StubOutput("docker ps -q", "") // exit 0, no matching container

	v := NewValidator(fake, nil)
	err := v.Check(context.Background(), "shop")

	require.Error(t, err)
	assert.ErrorIs(t, err, pipeline.ErrValidation)
	assert.Contains(t, err.Error(), "application container running")
}

func TestCheck_AllThreeEvaluatedAndFirstFailureReported(t *testing.T) {
	fake := &remotetest.Runner{}
	fake.StubExit("systemctl is-active", 3)
	fake.StubOutput("docker ps -q", "")
	fake.StubExit("curl", 7)

	v := NewValidator(fake, nil)
	err := v.Check(context.Background(), "shop")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "runtime service active")
	// Later checks still ran for diagnostics.
	assert.True(t, fake.Ran("curl"))
}
