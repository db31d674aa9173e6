package orchestrator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artpar/dockhand/internal/core/pipeline"
	"github.com/artpar/dockhand/internal/core/session"
	"github.com/artpar/dockhand/internal/shell/remote/remotetest"
)

func testSession(t *testing.T, cleanup bool) *session.Session {
	t.Helper()
	s, err := session.New(session.Inputs{
		RepoURL:    "https://github.com/acme/shop.git",
		Credential: "token",
		SSHUser:    "root",
		SSHHost:    "203.0.113.10",
		KeyFile:    "/tmp/key",
		AppPort:    "8080",
		Cleanup:    cleanup,
	})
	require.NoError(t, err)
	return s
}

func TestDeployStages_OrderAndOptionalCleanup(t *testing.T) {
	o := New(testSession(t, false), &remotetest.Runner{}, Options{StagingDir: t.TempDir()}, nil)

	var names []string
	for _, s := range o.DeployStages() {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"connect", "provision", "fetch", "transfer", "deploy", "proxy", "validate"}, names)

	o = New(testSession(t, true), &remotetest.Runner{}, Options{StagingDir: t.TempDir()}, nil)
	stages := o.DeployStages()
	last := stages[len(stages)-1]
	assert.Equal(t, "cleanup", last.Name)
	assert.True(t, last.BestEffort)
}

func TestConnect_ChannelFailureIsConnectivity(t *testing.T) {
	fake := &remotetest.Runner{}
	fake.Stub("true", remotetest.Response{Err: errors.New("dial tcp: i/o timeout")})

	o := New(testSession(t, false), fake, Options{StagingDir: t.TempDir()}, nil)
	err := o.connect(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, pipeline.ErrConnectivity)
}

func TestDeploy_PrefersDeclarativeDefinition(t *testing.T) {
	staging := t.TempDir()
	def := "services:\n  web:\n    image: nginx:alpine\n"
	require.NoError(t, os.WriteFile(filepath.Join(staging, "compose.yaml"), []byte(def), 0o644))

	fake := &remotetest.Runner{}
	fake.StubOutput("docker ps -q", "c0ffee\n")

	o := New(testSession(t, false), fake, Options{StagingDir: staging}, nil)
	require.NoError(t, o.deploy(context.Background()))

	assert.True(t, fake.Ran("docker compose -p shop up -d --build"))
	assert.False(t, fake.Ran("docker build -t shop"))
}

func TestDeploy_FallsBackWithoutDefinition(t *testing.T) {
	fake := &remotetest.Runner{}
	fake.StubOutput("docker ps -q", "c0ffee\n")

	o := New(testSession(t, false), fake, Options{StagingDir: t.TempDir()}, nil)
	require.NoError(t, o.deploy(context.Background()))

	assert.True(t, fake.Ran("docker build -t shop /srv/apps/shop"))
	assert.True(t, fake.Ran("docker run -d --name shop -p 8080:8080 shop"))
}

func TestDeploy_InvalidDefinitionIsFatal(t *testing.T) {
	staging := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(staging, "compose.yaml"), []byte(":\n bad {"), 0o644))

	o := New(testSession(t, false), &remotetest.Runner{}, Options{StagingDir: staging}, nil)
	err := o.deploy(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, pipeline.ErrDeployment)
}

func TestCleanup_NothingDeployedCompletes(t *testing.T) {
	fake := &remotetest.Runner{}
	// Every removal hits an absent resource.
	fake.StubExit("docker compose", 1)
	fake.StubExit("docker stop", 1)
	fake.StubExit("docker rm", 1)
	fake.StubExit("rm -rf", 1)
	fake.StubExit("rm -f", 1)

	o := New(testSession(t, true), fake, Options{StagingDir: t.TempDir()}, nil)
	assert.NoError(t, o.cleanup(context.Background()))
}

func TestCleanup_ChannelFailureDoesNotAbortRemainingSteps(t *testing.T) {
	fake := &remotetest.Runner{}
	fake.Stub("docker stop", remotetest.Response{Err: errors.New("connection reset")})

	o := New(testSession(t, true), fake, Options{StagingDir: t.TempDir()}, nil)
	err := o.cleanup(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, pipeline.ErrCleanup)
	// Later removals still ran.
	assert.True(t, fake.Ran("rm -rf /srv/apps/shop"))
	assert.True(t, fake.Ran("rm -f /etc/nginx/conf.d/shop.conf"))
}

func TestCleanupStages_BestEffort(t *testing.T) {
	o := New(testSession(t, false), &remotetest.Runner{}, Options{StagingDir: t.TempDir()}, nil)
	stages := o.CleanupStages()
	require.Len(t, stages, 2)
	assert.Equal(t, "connect", stages[0].Name)
	assert.True(t, stages[1].BestEffort)
}
