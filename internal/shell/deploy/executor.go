// Package deploy executes deployment plans against the target and
// enforces the container-presence post-condition.
package deploy

import (
	"context"
	"fmt"
	"log/slog"

	coredeploy "github.com/artpar/dockhand/internal/core/deploy"
	"github.com/artpar/dockhand/internal/core/pipeline"
	"github.com/artpar/dockhand/internal/shell/remote"
)

// Executor builds and (re)starts the application under the container
// runtime on the target.
type Executor struct {
	runner remote.Runner
	logger *slog.Logger
}

// NewExecutor creates an executor over the channel.
func NewExecutor(runner remote.Runner, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		runner: runner,
		logger: logger.With("component", "deploy"),
	}
}

// Deploy runs the plan and then verifies a container matching the
// application name is actually running. Build success does not imply run
// success; an empty presence probe is fatal regardless of what the
// build/run commands reported.
func (e *Executor) Deploy(ctx context.Context, plan coredeploy.Plan, app string) error {
	e.logger.Info("deploying", "app", app, "strategy", plan.Strategy)

	for _, cmd := range plan.Commands {
		res, err := e.runner.Run(ctx, cmd.Line)
		if err != nil {
			return err
		}
		if !res.OK() {
			if cmd.Tolerated {
				e.logger.Debug("tolerated non-zero exit", "command", cmd.Line, "exit_code", res.ExitCode)
				continue
			}
			return pipeline.NewStageError("deploy",
				fmt.Sprintf("%s: exit %d: %s", cmd.Line, res.ExitCode, res.Stderr),
				pipeline.ErrDeployment)
		}
	}

	res, err := e.runner.Run(ctx, plan.PresenceProbe)
	if err != nil {
		return err
	}
	if !res.OK() || res.Output() == "" {
		return pipeline.NewStageError("deploy",
			fmt.Sprintf("container %s failed to start", app),
			pipeline.ErrDeployment)
	}

	e.logger.Info("application running", "app", app, "container_ids", res.Output())
	return nil
}

// Teardown stops and removes any prior instance of the application,
// tolerating "already absent" throughout. Used by cleanup; failures are
// reported so the caller can log them, but every command still runs.
func (e *Executor) Teardown(ctx context.Context, app, remoteDir string) error {
	var firstErr error
	for _, cmd := range coredeploy.TeardownPlan(app, remoteDir) {
		res, err := e.runner.Run(ctx, cmd.Line)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			e.logger.Warn("teardown command failed", "command", cmd.Line, "error", err)
			continue
		}
		if !res.OK() {
			e.logger.Debug("teardown tolerated non-zero exit", "command", cmd.Line, "exit_code", res.ExitCode)
		}
	}
	return firstErr
}
