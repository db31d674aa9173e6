// Package orchestrator assembles the ordered stage sequence for one
// deployment session: connect, provision, fetch, transfer, deploy,
// proxy, validate, and optionally cleanup. One session drives one target
// through one channel, stage after stage; nothing here is safe to run
// concurrently against the same host and application name.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/artpar/dockhand/internal/core/compose"
	coredeploy "github.com/artpar/dockhand/internal/core/deploy"
	"github.com/artpar/dockhand/internal/core/pipeline"
	"github.com/artpar/dockhand/internal/core/session"
	"github.com/artpar/dockhand/internal/shell/deploy"
	"github.com/artpar/dockhand/internal/shell/provision"
	"github.com/artpar/dockhand/internal/shell/proxy"
	"github.com/artpar/dockhand/internal/shell/remote"
	"github.com/artpar/dockhand/internal/shell/repo"
	"github.com/artpar/dockhand/internal/shell/transfer"
	"github.com/artpar/dockhand/internal/shell/validate"
)

// Options carries the operational knobs the orchestrator needs beyond
// the session itself.
type Options struct {
	// StagingDir is the local directory the repository is fetched into
	// before transfer.
	StagingDir string

	// FragmentDir is the nginx fragment directory on the target.
	FragmentDir string
}

// Orchestrator wires the pipeline components for one session.
type Orchestrator struct {
	sess    *session.Session
	runner  remote.Runner
	opts    Options
	logger  *slog.Logger
	fetcher *repo.Fetcher

	provisioner  *provision.Provisioner
	transferrer  *transfer.Transferrer
	executor     *deploy.Executor
	configurator *proxy.Configurator
	validator    *validate.Validator
}

// New creates an orchestrator for the session over the given channel.
func New(sess *session.Session, runner remote.Runner, opts Options, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		sess:         sess,
		runner:       runner,
		opts:         opts,
		logger:       logger,
		fetcher:      repo.NewFetcher(logger),
		provisioner:  provision.NewProvisioner(runner, logger),
		transferrer:  transfer.NewTransferrer(runner, logger),
		executor:     deploy.NewExecutor(runner, logger),
		configurator: proxy.NewConfigurator(runner, opts.FragmentDir, logger),
		validator:    validate.NewValidator(runner, logger),
	}
}

// DeployStages returns the full fail-fast deployment sequence. The
// cleanup stage is appended only when the session requests it.
func (o *Orchestrator) DeployStages() []pipeline.Stage {
	stages := []pipeline.Stage{
		{Name: "connect", Run: o.connect},
		{Name: "provision", Run: o.provisioner.Ensure},
		{Name: "fetch", Run: o.fetch},
		{Name: "transfer", Run: o.transfer},
		{Name: "deploy", Run: o.deploy},
		{Name: "proxy", Run: o.applyProxy},
		{Name: "validate", Run: o.validate},
	}
	if o.sess.Cleanup {
		stages = append(stages, pipeline.Stage{Name: "cleanup", Run: o.cleanup, BestEffort: true})
	}
	return stages
}

// CleanupStages returns the standalone teardown sequence used by the
// teardown command: connectivity is still fatal, the removals are not.
func (o *Orchestrator) CleanupStages() []pipeline.Stage {
	return []pipeline.Stage{
		{Name: "connect", Run: o.connect},
		{Name: "cleanup", Run: o.cleanup, BestEffort: true},
	}
}

// connect proves the channel end to end with a trivial command, so a
// dead or misauthenticated target fails the session before any state is
// touched.
func (o *Orchestrator) connect(ctx context.Context) error {
	res, err := o.runner.Run(ctx, "true")
	if err != nil {
		return pipeline.NewStageError("connect", err.Error(), pipeline.ErrConnectivity)
	}
	if !res.OK() {
		return pipeline.NewStageError("connect",
			fmt.Sprintf("probe command exited %d", res.ExitCode), pipeline.ErrConnectivity)
	}
	return nil
}

func (o *Orchestrator) fetch(ctx context.Context) error {
	return o.fetcher.Ensure(ctx, o.sess.RepoURL, o.sess.Branch, o.sess.Credential, o.opts.StagingDir)
}

func (o *Orchestrator) transfer(ctx context.Context) error {
	if err := o.transferrer.EnsureDestination(ctx, o.sess.RemoteDir); err != nil {
		return err
	}
	return o.transferrer.Transfer(ctx, o.opts.StagingDir, o.sess.RemoteDir)
}

func (o *Orchestrator) deploy(ctx context.Context) error {
	declarative := false
	if path := compose.Detect(o.opts.StagingDir); path != "" {
		if err := compose.Validate(path); err != nil {
			return pipeline.NewStageError("deploy",
				fmt.Sprintf("declarative definition %s: %v", path, err), pipeline.ErrDeployment)
		}
		declarative = true
	}

	plan := coredeploy.NewPlan(o.sess.AppName, o.sess.RemoteDir, o.sess.AppPort, declarative)
	return o.executor.Deploy(ctx, plan, o.sess.AppName)
}

func (o *Orchestrator) applyProxy(ctx context.Context) error {
	return o.configurator.Apply(ctx, o.sess.AppName, o.sess.AppPort)
}

func (o *Orchestrator) validate(ctx context.Context) error {
	return o.validator.Check(ctx, o.sess.AppName)
}

// cleanup reverses the deployment best-effort: application teardown,
// artifact tree removal, proxy fragment removal. Each sub-step tolerates
// "already absent"; failures are aggregated for the step record but
// never abort the remaining sub-steps.
func (o *Orchestrator) cleanup(ctx context.Context) error {
	var failed []string

	if err := o.executor.Teardown(ctx, o.sess.AppName, o.sess.RemoteDir); err != nil {
		o.logger.Warn("application teardown incomplete", "error", err)
		failed = append(failed, "application")
	}
	if err := o.transferrer.RemoveRemote(ctx, o.sess.RemoteDir); err != nil {
		o.logger.Warn("artifact removal incomplete", "error", err)
		failed = append(failed, "artifacts")
	}
	if err := o.configurator.Remove(ctx, o.sess.AppName); err != nil {
		o.logger.Warn("proxy fragment removal incomplete", "error", err)
		failed = append(failed, "proxy")
	}

	if len(failed) > 0 {
		return pipeline.NewStageError("cleanup",
			fmt.Sprintf("incomplete: %v", failed), pipeline.ErrCleanup)
	}
	return nil
}
