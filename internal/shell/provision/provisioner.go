// Package provision drives the idempotent dependency convergence of a
// remote target over the execution channel.
package provision

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/artpar/dockhand/internal/core/pipeline"
	coreprovision "github.com/artpar/dockhand/internal/core/provision"
	"github.com/artpar/dockhand/internal/shell/remote"
)

// Provisioner ensures the target carries a running container runtime,
// compose tooling, and the proxy server. "Already installed" is never an
// error; the pipeline fails only when a missing dependency has no
// succeeding installer in its chain.
type Provisioner struct {
	runner remote.Runner
	deps   []coreprovision.Dependency
	logger *slog.Logger
}

// NewProvisioner creates a provisioner over the default dependency set.
func NewProvisioner(runner remote.Runner, logger *slog.Logger) *Provisioner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provisioner{
		runner: runner,
		deps:   coreprovision.Defaults(),
		logger: logger.With("component", "provision"),
	}
}

// Ensure converges every dependency: probe, install through the fallback
// chain if absent, then explicitly start and enable the service. Running
// Ensure against an already-provisioned host is a no-op.
func (p *Provisioner) Ensure(ctx context.Context) error {
	for _, dep := range p.deps {
		if err := p.ensureOne(ctx, dep); err != nil {
			return err
		}
	}
	return nil
}

func (p *Provisioner) ensureOne(ctx context.Context, dep coreprovision.Dependency) error {
	logger := p.logger.With("dependency", dep.Name)

	res, err := p.runner.Run(ctx, dep.Probe)
	if err != nil {
		return err
	}

	if res.OK() {
		logger.Info("already installed")
	} else {
		if err := p.install(ctx, dep, logger); err != nil {
			return err
		}
	}

	if script := dep.StartScript(); script != "" {
		res, err := p.runner.RunScript(ctx, script)
		if err != nil {
			return err
		}
		if !res.OK() {
			return pipeline.NewStageError("provision",
				fmt.Sprintf("failed to start %s service: %s", dep.Name, res.Stderr),
				pipeline.ErrProvisioning)
		}
		logger.Info("service started and enabled", "service", dep.Service)
	}

	return nil
}

func (p *Provisioner) install(ctx context.Context, dep coreprovision.Dependency, logger *slog.Logger) error {
	for _, inst := range dep.Installers {
		res, err := p.runner.RunScript(ctx, inst.Script)
		if err != nil {
			return err
		}
		if res.OK() {
			logger.Info("installed", "installer", inst.Name)
			return nil
		}
		logger.Debug("installer failed, trying next", "installer", inst.Name, "exit_code", res.ExitCode)
	}

	return pipeline.NewStageError("provision",
		fmt.Sprintf("no installer succeeded for %s", dep.Name),
		pipeline.ErrProvisioning)
}
