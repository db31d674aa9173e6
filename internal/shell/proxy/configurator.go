// Package proxy writes, validates, and reloads the nginx configuration
// fronting a deployed application.
package proxy

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/artpar/dockhand/internal/core/nginx"
	"github.com/artpar/dockhand/internal/core/pipeline"
	"github.com/artpar/dockhand/internal/shell/remote"
)

// Configurator manages the per-application proxy fragment on the target.
type Configurator struct {
	runner      remote.Runner
	fragmentDir string
	logger      *slog.Logger
}

// NewConfigurator creates a configurator. fragmentDir defaults to
// /etc/nginx/conf.d.
func NewConfigurator(runner remote.Runner, fragmentDir string, logger *slog.Logger) *Configurator {
	if logger == nil {
		logger = slog.Default()
	}
	if fragmentDir == "" {
		fragmentDir = nginx.DefaultFragmentDir
	}
	return &Configurator{
		runner:      runner,
		fragmentDir: fragmentDir,
		logger:      logger.With("component", "proxy"),
	}
}

// Apply overwrites the application's fragment, validates the full proxy
// configuration, and reloads. Reload happens only after a clean syntax
// check: on validation failure the previously loaded configuration
// stays active.
func (c *Configurator) Apply(ctx context.Context, app string, port int) error {
	path := nginx.FragmentPath(c.fragmentDir, app)
	fragment := nginx.Fragment(app, port)

	res, err := c.runner.RunInput(ctx, fmt.Sprintf("cat > %s", path), strings.NewReader(fragment))
	if err != nil {
		return err
	}
	if !res.OK() {
		return pipeline.NewStageError("proxy",
			fmt.Sprintf("write %s: exit %d: %s", path, res.ExitCode, res.Stderr),
			pipeline.ErrConfiguration)
	}

	res, err = c.runner.Run(ctx, "nginx -t")
	if err != nil {
		return err
	}
	if !res.OK() {
		return pipeline.NewStageError("proxy",
			fmt.Sprintf("configuration rejected, prior config left active: %s", res.Stderr),
			pipeline.ErrConfiguration)
	}

	res, err = c.runner.Run(ctx, "systemctl reload nginx")
	if err != nil {
		return err
	}
	if !res.OK() {
		return pipeline.NewStageError("proxy",
			fmt.Sprintf("reload failed: %s", res.Stderr),
			pipeline.ErrConfiguration)
	}

	c.logger.Info("proxy fragment applied", "app", app, "path", path, "upstream_port", port)
	return nil
}

// Remove deletes the application's fragment and reloads, tolerating an
// already-absent fragment. Used by cleanup.
func (c *Configurator) Remove(ctx context.Context, app string) error {
	path := nginx.FragmentPath(c.fragmentDir, app)

	res, err := c.runner.Run(ctx, fmt.Sprintf("rm -f %s", path))
	if err != nil {
		return err
	}
	if !res.OK() {
		c.logger.Warn("fragment removal returned non-zero", "path", path, "exit_code", res.ExitCode)
	}

	res, err = c.runner.Run(ctx, "nginx -t && systemctl reload nginx")
	if err != nil {
		return err
	}
	if !res.OK() {
		c.logger.Warn("proxy reload after removal failed", "stderr", res.Stderr)
	}
	return nil
}
