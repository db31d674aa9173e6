// Package validate confirms, from the target's own vantage point, that
// the runtime, the application container, and the proxy path are live.
package validate

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/artpar/dockhand/internal/core/pipeline"
	"github.com/artpar/dockhand/internal/shell/remote"
)

// Validator runs the three post-deploy liveness checks.
type Validator struct {
	runner remote.Runner
	logger *slog.Logger
}

// NewValidator creates a validator over the channel.
func NewValidator(runner remote.Runner, logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{
		runner: runner,
		logger: logger.With("component", "validate"),
	}
}

type check struct {
	name    string
	command string
	// passed decides success from the result; nil means exit 0.
	passed func(remote.Result) bool
}

// Check evaluates all three checks in a fixed order, logs every outcome,
// and fails on the first unmet one. The checks are independent: a later
// failure is reported even when earlier checks pass, and the deployment
// is left running for inspection.
func (v *Validator) Check(ctx context.Context, app string) error {
	checks := []check{
		{
			name:    "runtime service active",
			command: "systemctl is-active --quiet docker",
		},
		{
			name:    "application container running",
			command: fmt.Sprintf("docker ps -q -f name=%s", app),
			passed:  func(r remote.Result) bool { return r.OK() && r.Output() != "" },
		},
		{
			name: "proxy responds locally",
			// Any HTTP response counts; the body is irrelevant.
			command: "curl -s -o /dev/null --max-time 10 http://127.0.0.1:80/",
		},
	}

	var firstFailed string
	for _, c := range checks {
		res, err := v.runner.Run(ctx, c.command)
		if err != nil {
			return err
		}

		ok := res.OK()
		if c.passed != nil {
			ok = c.passed(res)
		}

		if ok {
			v.logger.Info("check passed", "check", c.name)
		} else {
			v.logger.Error("check failed", "check", c.name, "exit_code", res.ExitCode, "stderr", res.Stderr)
			if firstFailed == "" {
				firstFailed = c.name
			}
		}
	}

	if firstFailed != "" {
		return pipeline.NewStageError("validate", firstFailed, pipeline.ErrValidation)
	}
	return nil
}
