package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/artpar/dockhand/internal/core/pipeline"
	"github.com/artpar/dockhand/internal/core/session"
	"github.com/artpar/dockhand/internal/shell/history"
	"github.com/artpar/dockhand/internal/shell/orchestrator"
	"github.com/artpar/dockhand/internal/shell/remote"
)

var (
	flagRepo    string
	flagToken   string
	flagBranch  string
	flagUser    string
	flagHost    string
	flagSSHPort string
	flagKeyFile string
	flagAppPort string
	flagCleanup bool

	deployCmd = &cobra.Command{
		Use:   "deploy",
		Short: "Run the full deployment pipeline against a host",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd.Context(), false)
		},
	}

	teardownCmd = &cobra.Command{
		Use:   "teardown",
		Short: "Remove a previously deployed application from a host",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd.Context(), true)
		},
	}
)

func init() {
	for _, cmd := range []*cobra.Command{deployCmd, teardownCmd} {
		cmd.Flags().StringVar(&flagRepo, "repo", "", "Repository URL (required)")
		cmd.Flags().StringVar(&flagToken, "token", "", "Repository access credential (required)")
		cmd.Flags().StringVar(&flagBranch, "branch", "", "Branch to deploy (default "+session.DefaultBranch+")")
		cmd.Flags().StringVar(&flagUser, "user", "", "SSH username (required)")
		cmd.Flags().StringVar(&flagHost, "host", "", "Target host address (required)")
		cmd.Flags().StringVar(&flagSSHPort, "ssh-port", "", "SSH port (default 22)")
		cmd.Flags().StringVar(&flagKeyFile, "key", "", "SSH private key file (required)")
		cmd.Flags().StringVar(&flagAppPort, "port", "", "Application listen port (required)")
	}
	deployCmd.Flags().BoolVar(&flagCleanup, "cleanup", false, "Tear everything down after a successful deploy")
}

// exitError carries a process exit code through cobra's error return.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func exitCodeFor(err error) (int, bool) {
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code, true
	}
	return 0, false
}

// pipelineExitCode maps a terminal pipeline error to the process exit
// code. A channel failure surfaces as a connect error no matter which
// stage it interrupted.
func pipelineExitCode(err error) int {
	var ce *remote.ConnectError
	if errors.Is(err, pipeline.ErrConnectivity) || errors.As(err, &ce) {
		return ExitConnectError
	}
	return ExitStageError
}

func runPipeline(ctx context.Context, teardown bool) error {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return &exitError{code: ExitConfigError, err: err}
	}
	logger := SetupLogger(cfg)

	sess, err := session.New(session.Inputs{
		RepoURL:    flagRepo,
		Credential: flagToken,
		Branch:     flagBranch,
		SSHUser:    flagUser,
		SSHHost:    flagHost,
		SSHPort:    flagSSHPort,
		KeyFile:    flagKeyFile,
		AppPort:    flagAppPort,
		RemoteRoot: cfg.Remote.Root,
		Cleanup:    flagCleanup,
	})
	if err != nil {
		return &exitError{code: ExitInputError, err: err}
	}

	logger.Info("session created",
		"session_id", sess.ID,
		"app", sess.AppName,
		"target", sess.Target.Address(),
		"branch", sess.Branch,
	)

	runner, err := remote.NewSSHRunner(sess.Target, remote.SSHConfig{
		ConnectTimeout: cfg.SSH.ConnectTimeout,
		CommandTimeout: cfg.SSH.CommandTimeout,
	})
	if err != nil {
		return &exitError{code: ExitConnectError, err: err}
	}
	defer runner.Close()

	sinks, closeSinks, err := openSinks(cfg, logger)
	if err != nil {
		return &exitError{code: ExitConfigError, err: err}
	}
	defer closeSinks()

	orch := orchestrator.New(sess, runner, orchestrator.Options{
		StagingDir:  filepath.Join(cfg.Staging.Dir, sess.AppName),
		FragmentDir: cfg.Proxy.FragmentDir,
	}, logger)

	stages := orch.DeployStages()
	if teardown {
		stages = orch.CleanupStages()
	}

	pr := pipeline.NewRunner(sess.ID, logger, sinks...)
	if err := pr.Execute(ctx, stages); err != nil {
		return &exitError{code: pipelineExitCode(err), err: err}
	}

	logger.Info("pipeline complete", "session_id", sess.ID, "app", sess.AppName)
	return nil
}

// openSinks opens the audit log file and the history database. Both are
// best-effort consumers of step records; neither holds credentials.
func openSinks(cfg *Config, logger *slog.Logger) ([]pipeline.Sink, func(), error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Audit.Path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create audit dir: %w", err)
	}

	auditFile, err := os.OpenFile(cfg.Audit.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open audit log: %w", err)
	}

	store, err := history.Open(cfg.History.DSN)
	if err != nil {
		auditFile.Close()
		return nil, nil, fmt.Errorf("open history store: %w", err)
	}

	closeAll := func() {
		if err := store.Close(); err != nil {
			logger.Warn("close history store", "error", err)
		}
		if err := auditFile.Close(); err != nil {
			logger.Warn("close audit log", "error", err)
		}
	}

	return []pipeline.Sink{pipeline.NewJSONSink(auditFile), store}, closeAll, nil
}
