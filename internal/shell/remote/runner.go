// Package remote provides the secure remote-execution channel: an
// authenticated SSH connection to the target host over which every
// pipeline stage runs its commands.
package remote

import (
	"context"
	"io"
	"strings"
)

// Result is the outcome of one remote command: the remote exit status is
// ground truth, zero meaning success by convention.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// OK reports whether the command exited zero.
func (r Result) OK() bool {
	return r.ExitCode == 0
}

// Output returns trimmed stdout.
func (r Result) Output() string {
	return strings.TrimSpace(r.Stdout)
}

// Runner executes commands on the target. An error return means the
// channel itself failed (dial, auth, timeout); a remote command failing
// is reported through Result.ExitCode, never as an error.
type Runner interface {
	// Run executes a single command line.
	Run(ctx context.Context, command string) (Result, error)

	// RunScript executes a multi-line script body as one atomic remote
	// unit, for stages needing several dependent shell statements.
	RunScript(ctx context.Context, script string) (Result, error)

	// RunInput executes a command with stdin streamed from r, used for
	// uploading file content to the target.
	RunInput(ctx context.Context, command string, r io.Reader) (Result, error)
}
