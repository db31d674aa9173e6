package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/artpar/dockhand/internal/core/session"
)

// SSHRunner implements Runner over an SSH connection authenticated with
// a private key file. One runner drives one target for one session.
type SSHRunner struct {
	target  session.Target
	signer  ssh.Signer
	timeout time.Duration // per-command timeout

	mu     sync.Mutex // protects client
	client *ssh.Client
}

// SSHConfig configures the SSH runner.
type SSHConfig struct {
	ConnectTimeout time.Duration // Default: 10 seconds
	CommandTimeout time.Duration // Default: 2 minutes; installs and builds are slow
}

// DefaultSSHConfig returns the default configuration.
func DefaultSSHConfig() SSHConfig {
	return SSHConfig{
		ConnectTimeout: 10 * time.Second,
		CommandTimeout: 2 * time.Minute,
	}
}

// NewSSHRunner creates a runner for the target, reading and parsing the
// key file up front so a bad key fails before any dial.
func NewSSHRunner(target session.Target, config SSHConfig) (*SSHRunner, error) {
	key, err := os.ReadFile(target.KeyFile)
	if err != nil {
		return nil, &ConnectError{Op: "read key", Message: err.Error(), Err: ErrAuthFailed}
	}

	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		return nil, &ConnectError{Op: "parse key", Message: err.Error(), Err: ErrAuthFailed}
	}

	if config.ConnectTimeout == 0 {
		config.ConnectTimeout = 10 * time.Second
	}
	if config.CommandTimeout == 0 {
		config.CommandTimeout = 2 * time.Minute
	}

	if target.ConnectTimeout == 0 {
		target.ConnectTimeout = config.ConnectTimeout
	}

	return &SSHRunner{
		target:  target,
		signer:  signer,
		timeout: config.CommandTimeout,
	}, nil
}

// Connect establishes the SSH connection if not already connected.
// Reconnects if an existing connection went stale.
func (r *SSHRunner) Connect(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.client != nil {
		_, _, err := r.client.SendRequest("keepalive@dockhand", true, nil)
		if err == nil {
			return nil
		}
		r.client.Close()
		r.client = nil
	}

	config := &ssh.ClientConfig{
		User:            r.target.User,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(r.signer)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         r.target.ConnectTimeout,
	}

	addr := r.target.Address()
	client, err := ssh.Dial("tcp", addr, config)
	if err != nil {
		return classifyDialError(addr, err)
	}

	r.client = client
	return nil
}

// Close closes the SSH connection.
func (r *SSHRunner) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.client != nil {
		err := r.client.Close()
		r.client = nil
		return err
	}
	return nil
}

// Run executes a single command line on the target.
func (r *SSHRunner) Run(ctx context.Context, command string) (Result, error) {
	return r.exec(ctx, command, nil)
}

// RunScript executes a multi-line script body as one atomic remote unit
// by streaming it into a remote shell.
func (r *SSHRunner) RunScript(ctx context.Context, script string) (Result, error) {
	return r.exec(ctx, "/bin/bash -s", strings.NewReader(script))
}

// RunInput executes a command with stdin streamed from in.
func (r *SSHRunner) RunInput(ctx context.Context, command string, in io.Reader) (Result, error) {
	return r.exec(ctx, command, in)
}

func (r *SSHRunner) exec(ctx context.Context, command string, stdin io.Reader) (Result, error) {
	if err := r.Connect(ctx); err != nil {
		return Result{}, err
	}

	r.mu.Lock()
	sess, err := r.client.NewSession()
	r.mu.Unlock()
	if err != nil {
		return Result{}, &ConnectError{Op: "session", Addr: r.target.Address(), Message: err.Error(), Err: err}
	}
	defer sess.Close()

	var stdout, stderr bytes.Buffer
	sess.Stdout = &stdout
	sess.Stderr = &stderr
	if stdin != nil {
		sess.Stdin = stdin
	}

	done := make(chan error, 1)
	go func() {
		done <- sess.Run(command)
	}()

	select {
	case <-ctx.Done():
		return Result{}, &ConnectError{Op: "run", Addr: r.target.Address(), Message: ctx.Err().Error(), Err: ctx.Err()}
	case <-time.After(r.timeout):
		return Result{}, &ConnectError{
			Op:      "run",
			Addr:    r.target.Address(),
			Message: fmt.Sprintf("no result after %v", r.timeout),
			Err:     ErrCommandTimeout,
		}
	case err := <-done:
		res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
		if err == nil {
			return res, nil
		}
		if exitErr, ok := err.(*ssh.ExitError); ok {
			// Non-zero exit is a command outcome, not a channel failure.
			res.ExitCode = exitErr.ExitStatus()
			return res, nil
		}
		return Result{}, &ConnectError{Op: "run", Addr: r.target.Address(), Message: err.Error(), Err: err}
	}
}

func classifyDialError(addr string, err error) error {
	if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
		return &ConnectError{Op: "dial", Addr: addr, Message: err.Error(), Err: ErrConnectTimeout}
	}
	if strings.Contains(err.Error(), "unable to authenticate") ||
		strings.Contains(err.Error(), "no supported methods remain") {
		return &ConnectError{Op: "dial", Addr: addr, Message: err.Error(), Err: ErrAuthFailed}
	}
	return &ConnectError{Op: "dial", Addr: addr, Message: err.Error(), Err: err}
}
