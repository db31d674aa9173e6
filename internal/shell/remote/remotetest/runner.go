// Package remotetest provides a scripted in-memory Runner for testing
// pipeline components without a live SSH target.
package remotetest

import (
	"context"
	"io"
	"strings"

	"github.com/artpar/dockhand/internal/shell/remote"
)

// Call is one recorded invocation of the fake runner.
type Call struct {
	Kind    string // "run", "script", "input"
	Command string // command line, or script body for "script"
	Stdin   string // consumed stdin for "input" calls
}

// Response is the scripted outcome for a matching command.
type Response struct {
	Result remote.Result
	Err    error
}

// Runner is a fake remote.Runner. Responses are matched by substring
// against the command (or script body), first match wins; unmatched
// commands succeed with exit 0.
type Runner struct {
	Calls     []Call
	responses []scripted
}

type scripted struct {
	substr string
	resp   Response
}

var _ remote.Runner = (*Runner)(nil)

// Stub registers a response for any command containing substr.
func (f *Runner) Stub(substr string, resp Response) {
	f.responses = append(f.responses, scripted{substr: substr, resp: resp})
}

// StubExit registers an exit code for any command containing substr.
func (f *Runner) StubExit(substr string, code int) {
	f.Stub(substr, Response{Result: remote.Result{ExitCode: code}})
}

// StubOutput registers stdout (exit 0) for any command containing substr.
func (f *Runner) StubOutput(substr, stdout string) {
	f.Stub(substr, Response{Result: remote.Result{Stdout: stdout}})
}

// StubErr registers a channel-level error for any command containing
// substr. An erroring RunInput does not consume its stdin, matching a
// channel that dies before reading the stream.
func (f *Runner) StubErr(substr string, err error) {
	f.Stub(substr, Response{Err: err})
}

func (f *Runner) Run(_ context.Context, command string) (remote.Result, error) {
	f.Calls = append(f.Calls, Call{Kind: "run", Command: command})
	return f.lookup(command)
}

func (f *Runner) RunScript(_ context.Context, script string) (remote.Result, error) {
	f.Calls = append(f.Calls, Call{Kind: "script", Command: script})
	return f.lookup(script)
}

func (f *Runner) RunInput(_ context.Context, command string, r io.Reader) (remote.Result, error) {
	if resp, ok := f.match(command); ok && resp.Err != nil {
		f.Calls = append(f.Calls, Call{Kind: "input", Command: command})
		return resp.Result, resp.Err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return remote.Result{}, err
	}
	f.Calls = append(f.Calls, Call{Kind: "input", Command: command, Stdin: string(data)})
	return f.lookup(command)
}

func (f *Runner) match(command string) (Response, bool) {
	for _, s := range f.responses {
		if strings.Contains(command, s.substr) {
			return s.resp, true
		}
	}
	return Response{}, false
}

func (f *Runner) lookup(command string) (remote.Result, error) {
	resp, _ := f.match(command)
	return resp.Result, resp.Err
}

// Commands returns every recorded command for order assertions.
func (f *Runner) Commands() []string {
	out := make([]string, 0, len(f.Calls))
	for _, c := range f.Calls {
		out = append(out, c.Command)
	}
	return out
}

// Ran reports whether any recorded command contains substr.
func (f *Runner) Ran(substr string) bool {
	for _, c := range f.Calls {
		if strings.Contains(c.Command, substr) {
			return true
		}
	}
	return false
}
