package remote

import (
	"errors"
	"fmt"
)

var (
	// ErrConnectTimeout means the target gave no response within the
	// configured connect timeout.
	ErrConnectTimeout = errors.New("connection timed out")

	// ErrAuthFailed means the target rejected the supplied key material.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrCommandTimeout means a remote command exceeded the per-command
	// timeout. The session has no mid-stage interrupt beyond this bound.
	ErrCommandTimeout = errors.New("command timed out")
)

// ConnectError wraps channel-level failures with the operation and
// address that produced them. Fatal to the session: no automatic retry.
type ConnectError struct {
	Op      string
	Addr    string
	Message string
	Err     error
}

func (e *ConnectError) Error() string {
	if e.Addr != "" {
		return fmt.Sprintf("%s %s: %s", e.Op, e.Addr, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *ConnectError) Unwrap() error {
	return e.Err
}
