package pipeline

import (
	"errors"
	"fmt"
)

// =============================================================================
// Error Taxonomy
// =============================================================================

var (
	// ErrConnectivity covers an unreachable channel or failed authentication.
	// Fatal, never retried: a broken link to the target is not self-healing.
	ErrConnectivity = errors.New("target unreachable")

	// ErrProvisioning means no installer in the fallback chain succeeded.
	ErrProvisioning = errors.New("provisioning failed")

	// ErrTransfer covers an uncreatable or unwritable destination and an
	// interrupted copy.
	ErrTransfer = errors.New("artifact transfer failed")

	// ErrDeployment covers build/run failure and the post-condition
	// container-presence check failing after an apparently successful run.
	ErrDeployment = errors.New("deployment failed")

	// ErrConfiguration means the proxy rejected the new configuration;
	// the previously loaded configuration remains active.
	ErrConfiguration = errors.New("proxy configuration invalid")

	// ErrValidation means a post-deploy check failed. The deployment is
	// left running for inspection.
	ErrValidation = errors.New("post-deploy validation failed")

	// ErrCleanup marks a best-effort removal failure. Logged, never fatal
	// to overall cleanup completion.
	ErrCleanup = errors.New("cleanup incomplete")
)

// StageError wraps a failure with the stage that produced it, so the
// terminal error surfaced to the operator names where the pipeline halted.
type StageError struct {
	Stage   string
	Message string
	Err     error
}

func (e *StageError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("stage %s: %s", e.Stage, e.Message)
	}
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// NewStageError wraps err with stage context.
func NewStageError(stage, message string, err error) *StageError {
	return &StageError{Stage: stage, Message: message, Err: err}
}
