package session

import "fmt"

// InvalidInputError reports a missing or malformed session input. It is
// always raised pre-flight, before any remote connection is attempted.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input %s: %s", e.Field, e.Reason)
}
