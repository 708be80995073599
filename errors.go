package farmsync

import (
	"errors"
	"fmt"

	"github.com/ethereum-optimism/infra/farmsync/exitcodes"
)

// RuntimeError represents an operational error that should lead to exit code 2.
// Examples include configuration errors, missing credentials and report sink failures.
type RuntimeError struct {
	Err error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("runtime error: %v", e.Err)
}

// Unwrap implements the errors.Unwrap interface
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// NewRuntimeError creates a new RuntimeError
func NewRuntimeError(err error) *RuntimeError {
	return &RuntimeError{Err: err}
}

// IsRuntimeError checks if the error is or wraps a RuntimeError
func IsRuntimeError(err error) bool {
	var runtimeErr *RuntimeError
	return err != nil && errors.As(err, &runtimeErr)
}

// WarningsError reports that reconciliation finished with warnings (exit code 1)
type WarningsError struct {
	Warnings []string
}

func (e *WarningsError) Error() string {
	return fmt.Sprintf("reconciliation finished with %d warning(s)", len(e.Warnings))
}

// NewWarningsError creates a new WarningsError
func NewWarningsError(warnings []string) *WarningsError {
	return &WarningsError{Warnings: warnings}
}

// IsWarningsError checks if the error is or wraps a WarningsError
func IsWarningsError(err error) bool {
	var warnErr *WarningsError
	return err != nil && errors.As(err, &warnErr)
}

// ExitCode maps an error returned by a command to the process exit code.
// Anything other than a WarningsError is a runtime failure.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return exitcodes.Success
	case IsWarningsError(err):
		return exitcodes.Warnings
	default:
		return exitcodes.RuntimeErr
	}
}
