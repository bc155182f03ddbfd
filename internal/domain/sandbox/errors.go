package sandbox

import (
	"errors"
	"fmt"
)

var (
	ErrSandboxCreation = errors.New("sandbox creation failed")
	ErrPoolClosed      = errors.New("sandbox pool is closed")
	ErrTimeout         = errors.New("sandbox acquisition timeout")
	ErrRunnerClosed    = errors.New("sandbox runner is closed")
	ErrRuntimeUsed     = errors.New("sandbox runtime already used")
	ErrNotFound        = errors.New("sandbox not found")
	ErrConsumed        = errors.New("sandbox document already served")
)

// CreationError reports that no execution context could be created.
type CreationError struct {
	Cause error
}

func (e *CreationError) Error() string {
	return fmt.Sprintf("%v: %v", ErrSandboxCreation, e.Cause)
}

func (e *CreationError) Unwrap() []error {
	return []error{ErrSandboxCreation, e.Cause}
}

// ErrInterrupted is returned when a run is stopped by its timeout or by
// handle destruction.
var ErrInterrupted = errors.New("sandbox execution interrupted")
