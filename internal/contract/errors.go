package contract

import (
	"errors"
	"fmt"
)

var (
	// ErrArtifactIO reports a missing, unreadable or corrupt archive.
	ErrArtifactIO = errors.New("artifact i/o failure")
	// ErrEmptyArtifact reports an archive that yielded no compiled units.
	ErrEmptyArtifact = errors.New("artifact contains no compiled units")
	// ErrModuleNotFound reports a dispatch against a module that could not be loaded.
	ErrModuleNotFound = errors.New("module not found")
	// ErrEntryNotFound reports a loaded module without an entry unit.
	ErrEntryNotFound = errors.New("entry unit not found")
	// ErrUnitNotFound reports a unit found neither in the module nor in the common library.
	ErrUnitNotFound = errors.New("unit not found")
	// ErrOperationNotFound reports an entry unit lacking the requested operation.
	ErrOperationNotFound = errors.New("operation not found")
	// ErrInvalidArguments reports arguments rejected by the module manifest.
	ErrInvalidArguments = errors.New("invalid arguments")
)

// ExecutionError wraps a fault raised while an operation was running.
type ExecutionError struct {
	Module string
	Op     Op
	Cause  error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("execution of %s.%s failed: %v", e.Module, e.Op, e.Cause)
}

func (e *ExecutionError) Unwrap() error {
	return e.Cause
}
