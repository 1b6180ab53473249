package optimistic

import (
	"errors"
	"fmt"
)

var (
	// ErrVersionMismatch is returned by stores when the persisted version
	// token no longer equals the expected one.
	ErrVersionMismatch = errors.New("optimistic: version mismatch")

	// ErrNotFound is returned by stores when the record does not exist.
	ErrNotFound = errors.New("optimistic: record not found")

	// ErrInvalidArgument matches every *InvalidArgumentError.
	ErrInvalidArgument = errors.New("optimistic: invalid argument")

	// ErrTransient matches every *TransientError.
	ErrTransient = errors.New("optimistic: transient store failure")
)

// InvalidArgumentError is returned when AttemptUpdate is called with inputs
// that can never succeed. It is not retryable.
type InvalidArgumentError struct {
	Reason string
}

// Error implements the error interface.
func (e *InvalidArgumentError) Error() string {
	return "optimistic: invalid argument: " + e.Reason
}

// Is makes errors.Is(err, ErrInvalidArgument) report true.
func (e *InvalidArgumentError) Is(target error) bool {
	return target == ErrInvalidArgument
}

// TransientError wraps a store failure that is neither a version mismatch nor
// a missing record. The whole read-modify-write cycle may be retried.
type TransientError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *TransientError) Error() string {
	return fmt.Sprintf("optimistic: %s: %v", e.Op, e.Err)
}

// Unwrap returns the store error.
func (e *TransientError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrTransient) report true.
func (e *TransientError) Is(target error) bool {
	return target == ErrTransient
}
