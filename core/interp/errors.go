package interp

import (
	"errors"
)

var (
	// ErrNotImplemented matches errors for constructs that parse but can't be
	// executed.
	ErrNotImplemented = errors.New("not yet implemented")

	// ErrInternal matches errors caused by a malformed syntax tree.
	ErrInternal = errors.New("internal error")
)

// UnimplementedError is returned when a command that can't be executed is
// run.
type UnimplementedError struct {
	// Construct is the human readable name of the command, e.g. "pipeline".
	Construct string
}

func (e *UnimplementedError) Error() string {
	return e.Construct + " execution not yet implemented"
}

// Is makes UnimplementedError match ErrNotImplemented.
func (e *UnimplementedError) Is(target error) bool {
	return target == ErrNotImplemented
}
