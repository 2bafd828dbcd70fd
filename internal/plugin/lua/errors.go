package lua

import (
	"errors"
	"fmt"
)

// Errors for Lua state operations.
var (
	// ErrStateClosed is returned when operating on a closed state.
	ErrStateClosed = errors.New("lua state is closed")

	// ErrExecutionTimeout is returned when execution exceeds the configured timeout.
	ErrExecutionTimeout = errors.New("lua execution timeout")

	// ErrLoaderClosed is returned by Load after Close.
	ErrLoaderClosed = errors.New("lua loader is closed")
)

// ScriptError reports a plug-in file whose top-level code failed.
type ScriptError struct {
	Path string
	Err  error
}

func (e *ScriptError) Error() string {
	return fmt.Sprintf("lua: %s: %v", e.Path, e.Err)
}

func (e *ScriptError) Unwrap() error {
	return e.Err
}
