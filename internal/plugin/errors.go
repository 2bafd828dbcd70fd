package plugin

import (
	"errors"
	"fmt"
)

// ErrPlugin is the base error of the plugin system. Every error produced by
// the registry itself wraps it, so callers may catch broadly with
// errors.Is(err, ErrPlugin) or narrowly with one of the kind errors below.
var ErrPlugin = errors.New("plugin")

// Lookup and discovery errors.
var (
	// ErrUnknownPackage is returned when a namespace cannot be resolved by the loader.
	ErrUnknownPackage = fmt.Errorf("%w: unknown package", ErrPlugin)

	// ErrUnknownPlugin is returned when a namespace resolves but the named
	// plug-in has no registered functions.
	ErrUnknownPlugin = fmt.Errorf("%w: unknown plug-in", ErrPlugin)

	// ErrUnknownPluginFunction is returned when a plug-in exists but no
	// function matches the requested name and label.
	ErrUnknownPluginFunction = fmt.Errorf("%w: unknown plug-in function", ErrPlugin)
)

// Dispatch errors.
var (
	// ErrNotCallable is returned when a registered value cannot be invoked.
	ErrNotCallable = fmt.Errorf("%w: value is not callable", ErrPlugin)

	// ErrArguments is returned when call arguments do not fit the function signature.
	ErrArguments = fmt.Errorf("%w: bad arguments", ErrPlugin)

	// ErrResultType is returned by the typed helpers on a type mismatch.
	ErrResultType = fmt.Errorf("%w: unexpected type", ErrPlugin)
)

// UnknownPackageError reports a namespace the loader could not resolve.
type UnknownPackageError struct {
	Namespace string
}

func (e *UnknownPackageError) Error() string {
	return fmt.Sprintf("package %q doesn't exist", e.Namespace)
}

// Unwrap returns ErrUnknownPackage.
func (e *UnknownPackageError) Unwrap() error {
	return ErrUnknownPackage
}

// UnknownPluginError reports a plug-in without registered functions.
type UnknownPluginError struct {
	Namespace string
	Plugin    string
}

func (e *UnknownPluginError) Error() string {
	return fmt.Sprintf("couldn't find plug-in %q inside %q. Register functions to create a plug-in",
		e.Plugin, e.Namespace)
}

// Unwrap returns ErrUnknownPlugin.
func (e *UnknownPluginError) Unwrap() error {
	return ErrUnknownPlugin
}

// UnknownPluginFunctionError reports a function/label combination that
// does not exist inside an existing plug-in.
type UnknownPluginFunctionError struct {
	Namespace string
	Plugin    string
	Func      string
	Label     string
}

func (e *UnknownPluginFunctionError) Error() string {
	where := e.Namespace + "/" + e.Plugin
	if e.Label == "" {
		return fmt.Sprintf("couldn't find function %q inside %q", e.Func, where)
	}
	return fmt.Sprintf("couldn't find function %q inside %q with label %q", e.Func, where, e.Label)
}

// Unwrap returns ErrUnknownPluginFunction.
func (e *UnknownPluginFunctionError) Unwrap() error {
	return ErrUnknownPluginFunction
}

// TargetKind tells which part of a member address a loader failed to find.
type TargetKind int

const (
	// TargetPackage means the namespace itself does not exist.
	TargetPackage TargetKind = iota
	// TargetPlugin means the namespace exists but the member does not.
	TargetPlugin
)

// String returns a string representation of the target kind.
func (k TargetKind) String() string {
	switch k {
	case TargetPackage:
		return "package"
	case TargetPlugin:
		return "plugin"
	default:
		return "unknown"
	}
}

// NotFoundError is the structured "not found" signal a Loader returns.
// The registry turns it into UnknownPackageError or UnknownPluginError
// depending on Kind.
type NotFoundError struct {
	Kind      TargetKind
	Namespace string
	Member    string
	Err       error // optional underlying cause
}

func (e *NotFoundError) Error() string {
	var msg string
	if e.Kind == TargetPackage {
		msg = fmt.Sprintf("namespace %q not found", e.Namespace)
	} else {
		msg = fmt.Sprintf("member %q not found in %q", e.Member, e.Namespace)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *NotFoundError) Unwrap() error {
	return e.Err
}

// asUnknown converts a loader not-found signal about namespace/plugin into
// the lookup taxonomy. A not-found signal about some other target (raised by
// the member's own code) and any other error are returned unchanged.
func asUnknown(err error, namespace, plugin string) error {
	var nf *NotFoundError
	if !errors.As(err, &nf) || nf.Namespace != namespace {
		return err
	}
	switch {
	case nf.Kind == TargetPackage:
		return &UnknownPackageError{Namespace: namespace}
	case nf.Member == plugin:
		return &UnknownPluginError{Namespace: namespace, Plugin: plugin}
	default:
		return err
	}
}
