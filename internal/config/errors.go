package config

import (
	"errors"
	"fmt"
)

// Errors returned by configuration operations.
var (
	// ErrUnknownSetting indicates a key that names no setting.
	ErrUnknownSetting = errors.New("unknown setting")

	// ErrFileNotFound indicates an explicitly requested file doesn't exist.
	ErrFileNotFound = errors.New("config file not found")
)

// ParseError represents an error while parsing a configuration file.
type ParseError struct {
	// Path is the file path that failed to parse.
	Path string
	// Line is the line number where the error occurred (if available).
	Line int
	// Column is the column number where the error occurred (if available).
	Column int
	// Message describes the parse error.
	Message string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Line > 0 && e.Column > 0 {
		return fmt.Sprintf("parse error in %s at line %d, column %d: %s", e.Path, e.Line, e.Column, e.Message)
	}
	if e.Line > 0 {
		return fmt.Sprintf("parse error in %s at line %d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("parse error in %s: %s", e.Path, e.Message)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// ValidationError describes a setting with an unacceptable value.
type ValidationError struct {
	// Key is the setting key, such as "log.level".
	Key string
	// Message describes the problem.
	Message string
	// Value is the rejected value.
	Value any
	// Source names where the value came from: "file", "env" or "flag".
	Source string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("%s: %s (value: %v)", e.Key, e.Message, e.Value)
	}
	return fmt.Sprintf("%s from %s: %s (value: %v)", e.Key, e.Source, e.Message, e.Value)
}
