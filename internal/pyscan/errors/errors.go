package errors

// Package errors provides sentinel errors for module scanning operations.
// These enable consistent classification while keeping user-facing messages
// descriptive via wrapping.

import "errors"

var (
	// ErrModuleNotFound indicates a configured module could not be resolved
	// from any search path.
	ErrModuleNotFound = errors.New("module not found")

	// ErrSourceReadFailed indicates reading a resolved module source file failed.
	ErrSourceReadFailed = errors.New("module source read failed")

	// ErrParseFailed indicates the source file could not be parsed.
	ErrParseFailed = errors.New("module parse failed")
)
