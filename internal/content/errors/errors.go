package errors

// Package errors provides sentinel errors for content declaration parsing
// and reference validation. These enable consistent classification while
// keeping user-facing messages descriptive via wrapping.

import "errors"

var (
	// ErrDeclarationReadFailed indicates the root content declaration file
	// could not be read.
	ErrDeclarationReadFailed = errors.New("content declaration read failed")

	// ErrMalformedHeading indicates a heading underline is shorter than the
	// heading text. Fatal, reported with file and line.
	ErrMalformedHeading = errors.New("malformed heading")

	// ErrBrokenReference indicates a declared entry resolves to neither a
	// configured module nor an existing page. Fatal, reported per reference.
	ErrBrokenReference = errors.New("broken reference")

	// ErrPageReadFailed indicates a referenced page file exists but could
	// not be read.
	ErrPageReadFailed = errors.New("page read failed")
)
