package core

import (
	"fmt"
	"strings"
)

// MixError represents an error that occurred while validating options or
// writing the result. It provides context about which file (if any)
// caused the error.
type MixError struct {
	// File is the path to the file where the error occurred.
	// May be empty if the error is not specific to a file.
	File string

	// Message is a descriptive error message explaining what went wrong.
	Message string
}

// Error implements the error interface for MixError.
// It formats the error message to include the file path if available.
func (e *MixError) Error() string {
	if e.File != "" {
		return "file " + e.File + ": " + e.Message
	}
	return e.Message
}

// IOError reports a local stylesheet that is missing, unreadable or too
// large.
type IOError struct {
	Locator string
	Err     error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("reading %s: %v", e.Locator, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// NetworkError reports a failed remote fetch. StatusCode is zero when the
// request never got a response.
type NetworkError struct {
	Locator    string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetching %s: unexpected status %d", e.Locator, e.StatusCode)
	}
	return fmt.Sprintf("fetching %s: %v", e.Locator, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// MalformedDirectiveError reports input the tokenizer cannot split into
// rules: an @import without a url(...) pair, unbalanced braces or a rule
// cut off by the end of input.
type MalformedDirectiveError struct {
	// Locator names the stylesheet, when known.
	Locator string

	// Offset is the rune offset where the offending construct starts.
	Offset int

	// Directive is the construct being read, e.g. "@import" or "block".
	Directive string

	Reason string
}

func (e *MalformedDirectiveError) Error() string {
	where := fmt.Sprintf("offset %d", e.Offset)
	if e.Locator != "" {
		where = e.Locator + ": " + where
	}
	return fmt.Sprintf("%s: malformed %s: %s", where, e.Directive, e.Reason)
}

// ImportCycleError reports a stylesheet that imports itself, directly or
// through other stylesheets. Chain starts at the first stylesheet of the
// cycle and ends with the repeated locator.
type ImportCycleError struct {
	Chain []string
}

func (e *ImportCycleError) Error() string {
	return "import cycle: " + strings.Join(e.Chain, " -> ")
}

// ImportDepthError reports an import chain longer than MixOptions.MaxDepth.
type ImportDepthError struct {
	Locator string
	Depth   int
}

func (e *ImportDepthError) Error() string {
	return fmt.Sprintf("import of %s exceeds maximum depth %d", e.Locator, e.Depth)
}
