// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package checker

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for checker operations.
var (
	// ErrCreation indicates the checker executable path could not be resolved.
	ErrCreation = errors.New("checker creation failed")

	// ErrTimeout indicates the checker process exceeded its allotted time.
	ErrTimeout = errors.New("checker timed out")

	// ErrExecution indicates the checker process failed without usable output.
	ErrExecution = errors.New("checker execution failed")

	// ErrInvalidOutput indicates the checker produced output that is not a
	// well-formed report. Distinct from ErrExecution so callers can tell
	// "tool crashed" apart from "tool output malformed".
	ErrInvalidOutput = errors.New("invalid checker output format")

	// ErrInvalidInput indicates invalid arguments to a checker operation.
	ErrInvalidInput = errors.New("invalid input")
)

// CheckerError wraps a sentinel error with invocation context.
//
// Description:
//
//	Carries the command that was run and, when available, the stderr the
//	process produced. Unwraps to the underlying sentinel so errors.Is works.
//
// Thread Safety: Immutable after creation.
type CheckerError struct {
	// Command is the resolved executable that was invoked.
	Command string

	// Err is the underlying sentinel error.
	Err error

	// Stderr is the captured stderr output, if any.
	Stderr string
}

// NewCheckerError creates a CheckerError for the given command.
func NewCheckerError(command string, err error) *CheckerError {
	return &CheckerError{Command: command, Err: err}
}

// WithStderr attaches captured stderr output to the error.
func (e *CheckerError) WithStderr(stderr string) *CheckerError {
	e.Stderr = strings.TrimSpace(stderr)
	return e
}

// Error implements the error interface.
func (e *CheckerError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s: %v: %s", e.Command, e.Err, e.Stderr)
	}
	return fmt.Sprintf("%s: %v", e.Command, e.Err)
}

// Unwrap returns the underlying sentinel error.
func (e *CheckerError) Unwrap() error {
	return e.Err
}
