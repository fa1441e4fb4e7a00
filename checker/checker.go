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
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// DefaultTimeout is the hard execution bound for one checker invocation.
// phpdd can legitimately take a long time on large files; exceeding this is
// a fatal failure for the validation cycle, never retried automatically.
const DefaultTimeout = 5 * time.Minute

// pipeWaitDelay bounds how long Run waits for the stdout/stderr pipes to
// close after the deadline. Killing the direct child does not reap
// grandchildren it spawned; an orphan inheriting the pipe would otherwise
// hold the call open until it exits on its own.
const pipeWaitDelay = 2 * time.Second

// =============================================================================
// CHECKER
// =============================================================================

// Checker invokes the external phpdd process against document content.
//
// Description:
//
//	Resolves the executable path from settings, spawns the process with the
//	document's current text piped to stdin, and captures stdout/stderr under
//	a hard timeout. The document may be dirty in the editor, so the checker
//	is told the file path for context but reads the content override from
//	stdin.
//
// Thread Safety: Safe for concurrent use.
type Checker struct {
	timeout time.Duration
}

// Option configures the Checker.
type Option func(*Checker)

// WithTimeout overrides the default execution timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Checker) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// New creates a Checker.
func New(opts ...Option) *Checker {
	c := &Checker{timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run executes the checker against the given document content.
//
// Description:
//
//	Spawns `<executable> --format=json --no-progress <filePath>` with the
//	workspace root as working directory (when known) and content on stdin.
//	Empty content short-circuits to empty output without spawning a
//	process. A nonzero exit with stdout present is treated as a valid
//	report; phpdd exits nonzero whenever it finds issues.
//
// Inputs:
//
//	ctx - Context for cancellation (the hard timeout is layered on top).
//	filePath - Filesystem path of the document, passed to the checker.
//	content - Current document text, piped to the checker's stdin.
//	settings - Resolved settings for this document.
//
// Outputs:
//
//	string - Raw stdout text; empty when content was empty.
//	error - Non-nil on resolution failure, timeout, or unusable exit.
//
// Errors:
//
//	ErrCreation - Executable path could not be resolved.
//	ErrTimeout - Process exceeded the timeout and was killed.
//	ErrExecution - Nonzero exit with no stdout (stderr attached when present).
//
// Thread Safety: Safe for concurrent use.
func (c *Checker) Run(ctx context.Context, filePath, content string, settings Settings) (string, error) {
	if ctx == nil {
		return "", fmt.Errorf("%w: ctx must not be nil", ErrInvalidInput)
	}
	if filePath == "" {
		return "", fmt.Errorf("%w: filePath must not be empty", ErrInvalidInput)
	}

	// Degenerate/placeholder buffer: nothing to analyze, don't spawn.
	if content == "" {
		return "", nil
	}

	executable, err := ResolveExecutable(settings.ExecutablePath)
	if err != nil {
		return "", err
	}

	ctx, span := startRunSpan(ctx, executable, filePath)
	defer span.End()
	start := time.Now()

	cmdCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cmd := exec.CommandContext(cmdCtx, executable, "--format=json", "--no-progress", filePath)
	cmd.WaitDelay = pipeWaitDelay
	if settings.WorkspaceRootPath != "" {
		cmd.Dir = settings.WorkspaceRootPath
	}
	cmd.Stdin = strings.NewReader(content)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	// CommandContext already killed the process on deadline; no partial
	// output is salvaged.
	if cmdCtx.Err() == context.DeadlineExceeded {
		recordRunMetrics(ctx, time.Since(start), false)
		return "", NewCheckerError(executable, ErrTimeout).WithStderr(stderr.String())
	}
	if ctx.Err() != nil {
		recordRunMetrics(ctx, time.Since(start), false)
		return "", ctx.Err()
	}

	if runErr != nil {
		// phpdd exits nonzero when it finds issues but still emits a valid
		// JSON report; only a silent stdout means actual failure.
		if stdout.Len() > 0 {
			slog.Debug("Checker exited nonzero with output",
				slog.String("executable", executable),
				slog.String("file", filePath),
				slog.String("exit_error", runErr.Error()),
			)
		} else {
			recordRunMetrics(ctx, time.Since(start), false)
			if stderr.Len() > 0 {
				return "", NewCheckerError(executable, ErrExecution).WithStderr(stderr.String())
			}
			return "", fmt.Errorf("%w: %s: missing output", ErrExecution, executable)
		}
	}

	recordRunMetrics(ctx, time.Since(start), true)

	slog.Debug("Checker run completed",
		slog.String("executable", executable),
		slog.String("file", filePath),
		slog.Duration("duration", time.Since(start)),
		slog.Int("stdout_bytes", stdout.Len()),
	)

	return stdout.String(), nil
}

// IsInstalled reports whether the configured executable resolves to a binary
// that exists. Used by the doctor command, never by the validation path.
func (c *Checker) IsInstalled(settings Settings) (string, bool) {
	executable, err := ResolveExecutable(settings.ExecutablePath)
	if err != nil {
		return "", false
	}
	if _, err := exec.LookPath(executable); err != nil {
		return executable, false
	}
	return executable, true
}
