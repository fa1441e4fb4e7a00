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
	"encoding/json"
	"fmt"
	"strings"
)

// Message is one issue reported by the checker.
//
// Line is 1-based, as emitted by phpdd. An empty Message string is a
// sentinel for "no real message" and maps to a degenerate diagnostic.
type Message struct {
	// Line is the 1-based line number the issue was reported on.
	Line int `json:"line"`

	// Message is the human-readable issue description.
	Message string `json:"message"`
}

// FileReport is the ordered message list for a single file.
type FileReport struct {
	Messages []Message `json:"messages"`
}

// Report is the parsed top-level checker output.
//
// Keys of Files are real (symlink-resolved) absolute file paths, exactly as
// the checker emitted them.
type Report struct {
	Files map[string]FileReport `json:"files"`
}

// MessagesFor returns the messages for the given real file path.
//
// Description:
//
//	Looks up the per-file record by real path. The second return value
//	distinguishes "file present with zero messages" from "file absent from
//	the report" (e.g. a path mismatch after symlink resolution); callers
//	treat both as no diagnostics but may want to log the latter.
func (r *Report) MessagesFor(realPath string) ([]Message, bool) {
	file, ok := r.Files[realPath]
	if !ok {
		return nil, false
	}
	return file.Messages, true
}

// ParseReport deserializes raw checker stdout into a Report.
//
// Description:
//
//	Strictly decodes the expected {"files": {path: {messages: [...]}}}
//	shape. Malformed JSON, a non-object payload, or a payload without the
//	files mapping all fail with ErrInvalidOutput; parsing never silently
//	coerces bad output into an empty result.
//
// Inputs:
//
//	raw - Raw stdout text from the checker process.
//
// Outputs:
//
//	*Report - The parsed report.
//	error - Non-nil, wrapping ErrInvalidOutput, on any shape mismatch.
func ParseReport(raw string) (*Report, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty output", ErrInvalidOutput)
	}

	var report Report
	if err := json.Unmarshal([]byte(trimmed), &report); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOutput, err)
	}

	// A syntactically valid JSON object that lacks the files mapping is a
	// shape mismatch, not an empty report.
	if report.Files == nil {
		return nil, fmt.Errorf("%w: missing \"files\" mapping", ErrInvalidOutput)
	}

	return &report, nil
}
