// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package diag converts checker messages into LSP diagnostics.
//
// Checker messages carry 1-based line numbers and no column information;
// the published diagnostic spans from the first non-whitespace character of
// the reported line to the end of that line. Positions are measured in
// UTF-16 code units, the LSP default encoding.
package diag

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf16"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/deprecheck/phpdd-ls/checker"
)

// Source is the diagnostic source tag shown by the editor.
const Source = "phpdd"

// ErrLineOutOfRange indicates a reported line does not exist in the document.
// A race with concurrent edits can produce this; it fails the single message,
// never the batch.
var ErrLineOutOfRange = errors.New("reported line out of document range")

// ResolveStart returns the start column for a diagnostic on the given line.
//
// Description:
//
//	Scans forward from column 0 skipping whitespace (space, tab, and any
//	code point unicode classifies as whitespace) and returns the column of
//	the first non-whitespace character, in UTF-16 code units. For an
//	all-whitespace line the line length is returned, which degenerates the
//	range to start == end.
func ResolveStart(lineText string) int {
	col := 0
	for _, r := range lineText {
		if !unicode.IsSpace(r) {
			return col
		}
		col += utf16.RuneLen(r)
	}
	return col
}

// LineLength returns the length of the line in UTF-16 code units.
func LineLength(lineText string) int {
	length := 0
	for _, r := range lineText {
		length += utf16.RuneLen(r)
	}
	return length
}

// SplitLines splits document content into lines, tolerating CRLF endings.
func SplitLines(content string) []string {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

// FromMessage maps one checker message to an LSP diagnostic.
//
// Description:
//
//	An absent or empty message text yields a degenerate informational
//	diagnostic with a zero-length range at the document origin, so batch
//	processing never special-cases "no issue" as a null. Otherwise the
//	diagnostic is severity Error, spanning from the line's first
//	non-whitespace character to its end, with the 1-based checker line
//	converted to the 0-based LSP line.
//
// Inputs:
//
//	lines - The document's lines (SplitLines of the current content).
//	msg - The checker message to map.
//
// Outputs:
//
//	protocol.Diagnostic - The mapped diagnostic.
//	error - ErrLineOutOfRange when the reported line does not exist.
func FromMessage(lines []string, msg checker.Message) (protocol.Diagnostic, error) {
	if msg.Message == "" {
		return originDiagnostic(), nil
	}

	line := msg.Line - 1
	if line < 0 || line >= len(lines) {
		return protocol.Diagnostic{}, fmt.Errorf("%w: line %d of %d", ErrLineOutOfRange, msg.Line, len(lines))
	}

	lineText := lines[line]
	severity := protocol.DiagnosticSeverityError
	source := Source

	return protocol.Diagnostic{
		Range: protocol.Range{
			Start: protocol.Position{
				Line:      protocol.UInteger(line),
				Character: protocol.UInteger(ResolveStart(lineText)),
			},
			End: protocol.Position{
				Line:      protocol.UInteger(line),
				Character: protocol.UInteger(LineLength(lineText)),
			},
		},
		Severity: &severity,
		Source:   &source,
		Message:  msg.Message,
	}, nil
}

// originDiagnostic is the sentinel for "no real message": informational,
// zero-length, at the document origin.
func originDiagnostic() protocol.Diagnostic {
	severity := protocol.DiagnosticSeverityInformation
	source := Source

	return protocol.Diagnostic{
		Range: protocol.Range{
			Start: protocol.Position{Line: 0, Character: 0},
			End:   protocol.Position{Line: 0, Character: 0},
		},
		Severity: &severity,
		Source:   &source,
		Message:  "",
	}
}
