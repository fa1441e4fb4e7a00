// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package diag

import (
	"errors"
	"testing"
	"unicode"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/deprecheck/phpdd-ls/checker"
)

func TestResolveStart(t *testing.T) {
	cases := []struct {
		name string
		line string
		want int
	}{
		{"no leading whitespace", "echo $x;", 0},
		{"spaces", "    echo $x;", 4},
		{"tabs", "\t\techo $x;", 2},
		{"mixed", " \t echo $x;", 3},
		{"empty line", "", 0},
		{"all whitespace", "   \t ", 5},
		{"non-breaking space", " echo", 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ResolveStart(tc.line); got != tc.want {
				t.Errorf("ResolveStart(%q) = %d, want %d", tc.line, got, tc.want)
			}
		})
	}
}

// ResolveStart must return either the line length (all whitespace) or the
// position of a non-whitespace rune preceded only by whitespace.
func TestResolveStartProperty(t *testing.T) {
	lines := []string{
		"", " ", "\t", "abc", "  abc", "\t abc ", "    ", "x", " x y z",
		"　wide", "     mixed unicode ws",
	}

	for _, line := range lines {
		start := ResolveStart(line)
		length := LineLength(line)

		if start > length {
			t.Errorf("ResolveStart(%q) = %d exceeds line length %d", line, start, length)
			continue
		}

		// Walk runes tracking UTF-16 columns to classify the prefix.
		col := 0
		for _, r := range line {
			if col < start {
				if !unicode.IsSpace(r) {
					t.Errorf("ResolveStart(%q): non-whitespace before start %d", line, start)
				}
			} else if col == start {
				if unicode.IsSpace(r) {
					t.Errorf("ResolveStart(%q): whitespace at start %d", line, start)
				}
			}
			col += utf16RuneLen(r)
		}
		if start == length {
			// All-whitespace line: degenerate range is acceptable.
			continue
		}
	}
}

func utf16RuneLen(r rune) int {
	if r >= 0x10000 {
		return 2
	}
	return 1
}

func TestFromMessage(t *testing.T) {
	lines := SplitLines("<?php\n    mysql_connect();\n")

	t.Run("maps 1-based line to 0-based range", func(t *testing.T) {
		d, err := FromMessage(lines, checker.Message{Line: 2, Message: "mysql_connect is deprecated"})
		if err != nil {
			t.Fatalf("FromMessage: %v", err)
		}

		if d.Range.Start.Line != 1 || d.Range.End.Line != 1 {
			t.Errorf("range lines = %d..%d, want 1..1", d.Range.Start.Line, d.Range.End.Line)
		}
		if d.Range.Start.Character != 4 {
			t.Errorf("start character = %d, want 4", d.Range.Start.Character)
		}
		if d.Range.End.Character != protocol.UInteger(LineLength("    mysql_connect();")) {
			t.Errorf("end character = %d, want line length", d.Range.End.Character)
		}
		if d.Severity == nil || *d.Severity != protocol.DiagnosticSeverityError {
			t.Error("severity should be Error")
		}
		if d.Source == nil || *d.Source != Source {
			t.Error("source tag should identify the checker")
		}
		if d.Message != "mysql_connect is deprecated" {
			t.Errorf("message = %q", d.Message)
		}
	})

	t.Run("empty message yields origin sentinel", func(t *testing.T) {
		d, err := FromMessage(lines, checker.Message{Line: 2, Message: ""})
		if err != nil {
			t.Fatalf("FromMessage: %v", err)
		}

		if d.Range.Start != (protocol.Position{}) || d.Range.End != (protocol.Position{}) {
			t.Errorf("range = %+v, want zero-length at origin", d.Range)
		}
		if d.Severity == nil || *d.Severity != protocol.DiagnosticSeverityInformation {
			t.Error("sentinel severity should be Information")
		}
	})

	t.Run("line past end of document fails that message", func(t *testing.T) {
		_, err := FromMessage(lines, checker.Message{Line: 99, Message: "stale"})
		if !errors.Is(err, ErrLineOutOfRange) {
			t.Fatalf("error = %v, want ErrLineOutOfRange", err)
		}
	})

	t.Run("line zero fails that message", func(t *testing.T) {
		_, err := FromMessage(lines, checker.Message{Line: 0, Message: "bogus"})
		if !errors.Is(err, ErrLineOutOfRange) {
			t.Fatalf("error = %v, want ErrLineOutOfRange", err)
		}
	})
}

func TestSplitLines(t *testing.T) {
	t.Run("unix endings", func(t *testing.T) {
		lines := SplitLines("a\nb\nc")
		if len(lines) != 3 || lines[1] != "b" {
			t.Errorf("lines = %q", lines)
		}
	})

	t.Run("crlf endings", func(t *testing.T) {
		lines := SplitLines("a\r\nb\r\n")
		if lines[0] != "a" || lines[1] != "b" {
			t.Errorf("lines = %q", lines)
		}
	})
}
