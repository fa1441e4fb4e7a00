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
	"testing"
)

func TestParseReport(t *testing.T) {
	t.Run("valid report with one message", func(t *testing.T) {
		raw := `{"files":{"/abs/path.php":{"messages":[{"line":5,"message":"Deprecated call"}]}}}`

		report, err := ParseReport(raw)
		if err != nil {
			t.Fatalf("ParseReport: %v", err)
		}

		messages, ok := report.MessagesFor("/abs/path.php")
		if !ok {
			t.Fatal("expected /abs/path.php in report")
		}
		if len(messages) != 1 {
			t.Fatalf("expected 1 message, got %d", len(messages))
		}
		if messages[0].Line != 5 {
			t.Errorf("Line = %d, want 5", messages[0].Line)
		}
		if messages[0].Message != "Deprecated call" {
			t.Errorf("Message = %q, want %q", messages[0].Message, "Deprecated call")
		}
	})

	t.Run("empty messages list", func(t *testing.T) {
		raw := `{"files":{"/abs/clean.php":{"messages":[]}}}`

		report, err := ParseReport(raw)
		if err != nil {
			t.Fatalf("ParseReport: %v", err)
		}

		messages, ok := report.MessagesFor("/abs/clean.php")
		if !ok {
			t.Fatal("expected /abs/clean.php in report")
		}
		if len(messages) != 0 {
			t.Errorf("expected 0 messages, got %d", len(messages))
		}
	})

	t.Run("missing file entry", func(t *testing.T) {
		raw := `{"files":{"/abs/other.php":{"messages":[]}}}`

		report, err := ParseReport(raw)
		if err != nil {
			t.Fatalf("ParseReport: %v", err)
		}

		if _, ok := report.MessagesFor("/abs/missing.php"); ok {
			t.Error("expected missing file to report ok=false")
		}
	})

	t.Run("malformed JSON fails with ErrInvalidOutput", func(t *testing.T) {
		for _, raw := range []string{
			"",
			"   \n",
			"not json at all",
			`{"files":`,
			`PHP Fatal error: something broke`,
			`[1,2,3]`,
			`{"files": "not a mapping"}`,
			`{"files": {"/a.php": {"messages": "nope"}}}`,
		} {
			report, err := ParseReport(raw)
			if !errors.Is(err, ErrInvalidOutput) {
				t.Errorf("ParseReport(%q) error = %v, want ErrInvalidOutput", raw, err)
			}
			if report != nil {
				t.Errorf("ParseReport(%q) returned a partial report", raw)
			}
		}
	})

	t.Run("object without files mapping is a shape mismatch", func(t *testing.T) {
		_, err := ParseReport(`{}`)
		if !errors.Is(err, ErrInvalidOutput) {
			t.Errorf("error = %v, want ErrInvalidOutput", err)
		}
	})
}

func TestDefaultSettings(t *testing.T) {
	settings := DefaultSettings()

	if !settings.Enabled {
		t.Error("default settings should be enabled")
	}
	if settings.ExecutablePath != DefaultExecutablePath {
		t.Errorf("ExecutablePath = %q, want %q", settings.ExecutablePath, DefaultExecutablePath)
	}
	if settings.MaxDiagnostics != DefaultMaxDiagnostics {
		t.Errorf("MaxDiagnostics = %d, want %d", settings.MaxDiagnostics, DefaultMaxDiagnostics)
	}

	if err := settings.Validate(); err != nil {
		t.Errorf("default settings should validate, got %v", err)
	}
}

func TestSettingsValidate(t *testing.T) {
	t.Run("missing executable path", func(t *testing.T) {
		settings := DefaultSettings()
		settings.ExecutablePath = ""
		if err := settings.Validate(); err == nil {
			t.Error("expected validation error for empty executable path")
		}
	})

	t.Run("negative diagnostics cap", func(t *testing.T) {
		settings := DefaultSettings()
		settings.MaxDiagnostics = -1
		if err := settings.Validate(); err == nil {
			t.Error("expected validation error for negative cap")
		}
	})
}
