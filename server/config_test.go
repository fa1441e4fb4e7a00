// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package server

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deprecheck/phpdd-ls/checker"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "phpdd-ls.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig_Valid(t *testing.T) {
	path := writeConfig(t, `
checkerTool:
  enabled: true
  executablePath: /usr/local/bin/phpdd
  maxDiagnostics: 250
debugAddr: "localhost:6060"
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.True(t, cfg.Checker.Enabled)
	assert.Equal(t, "/usr/local/bin/phpdd", cfg.Checker.ExecutablePath)
	assert.Equal(t, 250, cfg.Checker.MaxDiagnostics)
	assert.Equal(t, "localhost:6060", cfg.DebugAddr)
}

func TestLoadConfig_PartialKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `
checkerTool:
  enabled: true
  executablePath: /opt/phpdd
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/opt/phpdd", cfg.Checker.ExecutablePath)
	assert.Equal(t, checker.DefaultMaxDiagnostics, cfg.Checker.MaxDiagnostics, "absent keys keep defaults")
}

func TestLoadConfig_EmptyFileYieldsDefaults(t *testing.T) {
	path := writeConfig(t, "")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, checker.DefaultSettings(), cfg.Checker)
	assert.Empty(t, cfg.DebugAddr)
}

func TestLoadConfig_UnknownKeyRejected(t *testing.T) {
	path := writeConfig(t, `
checkerTool:
  enabled: true
  executablPath: /typo/phpdd
`)

	_, err := LoadConfig(path)
	require.Error(t, err, "typos must surface, not silently fall back")
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadConfig_InvalidSettingsRejected(t *testing.T) {
	path := writeConfig(t, `
checkerTool:
  executablePath: ""
`)

	_, err := LoadConfig(path)
	require.Error(t, err)
}
