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
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/deprecheck/phpdd-ls/checker"
)

// MaxConfigFileSize bounds the server config file (1MB). Prevents memory
// issues from a mispointed --config flag.
const MaxConfigFileSize = 1024 * 1024

// FileConfig is the optional server-side YAML configuration.
//
// It overrides the built-in defaults used when the client does not supply
// workspace configuration. Example:
//
//	checkerTool:
//	  enabled: true
//	  executablePath: ~/.composer/vendor/bin/phpdd
//	  maxDiagnostics: 500
//	debugAddr: "localhost:6060"
type FileConfig struct {
	// Checker holds the default checker settings.
	Checker checker.Settings `yaml:"checkerTool"`

	// DebugAddr enables the debug HTTP endpoint when non-empty.
	DebugAddr string `yaml:"debugAddr,omitempty"`
}

// LoadConfig reads and validates a server config file.
//
// Description:
//
//	Unknown keys are rejected so typos surface instead of silently falling
//	back to defaults. Settings in the file are layered over the built-in
//	defaults and validated.
//
// Inputs:
//
//	path - Path to the YAML config file.
//
// Outputs:
//
//	*FileConfig - The parsed configuration.
//	error - Non-nil on read, parse, or validation failure.
func LoadConfig(path string) (*FileConfig, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if info.Size() > MaxConfigFileSize {
		return nil, fmt.Errorf("config file %s exceeds %d bytes", path, MaxConfigFileSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := FileConfig{Checker: checker.DefaultSettings()}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if err := cfg.Checker.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	return &cfg, nil
}
