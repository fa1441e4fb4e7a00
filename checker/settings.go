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
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ConfigSection is the workspace configuration section the server requests
// from the client for every document.
const ConfigSection = "checkerTool"

// DefaultExecutablePath is the conventional composer global install location
// of the phpdd binary. The leading ~ is expanded at invocation time.
const DefaultExecutablePath = "~/.composer/vendor/bin/phpdd"

// DefaultMaxDiagnostics caps how many diagnostics are published per document.
const DefaultMaxDiagnostics = 1000

// Settings is the per-document checker configuration.
//
// Description:
//
//	An immutable snapshot of the "checkerTool" configuration section,
//	resolved per document URI and cached by the orchestrator until a
//	configuration-change event invalidates it. JSON tags match the shape
//	the client sends for workspace/configuration; YAML tags are used by
//	the optional server-side config file.
//
// Thread Safety: Treat as immutable after resolution.
type Settings struct {
	// Enabled toggles validation entirely. When false the orchestrator
	// publishes an empty diagnostic set and evicts the cache entry.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// ExecutablePath locates the phpdd binary. A leading ~ is expanded to
	// the user's home directory at invocation time.
	ExecutablePath string `json:"executablePath" yaml:"executablePath" validate:"required"`

	// WorkspaceRootPath is the working directory for checker invocation.
	// Empty means the server's own working directory.
	WorkspaceRootPath string `json:"workspaceRootPath,omitempty" yaml:"workspaceRootPath,omitempty"`

	// MaxDiagnostics caps the number of diagnostics published per document.
	MaxDiagnostics int `json:"maxDiagnostics" yaml:"maxDiagnostics" validate:"min=0"`
}

// DefaultSettings returns the settings used when the client supplies none.
func DefaultSettings() Settings {
	return Settings{
		Enabled:        true,
		ExecutablePath: DefaultExecutablePath,
		MaxDiagnostics: DefaultMaxDiagnostics,
	}
}

var settingsValidator = validator.New()

// Validate checks the settings for structural problems.
//
// Description:
//
//	Validates field constraints (executable path present, non-negative
//	diagnostic cap). Called after resolution so a broken client
//	configuration surfaces as a settings error instead of a confusing
//	process failure later.
//
// Outputs:
//
//	error - Non-nil if a constraint is violated.
func (s Settings) Validate() error {
	if err := settingsValidator.Struct(s); err != nil {
		return fmt.Errorf("invalid checker settings: %w", err)
	}
	return nil
}
