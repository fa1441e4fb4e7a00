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
	"os"
	"path/filepath"
	"runtime"
)

// ResolveExecutable expands the executable path setting to a usable path.
//
// Description:
//
//	Expands a leading ~ to the user's home directory; anything else passes
//	through unchanged. Resolution failures (no resolvable home directory)
//	wrap ErrCreation so the orchestrator can abort the cycle cleanly.
//
// Inputs:
//
//	path - The executablePath setting, possibly starting with ~.
//
// Outputs:
//
//	string - The resolved path.
//	error - Non-nil, wrapping ErrCreation, when expansion fails.
func ResolveExecutable(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("%w: executable path is empty", ErrCreation)
	}
	if path[0] != '~' {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("%w: expanding %q: %v", ErrCreation, path, err)
	}
	return filepath.Join(home, path[1:]), nil
}

// NormalizeDocumentPath canonicalizes a document filesystem path.
//
// On Windows the drive letter is uppercased so cache and dedup keys stay
// stable across case variants of the same path. Other platforms pass through.
func NormalizeDocumentPath(path string) string {
	if runtime.GOOS == "windows" {
		return upperDriveLetter(path)
	}
	return path
}

// upperDriveLetter uppercases a leading drive letter ("c:\x" -> "C:\x").
func upperDriveLetter(path string) string {
	if len(path) >= 2 && path[1] == ':' && path[0] >= 'a' && path[0] <= 'z' {
		return string(path[0]-'a'+'A') + path[1:]
	}
	return path
}

// RealPath resolves symlinks in a document path.
//
// The checker report is keyed by real paths, so lookups must use the
// symlink-resolved form. Falls back to the input path when resolution fails
// (e.g. the file only exists in the editor buffer).
func RealPath(path string) string {
	real, err := filepath.EvalSymlinks(path)
	if err != nil {
		return path
	}
	return real
}
