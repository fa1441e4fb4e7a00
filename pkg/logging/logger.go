// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package logging provides structured logging for the phpdd-ls server.
//
// The server speaks LSP over stdin/stdout, so stdout is a protocol channel
// and must never carry log output. Everything here writes to stderr by
// default, with optional file logging for post-mortem debugging of editor
// sessions.
//
// # Basic Usage
//
//	logger, err := logging.Setup(logging.Config{
//	    Level:   logging.LevelInfo,
//	    Service: "phpdd-ls",
//	})
//	if err != nil { ... }
//	defer logger.Close()
//
// Setup installs the logger as the slog default, so the rest of the
// codebase logs through plain slog.Info/Warn/Error calls.
//
// # File Logging
//
//	logger, err := logging.Setup(logging.Config{
//	    Level:   logging.LevelDebug,
//	    LogDir:  "~/.phpdd-ls/logs", // supports ~ expansion
//	    Service: "phpdd-ls",
//	})
//
// This creates `{service}_{date}.log` files in JSON format alongside the
// stderr stream.
//
// # Thread Safety
//
// Logger is safe for concurrent use; slog handlers serialize writes.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// =============================================================================
// LOG LEVELS
// =============================================================================

// Level represents log severity. Ordered: Debug < Info < Warn < Error.
type Level int

const (
	// LevelDebug is for development troubleshooting.
	LevelDebug Level = iota

	// LevelInfo is for normal operational messages.
	LevelInfo

	// LevelWarn is for recoverable problems.
	LevelWarn

	// LevelError is for operation failures.
	LevelError
)

// String returns the human-readable name of the level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a level name ("debug", "info", "warn", "error") to a
// Level. Unknown names fall back to LevelInfo.
func ParseLevel(name string) Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

func (l Level) toSlogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// =============================================================================
// CONFIGURATION
// =============================================================================

// Config configures the logger. The zero value logs Info and above to
// stderr in text format.
type Config struct {
	// Level is the minimum severity to emit.
	Level Level

	// LogDir, when non-empty, enables JSON file logging in this directory.
	// Supports ~ expansion; created with 0700 if absent.
	LogDir string

	// Service names the log file ({service}_{date}.log) and is attached to
	// every record as the "service" attribute. Defaults to "phpdd-ls".
	Service string

	// JSON switches the stderr stream from text to JSON format. Text is
	// meant for humans tailing a terminal; JSON for log collectors.
	JSON bool

	// Quiet suppresses the stderr stream entirely (file logging, when
	// configured, still applies). Used by commands whose stdout/stderr
	// output is the product, like `phpdd-ls doctor`.
	Quiet bool
}

// =============================================================================
// LOGGER
// =============================================================================

// Logger owns the slog handler stack and the optional log file.
type Logger struct {
	*slog.Logger
	file *os.File
}

// Setup creates a Logger and installs it as the slog default.
//
// Description:
//
//	Builds the handler stack from the config: a stderr handler (text or
//	JSON), plus an optional JSON file handler. The returned Logger must be
//	closed to flush and release the log file.
//
// Outputs:
//
//	*Logger - The configured logger, already installed as slog default.
//	error - Non-nil when the log directory cannot be prepared.
func Setup(cfg Config) (*Logger, error) {
	if cfg.Service == "" {
		cfg.Service = "phpdd-ls"
	}

	opts := &slog.HandlerOptions{Level: cfg.Level.toSlogLevel()}

	var stderrWriter io.Writer = os.Stderr
	if cfg.Quiet {
		stderrWriter = io.Discard
	}

	var handlers []slog.Handler
	if cfg.JSON {
		handlers = append(handlers, slog.NewJSONHandler(stderrWriter, opts))
	} else {
		handlers = append(handlers, slog.NewTextHandler(stderrWriter, opts))
	}

	var file *os.File
	if cfg.LogDir != "" {
		dir, err := expandHome(cfg.LogDir)
		if err != nil {
			return nil, fmt.Errorf("resolving log directory: %w", err)
		}
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("creating log directory: %w", err)
		}

		name := fmt.Sprintf("%s_%s.log", cfg.Service, time.Now().Format("2006-01-02"))
		file, err = os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		handlers = append(handlers, slog.NewJSONHandler(file, opts))
	}

	var handler slog.Handler
	if len(handlers) == 1 {
		handler = handlers[0]
	} else {
		handler = newTeeHandler(handlers)
	}

	logger := &Logger{
		Logger: slog.New(handler).With("service", cfg.Service),
		file:   file,
	}
	slog.SetDefault(logger.Logger)
	return logger, nil
}

// Close releases the log file, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

// expandHome expands a leading ~ to the user's home directory.
func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
