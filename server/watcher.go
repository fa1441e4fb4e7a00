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
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"
)

// DefaultWatchDebounce is how long bursts of file events (branch switches,
// bulk saves) are coalesced before the change callback fires. Each callback
// triggers a full revalidation of all open documents, so firing per event
// would queue one sequential batch per touched file.
const DefaultWatchDebounce = 500 * time.Millisecond

// Watcher is the fsnotify fallback for clients that do not send
// workspace/didChangeWatchedFiles.
//
// Description:
//
//	Watches the workspace root (and its immediate subdirectories) for PHP
//	file changes and invokes the callback, which revalidates all open
//	documents. Clients with native file watching make this redundant; the
//	server only starts it when the capability is absent.
//
// Thread Safety: Start should be called once, in its own goroutine.
type Watcher struct {
	root          string
	watcher       *fsnotify.Watcher
	onChange      func()
	debounceAfter time.Duration
}

// WatcherOption configures the Watcher.
type WatcherOption func(*Watcher)

// WithWatchDebounce overrides the event coalescing interval.
func WithWatchDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounceAfter = d
		}
	}
}

// NewWatcher creates a watcher rooted at the workspace directory.
//
// Inputs:
//
//	root - Workspace root path.
//	onChange - Invoked, debounced, when PHP files change.
//	opts - Optional configuration.
//
// Outputs:
//
//	*Watcher - Ready-to-start watcher.
//	error - Non-nil if the fsnotify watcher cannot be created.
func NewWatcher(root string, onChange func(), opts ...WatcherOption) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		root:          root,
		watcher:       watcher,
		onChange:      onChange,
		debounceAfter: DefaultWatchDebounce,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start begins watching. Blocks until the context is cancelled.
func (w *Watcher) Start(ctx context.Context) {
	defer w.watcher.Close()

	if err := w.watcher.Add(w.root); err != nil {
		slog.Warn("Failed to watch workspace root", "path", w.root, "error", err)
		return
	}

	// One level of subdirectories covers the common project layouts without
	// the cost of a full recursive walk on large trees.
	entries, err := os.ReadDir(w.root)
	if err == nil {
		for _, entry := range entries {
			if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") || entry.Name() == "vendor" {
				continue
			}
			if err := w.watcher.Add(filepath.Join(w.root, entry.Name())); err != nil {
				slog.Debug("Failed to watch subdirectory", "name", entry.Name(), "error", err)
			}
		}
	}

	slog.Debug("Started workspace watcher", "root", w.root)

	// A git checkout touches many files at once; one coalesced callback
	// covers them all since the callback revalidates every open document.
	notify := debounce.New(w.debounceAfter)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !isPHPChange(event) {
				continue
			}
			slog.Debug("Workspace file changed", "path", event.Name, "op", event.Op.String())
			notify(w.onChange)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("Workspace watcher error", "error", err)

		case <-ctx.Done():
			return
		}
	}
}

// isPHPChange reports whether the event is a content-affecting change to a
// PHP source file.
func isPHPChange(event fsnotify.Event) bool {
	if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) &&
		!event.Op.Has(fsnotify.Remove) && !event.Op.Has(fsnotify.Rename) {
		return false
	}
	return strings.EqualFold(filepath.Ext(event.Name), ".php")
}
