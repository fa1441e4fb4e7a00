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
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsPHPChange(t *testing.T) {
	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{"write to php", fsnotify.Event{Name: "/w/a.php", Op: fsnotify.Write}, true},
		{"create php", fsnotify.Event{Name: "/w/a.php", Op: fsnotify.Create}, true},
		{"remove php", fsnotify.Event{Name: "/w/a.php", Op: fsnotify.Remove}, true},
		{"rename php", fsnotify.Event{Name: "/w/a.php", Op: fsnotify.Rename}, true},
		{"uppercase extension", fsnotify.Event{Name: "/w/a.PHP", Op: fsnotify.Write}, true},
		{"chmod only", fsnotify.Event{Name: "/w/a.php", Op: fsnotify.Chmod}, false},
		{"non-php file", fsnotify.Event{Name: "/w/notes.txt", Op: fsnotify.Write}, false},
		{"no extension", fsnotify.Event{Name: "/w/Makefile", Op: fsnotify.Write}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isPHPChange(tt.event))
		})
	}
}

func TestWatcher_CoalescesEventBursts(t *testing.T) {
	root := t.TempDir()

	var fired atomic.Int32
	w, err := NewWatcher(root, func() { fired.Add(1) }, WithWatchDebounce(50*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	// Give the watcher a moment to register the root.
	time.Sleep(100 * time.Millisecond)

	// A bulk change (branch switch) touches many files nearly at once.
	for i := 0; i < 5; i++ {
		path := filepath.Join(root, fmt.Sprintf("f%d.php", i))
		require.NoError(t, os.WriteFile(path, []byte("<?php\n"), 0o644))
	}

	require.Eventually(t, func() bool {
		return fired.Load() >= 1
	}, 2*time.Second, 10*time.Millisecond)

	// Quiet period: the burst collapsed into a single callback.
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(1), fired.Load(), "burst must coalesce into one callback")
}

func TestWatcher_IgnoresNonPHPFiles(t *testing.T) {
	root := t.TempDir()

	var fired atomic.Int32
	w, err := NewWatcher(root, func() { fired.Add(1) }, WithWatchDebounce(20*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(root, "README.md"), []byte("docs"), 0o644))

	time.Sleep(200 * time.Millisecond)
	assert.Zero(t, fired.Load())
}
