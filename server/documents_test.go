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
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURIToPath(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("posix path expectations")
	}

	tests := []struct {
		name    string
		uri     string
		want    string
		wantErr bool
	}{
		{
			name: "plain file uri",
			uri:  "file:///home/dev/project/src/legacy.php",
			want: "/home/dev/project/src/legacy.php",
		},
		{
			name: "percent-encoded space",
			uri:  "file:///home/dev/my%20project/index.php",
			want: "/home/dev/my project/index.php",
		},
		{
			name:    "http scheme rejected",
			uri:     "http://example.com/file.php",
			wantErr: true,
		},
		{
			name:    "bare path rejected",
			uri:     "/home/dev/file.php",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := URIToPath(tt.uri)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDocumentStore(t *testing.T) {
	store := NewDocumentStore()
	assert.Zero(t, store.Len())

	a := &Document{URI: "file:///w/a.php", Path: "/w/a.php", Content: "<?php\n", Version: 1}
	b := &Document{URI: "file:///w/b.php", Path: "/w/b.php", Content: "<?php\n", Version: 1}
	store.Set(b)
	store.Set(a)

	got, ok := store.Get(a.URI)
	require.True(t, ok)
	assert.Equal(t, a, got)

	_, ok = store.Get("file:///w/missing.php")
	assert.False(t, ok)

	all := store.All()
	require.Len(t, all, 2)
	assert.Equal(t, a.URI, all[0].URI, "All is sorted by URI")
	assert.Equal(t, b.URI, all[1].URI)
	assert.Equal(t, []string{a.URI, b.URI}, store.URIs())

	// Set replaces in place.
	a2 := &Document{URI: a.URI, Path: a.Path, Content: "<?php v2\n", Version: 2}
	store.Set(a2)
	got, ok = store.Get(a.URI)
	require.True(t, ok)
	assert.Equal(t, int32(2), got.Version)
	assert.Equal(t, 2, store.Len())

	store.Remove(a.URI)
	assert.Equal(t, 1, store.Len())
	_, ok = store.Get(a.URI)
	assert.False(t, ok)
}
