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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deprecheck/phpdd-ls/checker"
)

func TestClientSetWorkspaceRoot(t *testing.T) {
	t.Run("fills in a missing root", func(t *testing.T) {
		c := NewClient(checker.DefaultSettings())
		c.SetWorkspaceRoot("/home/dev/project")
		assert.Equal(t, "/home/dev/project", c.Defaults().WorkspaceRootPath)
	})

	t.Run("configured root wins", func(t *testing.T) {
		defaults := checker.DefaultSettings()
		defaults.WorkspaceRootPath = "/pinned/by/config"

		c := NewClient(defaults)
		c.SetWorkspaceRoot("/discovered/at/init")
		assert.Equal(t, "/pinned/by/config", c.Defaults().WorkspaceRootPath)
	})
}

func TestClientResolve_UnboundReturnsDefaults(t *testing.T) {
	defaults := checker.DefaultSettings()
	defaults.WorkspaceRootPath = "/w"
	c := NewClient(defaults)

	// No glsp context bound yet: resolution falls back to the defaults.
	settings, err := c.Resolve(context.Background(), "file:///w/a.php")
	require.NoError(t, err)
	assert.Equal(t, defaults, settings)
}
