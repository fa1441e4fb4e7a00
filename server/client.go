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
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/deprecheck/phpdd-ls/checker"
)

// Custom notifications for validation lifecycle, consumed by the client to
// drive progress UI.
const (
	// MethodValidationDidStart is sent when a validation cycle begins.
	MethodValidationDidStart = "validation/didStart"

	// MethodValidationDidEnd is sent when a validation cycle finishes.
	MethodValidationDidEnd = "validation/didEnd"
)

// ValidationParams identifies the document a validation notification is about.
type ValidationParams struct {
	URI string `json:"uri"`
}

// ErrSettings indicates workspace configuration lookup failed for a document.
var ErrSettings = errors.New("settings resolution failed")

// =============================================================================
// INTERFACES
// =============================================================================

// Runner abstracts checker invocation so tests can swap in fakes without
// spawning processes.
type Runner interface {
	Run(ctx context.Context, filePath, content string, settings checker.Settings) (string, error)
}

// Notifier abstracts outbound client traffic for a validation cycle.
type Notifier interface {
	// PublishDiagnostics replaces the diagnostic set for the URI.
	PublishDiagnostics(uri string, diagnostics []protocol.Diagnostic)

	// ValidationStarted signals the beginning of a cycle for the URI.
	ValidationStarted(uri string)

	// ValidationEnded signals the end of a cycle for the URI.
	ValidationEnded(uri string)
}

// SettingsResolver resolves checker settings for a document URI.
type SettingsResolver interface {
	Resolve(ctx context.Context, uri string) (checker.Settings, error)
}

// =============================================================================
// GLSP CLIENT
// =============================================================================

// Client bridges the Notifier and SettingsResolver interfaces onto a live
// glsp connection.
//
// Description:
//
//	glsp hands the server a fresh context per inbound message; the context
//	captured at `initialized` stays bound to the connection, so the Client
//	retains it for async traffic (validations finishing off the message
//	loop, watcher-triggered cycles). Before binding, outbound traffic is
//	dropped with a warning rather than crashing a cycle.
//
// Thread Safety: Safe for concurrent use.
type Client struct {
	mu  sync.RWMutex
	ctx *glsp.Context

	// supportsConfiguration mirrors the client's advertised
	// workspace/configuration capability.
	supportsConfiguration bool

	// defaults are the server-side settings used when the client cannot
	// answer configuration requests (optionally overridden by config file).
	defaults checker.Settings
}

// NewClient creates a Client with the given fallback settings.
func NewClient(defaults checker.Settings) *Client {
	return &Client{defaults: defaults}
}

// Bind attaches the live glsp context. Called once at `initialized`.
func (c *Client) Bind(ctx *glsp.Context, supportsConfiguration bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ctx = ctx
	c.supportsConfiguration = supportsConfiguration
}

// SetWorkspaceRoot fills in the fallback workspace root discovered at
// initialization. A root pinned by explicit configuration wins.
func (c *Client) SetWorkspaceRoot(root string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.defaults.WorkspaceRootPath == "" {
		c.defaults.WorkspaceRootPath = root
	}
}

// Defaults returns the fallback settings snapshot.
func (c *Client) Defaults() checker.Settings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.defaults
}

// context returns the bound glsp context, or nil before initialization.
func (c *Client) context() *glsp.Context {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ctx
}

// PublishDiagnostics replaces the diagnostic set for the URI.
func (c *Client) PublishDiagnostics(uri string, diagnostics []protocol.Diagnostic) {
	ctx := c.context()
	if ctx == nil {
		slog.Warn("Dropping diagnostics publish before initialization", "uri", uri)
		return
	}

	// The set replaces the previous publication wholesale; an empty (non-nil)
	// slice retracts all diagnostics for the URI.
	if diagnostics == nil {
		diagnostics = []protocol.Diagnostic{}
	}

	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

// ValidationStarted signals the beginning of a validation cycle.
func (c *Client) ValidationStarted(uri string) {
	if ctx := c.context(); ctx != nil {
		ctx.Notify(MethodValidationDidStart, ValidationParams{URI: uri})
	}
}

// ValidationEnded signals the end of a validation cycle.
func (c *Client) ValidationEnded(uri string) {
	if ctx := c.context(); ctx != nil {
		ctx.Notify(MethodValidationDidEnd, ValidationParams{URI: uri})
	}
}

// Resolve fetches the "checkerTool" configuration section scoped to the URI.
//
// Description:
//
//	When the client supports scoped configuration the section is requested
//	via workspace/configuration and layered over the server defaults, so
//	partial client configurations keep sane values. Clients without the
//	capability get the defaults directly.
//
// Errors:
//
//	ErrSettings - The client returned a section that does not deserialize.
func (c *Client) Resolve(_ context.Context, uri string) (checker.Settings, error) {
	c.mu.RLock()
	ctx := c.ctx
	supported := c.supportsConfiguration
	defaults := c.defaults
	c.mu.RUnlock()

	if ctx == nil || !supported {
		return defaults, nil
	}

	section := checker.ConfigSection
	scope := uri
	params := protocol.ConfigurationParams{
		Items: []protocol.ConfigurationItem{
			{ScopeURI: &scope, Section: &section},
		},
	}

	var result []json.RawMessage
	ctx.Call(protocol.ServerWorkspaceConfiguration, params, &result)

	if len(result) == 0 || string(result[0]) == "null" {
		return defaults, nil
	}

	settings := defaults
	if err := json.Unmarshal(result[0], &settings); err != nil {
		return checker.Settings{}, fmt.Errorf("%w: %s: %v", ErrSettings, uri, err)
	}
	return settings, nil
}
