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
	"time"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"

	"github.com/deprecheck/phpdd-ls/checker"
)

// Name identifies the server to clients and in diagnostics tooling.
const Name = "phpdd-ls"

// Version is the server version reported during initialization.
const Version = "0.1.0"

// =============================================================================
// SERVER
// =============================================================================

// Server wires the LSP protocol handler to the validation pipeline.
//
// Description:
//
//	Created once at process start and torn down at shutdown. All mutable
//	state (document store, settings cache, in-flight set) hangs off this
//	instance so tests can run multiple independent servers.
type Server struct {
	handler   protocol.Handler
	client    *Client
	docs      *DocumentStore
	validator *Validator

	rootPath string

	// supportsConfiguration mirrors the client's workspace/configuration
	// capability between initialize and initialized.
	supportsConfiguration bool

	watchCancel context.CancelFunc

	// clientWatchesFiles is true when the client advertises
	// workspace/didChangeWatchedFiles; the fsnotify fallback stays off then.
	clientWatchesFiles bool
}

// Config configures the Server.
type Config struct {
	// Defaults are the settings used when the client supplies none.
	Defaults checker.Settings

	// ChangeDebounce overrides the didChange debounce interval (0 = default).
	ChangeDebounce time.Duration
}

// New creates a Server around a real checker process invoker.
func New(cfg Config) *Server {
	if cfg.Defaults.ExecutablePath == "" {
		cfg.Defaults = checker.DefaultSettings()
	}

	docs := NewDocumentStore()
	client := NewClient(cfg.Defaults)

	s := &Server{
		client: client,
		docs:   docs,
	}
	s.validator = NewValidator(checker.New(), client, client, docs,
		WithChangeDebounce(cfg.ChangeDebounce))
	s.bindHandler()
	return s
}

// bindHandler fills in the glsp protocol handler callbacks.
func (s *Server) bindHandler() {
	s.handler = protocol.Handler{
		Initialize:                      s.initialize,
		Initialized:                     s.initialized,
		Shutdown:                        s.shutdown,
		SetTrace:                        s.setTrace,
		TextDocumentDidOpen:             s.didOpen,
		TextDocumentDidChange:           s.didChange,
		TextDocumentDidSave:             s.didSave,
		TextDocumentDidClose:            s.didClose,
		WorkspaceDidChangeConfiguration: s.didChangeConfiguration,
		WorkspaceDidChangeWatchedFiles:  s.didChangeWatchedFiles,
	}
}

// Validator exposes the orchestrator (debug endpoint, tests).
func (s *Server) Validator() *Validator {
	return s.validator
}

// Documents exposes the open document store (debug endpoint, tests).
func (s *Server) Documents() *DocumentStore {
	return s.docs
}

// RunStdio serves LSP over stdin/stdout until the client disconnects.
func (s *Server) RunStdio() error {
	srv := glspserver.NewServer(&s.handler, Name, false)
	return srv.RunStdio()
}

// =============================================================================
// LIFECYCLE HANDLERS
// =============================================================================

func (s *Server) initialize(_ *glsp.Context, params *protocol.InitializeParams) (any, error) {
	capabilities := s.handler.CreateServerCapabilities()
	capabilities.TextDocumentSync = protocol.TextDocumentSyncKindFull

	s.rootPath = rootPathFromParams(params)
	if s.rootPath != "" {
		s.client.SetWorkspaceRoot(s.rootPath)
	}

	caps := params.Capabilities
	s.supportsConfiguration = caps.Workspace != nil &&
		caps.Workspace.Configuration != nil && *caps.Workspace.Configuration
	s.clientWatchesFiles = caps.Workspace != nil && caps.Workspace.DidChangeWatchedFiles != nil

	slog.Info("Initializing",
		"root", s.rootPath,
		"scoped_configuration", s.supportsConfiguration,
		"client_watches_files", s.clientWatchesFiles,
	)

	version := Version
	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    Name,
			Version: &version,
		},
	}, nil
}

func (s *Server) initialized(ctx *glsp.Context, _ *protocol.InitializedParams) error {
	s.client.Bind(ctx, s.supportsConfiguration)

	// Clients without native file watching get the fsnotify fallback so
	// external edits still trigger revalidation.
	if !s.clientWatchesFiles && s.rootPath != "" {
		watcher, err := NewWatcher(s.rootPath, func() {
			go s.validator.ValidateAll(context.Background())
		})
		if err != nil {
			slog.Warn("Workspace watcher unavailable", "error", err)
			return nil
		}
		watchCtx, cancel := context.WithCancel(context.Background())
		s.watchCancel = cancel
		go watcher.Start(watchCtx)
	}
	return nil
}

func (s *Server) shutdown(_ *glsp.Context) error {
	if s.watchCancel != nil {
		s.watchCancel()
	}
	slog.Info("Shutting down")
	return nil
}

func (s *Server) setTrace(_ *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

// =============================================================================
// DOCUMENT LIFECYCLE HANDLERS
// =============================================================================

func (s *Server) didOpen(_ *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	doc, err := s.snapshot(string(params.TextDocument.URI), params.TextDocument.Text, params.TextDocument.Version)
	if err != nil {
		return err
	}
	s.docs.Set(doc)

	go func() { _ = s.validator.ValidateSingle(context.Background(), doc) }()
	return nil
}

func (s *Server) didChange(_ *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := string(params.TextDocument.URI)

	existing, ok := s.docs.Get(uri)
	if !ok {
		slog.Warn("Change for unopened document", "uri", uri)
		return nil
	}

	content := existing.Content
	for _, change := range params.ContentChanges {
		switch c := change.(type) {
		case protocol.TextDocumentContentChangeEventWhole:
			content = c.Text
		case protocol.TextDocumentContentChangeEvent:
			if c.Range == nil {
				content = c.Text
			} else {
				// Full sync is negotiated at initialize; ranged changes
				// would mean a protocol mismatch.
				slog.Warn("Ignoring incremental change, full sync negotiated", "uri", uri)
			}
		}
	}

	doc, err := s.snapshot(uri, content, params.TextDocument.Version)
	if err != nil {
		return err
	}
	s.docs.Set(doc)

	s.validator.ScheduleValidate(uri)
	return nil
}

func (s *Server) didSave(_ *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	uri := string(params.TextDocument.URI)

	doc, ok := s.docs.Get(uri)
	if !ok {
		return nil
	}
	if params.Text != nil {
		updated, err := s.snapshot(uri, *params.Text, doc.Version)
		if err != nil {
			return err
		}
		s.docs.Set(updated)
		doc = updated
	}

	go func() { _ = s.validator.ValidateSingle(context.Background(), doc) }()
	return nil
}

func (s *Server) didClose(_ *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := string(params.TextDocument.URI)
	s.docs.Remove(uri)
	s.validator.DocumentClosed(uri)
	return nil
}

// =============================================================================
// WORKSPACE HANDLERS
// =============================================================================

func (s *Server) didChangeConfiguration(_ *glsp.Context, _ *protocol.DidChangeConfigurationParams) error {
	slog.Debug("Configuration changed, revalidating all documents")
	s.validator.InvalidateSettings()

	go s.validator.ValidateAll(context.Background())
	return nil
}

func (s *Server) didChangeWatchedFiles(_ *glsp.Context, params *protocol.DidChangeWatchedFilesParams) error {
	slog.Debug("Watched files changed", "changes", len(params.Changes))

	go s.validator.ValidateAll(context.Background())
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

// snapshot builds a Document from client-sent state.
func (s *Server) snapshot(uri, content string, version int32) (*Document, error) {
	path, err := URIToPath(uri)
	if err != nil {
		return nil, err
	}
	return &Document{
		URI:     uri,
		Path:    path,
		Content: content,
		Version: version,
	}, nil
}

// rootPathFromParams extracts the workspace root from initialize params.
func rootPathFromParams(params *protocol.InitializeParams) string {
	if len(params.WorkspaceFolders) > 0 {
		if path, err := URIToPath(params.WorkspaceFolders[0].URI); err == nil {
			return path
		}
	}
	if params.RootURI != nil {
		if path, err := URIToPath(string(*params.RootURI)); err == nil {
			return path
		}
	}
	if params.RootPath != nil {
		return *params.RootPath
	}
	return ""
}
