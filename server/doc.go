// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package server implements the phpdd language server.
//
// The server speaks LSP over stdio (tliron/glsp) and orchestrates the
// validation pipeline for every open PHP document:
//
//	settings resolution -> checker invocation -> report parsing
//	  -> diagnostic mapping -> publication
//
// # Components
//
//   - Server: glsp handler wiring and lifecycle (initialize/shutdown)
//   - Validator: per-document and per-batch validation orchestration
//   - DocumentStore: uri-keyed snapshots of open document content
//   - Watcher: fsnotify fallback for clients without file watching
//   - DebugServer: optional gin endpoint for health/status/metrics
//
// # Concurrency
//
// Checker invocations run off the message loop so a slow checker never
// blocks LSP traffic. Overlapping cycles for the same document are allowed;
// the later publication wins. Batch validation (config change, watched file
// change) is serialized so documents validate one at a time.
//
// # Failure Policy
//
// Every failed cycle publishes an empty diagnostic set for its document and
// logs the failure; one document's failure never blocks the rest of a batch.
package server
