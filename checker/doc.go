// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package checker wraps the external phpdd deprecation checker binary.
//
// The checker is treated as an untrusted black box: it may be slow, exit
// nonzero while still producing a valid report, or emit garbage. This package
// owns the full invocation contract:
//
//	<executable> --format=json --no-progress <filePath>
//	  cwd    = workspace root (when known)
//	  stdin  = current document content (may differ from disk)
//	  bound  = hard timeout (5 minutes by default)
//
// and the strict parsing of its JSON report:
//
//	{"files": {"/abs/real/path.php": {"messages": [{"line": 5, "message": "..."}]}}}
//
// # Components
//
//   - Settings: per-document checker configuration with defaults
//   - Checker: resolves the executable and runs it against document content
//   - Report/ParseReport: strict deserialization of checker output
//
// # Failure Model
//
// Every failure maps to a sentinel error so callers can react per kind:
// ErrCreation (executable resolution), ErrTimeout (deadline exceeded, process
// killed), ErrExecution (nonzero exit with no usable stdout), and
// ErrInvalidOutput (stdout is not a well-formed report). A nonzero exit with
// stdout present is NOT an error; phpdd exits nonzero whenever it finds
// issues.
//
// # Thread Safety
//
// Checker is stateless and safe for concurrent use.
package checker
