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
	"fmt"
	"net/url"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/deprecheck/phpdd-ls/checker"
)

// =============================================================================
// DOCUMENT
// =============================================================================

// Document is a snapshot of an open text document.
//
// Content is the editor's current buffer, which may differ from what is on
// disk; the checker receives it via stdin.
//
// Thread Safety: Treat as immutable; the store replaces whole snapshots.
type Document struct {
	// URI is the client's document URI (cache key for settings and state).
	URI string

	// Path is the normalized filesystem path derived from URI.
	Path string

	// Content is the full current text of the document.
	Content string

	// Version is the client's document version, when known.
	Version int32
}

// =============================================================================
// DOCUMENT STORE
// =============================================================================

// DocumentStore tracks open documents by URI.
//
// Thread Safety: Safe for concurrent use.
type DocumentStore struct {
	mu   sync.RWMutex
	docs map[string]*Document
}

// NewDocumentStore creates an empty store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{docs: make(map[string]*Document)}
}

// Set stores or replaces the snapshot for a URI.
func (s *DocumentStore) Set(doc *Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[doc.URI] = doc
}

// Get returns the snapshot for a URI.
func (s *DocumentStore) Get(uri string) (*Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[uri]
	return doc, ok
}

// Remove discards the snapshot for a URI.
func (s *DocumentStore) Remove(uri string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, uri)
}

// All returns the open documents in stable URI order.
func (s *DocumentStore) All() []*Document {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]*Document, 0, len(s.docs))
	for _, doc := range s.docs {
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].URI < docs[j].URI })
	return docs
}

// URIs returns the open document URIs in stable order.
func (s *DocumentStore) URIs() []string {
	docs := s.All()
	uris := make([]string, len(docs))
	for i, doc := range docs {
		uris[i] = doc.URI
	}
	return uris
}

// Len returns the number of open documents.
func (s *DocumentStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// =============================================================================
// URI CONVERSION
// =============================================================================

// URIToPath converts a file:// URI to a normalized filesystem path.
//
// Description:
//
//	Decodes percent-escapes and, on Windows, strips the leading slash from
//	/C:/... forms and uppercases the drive letter so paths cache and dedup
//	consistently across case variants.
//
// Inputs:
//
//	uri - The document URI from the client.
//
// Outputs:
//
//	string - The filesystem path.
//	error - Non-nil when the URI is not a file URI.
func URIToPath(uri string) (string, error) {
	if !strings.HasPrefix(uri, "file://") {
		return "", fmt.Errorf("unsupported document uri: %s", uri)
	}

	parsed, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("parsing document uri %s: %w", uri, err)
	}

	path := parsed.Path
	if runtime.GOOS == "windows" {
		path = strings.TrimPrefix(path, "/")
		path = filepath.FromSlash(path)
	}

	return checker.NormalizeDocumentPath(path), nil
}
