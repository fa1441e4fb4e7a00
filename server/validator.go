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
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/google/uuid"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/deprecheck/phpdd-ls/checker"
	"github.com/deprecheck/phpdd-ls/diag"
)

// DefaultChangeDebounce is how long rapid didChange bursts are coalesced
// before a validation cycle is scheduled.
const DefaultChangeDebounce = 300 * time.Millisecond

// =============================================================================
// VALIDATOR
// =============================================================================

// Validator orchestrates validation cycles for open documents.
//
// Description:
//
//	Owns the per-URI settings cache and the in-flight marker set. Each
//	cycle resolves settings, invokes the checker, parses the report, maps
//	messages to diagnostics, and publishes exactly once; any failure
//	publishes an empty set so stale diagnostics never linger.
//
// Thread Safety:
//
//	Safe for concurrent use. Overlapping cycles for the same document are
//	permitted; the later publication wins. Batches are serialized.
type Validator struct {
	runner   Runner
	notifier Notifier
	resolver SettingsResolver
	docs     *DocumentStore

	debounceAfter time.Duration

	settingsMu sync.Mutex
	settings   map[string]checker.Settings

	inflightMu sync.Mutex
	inflight   map[string]struct{}

	debounceMu sync.Mutex
	debouncers map[string]func(func())

	// batchMu serializes ValidateMany so batch members validate one at a
	// time, in order.
	batchMu sync.Mutex
}

// ValidatorOption configures the Validator.
type ValidatorOption func(*Validator)

// WithChangeDebounce overrides the didChange debounce interval.
func WithChangeDebounce(d time.Duration) ValidatorOption {
	return func(v *Validator) {
		if d > 0 {
			v.debounceAfter = d
		}
	}
}

// NewValidator creates a Validator.
//
// Inputs:
//
//	runner - Checker invocation (real process or fake in tests).
//	notifier - Outbound diagnostics and lifecycle notifications.
//	resolver - Per-URI settings resolution.
//	docs - The open document store.
//	opts - Optional configuration.
func NewValidator(runner Runner, notifier Notifier, resolver SettingsResolver, docs *DocumentStore, opts ...ValidatorOption) *Validator {
	v := &Validator{
		runner:        runner,
		notifier:      notifier,
		resolver:      resolver,
		docs:          docs,
		debounceAfter: DefaultChangeDebounce,
		settings:      make(map[string]checker.Settings),
		inflight:      make(map[string]struct{}),
		debouncers:    make(map[string]func(func())),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// =============================================================================
// SINGLE-DOCUMENT VALIDATION
// =============================================================================

// ValidateSingle runs one validation cycle for a document.
//
// Description:
//
//	Resolves settings (cached per URI); a disabled checker publishes an
//	empty set and evicts the cache entry. Otherwise the document is marked
//	in-flight, the checker runs against the current content, and the full
//	freshly computed diagnostic list -- or an empty list on any failure --
//	is published exactly once before the in-flight marker clears.
//
// Outputs:
//
//	error - Non-nil when the cycle failed; the empty publication has
//	already happened, callers only need the error for logging/propagation.
//
// Thread Safety: Safe for concurrent use.
func (v *Validator) ValidateSingle(ctx context.Context, doc *Document) error {
	cycle := uuid.NewString()
	log := slog.With("uri", doc.URI, "cycle", cycle)

	settings, err := v.resolveSettings(ctx, doc.URI)
	if err != nil {
		// Config lookup failure: publish nothing stale, propagate.
		v.notifier.PublishDiagnostics(doc.URI, nil)
		validationCycles.WithLabelValues(outcomeFailed).Inc()
		log.Error("Settings resolution failed", "error", err)
		return err
	}

	if !settings.Enabled {
		v.EvictSettings(doc.URI)
		v.notifier.PublishDiagnostics(doc.URI, nil)
		validationCycles.WithLabelValues(outcomeDisabled).Inc()
		log.Debug("Checker disabled, cleared diagnostics")
		return nil
	}

	v.markInFlight(doc.URI)
	v.notifier.ValidationStarted(doc.URI)

	diagnostics := []protocol.Diagnostic{}
	defer func() {
		v.unmarkInFlight(doc.URI)
		v.notifier.PublishDiagnostics(doc.URI, diagnostics)
		v.notifier.ValidationEnded(doc.URI)
	}()

	// Empty buffer: nothing to analyze, and no reason to spawn a process.
	if doc.Content == "" {
		validationCycles.WithLabelValues(outcomeOK).Inc()
		return nil
	}

	raw, err := v.runner.Run(ctx, doc.Path, doc.Content, settings)
	if err != nil {
		validationCycles.WithLabelValues(outcomeFailed).Inc()
		logRunFailure(log, err)
		return err
	}
	if raw == "" {
		validationCycles.WithLabelValues(outcomeOK).Inc()
		return nil
	}

	report, err := checker.ParseReport(raw)
	if err != nil {
		validationCycles.WithLabelValues(outcomeFailed).Inc()
		log.Error("Checker output malformed", "error", err)
		return err
	}

	realPath := checker.RealPath(doc.Path)
	messages, ok := report.MessagesFor(realPath)
	if !ok {
		// Ambiguous: zero issues, or the checker never analyzed this file
		// (path mismatch after symlink resolution). Either way the contract
		// is an empty set; the warning distinguishes the cases in logs.
		validationCycles.WithLabelValues(outcomeOK).Inc()
		log.Warn("Document absent from checker report",
			"real_path", realPath,
			"report_files", len(report.Files),
		)
		return nil
	}

	diagnostics = v.mapMessages(log, doc, messages, settings)
	validationCycles.WithLabelValues(outcomeOK).Inc()
	diagnosticsPublished.Add(float64(len(diagnostics)))

	log.Debug("Validation completed", "diagnostics", len(diagnostics))
	return nil
}

// mapMessages converts checker messages to diagnostics, applying the cap.
func (v *Validator) mapMessages(log *slog.Logger, doc *Document, messages []checker.Message, settings checker.Settings) []protocol.Diagnostic {
	lines := diag.SplitLines(doc.Content)
	diagnostics := make([]protocol.Diagnostic, 0, len(messages))

	for _, msg := range messages {
		d, err := diag.FromMessage(lines, msg)
		if err != nil {
			// Data inconsistency (race with concurrent edits): drop this
			// message, keep the batch.
			log.Warn("Skipping unmappable checker message", "line", msg.Line, "error", err)
			continue
		}
		diagnostics = append(diagnostics, d)

		if settings.MaxDiagnostics > 0 && len(diagnostics) >= settings.MaxDiagnostics {
			log.Warn("Diagnostic cap reached, truncating",
				"cap", settings.MaxDiagnostics,
				"reported", len(messages),
			)
			break
		}
	}
	return diagnostics
}

// logRunFailure logs a checker failure with its kind spelled out.
func logRunFailure(log *slog.Logger, err error) {
	switch {
	case errors.Is(err, checker.ErrTimeout):
		log.Error("Checker timed out, process killed", "error", err)
	case errors.Is(err, checker.ErrCreation):
		log.Error("Checker executable could not be resolved", "error", err)
	case errors.Is(err, checker.ErrExecution):
		var checkerErr *checker.CheckerError
		if errors.As(err, &checkerErr) && checkerErr.Stderr != "" {
			log.Error("Checker crashed", "error", err, "stderr", checkerErr.Stderr)
			return
		}
		log.Error("Checker crashed", "error", err)
	default:
		log.Error("Checker run failed", "error", err)
	}
}

// =============================================================================
// BATCH VALIDATION
// =============================================================================

// ValidateMany validates documents sequentially, in order.
//
// Description:
//
//	One document completes before the next starts; a single checker run can
//	take seconds, so bounded concurrency of one keeps resource use sane and
//	publication order deterministic. One document's failure is logged and
//	never blocks the rest of the batch.
//
// Thread Safety: Safe for concurrent use; concurrent batches serialize.
func (v *Validator) ValidateMany(ctx context.Context, docs []*Document) {
	v.batchMu.Lock()
	defer v.batchMu.Unlock()

	for _, doc := range docs {
		if ctx.Err() != nil {
			return
		}
		// ValidateSingle already published and logged on failure.
		_ = v.ValidateSingle(ctx, doc)
	}
}

// ValidateAll validates every open document.
func (v *Validator) ValidateAll(ctx context.Context) {
	v.ValidateMany(ctx, v.docs.All())
}

// ScheduleValidate debounces a validation cycle for a URI.
//
// Description:
//
//	Used by the didChange path: rapid typing bursts collapse into one
//	cycle after the debounce interval. The document snapshot is looked up
//	at fire time so the newest content wins.
func (v *Validator) ScheduleValidate(uri string) {
	v.debounceMu.Lock()
	debounced, ok := v.debouncers[uri]
	if !ok {
		debounced = debounce.New(v.debounceAfter)
		v.debouncers[uri] = debounced
	}
	v.debounceMu.Unlock()

	debounced(func() {
		doc, ok := v.docs.Get(uri)
		if !ok {
			return
		}
		_ = v.ValidateSingle(context.Background(), doc)
	})
}

// =============================================================================
// SETTINGS CACHE
// =============================================================================

// resolveSettings returns cached settings for the URI, resolving on miss.
func (v *Validator) resolveSettings(ctx context.Context, uri string) (checker.Settings, error) {
	v.settingsMu.Lock()
	cached, ok := v.settings[uri]
	v.settingsMu.Unlock()
	if ok {
		return cached, nil
	}

	settings, err := v.resolver.Resolve(ctx, uri)
	if err != nil {
		return checker.Settings{}, err
	}
	if err := settings.Validate(); err != nil {
		return checker.Settings{}, errors.Join(ErrSettings, err)
	}

	v.settingsMu.Lock()
	v.settings[uri] = settings
	v.settingsMu.Unlock()
	return settings, nil
}

// EvictSettings drops the cached settings for one URI.
func (v *Validator) EvictSettings(uri string) {
	v.settingsMu.Lock()
	defer v.settingsMu.Unlock()
	delete(v.settings, uri)
}

// InvalidateSettings drops all cached settings (configuration changed).
func (v *Validator) InvalidateSettings() {
	v.settingsMu.Lock()
	defer v.settingsMu.Unlock()
	v.settings = make(map[string]checker.Settings)
}

// CachedSettings reports whether settings are cached for a URI.
func (v *Validator) CachedSettings(uri string) bool {
	v.settingsMu.Lock()
	defer v.settingsMu.Unlock()
	_, ok := v.settings[uri]
	return ok
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// DocumentClosed releases per-URI state after a didClose.
//
// The editor clears diagnostics for closed documents itself; only the
// settings cache and the debouncer need discarding here.
func (v *Validator) DocumentClosed(uri string) {
	v.EvictSettings(uri)

	v.debounceMu.Lock()
	delete(v.debouncers, uri)
	v.debounceMu.Unlock()
}

// =============================================================================
// IN-FLIGHT TRACKING
// =============================================================================

// markInFlight records that a validation cycle is running for the URI.
func (v *Validator) markInFlight(uri string) {
	v.inflightMu.Lock()
	defer v.inflightMu.Unlock()
	v.inflight[uri] = struct{}{}
}

// unmarkInFlight clears the in-flight marker for the URI.
func (v *Validator) unmarkInFlight(uri string) {
	v.inflightMu.Lock()
	defer v.inflightMu.Unlock()
	delete(v.inflight, uri)
}

// InFlight returns the URIs currently mid-validation, in stable order.
func (v *Validator) InFlight() []string {
	v.inflightMu.Lock()
	defer v.inflightMu.Unlock()

	uris := make([]string, 0, len(v.inflight))
	for uri := range v.inflight {
		uris = append(uris, uri)
	}
	sort.Strings(uris)
	return uris
}
