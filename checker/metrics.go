// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package checker

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Package-level tracer and meter for checker operations.
var (
	tracer = otel.Tracer("phpdd.checker")
	meter  = otel.Meter("phpdd.checker")
)

// Metrics for checker invocations.
var (
	runLatency metric.Float64Histogram
	runTotal   metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		runLatency, err = meter.Float64Histogram(
			"checker_run_duration_seconds",
			metric.WithDescription("Duration of checker invocations"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		runTotal, err = meter.Int64Counter(
			"checker_runs_total",
			metric.WithDescription("Total number of checker invocations"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// startRunSpan creates a span for one checker invocation.
func startRunSpan(ctx context.Context, executable, filePath string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Checker.Run",
		trace.WithAttributes(
			attribute.String("checker.executable", executable),
			attribute.String("checker.file_path", filePath),
		),
	)
}

// recordRunMetrics records metrics for one checker invocation.
func recordRunMetrics(ctx context.Context, duration time.Duration, success bool) {
	if err := initMetrics(); err != nil {
		return
	}

	attrs := metric.WithAttributes(attribute.Bool("success", success))
	runLatency.Record(ctx, duration.Seconds(), attrs)
	runTotal.Add(ctx, 1, attrs)
}
