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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the validation pipeline, exposed via the optional
// debug endpoint.
var (
	validationCycles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "phpdd_validation_cycles_total",
		Help: "Validation cycles by outcome",
	}, []string{"outcome"})

	diagnosticsPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "phpdd_diagnostics_published_total",
		Help: "Total diagnostics published to the client",
	})
)

// Outcome labels for validationCycles.
const (
	outcomeOK       = "ok"
	outcomeDisabled = "disabled"
	outcomeFailed   = "failed"
)
