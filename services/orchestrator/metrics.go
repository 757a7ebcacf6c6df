// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package orchestrator

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// Prometheus Metrics for Query Orchestration
// =============================================================================

var (
	// queriesTotal counts completed queries by outcome type.
	// Labels: outcome (text, image, error, partial)
	queriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pitwall",
		Subsystem: "orchestrator",
		Name:      "queries_total",
		Help:      "Completed queries by outcome type",
	}, []string{"outcome"})

	// queryDurationSeconds measures end-to-end query latency.
	queryDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "pitwall",
		Subsystem: "orchestrator",
		Name:      "query_duration_seconds",
		Help:      "End-to-end query latency including model and tool calls",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
	})

	// modelRoundsTotal counts model rounds per query.
	// Labels: rounds ("1", "2")
	modelRoundsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pitwall",
		Subsystem: "orchestrator",
		Name:      "model_rounds_total",
		Help:      "Model rounds taken per completed query",
	}, []string{"rounds"})

	// toolExecutionsTotal counts tool executions by tool and result status.
	// Labels: tool, status (success, not_found, file_missing, unknown_tool, error)
	toolExecutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pitwall",
		Subsystem: "tools",
		Name:      "executions_total",
		Help:      "Tool executions by tool name and result status",
	}, []string{"tool", "status"})

	// toolLatencySeconds measures per-tool execution latency.
	// Labels: tool
	toolLatencySeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "pitwall",
		Subsystem: "tools",
		Name:      "latency_seconds",
		Help:      "Tool execution latency",
		Buckets:   []float64{0.01, 0.1, 0.5, 1, 2, 5, 10, 20},
	}, []string{"tool"})
)

// recordQuery records a completed query outcome.
func recordQuery(outcome string, rounds int, elapsed time.Duration) {
	queriesTotal.WithLabelValues(outcome).Inc()
	queryDurationSeconds.Observe(elapsed.Seconds())
	modelRoundsTotal.WithLabelValues(itoaSmall(rounds)).Inc()
}

// recordToolExecution records one dispatcher execution.
func recordToolExecution(tool, status string, elapsed time.Duration) {
	toolExecutionsTotal.WithLabelValues(tool, status).Inc()
	toolLatencySeconds.WithLabelValues(tool).Observe(elapsed.Seconds())
}

// itoaSmall avoids strconv for the tiny round counts we label with.
func itoaSmall(n int) string {
	switch n {
	case 0:
		return "0"
	case 1:
		return "1"
	case 2:
		return "2"
	default:
		return "many"
	}
}
