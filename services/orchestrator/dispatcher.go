// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package orchestrator drives the bounded tool-calling loop: it sends the
// conversation to the model, executes the tools the model requests, and
// forces a final answer within a fixed round budget.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/AleutianAI/pitwall/services/orchestrator/datatypes"
)

// CircuitImageTool is the circuit map lookup consumed by the dispatcher.
type CircuitImageTool interface {
	// GetCircuitImage resolves a free-text location and returns the
	// asset path as an image result, or an error result.
	GetCircuitImage(locationText string) datatypes.ToolResult
}

// RegulationsTool is the regulations RAG backend consumed by the dispatcher.
type RegulationsTool interface {
	// QueryRegulations answers a regulations question as a text result,
	// or an error result.
	QueryRegulations(ctx context.Context, question string) datatypes.ToolResult
}

// Dispatcher executes model-issued tool calls.
//
// Description:
//
//	The error-containment boundary between untrusted model-issued calls
//	and the rest of the system. Unknown tool names and panics from
//	underlying tools are converted to error-kind ToolResults; Execute
//	never returns a Go error and never panics.
//
//	Tools are injected at construction. There is no global registry and
//	no lazily-created singleton clients.
//
// Thread Safety: Dispatcher is immutable after construction and safe for
// concurrent use.
type Dispatcher struct {
	circuits    CircuitImageTool
	regulations RegulationsTool
}

// NewDispatcher creates a Dispatcher over the given tools.
func NewDispatcher(circuits CircuitImageTool, regulations RegulationsTool) *Dispatcher {
	return &Dispatcher{circuits: circuits, regulations: regulations}
}

// Execute runs one named tool with string arguments.
//
// Description:
//
//	Known tools: "get_circuit_image" (arg "location") and
//	"query_regulations" (arg "question"). A missing argument is passed
//	through as the empty string and handled by the tool itself (the
//	resolver reports not_found, the RAG backend answers nothing useful);
//	an unknown tool name yields an error result with status
//	"unknown_tool".
//
// Inputs:
//   - ctx: Context for cancellation, forwarded to blocking tools.
//   - toolName: The model-issued tool name.
//   - args: The model-issued string arguments.
//
// Outputs:
//   - datatypes.ToolResult: Always a result, never a panic or error.
//
// Thread Safety: This method is safe for concurrent use.
func (d *Dispatcher) Execute(ctx context.Context, toolName string, args map[string]string) (result datatypes.ToolResult) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			slog.Error("Tool execution panicked",
				slog.String("tool", toolName),
				slog.Any("panic", r),
			)
			result = datatypes.ToolResult{
				Kind:    datatypes.ResultError,
				Content: fmt.Sprintf("Tool %s failed: %v", toolName, r),
				Metadata: datatypes.ResultMetadata{
					Status:       datatypes.StatusError,
					Tool:         toolName,
					ErrorMessage: fmt.Sprintf("%v", r),
				},
			}
		}
		recordToolExecution(toolName, result.Metadata.Status, time.Since(start))
	}()

	slog.Debug("Dispatching tool", slog.String("tool", toolName))

	switch toolName {
	case ToolGetCircuitImage:
		result = d.circuits.GetCircuitImage(args["location"])
	case ToolQueryRegulations:
		result = d.regulations.QueryRegulations(ctx, args["question"])
	default:
		slog.Warn("Unknown tool requested by model", slog.String("tool", toolName))
		result = datatypes.ToolResult{
			Kind:    datatypes.ResultError,
			Content: fmt.Sprintf("Unknown tool: %s", toolName),
			Metadata: datatypes.ResultMetadata{
				Status: datatypes.StatusUnknownTool,
				Tool:   toolName,
			},
		}
	}
	return result
}
