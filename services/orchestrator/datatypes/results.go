// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

// ResultKind tags the ToolResult union: image, text, or error.
type ResultKind string

// ToolResult kinds.
const (
	ResultImage ResultKind = "image"
	ResultText  ResultKind = "text"
	ResultError ResultKind = "error"
)

// Result status values recorded in ResultMetadata.Status.
const (
	StatusSuccess     = "success"
	StatusNotFound    = "not_found"
	StatusFileMissing = "file_missing"
	StatusUnknownTool = "unknown_tool"
	StatusError       = "error"
)

// SourceLocation identifies where a retrieved regulation passage came from.
type SourceLocation struct {
	// Type is the backend's location type (e.g. "S3").
	Type string `json:"type,omitempty"`

	// URI is the source document URI.
	URI string `json:"uri,omitempty"`
}

// Citation links part of a generated answer to a retrieved source passage.
type Citation struct {
	// Content is the retrieved source text snippet.
	Content string `json:"content"`

	// Location identifies the source document.
	Location SourceLocation `json:"location"`

	// Metadata carries backend-supplied source metadata.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// ResultMetadata carries the structured metadata of a ToolResult.
//
// Description:
//
//	Replaces the loosely-typed metadata maps of earlier drafts with an
//	explicit struct. Only the fields relevant to a given result kind
//	are populated; the rest are omitted from JSON.
type ResultMetadata struct {
	// Status is one of the Status* constants.
	Status string `json:"status"`

	// Location is the canonical circuit identifier (image results).
	Location string `json:"location,omitempty"`

	// ExpectedFile is the asset file name that was probed but absent.
	ExpectedFile string `json:"expected_file,omitempty"`

	// AvailableCircuits lists the catalog when a location was not found.
	AvailableCircuits []string `json:"available_circuits,omitempty"`

	// Question echoes the regulations question that was asked.
	Question string `json:"question,omitempty"`

	// LatencySeconds is the elapsed backend latency.
	LatencySeconds float64 `json:"latency_seconds,omitempty"`

	// Citations are the retrieved source passages backing the answer.
	Citations []Citation `json:"citations,omitempty"`

	// NumResults is the number of passages requested from retrieval.
	NumResults int `json:"num_results,omitempty"`

	// Model is the generation model identifier used by the backend.
	Model string `json:"model,omitempty"`

	// Tool is the failing tool's name for dispatcher-contained errors.
	Tool string `json:"tool,omitempty"`

	// ErrorCode is the backend's error code, when one was surfaced.
	ErrorCode string `json:"error_code,omitempty"`

	// ErrorMessage is the backend's error message, when one was surfaced.
	ErrorMessage string `json:"error_message,omitempty"`
}

// ToolResult is the tagged union produced by every tool execution.
//
// Description:
//
//	Kind selects the payload interpretation: an image result's Content
//	is an absolute file path, a text result's Content is generated
//	text, and an error result's Content is a user-readable message.
//	Tools never return Go errors across the dispatch boundary; all
//	failures are folded into error-kind results.
//
// Thread Safety: ToolResult is immutable once constructed and safe for
// concurrent read access.
type ToolResult struct {
	// Kind is image, text, or error.
	Kind ResultKind `json:"type"`

	// Content is the payload: file path, answer text, or error message.
	Content string `json:"content"`

	// Metadata carries structured details about the result.
	Metadata ResultMetadata `json:"metadata"`
}

// IsError reports whether the result is the error arm of the union.
func (r ToolResult) IsError() bool {
	return r.Kind == ResultError
}

// ErrorResult builds an error-kind ToolResult with the given status.
func ErrorResult(status, message string) ToolResult {
	return ToolResult{
		Kind:    ResultError,
		Content: message,
		Metadata: ResultMetadata{
			Status:       status,
			ErrorMessage: message,
		},
	}
}

// Outcome types for DispatchOutcome.Type.
const (
	OutcomeText    = "text"
	OutcomeImage   = "image"
	OutcomeError   = "error"
	OutcomePartial = "partial"
)

// OutcomeMetadata records per-invocation bookkeeping for an outcome.
type OutcomeMetadata struct {
	// RequestID uniquely identifies this ProcessQuery invocation.
	RequestID string `json:"request_id"`

	// Model is the tool-calling model identifier used.
	Model string `json:"model"`

	// Iterations is the number of model rounds taken. Never exceeds
	// the orchestrator's configured maximum.
	Iterations int `json:"iterations"`

	// ResponseTimeSeconds is the wall-clock duration of the invocation.
	ResponseTimeSeconds float64 `json:"response_time_seconds"`
}

// DispatchOutcome is the final structured result of one query.
//
// Description:
//
//	The orchestrator's public contract: every invocation returns a
//	DispatchOutcome, including operational failures ("error") and loop
//	exhaustion ("partial"). Callers never receive a raw error for
//	ordinary failures.
//
// Thread Safety: DispatchOutcome is safe for concurrent read access
// after the orchestrator returns it.
type DispatchOutcome struct {
	// Type is text, image, error, or partial.
	Type string `json:"type"`

	// Content is the final natural-language answer (or error text).
	Content string `json:"content"`

	// ToolsUsed lists the names of tools executed, in request order.
	ToolsUsed []string `json:"tools_used"`

	// ToolResults maps tool name to its result. A tool requested twice
	// in one round keeps the last result.
	ToolResults map[string]ToolResult `json:"tool_results,omitempty"`

	// Metadata carries iteration count, model id, and timing.
	Metadata OutcomeMetadata `json:"metadata"`
}
