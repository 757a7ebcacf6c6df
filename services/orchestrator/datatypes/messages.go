// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes holds the core data model shared by the orchestrator,
// the tool layer, and the API surface: conversation messages, tool results,
// and the dispatch outcome returned to callers.
package datatypes

// Message roles used throughout the conversation history.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is a single role-tagged conversation turn.
//
// Description:
//
//	Conversation history is an ordered slice of Messages owned by the
//	caller. Each ProcessQuery invocation receives its own slice; the
//	orchestrator never mutates the caller's copy.
//
// Thread Safety: Message is immutable and safe for concurrent read access.
type Message struct {
	// Role is "system", "user", "assistant", or "tool".
	Role string `json:"role"`

	// Content is the text content of the message.
	Content string `json:"content"`
}

// TruncateHistory returns the last limit messages of history.
//
// Description:
//
//	History truncation is an explicit policy, not implicit UI logic.
//	A limit <= 0 disables truncation. The returned slice aliases the
//	input; callers must not mutate it concurrently.
//
// Inputs:
//   - history: The full conversation history.
//   - limit: Maximum number of trailing messages to keep.
//
// Outputs:
//   - []Message: The truncated history.
func TruncateHistory(history []Message, limit int) []Message {
	if limit <= 0 || len(history) <= limit {
		return history
	}
	return history[len(history)-limit:]
}
