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
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/pitwall/services/llm"
	"github.com/AleutianAI/pitwall/services/orchestrator/datatypes"
)

// Config tunes the orchestration loop.
type Config struct {
	// MaxRounds is the hard bound on model rounds per query: one round
	// for tool invocation, one for the forced final synthesis. Zero
	// uses the default (2).
	MaxRounds int

	// HistoryLimit truncates supplied conversation history to its last
	// N messages. Zero uses the default (20); negative disables.
	HistoryLimit int

	// ModelTimeout bounds a single model call. Zero uses the default (15s).
	ModelTimeout time.Duration
}

// Defaults for Config.
const (
	DefaultMaxRounds    = 2
	DefaultHistoryLimit = 20
	defaultModelTimeout = 15 * time.Second
)

// Orchestrator drives the bounded tool-calling conversation.
//
// Description:
//
//	State machine per query: await a model turn; if the model requests
//	tools, execute all of them, fold the results back into the message
//	history with a forcing instruction, and await one more turn. A
//	tool-free response is the final answer. Exhausting the round budget
//	yields a partial outcome; model failures and panics yield an error
//	outcome. The caller always receives a structured DispatchOutcome.
//
//	Dependencies are injected at construction; the orchestrator holds no
//	global state and no per-query state between invocations.
//
// Thread Safety: Orchestrator is safe for concurrent use. Each
// ProcessQuery invocation owns its conversation state exclusively.
type Orchestrator struct {
	client     llm.ToolCaller
	dispatcher *Dispatcher
	toolDefs   []llm.ToolDef
	cfg        Config
}

// NewOrchestrator creates an Orchestrator over the given model client and
// dispatcher, applying Config defaults for zero fields.
func NewOrchestrator(client llm.ToolCaller, dispatcher *Dispatcher, cfg Config) *Orchestrator {
	if dispatcher == nil {
		panic("orchestrator: nil dispatcher")
	}
	if cfg.MaxRounds <= 0 {
		cfg.MaxRounds = DefaultMaxRounds
	}
	if cfg.HistoryLimit == 0 {
		cfg.HistoryLimit = DefaultHistoryLimit
	}
	if cfg.ModelTimeout <= 0 {
		cfg.ModelTimeout = defaultModelTimeout
	}
	slog.Info("Initialized orchestrator",
		slog.String("model", client.Model()),
		slog.Int("max_rounds", cfg.MaxRounds),
	)
	return &Orchestrator{
		client:     client,
		dispatcher: dispatcher,
		toolDefs:   DefaultToolDefs(),
		cfg:        cfg,
	}
}

// ProcessQuery answers one user query within the bounded loop.
//
// Description:
//
//	The loop's public contract never raises for operational failures:
//	model errors, tool failures, and round exhaustion all come back as
//	structured outcomes (types "error" and "partial"). The supplied
//	history is read-only; truncation follows the configured policy.
//
// Inputs:
//   - ctx: Context for cancellation. Individual model calls also get
//     the configured per-call timeout.
//   - query: The user's question.
//   - history: Prior conversation turns owned by the caller. May be nil.
//
// Outputs:
//   - *datatypes.DispatchOutcome: Always non-nil.
//
// Thread Safety: This method is safe for concurrent use.
func (o *Orchestrator) ProcessQuery(ctx context.Context, query string, history []datatypes.Message) (outcome *datatypes.DispatchOutcome) {
	start := time.Now()
	outcome = &datatypes.DispatchOutcome{
		Type:        datatypes.OutcomeError,
		ToolsUsed:   []string{},
		ToolResults: map[string]datatypes.ToolResult{},
		Metadata: datatypes.OutcomeMetadata{
			RequestID: uuid.NewString(),
			Model:     o.client.Model(),
		},
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("Query processing panicked",
				slog.String("request_id", outcome.Metadata.RequestID),
				slog.Any("panic", r),
			)
			outcome.Type = datatypes.OutcomeError
			outcome.Content = fmt.Sprintf("Internal error processing query: %v", r)
		}
		outcome.Metadata.ResponseTimeSeconds = time.Since(start).Seconds()
		recordQuery(outcome.Type, outcome.Metadata.Iterations, time.Since(start))
	}()

	slog.Info("Processing query",
		slog.String("request_id", outcome.Metadata.RequestID),
		slog.String("query", query),
		slog.Int("history", len(history)),
	)

	messages := make([]llm.ChatMessage, 0, len(history)+3)
	messages = append(messages, llm.ChatMessage{Role: datatypes.RoleSystem, Content: systemPrompt})
	for _, m := range datatypes.TruncateHistory(history, o.cfg.HistoryLimit) {
		messages = append(messages, llm.ChatMessage{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, llm.ChatMessage{Role: datatypes.RoleUser, Content: query})

	for round := 1; round <= o.cfg.MaxRounds; round++ {
		outcome.Metadata.Iterations = round

		callCtx, cancel := context.WithTimeout(ctx, o.cfg.ModelTimeout)
		result, err := o.client.ChatWithTools(callCtx, messages, llm.GenerationParams{}, o.toolDefs)
		cancel()
		if err != nil {
			slog.Error("Model call failed",
				slog.String("request_id", outcome.Metadata.RequestID),
				slog.Int("round", round),
				slog.String("error", err.Error()),
			)
			outcome.Type = datatypes.OutcomeError
			outcome.Content = fmt.Sprintf("Error processing query: %s", err)
			return outcome
		}

		if len(result.ToolCalls) == 0 {
			outcome.Type = o.finalType(outcome.ToolResults)
			outcome.Content = result.Content
			slog.Info("Query complete",
				slog.String("request_id", outcome.Metadata.RequestID),
				slog.Int("iterations", round),
				slog.Any("tools_used", outcome.ToolsUsed),
			)
			return outcome
		}

		calls := withSyntheticIDs(result.ToolCalls)
		results := o.executeAll(ctx, calls)

		messages = append(messages, llm.ChatMessage{
			Role:      datatypes.RoleAssistant,
			Content:   result.Content,
			ToolCalls: calls,
		})
		for i, call := range calls {
			if !contains(outcome.ToolsUsed, call.Name) {
				outcome.ToolsUsed = append(outcome.ToolsUsed, call.Name)
			}
			outcome.ToolResults[call.Name] = results[i]
			messages = append(messages, llm.ChatMessage{
				Role:       datatypes.RoleTool,
				ToolCallID: call.ID,
				Content:    encodeToolResult(results[i]),
			})
		}
		messages = append(messages, llm.ChatMessage{Role: datatypes.RoleSystem, Content: forcingPrompt})
	}

	// Round budget exhausted without a tool-free response.
	slog.Warn("Query hit round budget without final answer",
		slog.String("request_id", outcome.Metadata.RequestID),
		slog.Int("max_rounds", o.cfg.MaxRounds),
	)
	outcome.Type = datatypes.OutcomePartial
	outcome.Content = exhaustedContent + summarizeResults(outcome)
	return outcome
}

// executeAll runs every requested tool call. Calls are independent (the
// image store only reads the filesystem, the RAG client only reads a
// remote KB), so they execute concurrently.
func (o *Orchestrator) executeAll(ctx context.Context, calls []llm.ToolCallResponse) []datatypes.ToolResult {
	results := make([]datatypes.ToolResult, len(calls))
	g, gctx := errgroup.WithContext(ctx)
	for i, call := range calls {
		i, call := i, call
		g.Go(func() error {
			args, err := call.ArgumentsMap()
			if err != nil {
				slog.Warn("Malformed tool arguments",
					slog.String("tool", call.Name),
					slog.String("error", err.Error()),
				)
			}
			results[i] = o.dispatcher.Execute(gctx, call.Name, args)
			return nil
		})
	}
	// Tool failures are folded into results; the group never errors.
	_ = g.Wait()
	return results
}

// finalType picks the outcome type for a tool-free final response: image
// when the tools produced exactly an image and no successful text, text
// otherwise.
func (o *Orchestrator) finalType(results map[string]datatypes.ToolResult) string {
	hasImage := false
	hasText := false
	for _, r := range results {
		switch r.Kind {
		case datatypes.ResultImage:
			hasImage = true
		case datatypes.ResultText:
			hasText = true
		}
	}
	if hasImage && !hasText {
		return datatypes.OutcomeImage
	}
	return datatypes.OutcomeText
}

// withSyntheticIDs fills in missing tool call IDs so results can be tagged
// back to their originating request.
func withSyntheticIDs(calls []llm.ToolCallResponse) []llm.ToolCallResponse {
	out := make([]llm.ToolCallResponse, len(calls))
	copy(out, calls)
	for i := range out {
		if out[i].ID == "" {
			out[i].ID = "call_" + uuid.NewString()
		}
	}
	return out
}

// encodeToolResult serializes a ToolResult for the model's consumption.
func encodeToolResult(r datatypes.ToolResult) string {
	b, err := json.Marshal(r)
	if err != nil {
		return fmt.Sprintf(`{"type":"error","content":%q}`, err.Error())
	}
	return string(b)
}

// summarizeResults appends a short plain-text digest of gathered tool
// results to the exhaustion message.
func summarizeResults(outcome *datatypes.DispatchOutcome) string {
	if len(outcome.ToolsUsed) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, name := range outcome.ToolsUsed {
		r := outcome.ToolResults[name]
		sb.WriteString("\n- ")
		sb.WriteString(name)
		sb.WriteString(": ")
		if r.IsError() {
			sb.WriteString("failed (")
			sb.WriteString(r.Metadata.Status)
			sb.WriteString(")")
		} else {
			sb.WriteString(string(r.Kind))
			sb.WriteString(" result available")
		}
	}
	return sb.String()
}

// contains reports whether s holds v.
func contains(s []string, v string) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}
