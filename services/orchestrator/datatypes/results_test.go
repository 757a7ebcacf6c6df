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

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestIsError(t *testing.T) {
	if !(ToolResult{Kind: ResultError}).IsError() {
		t.Error("error kind should report IsError")
	}
	if (ToolResult{Kind: ResultText}).IsError() {
		t.Error("text kind should not report IsError")
	}
	if (ToolResult{Kind: ResultImage}).IsError() {
		t.Error("image kind should not report IsError")
	}
}

func TestErrorResult(t *testing.T) {
	r := ErrorResult(StatusNotFound, "no such circuit")
	if r.Kind != ResultError {
		t.Errorf("Kind = %q, want error", r.Kind)
	}
	if r.Content != "no such circuit" {
		t.Errorf("Content = %q", r.Content)
	}
	if r.Metadata.Status != StatusNotFound {
		t.Errorf("Status = %q, want %q", r.Metadata.Status, StatusNotFound)
	}
	if r.Metadata.ErrorMessage != "no such circuit" {
		t.Errorf("ErrorMessage = %q", r.Metadata.ErrorMessage)
	}
}

func TestToolResultJSONOmitsEmptyMetadata(t *testing.T) {
	r := ToolResult{
		Kind:     ResultText,
		Content:  "answer",
		Metadata: ResultMetadata{Status: StatusSuccess},
	}
	b, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(b)
	if !strings.Contains(s, `"status":"success"`) {
		t.Errorf("status missing from JSON: %s", s)
	}
	for _, absent := range []string{"location", "expected_file", "citations", "error_code"} {
		if strings.Contains(s, absent) {
			t.Errorf("empty field %q should be omitted: %s", absent, s)
		}
	}
}

func TestDispatchOutcomeJSONShape(t *testing.T) {
	outcome := DispatchOutcome{
		Type:      OutcomeText,
		Content:   "the answer",
		ToolsUsed: []string{"query_regulations"},
		ToolResults: map[string]ToolResult{
			"query_regulations": {Kind: ResultText, Content: "the answer",
				Metadata: ResultMetadata{Status: StatusSuccess}},
		},
		Metadata: OutcomeMetadata{RequestID: "r1", Model: "gpt-4o-mini", Iterations: 2},
	}
	b, err := json.Marshal(outcome)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"type", "content", "tools_used", "tool_results", "metadata"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("key %q missing from outcome JSON", key)
		}
	}
}
