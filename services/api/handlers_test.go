// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/pitwall/services/orchestrator/datatypes"
)

// fakeProcessor records the query and returns a canned outcome.
type fakeProcessor struct {
	lastQuery   string
	lastHistory []datatypes.Message
	outcome     *datatypes.DispatchOutcome
}

func (f *fakeProcessor) ProcessQuery(_ context.Context, query string, history []datatypes.Message) *datatypes.DispatchOutcome {
	f.lastQuery = query
	f.lastHistory = history
	return f.outcome
}

// fakeLister returns a fixed circuit list.
type fakeLister struct {
	circuits []string
}

func (f *fakeLister) ListAvailable() []string { return f.circuits }

func newTestRouter(processor QueryProcessor, lister CircuitLister) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	v1 := router.Group("/v1")
	RegisterRoutes(v1, NewHandlers(processor, lister))
	return router
}

func textOutcome(content string) *datatypes.DispatchOutcome {
	return &datatypes.DispatchOutcome{
		Type:        datatypes.OutcomeText,
		Content:     content,
		ToolsUsed:   []string{"query_regulations"},
		ToolResults: map[string]datatypes.ToolResult{},
		Metadata:    datatypes.OutcomeMetadata{RequestID: "r1", Model: "gpt-4o-mini", Iterations: 2},
	}
}

func TestHandleQuery(t *testing.T) {
	processor := &fakeProcessor{outcome: textOutcome("25 points")}
	router := newTestRouter(processor, &fakeLister{})

	body := `{"query":"points for a win?","history":[{"role":"user","content":"hi"},{"role":"assistant","content":"hello"}]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/query", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if processor.lastQuery != "points for a win?" {
		t.Errorf("query = %q", processor.lastQuery)
	}
	if len(processor.lastHistory) != 2 {
		t.Errorf("history len = %d, want 2", len(processor.lastHistory))
	}

	var outcome datatypes.DispatchOutcome
	if err := json.Unmarshal(w.Body.Bytes(), &outcome); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if outcome.Type != datatypes.OutcomeText || outcome.Content != "25 points" {
		t.Errorf("outcome = %+v", outcome)
	}
	if outcome.Metadata.Iterations != 2 {
		t.Errorf("Iterations = %d", outcome.Metadata.Iterations)
	}
}

func TestHandleQueryErrorOutcomeIsStill200(t *testing.T) {
	processor := &fakeProcessor{outcome: &datatypes.DispatchOutcome{
		Type:        datatypes.OutcomeError,
		Content:     "Error processing query: model unavailable",
		ToolsUsed:   []string{},
		ToolResults: map[string]datatypes.ToolResult{},
	}}
	router := newTestRouter(processor, &fakeLister{})

	req := httptest.NewRequest(http.MethodPost, "/v1/query", strings.NewReader(`{"query":"hi"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 for error outcomes", w.Code)
	}
}

func TestHandleQueryRejectsBadRequests(t *testing.T) {
	processor := &fakeProcessor{outcome: textOutcome("unused")}
	router := newTestRouter(processor, &fakeLister{})

	tests := []struct {
		name string
		body string
	}{
		{"empty body", ``},
		{"not json", `points for a win`},
		{"missing query", `{"history":[]}`},
		{"blank query", `{"query":"   "}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/query", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}
	if processor.lastQuery != "" {
		t.Errorf("processor should not run for bad requests, got %q", processor.lastQuery)
	}
}

func TestHandleListCircuits(t *testing.T) {
	router := newTestRouter(&fakeProcessor{}, &fakeLister{circuits: []string{"Brazil", "Monaco"}})

	req := httptest.NewRequest(http.MethodGet, "/v1/circuits", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Circuits []string `json:"circuits"`
		Count    int      `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if resp.Count != 2 || len(resp.Circuits) != 2 || resp.Circuits[1] != "Monaco" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestHandleHealth(t *testing.T) {
	router := newTestRouter(&fakeProcessor{}, &fakeLister{})

	req := httptest.NewRequest(http.MethodGet, "/v1/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Errorf("body = %s", w.Body.String())
	}
}
