// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package api exposes the pitwall HTTP surface: query submission, circuit
// discovery, and health checks.
package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/pitwall/services/orchestrator/datatypes"
)

// QueryProcessor is the orchestration entry point consumed by the handlers.
type QueryProcessor interface {
	ProcessQuery(ctx context.Context, query string, history []datatypes.Message) *datatypes.DispatchOutcome
}

// CircuitLister enumerates the circuits with map assets on disk.
type CircuitLister interface {
	ListAvailable() []string
}

// Handlers holds the HTTP handlers for the pitwall API.
//
// Thread Safety: Handlers is immutable after construction and safe for
// concurrent use.
type Handlers struct {
	processor QueryProcessor
	circuits  CircuitLister
}

// NewHandlers creates the API handlers over the given orchestrator and
// circuit store.
func NewHandlers(processor QueryProcessor, circuits CircuitLister) *Handlers {
	return &Handlers{processor: processor, circuits: circuits}
}

// QueryRequest is the body for POST /v1/query.
type QueryRequest struct {
	Query   string              `json:"query" binding:"required"`
	History []datatypes.Message `json:"history,omitempty"`
}

// HandleQuery processes one user query through the orchestration loop.
//
// Description:
//
//	POST /v1/query. The response body is the full DispatchOutcome; the
//	HTTP status is 200 for every outcome type including "error", since
//	a failed tool or model call is a valid, fully-formed answer from the
//	assistant's perspective. Only malformed requests get a 4xx.
//
// Thread Safety: This handler is safe for concurrent use.
func (h *Handlers) HandleQuery(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body: " + err.Error(),
		})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "query must not be empty",
		})
		return
	}

	outcome := h.processor.ProcessQuery(c.Request.Context(), req.Query, req.History)
	c.JSON(http.StatusOK, outcome)
}

// HandleListCircuits returns the circuits that currently have a map asset.
//
// GET /v1/circuits
func (h *Handlers) HandleListCircuits(c *gin.Context) {
	available := h.circuits.ListAvailable()
	c.JSON(http.StatusOK, gin.H{
		"circuits": available,
		"count":    len(available),
	})
}

// HandleHealth reports service liveness.
//
// GET /v1/health
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
