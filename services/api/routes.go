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
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers the pitwall routes with the router.
//
// Description:
//
//	Registers all /v1/* endpoints with the given Gin router group. The
//	router group should already have any required middleware applied.
//
// Inputs:
//
//	rg - Gin router group (typically /v1)
//	handlers - The handlers instance
//
// Endpoints:
//
//	POST /v1/query - Process a user query through the assistant
//	GET  /v1/circuits - List circuits with available track maps
//	GET  /v1/health - Health check
func RegisterRoutes(rg *gin.RouterGroup, handlers *Handlers) {
	rg.POST("/query", handlers.HandleQuery)
	rg.GET("/circuits", handlers.HandleListCircuits)
	rg.GET("/health", handlers.HandleHealth)
}
