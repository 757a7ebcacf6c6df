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

import "github.com/AleutianAI/pitwall/services/llm"

// Tool names exposed to the model. The dispatcher rejects anything else.
const (
	ToolGetCircuitImage  = "get_circuit_image"
	ToolQueryRegulations = "query_regulations"
)

// DefaultToolDefs returns the tool schemas advertised to the model.
//
// Description:
//
//	Two function-calling tools: circuit image lookup (argument
//	"location") and regulations query (argument "question"). Both
//	arguments are required strings.
//
// Thread Safety: The returned slice is freshly allocated per call.
func DefaultToolDefs() []llm.ToolDef {
	return []llm.ToolDef{
		{
			Type: "function",
			Function: llm.ToolFunction{
				Name:        ToolGetCircuitImage,
				Description: "Get the track map image for an F1 circuit by location name (e.g. 'Monaco', 'Las Vegas', 'Great Britain').",
				Parameters: llm.ToolParameters{
					Type: "object",
					Properties: map[string]llm.ToolParamDef{
						"location": {
							Type:        "string",
							Description: "Circuit location: host country or city as commonly named on the F1 calendar.",
						},
					},
					Required: []string{"location"},
				},
			},
		},
		{
			Type: "function",
			Function: llm.ToolFunction{
				Name:        ToolQueryRegulations,
				Description: "Answer a question about FIA Formula 1 regulations (rules, penalties, points, safety car, DRS, technical requirements) from the official regulations knowledge base.",
				Parameters: llm.ToolParameters{
					Type: "object",
					Properties: map[string]llm.ToolParamDef{
						"question": {
							Type:        "string",
							Description: "The regulations question, in natural language.",
						},
					},
					Required: []string{"question"},
				},
			},
		},
	}
}
