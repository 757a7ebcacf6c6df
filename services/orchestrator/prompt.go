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

// systemPrompt seeds every conversation. It biases the model toward
// immediate, decisive tool use; the loop budget is too small for
// deliberation.
const systemPrompt = `You are Pitwall, a Formula 1 assistant with two tools:

- get_circuit_image: returns the track map for a circuit. Use it whenever the user asks to see, show, or display a circuit, track, map, or layout.
- query_regulations: answers questions about FIA rules, penalties, points, procedures, and technical regulations from the official regulations knowledge base.

Decide immediately which tool(s) a query needs and call them in your first response. A query can need both tools at once. Do not deliberate, do not ask clarifying questions, and do not answer regulation questions from memory. If the query needs no tool (greetings, small talk), answer directly in one or two sentences.`

// forcingPrompt is appended after tool results to close the loop in one
// more round.
const forcingPrompt = `Produce the final answer now using the tool results above. Be terse. If a tool failed, say so briefly and suggest what the user could try instead. Do not request any more tools.`

// exhaustedContent is returned when the round budget runs out without a
// tool-free response.
const exhaustedContent = `Sorry, I couldn't finish answering within the allotted steps. Here is what I gathered from the tools I managed to run; please try rephrasing the question.`
