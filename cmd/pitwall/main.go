// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command pitwall runs the Formula 1 assistant.
//
// Pitwall answers F1 questions with two tools behind an LLM loop:
//   - Circuit track maps resolved from free-text location names
//   - FIA regulations answered from a Bedrock knowledge base
//
// Usage:
//
//	pitwall serve              # start the HTTP API on :8080
//	pitwall serve --port 9090
//	pitwall ask "show me the Monaco circuit"
//	pitwall circuits           # list circuits with map assets
//
// Required environment:
//
//	OPENAI_API_KEY             OpenAI key for the tool-calling model
//	BEDROCK_KNOWLEDGE_BASE_ID  Bedrock KB holding the FIA regulations
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	servePort  int
	serveDebug bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "pitwall",
		Short: "Formula 1 assistant: circuit maps and FIA regulations",
		Long: `Pitwall is a Formula 1 conversational assistant. It routes queries
through a tool-calling LLM loop with two tools: circuit track map lookup
and FIA regulations retrieval from a Bedrock knowledge base.`,
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the pitwall HTTP API server",
		Run:   runServeCommand,
	}
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides PORT)")
	serveCmd.Flags().BoolVar(&serveDebug, "debug", false, "Enable debug mode")

	askCmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask one question and print the answer",
		Args:  cobra.MinimumNArgs(1),
		Run:   runAskCommand,
	}

	circuitsCmd := &cobra.Command{
		Use:   "circuits",
		Short: "List circuits with available track maps",
		Run:   runCircuitsCommand,
	}

	rootCmd.AddCommand(serveCmd, askCmd, circuitsCmd)

	if err := rootCmd.Execute(); err != nil {
		slog.Error("Command failed", slog.String("error", err.Error()))
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
