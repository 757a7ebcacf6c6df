// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/pitwall/services/circuits"
	"github.com/AleutianAI/pitwall/services/config"
	"github.com/AleutianAI/pitwall/services/orchestrator/datatypes"
)

func runAskCommand(_ *cobra.Command, args []string) {
	settings, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	settings.SetupLogging()

	question := strings.Join(args, " ")
	fmt.Printf("Asking: %s\n", question)
	fmt.Println("---")

	ctx := context.Background()
	orch, _, err := buildOrchestrator(ctx, settings)
	if err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}

	outcome := orch.ProcessQuery(ctx, question, nil)

	switch outcome.Type {
	case datatypes.OutcomeImage:
		fmt.Printf("\nTrack map: %s\n", imagePath(outcome))
		if outcome.Content != "" {
			fmt.Printf("\n%s\n", outcome.Content)
		}
	case datatypes.OutcomeError:
		fmt.Printf("\nError: %s\n", outcome.Content)
	default:
		fmt.Printf("\nAnswer:\n%s\n", outcome.Content)
	}

	printCitations(outcome)

	if len(outcome.ToolsUsed) > 0 {
		fmt.Printf("\n[tools: %s, rounds: %d, %.2fs]\n",
			strings.Join(outcome.ToolsUsed, ", "),
			outcome.Metadata.Iterations,
			outcome.Metadata.ResponseTimeSeconds,
		)
	}
}

// printCitations lists the regulation sources backing the answer, if any.
func printCitations(outcome *datatypes.DispatchOutcome) {
	for _, r := range outcome.ToolResults {
		if len(r.Metadata.Citations) == 0 {
			continue
		}
		fmt.Println("\nSources Used:")
		for i, citation := range r.Metadata.Citations {
			fmt.Printf("%d. %s\n", i+1, citation.Location.URI)
		}
	}
}

// imagePath pulls the asset path from a circuit image tool result, falling
// back to the outcome content.
func imagePath(outcome *datatypes.DispatchOutcome) string {
	for _, r := range outcome.ToolResults {
		if r.Kind == datatypes.ResultImage {
			return r.Content
		}
	}
	return outcome.Content
}

func runCircuitsCommand(_ *cobra.Command, _ []string) {
	settings, err := config.Load()
	if err != nil {
		// Circuits listing needs no API keys; fall back to defaults.
		settings = &config.Settings{CircuitMapsDir: "assets/circuits"}
	}

	catalog := circuits.DefaultCatalog()
	resolver := circuits.NewResolver(catalog)
	store := circuits.NewImageStore(settings.CircuitMapsDir, catalog, resolver)

	available := store.ListAvailable()
	availSet := make(map[string]bool, len(available))
	for _, name := range available {
		availSet[name] = true
	}

	fmt.Printf("Circuits (%d known, %d with map assets in %s):\n\n",
		catalog.Len(), len(available), settings.CircuitMapsDir)
	for _, name := range catalog.Names() {
		marker := " "
		if availSet[name] {
			marker = "*"
		}
		fmt.Printf("  %s %s\n", marker, name)
	}
	fmt.Println("\n* = track map available")
}
