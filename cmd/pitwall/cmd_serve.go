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
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/pitwall/services/api"
	"github.com/AleutianAI/pitwall/services/circuits"
	"github.com/AleutianAI/pitwall/services/config"
	"github.com/AleutianAI/pitwall/services/llm"
	"github.com/AleutianAI/pitwall/services/orchestrator"
	"github.com/AleutianAI/pitwall/services/regulations"
)

// buildOrchestrator wires the full dependency graph from settings.
func buildOrchestrator(ctx context.Context, settings *config.Settings) (*orchestrator.Orchestrator, *circuits.ImageStore, error) {
	client, err := llm.NewOpenAIClient(settings.OpenAIAPIKey, settings.OpenAIModel, settings.ModelTimeoutDuration())
	if err != nil {
		return nil, nil, fmt.Errorf("openai client: %w", err)
	}

	catalog := circuits.DefaultCatalog()
	resolver := circuits.NewResolver(catalog)
	imageStore := circuits.NewImageStore(settings.CircuitMapsDir, catalog, resolver)

	regsClient, err := regulations.NewClient(ctx, regulations.Options{
		Region:          settings.AWSRegion,
		KnowledgeBaseID: settings.KnowledgeBaseID,
		GenerationModel: settings.GenerationModel,
		NumResults:      settings.RetrievalNumResults,
		MaxTokens:       settings.GenerationMaxTokens,
		Temperature:     settings.GenerationTemp,
		Timeout:         settings.RegulationsTimeoutDuration(),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("regulations client: %w", err)
	}

	dispatcher := orchestrator.NewDispatcher(imageStore, regsClient)
	orch := orchestrator.NewOrchestrator(client, dispatcher, orchestrator.Config{
		MaxRounds:    settings.MaxRounds,
		HistoryLimit: settings.HistoryLimit,
		ModelTimeout: settings.ModelTimeoutDuration(),
	})
	return orch, imageStore, nil
}

func runServeCommand(_ *cobra.Command, _ []string) {
	settings, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	settings.SetupLogging()

	if serveDebug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()
	orch, imageStore, err := buildOrchestrator(ctx, settings)
	if err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}

	handlers := api.NewHandlers(orch, imageStore)

	router := gin.New()
	router.Use(gin.Recovery())
	if serveDebug {
		router.Use(gin.Logger())
	}

	v1 := router.Group("/v1")
	api.RegisterRoutes(v1, handlers)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	port := settings.Port
	if servePort > 0 {
		port = fmt.Sprintf("%d", servePort)
	}
	addr := ":" + port

	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		slog.Info("Shutting down pitwall server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Shutdown error", slog.String("error", err.Error()))
		}
	}()

	slog.Info("Starting pitwall server",
		slog.String("address", addr),
		slog.String("model", settings.OpenAIModel),
		slog.Int("circuit_maps", len(imageStore.ListAvailable())),
	)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("Failed to start server", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
