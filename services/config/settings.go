// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads service settings from the environment (with an
// optional .env file for local development).
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Settings holds all runtime configuration for the pitwall service.
type Settings struct {
	// Server
	Port string `envconfig:"PORT" default:"8080"`

	// OpenAI model client
	OpenAIAPIKey string `envconfig:"OPENAI_API_KEY" required:"true"`
	OpenAIModel  string `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`
	ModelTimeout int    `envconfig:"MODEL_TIMEOUT_SECONDS" default:"15"` // seconds

	// Bedrock knowledge base (regulations RAG)
	AWSRegion           string  `envconfig:"AWS_REGION" default:"us-east-1"`
	KnowledgeBaseID     string  `envconfig:"BEDROCK_KNOWLEDGE_BASE_ID" required:"true"`
	GenerationModel     string  `envconfig:"BEDROCK_GENERATION_MODEL" default:"anthropic.claude-3-5-sonnet-20240620-v1:0"`
	RegulationsTimeout  int     `envconfig:"REGULATIONS_TIMEOUT_SECONDS" default:"10"` // seconds
	RetrievalNumResults int     `envconfig:"RETRIEVAL_NUM_RESULTS" default:"5"`
	GenerationMaxTokens int     `envconfig:"GENERATION_MAX_TOKENS" default:"1500"`
	GenerationTemp      float32 `envconfig:"GENERATION_TEMPERATURE" default:"0.3"`

	// Circuit map assets
	CircuitMapsDir string `envconfig:"CIRCUIT_MAPS_DIR" default:"assets/circuits"`

	// Orchestration loop
	MaxRounds    int `envconfig:"ORCHESTRATOR_MAX_ROUNDS" default:"2"`
	HistoryLimit int `envconfig:"ORCHESTRATOR_HISTORY_LIMIT" default:"20"`

	// Observability
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"` // debug, info, warn, error
}

// Load reads settings from the environment, consulting a .env file first
// when one exists.
func Load() (*Settings, error) {
	// Missing .env is the normal case in deployment.
	_ = godotenv.Load()

	var s Settings
	if err := envconfig.Process("", &s); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate rejects settings that would only fail later at request time.
func (s *Settings) Validate() error {
	if s.OpenAIAPIKey == "" {
		return fmt.Errorf("config: OPENAI_API_KEY is required")
	}
	if s.KnowledgeBaseID == "" {
		return fmt.Errorf("config: BEDROCK_KNOWLEDGE_BASE_ID is required")
	}
	if s.MaxRounds < 1 {
		return fmt.Errorf("config: ORCHESTRATOR_MAX_ROUNDS must be >= 1, got %d", s.MaxRounds)
	}
	return nil
}

// ModelTimeoutDuration returns the model call timeout as a Duration.
func (s *Settings) ModelTimeoutDuration() time.Duration {
	return time.Duration(s.ModelTimeout) * time.Second
}

// RegulationsTimeoutDuration returns the regulations call timeout as a Duration.
func (s *Settings) RegulationsTimeoutDuration() time.Duration {
	return time.Duration(s.RegulationsTimeout) * time.Second
}

// SlogLevel maps the configured LogLevel string to a slog.Level.
func (s *Settings) SlogLevel() slog.Level {
	switch strings.ToLower(s.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetupLogging installs a text slog handler at the configured level as
// the process default.
func (s *Settings) SetupLogging() {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: s.SlogLevel()})
	slog.SetDefault(slog.New(handler))
}
