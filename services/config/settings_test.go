// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("OPENAI_API_KEY", "test-key")
	t.Setenv("BEDROCK_KNOWLEDGE_BASE_ID", "KB123")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	s, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", s.Port)
	assert.Equal(t, "gpt-4o-mini", s.OpenAIModel)
	assert.Equal(t, 15*time.Second, s.ModelTimeoutDuration())
	assert.Equal(t, 10*time.Second, s.RegulationsTimeoutDuration())
	assert.Equal(t, 2, s.MaxRounds)
	assert.Equal(t, 20, s.HistoryLimit)
	assert.Equal(t, 5, s.RetrievalNumResults)
	assert.Equal(t, 1500, s.GenerationMaxTokens)
	assert.InDelta(t, 0.3, float64(s.GenerationTemp), 0.001)
	assert.Equal(t, "assets/circuits", s.CircuitMapsDir)
	assert.Equal(t, "us-east-1", s.AWSRegion)
}

func TestLoadOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("OPENAI_MODEL", "gpt-4o")
	t.Setenv("ORCHESTRATOR_MAX_ROUNDS", "3")
	t.Setenv("CIRCUIT_MAPS_DIR", "/data/maps")
	t.Setenv("LOG_LEVEL", "debug")

	s, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", s.Port)
	assert.Equal(t, "gpt-4o", s.OpenAIModel)
	assert.Equal(t, 3, s.MaxRounds)
	assert.Equal(t, "/data/maps", s.CircuitMapsDir)
	assert.Equal(t, slog.LevelDebug, s.SlogLevel())
}

func TestLoadMissingRequired(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("BEDROCK_KNOWLEDGE_BASE_ID", "KB123")
	_, err := Load()
	assert.Error(t, err, "missing OPENAI_API_KEY should fail")

	t.Setenv("OPENAI_API_KEY", "k")
	t.Setenv("BEDROCK_KNOWLEDGE_BASE_ID", "")
	_, err = Load()
	assert.Error(t, err, "missing BEDROCK_KNOWLEDGE_BASE_ID should fail")
}

func TestValidateRejectsBadRounds(t *testing.T) {
	s := &Settings{OpenAIAPIKey: "k", KnowledgeBaseID: "kb", MaxRounds: 0}
	assert.Error(t, s.Validate())

	s.MaxRounds = 1
	assert.NoError(t, s.Validate())
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"ERROR", slog.LevelError},
		{"garbage", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		s := &Settings{LogLevel: tt.in}
		assert.Equal(t, tt.want, s.SlogLevel(), "level %q", tt.in)
	}
}
