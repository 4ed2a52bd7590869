// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads the advisor configuration: resolver stage thresholds,
// scoring weights, and generation parameters. Embedded defaults ship with
// the binary; an on-disk YAML file can override them.
//
// The numeric thresholds and weights here were chosen empirically. They are
// configuration, not invariants: retuning them changes answer selection and
// scoring behavior but must never violate the output ranges the pipeline
// guarantees (confidence in [0,1], scores in [0,100]).
package config

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// Embedded Defaults
// =============================================================================

//go:embed defaults.yaml
var defaultConfigYAML []byte

// =============================================================================
// Configuration Types
// =============================================================================

// StageConfig holds the resolver's stage-local acceptance thresholds.
//
// Thresholds are stage-local: they gate whether that stage's candidate is
// returned, and are not comparable across stages.
type StageConfig struct {
	// CuratedThreshold is the minimum curated-match confidence to
	// short-circuit the cascade at the curated stage.
	CuratedThreshold float64 `yaml:"curated_threshold"`

	// GenerativeThreshold is the minimum generative confidence to accept
	// a generated answer.
	GenerativeThreshold float64 `yaml:"generative_threshold"`

	// GenerativeConfidence is the confidence assigned to a successful
	// generative completion.
	GenerativeConfidence float64 `yaml:"generative_confidence"`

	// DialogueConfidence is the confidence assigned to a heuristic
	// dialogue response.
	DialogueConfidence float64 `yaml:"dialogue_confidence"`

	// FallbackConfidence is the confidence of the terminal clarifying
	// response.
	FallbackConfidence float64 `yaml:"fallback_confidence"`

	// HistoryWindow is the number of trailing turns forwarded to the
	// generative backend.
	HistoryWindow int `yaml:"history_window"`
}

// ScoringWeights holds the component weights of the total investment score.
// They must sum to 1.0.
type ScoringWeights struct {
	Growth         float64 `yaml:"growth"`
	Affordability  float64 `yaml:"affordability"`
	Infrastructure float64 `yaml:"infrastructure"`
	Risk           float64 `yaml:"risk"`
	MarketDynamics float64 `yaml:"market_dynamics"`
}

// Sum returns the total of all component weights.
func (w ScoringWeights) Sum() float64 {
	return w.Growth + w.Affordability + w.Infrastructure + w.Risk + w.MarketDynamics
}

// GenerationConfig holds the fixed decoding parameters for the generative
// backend.
type GenerationConfig struct {
	Temperature   float64 `yaml:"temperature"`
	MaxTokens     int     `yaml:"max_tokens"`
	RepeatPenalty float64 `yaml:"repeat_penalty"`

	// TimeoutSeconds bounds a single generative call.
	TimeoutSeconds int `yaml:"timeout_seconds"`

	// RequestsPerSecond rate-limits calls to the generative service.
	// Zero disables the limiter.
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// SessionConfig controls the session memory lifecycle.
type SessionConfig struct {
	// IdleTTLMinutes evicts sessions with no activity for this long.
	IdleTTLMinutes int `yaml:"idle_ttl_minutes"`

	// MaxTurns caps the stored turn history per session. Oldest turns are
	// dropped first. Zero means unbounded.
	MaxTurns int `yaml:"max_turns"`
}

// Config is the root advisor configuration.
type Config struct {
	Stages     StageConfig      `yaml:"stages"`
	Scoring    ScoringWeights   `yaml:"scoring"`
	Generation GenerationConfig `yaml:"generation"`
	Session    SessionConfig    `yaml:"session"`
}

// =============================================================================
// Loading
// =============================================================================

var (
	defaultOnce sync.Once
	defaultCfg  *Config
	defaultErr  error
)

// Default returns the embedded default configuration. The result is parsed
// once and shared; callers must treat it as immutable.
func Default() *Config {
	defaultOnce.Do(func() {
		defaultCfg, defaultErr = parse(defaultConfigYAML)
		if defaultErr != nil {
			// The embedded defaults are part of the binary; failing to
			// parse them is a build defect, not a runtime condition.
			panic(fmt.Sprintf("config: embedded defaults invalid: %v", defaultErr))
		}
	})
	return defaultCfg
}

// Load reads a YAML config file from path. A missing or invalid file falls
// back to the embedded defaults with a warning; configuration problems must
// never stop the advisor from answering.
func Load(path string, logger *slog.Logger) *Config {
	if logger == nil {
		logger = slog.Default()
	}
	if path == "" {
		return Default()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("config file unreadable, using embedded defaults",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return Default()
	}
	// Overlay the file on a copy of the defaults so a partial override file
	// only has to name the fields it changes.
	cfg := *Default()
	if err := yaml.Unmarshal(raw, &cfg); err == nil {
		err = cfg.Validate()
		if err == nil {
			logger.Info("advisor config loaded", slog.String("path", path))
			return &cfg
		}
		logger.Warn("config file invalid, using embedded defaults",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
	} else {
		logger.Warn("config file unparsable, using embedded defaults",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
	}
	return Default()
}

// parse unmarshals and validates a config document starting from the zero
// value. Used only for the embedded defaults, which must be complete.
func parse(raw []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("config: parsing YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the structural invariants the pipeline depends on.
func (c *Config) Validate() error {
	for name, v := range map[string]float64{
		"stages.curated_threshold":     c.Stages.CuratedThreshold,
		"stages.generative_threshold":  c.Stages.GenerativeThreshold,
		"stages.generative_confidence": c.Stages.GenerativeConfidence,
		"stages.dialogue_confidence":   c.Stages.DialogueConfidence,
		"stages.fallback_confidence":   c.Stages.FallbackConfidence,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("config: %s = %v outside [0,1]", name, v)
		}
	}
	if c.Stages.HistoryWindow <= 0 {
		return fmt.Errorf("config: stages.history_window must be positive, got %d", c.Stages.HistoryWindow)
	}
	if s := c.Scoring.Sum(); s < 0.999 || s > 1.001 {
		return fmt.Errorf("config: scoring weights sum to %v, want 1.0", s)
	}
	if c.Generation.TimeoutSeconds <= 0 {
		return fmt.Errorf("config: generation.timeout_seconds must be positive, got %d", c.Generation.TimeoutSeconds)
	}
	if c.Session.IdleTTLMinutes <= 0 {
		return fmt.Errorf("config: session.idle_ttl_minutes must be positive, got %d", c.Session.IdleTTLMinutes)
	}
	return nil
}
