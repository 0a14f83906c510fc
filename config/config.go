// Package config loads the enumerated runtime configuration of spec.md §6
// from defaults, overridable through environment variables, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every configurable field named in the specification's
// "Configuration (enumerated)" section.
type Config struct {
	// RetrieverTopK is how many candidates the vector index returns before reranking.
	RetrieverTopK int
	// RetrieverFinalN is how many documents survive reranking and reach the generator.
	RetrieverFinalN int
	// FuzzyCacheThreshold is the minimum Jaccard similarity to accept a fuzzy cache hit.
	FuzzyCacheThreshold float64
	// RecentQueryWindow bounds how many recent cache keys are scanned for a fuzzy match.
	RecentQueryWindow int
	// CacheTTL is how long a cache entry is retained.
	CacheTTL time.Duration
	// FaithfulThreshold is the score at or above which an answer is considered faithful.
	FaithfulThreshold float64
	// DegradedFloor is the score below which an answer is rejected outright.
	DegradedFloor float64
	// FaithfulnessFailureScore is used when the scorer itself fails.
	FaithfulnessFailureScore float64
	// RequestDeadline bounds the whole pipeline run.
	RequestDeadline time.Duration
	// StageTimeout is a single per-call budget. The pipeline does not read
	// it: each of its stages uses its own fixed budget.
	StageTimeout time.Duration
}

// Default returns the configuration with the defaults spec.md §6 enumerates.
func Default() *Config {
	return &Config{
		RetrieverTopK:            20,
		RetrieverFinalN:          6,
		FuzzyCacheThreshold:      0.92,
		RecentQueryWindow:        50,
		CacheTTL:                 1 * time.Hour,
		FaithfulThreshold:        0.7,
		DegradedFloor:            0.4,
		FaithfulnessFailureScore: 0.3,
		RequestDeadline:          60 * time.Second,
		StageTimeout:             10 * time.Second,
	}
}

// LoadEnv overlays environment variables (optionally sourced from a .env
// file at envPath) onto the defaults. A missing .env file is not an error —
// it simply means the process environment is used as-is.
func LoadEnv(envPath string) (*Config, error) {
	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("config: loading %s: %w", envPath, err)
		}
	}

	cfg := Default()

	if v, ok := lookupInt("CLIMATE_RETRIEVER_TOP_K"); ok {
		cfg.RetrieverTopK = v
	}
	if v, ok := lookupInt("CLIMATE_RETRIEVER_FINAL_N"); ok {
		cfg.RetrieverFinalN = v
	}
	if v, ok := lookupFloat("CLIMATE_FUZZY_CACHE_THRESHOLD"); ok {
		cfg.FuzzyCacheThreshold = v
	}
	if v, ok := lookupInt("CLIMATE_RECENT_QUERY_WINDOW"); ok {
		cfg.RecentQueryWindow = v
	}
	if v, ok := lookupDuration("CLIMATE_CACHE_TTL"); ok {
		cfg.CacheTTL = v
	}
	if v, ok := lookupFloat("CLIMATE_FAITHFUL_THRESHOLD"); ok {
		cfg.FaithfulThreshold = v
	}
	if v, ok := lookupFloat("CLIMATE_DEGRADED_FLOOR"); ok {
		cfg.DegradedFloor = v
	}
	if v, ok := lookupFloat("CLIMATE_FAITHFULNESS_FAILURE_SCORE"); ok {
		cfg.FaithfulnessFailureScore = v
	}
	if v, ok := lookupDuration("CLIMATE_REQUEST_DEADLINE"); ok {
		cfg.RequestDeadline = v
	}
	if v, ok := lookupDuration("CLIMATE_STAGE_TIMEOUT"); ok {
		cfg.StageTimeout = v
	}

	return cfg, nil
}

func lookupInt(key string) (int, bool) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

func lookupFloat(key string) (float64, bool) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func lookupDuration(key string) (time.Duration, bool) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return 0, false
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}
