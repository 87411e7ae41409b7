package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/signalmesh/trafficctl/internal/coordinator"
)

// decisionctl config.toml key mapping onto loop runtime settings.
type fileConfig struct {
	BackendURL       string  `toml:"backend_url"`
	Policy           string  `toml:"policy"`
	IntervalSec      float64 `toml:"interval_s"`
	BeaconPollMS     int     `toml:"beacon_poll_ms"`
	RequestTimeoutMS int     `toml:"request_timeout_ms"`
}

// runtimeConfig is the fully resolved decisionctl setup.
type runtimeConfig struct {
	BackendURL string
	PolicyName string
	Loop       coordinator.Config
}

func defaultRuntimeConfig() runtimeConfig {
	return runtimeConfig{
		BackendURL: "http://localhost:5000",
		PolicyName: "queue_weighted",
		Loop:       coordinator.DefaultConfig(),
	}
}

// loadRuntimeConfig overlays file keys onto defaults; omitted keys
// keep their default values.
func loadRuntimeConfig(path string) (runtimeConfig, error) {
	cfg := defaultRuntimeConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return runtimeConfig{}, fmt.Errorf("load decision config: %w", err)
	}

	if meta.IsDefined("backend_url") {
		cfg.BackendURL = strings.TrimSpace(raw.BackendURL)
	}
	if meta.IsDefined("policy") {
		cfg.PolicyName = strings.TrimSpace(raw.Policy)
	}
	if meta.IsDefined("interval_s") {
		cfg.Loop.Interval = time.Duration(raw.IntervalSec * float64(time.Second))
	}
	if meta.IsDefined("beacon_poll_ms") {
		cfg.Loop.BeaconPoll = time.Duration(raw.BeaconPollMS) * time.Millisecond
	}
	if meta.IsDefined("request_timeout_ms") {
		cfg.Loop.RequestTimeout = time.Duration(raw.RequestTimeoutMS) * time.Millisecond
	}

	if cfg.BackendURL == "" {
		return runtimeConfig{}, fmt.Errorf("load decision config: backend_url is required")
	}
	if cfg.Loop.Interval <= 0 {
		return runtimeConfig{}, fmt.Errorf("load decision config: interval_s must be positive")
	}
	return cfg, nil
}
