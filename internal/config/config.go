package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

// Config is the top-level configuration loaded from file/env.
type Config struct {
	DefaultSessionName string        `json:"defaultSessionName"`
	ProbeDefaults      ProbeDefaults `json:"probeDefaults"`
}

// ProbeDefaults captures baseline probe sizing used when sessions are
// created. Probes embedded in instrumented programs enforce their own
// limits; these values are recorded for operators.
type ProbeDefaults struct {
	LogCapacity int `json:"logCapacity"`
	MaxClocks   int `json:"maxClocks"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		DefaultSessionName: "default",
		ProbeDefaults: ProbeDefaults{
			LogCapacity: 1024,
			MaxClocks:   32,
		},
	}
}

// Load reads configuration from a JSON file. If path is empty, returns
// defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		return Config{}, errors.New("yaml config not supported; use JSON")
	default:
		if err := json.Unmarshal(b, &cfg); err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}
