package config

import (
	"os"
	"strconv"
)

// FromEnv overlays CAUSEWAY_* environment variables onto cfg.
func FromEnv(cfg *Config) {
	if v := os.Getenv("CAUSEWAY_DEFAULT_SESSION_NAME"); v != "" {
		cfg.DefaultSessionName = v
	}
	if v := os.Getenv("CAUSEWAY_PROBE_DEFAULTS_LOG_CAPACITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.ProbeDefaults.LogCapacity = n
		}
	}
	if v := os.Getenv("CAUSEWAY_PROBE_DEFAULTS_MAX_CLOCKS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.ProbeDefaults.MaxClocks = n
		}
	}
}
