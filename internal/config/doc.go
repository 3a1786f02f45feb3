// Package config loads collector configuration from a JSON file with
// CAUSEWAY_* environment variable overlays on top.
package config
