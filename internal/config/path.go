package config

import (
	"os"
	"path/filepath"
)

// DefaultDataDir resolves where the collector keeps its store when no
// --data-dir is given. The collector targets Linux and macOS hosts:
// XDG_DATA_HOME wins when set, then the conventional system dir, then the
// macOS application-support dir, with ~/.causeway as the last resort.
func DefaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "causeway")
	}

	homeDir, err := os.UserHomeDir()
	if err != nil || homeDir == "" {
		return "./data"
	}

	if isDir("/var/lib") {
		return "/var/lib/causeway"
	}
	if isDir(filepath.Join(homeDir, "Library")) {
		return filepath.Join(homeDir, "Library", "Application Support", "Causeway")
	}
	return filepath.Join(homeDir, ".causeway")
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}
